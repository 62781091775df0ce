// Package discord provides a sarah.Adapter implementation for Discord.
//
// This package bridges go-sarah's bot framework with Discord using discordgo
// for the underlying API integration. Plain messages become *Input, while slash
// commands and button clicks become *InteractionInput. Interactions are
// acknowledged with a deferred reply before being enqueued, so the command's
// sarah.Output later edits that reply in place.
//
// Besides sarah.Adapter, Adapter offers the few chat primitives multi-step
// flows need: direct messages, follow-ups, replies and a timed single-shot
// message collector (AwaitMessage).
package discord

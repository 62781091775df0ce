package command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/bagcord/bagcord-discord/internal/bags"
	"github.com/bagcord/bagcord-discord/internal/security"
)

const (
	colorInfo     = 0x0099FF
	colorFees     = 0x00FF99
	colorEvents   = 0xFF9900
	colorCreators = 0xFF0099
	colorQuote    = 0xFF9900
	colorClaim    = 0x9900FF
	colorSuccess  = 0x00FF00
	colorLaunch   = 0xFFD700
	colorHelp     = 0x5865F2

	footerReadOnly = "✅ Safe Command - Read Only"
	footerBuilt    = "🔒 Transaction built - Sign in your wallet"

	blankField = "\u200b"
)

func field(name string, value string, inline bool) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline}
}

func spacer() *discordgo.MessageEmbedField {
	return field(blankField, blankField, true)
}

func sol(lamports bags.Lamports) string {
	return security.ToDisplayUnits(uint64(lamports)) + " SOL"
}

func code(s string) string {
	return "`" + s + "`"
}

func short(address string) string {
	return code(security.TruncateAddress(address, 4))
}

func embedMessage(embeds ...*discordgo.MessageEmbed) *discordgo.MessageSend {
	return &discordgo.MessageSend{Embeds: embeds}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

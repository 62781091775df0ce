package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/oklahomer/go-kasumi/logger"
	"golang.org/x/sync/errgroup"

	"github.com/bagcord/bagcord-discord"
	"github.com/bagcord/bagcord-discord/internal/bags"
	"github.com/bagcord/bagcord-discord/internal/security"
)

const (
	defaultClaimEventsLimit = 10
	maxClaimEventsLimit     = 25
	maxListedItems          = 10
	maxTokenCreators        = 3
)

// token fans out the three read-only lookups and renders whatever succeeded.
func (h *Handler) token(ctx context.Context, input *discord.InteractionInput) (interface{}, error) {
	mint, err := mintOption(input)
	if err != nil {
		return nil, err
	}

	var (
		fees     bags.Lamports
		stats    []bags.ClaimStat
		creators []bags.Creator

		feesErr, statsErr, creatorsErr error
	)

	// Each lookup keeps its own error so one failure does not hide the others.
	var group errgroup.Group
	group.Go(func() error {
		fees, feesErr = h.api.LifetimeFees(ctx, mint)
		return nil
	})
	group.Go(func() error {
		stats, statsErr = h.api.ClaimStats(ctx, mint)
		return nil
	})
	group.Go(func() error {
		creators, creatorsErr = h.api.LaunchCreators(ctx, mint)
		return nil
	})
	_ = group.Wait()

	embed := &discordgo.MessageEmbed{
		Title: "🪙 Token Information",
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			field("Token Mint", code(mint), false),
			field("Short Address", security.TruncateAddress(mint, 6), true),
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: footerReadOnly},
		Timestamp: h.timestamp(),
	}

	if feesErr == nil {
		embed.Fields = append(embed.Fields, field("Lifetime Fees", sol(fees), true))
	} else {
		logger.Warnf("Skipping lifetime fees of %s: %+v", mint, feesErr)
	}

	if statsErr == nil {
		if len(stats) > 0 {
			var total bags.Lamports
			for _, s := range stats {
				total += s.TotalClaimed
			}
			embed.Fields = append(embed.Fields,
				field("Total Claimers", fmt.Sprintf("%d", len(stats)), true),
				field("Total Claimed", sol(total), true),
			)
		}
	} else {
		logger.Warnf("Skipping claim stats of %s: %+v", mint, statsErr)
	}

	if creatorsErr == nil {
		if len(creators) > 0 {
			lines := make([]string, 0, maxTokenCreators)
			for i, c := range creators {
				if i == maxTokenCreators {
					break
				}
				lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, short(c.Wallet), orUnknown(c.Provider)))
			}
			embed.Fields = append(embed.Fields, field("Creators", strings.Join(lines, "\n"), false))
		}
	} else {
		logger.Warnf("Skipping creators of %s: %+v", mint, creatorsErr)
	}

	return embedMessage(embed), nil
}

func (h *Handler) fees(ctx context.Context, input *discord.InteractionInput) (interface{}, error) {
	mint, err := mintOption(input)
	if err != nil {
		return nil, err
	}

	fees, err := h.api.LifetimeFees(ctx, mint)
	if err != nil {
		return nil, err
	}

	return embedMessage(&discordgo.MessageEmbed{
		Title: "💎 Token Lifetime Fees",
		Color: colorFees,
		Fields: []*discordgo.MessageEmbedField{
			field("Token", code(security.TruncateAddress(mint, 6)), false),
			field("Total Fees", sol(fees), true),
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: footerReadOnly},
		Timestamp: h.timestamp(),
	}), nil
}

func (h *Handler) claimEvents(ctx context.Context, input *discord.InteractionInput) (interface{}, error) {
	mint, err := mintOption(input)
	if err != nil {
		return nil, err
	}

	limit := defaultClaimEventsLimit
	if l, ok := input.IntOption("limit"); ok && l > 0 {
		limit = int(min(l, maxClaimEventsLimit))
	}

	events, err := h.api.ClaimEvents(ctx, mint, bags.ClaimEventsOptions{Limit: limit})
	if err != nil {
		return nil, err
	}

	if len(events) == 0 {
		return "No claim events found for this token.", nil
	}

	embed := &discordgo.MessageEmbed{
		Title: "📜 Token Claim Events",
		Color: colorEvents,
		Fields: []*discordgo.MessageEmbedField{
			field("Token", code(security.TruncateAddress(mint, 6)), false),
		},
		Timestamp: h.timestamp(),
	}

	shown := min(len(events), maxListedItems)
	for i, e := range events[:shown] {
		date := "Unknown"
		if !e.Timestamp.IsZero() {
			date = e.Timestamp.Format("2006-01-02")
		}
		embed.Fields = append(embed.Fields, field(
			fmt.Sprintf("Claim %d", i+1),
			fmt.Sprintf("Claimer: %s\nAmount: %s\nDate: %s", short(orUnknown(e.Claimer)), sol(e.Amount), date),
			true,
		))
	}
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("%s • Showing %d of %d events", footerReadOnly, shown, len(events)),
	}

	return embedMessage(embed), nil
}

func (h *Handler) creators(ctx context.Context, input *discord.InteractionInput) (interface{}, error) {
	mint, err := mintOption(input)
	if err != nil {
		return nil, err
	}

	creators, err := h.api.LaunchCreators(ctx, mint)
	if err != nil {
		return nil, err
	}

	embed := &discordgo.MessageEmbed{
		Title: "👥 Token Launch Creators",
		Color: colorCreators,
		Fields: []*discordgo.MessageEmbedField{
			field("Token", code(security.TruncateAddress(mint, 6)), false),
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: footerReadOnly},
		Timestamp: h.timestamp(),
	}

	if len(creators) == 0 {
		embed.Fields = append(embed.Fields, field("Creators", "No creators found", false))
		return embedMessage(embed), nil
	}

	for i, c := range creators[:min(len(creators), maxListedItems)] {
		embed.Fields = append(embed.Fields, field(
			fmt.Sprintf("Creator %d", i+1),
			fmt.Sprintf("%s\nWallet: %s\nProvider: %s", c.DisplayName(), short(orUnknown(c.Wallet)), orUnknown(c.Provider)),
			true,
		))
	}

	return embedMessage(embed), nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

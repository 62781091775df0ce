package command

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/bagcord/bagcord-discord"
	"github.com/bagcord/bagcord-discord/internal/bags"
	"github.com/bagcord/bagcord-discord/internal/security"
)

const noPositionsMessage = "💰 No claimable positions found for this wallet."

func (h *Handler) claimable(ctx context.Context, input *discord.InteractionInput) (interface{}, error) {
	wallet, err := walletOption(input)
	if err != nil {
		return nil, err
	}

	positions, err := h.api.ClaimablePositions(ctx, wallet)
	if err != nil {
		return nil, err
	}

	if len(positions) == 0 {
		return noPositionsMessage, nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       "💰 Claimable Fee Positions",
		Description: "**These are your claimable fee positions. Use `/claim` to build claim transactions.**",
		Color:       colorClaim,
		Fields: []*discordgo.MessageEmbedField{
			field("Wallet", code(security.TruncateAddress(wallet, 6)), false),
			field("Total Positions", fmt.Sprintf("%d", len(positions)), true),
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: footerReadOnly},
		Timestamp: h.timestamp(),
	}

	var total bags.Lamports
	for i, p := range positions {
		total += p.TotalClaimableLamportsUserShare
		if i >= maxListedItems {
			continue
		}
		embed.Fields = append(embed.Fields, field(
			fmt.Sprintf("Position %d", i+1),
			fmt.Sprintf("Token: %s\nAmount: %s\nType: %s", short(orUnknown(p.BaseMint)), sol(p.TotalClaimableLamportsUserShare), p.PoolType()),
			true,
		))
	}

	if len(positions) > maxListedItems {
		embed.Fields = append(embed.Fields, field("More Positions", fmt.Sprintf("+ %d more positions", len(positions)-maxListedItems), false))
	}
	embed.Fields = append(embed.Fields, field("Total Claimable", sol(total), false))

	return embedMessage(embed), nil
}

func (h *Handler) claim(ctx context.Context, input *discord.InteractionInput) (interface{}, error) {
	if !input.IsDirectMessage() {
		return h.redirectToDM(ctx, input, "claim"), nil
	}

	wallet, err := walletOption(input)
	if err != nil {
		return nil, err
	}

	tokenMint, err := addressOption(input, "token", "Invalid token mint address format")
	if err != nil {
		return nil, err
	}

	if h.denylist.Contains(tokenMint) {
		return nil, &PolicyError{Message: "This token is denied (potential scam)"}
	}

	reservation, err := h.acquire(h.users, input.UserID(), security.ActionClaim, "Cooldown")
	if err != nil {
		return nil, err
	}

	positions, err := h.api.ClaimablePositions(ctx, wallet)
	if err != nil {
		reservation.Release()
		return nil, err
	}
	if len(positions) == 0 {
		reservation.Release()
		return noPositionsMessage, nil
	}

	req := bags.ClaimRequest{
		FeeClaimer:           wallet,
		TokenMint:            tokenMint,
		ClaimVirtualPoolFees: true,
		ClaimDammV2Fees:      true,
	}
	for _, p := range positions {
		if p.BaseMint == tokenMint {
			req.VirtualPoolAddress = p.VirtualPoolAddress
			break
		}
	}

	txs, err := h.api.ClaimTransactions(ctx, req)
	if err != nil {
		reservation.Release()
		return nil, err
	}
	if len(txs) == 0 {
		reservation.Release()
		return "❌ No claim transactions to build", nil
	}
	reservation.Commit()

	token := security.TruncateAddress(tokenMint, 4)
	amount := plural(len(positions), "position")

	var fields []*discordgo.MessageEmbedField
	if len(txs) > 1 {
		fields = append(fields, field(
			"Multiple Transactions",
			fmt.Sprintf("This claim requires %d transactions. Showing the first one.", len(txs)),
			false,
		))
	}

	return h.transactionMessage(txs[0], txDetails{
		title:   "✅ Claim Transaction Ready",
		summary: fmt.Sprintf("💰 **Claim Fees**\nToken: `%s`\nAmount: %s", token, amount),
		fields:  fields,
		meta:    SigningMetadata{Action: "claim", Token: tokenMint, Amount: amount},
	}), nil
}

package command

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/oklahomer/go-kasumi/logger"

	"github.com/bagcord/bagcord-discord"
	"github.com/bagcord/bagcord-discord/internal/bags"
	"github.com/bagcord/bagcord-discord/internal/security"
)

const (
	defaultSlippageBps = 100
	maxSlippageBps     = 10_000
)

// QuoteDraft is a quote awaiting /swap.
type QuoteDraft struct {
	Quote         *bags.Quote
	InputMint     string
	OutputMint    string
	Amount        int64
	DisplayAmount float64
	SlippageBps   int
}

func (h *Handler) quote(ctx context.Context, input *discord.InteractionInput) (interface{}, error) {
	inputMint := stringOption(input, "from")
	outputMint := stringOption(input, "to")
	if !security.IsValidAddress(inputMint) || !security.IsValidAddress(outputMint) {
		return nil, &ValidationError{Message: "Invalid Solana address format"}
	}

	if h.denylist.ContainsAny(inputMint, outputMint) {
		return nil, &PolicyError{Message: "One or more tokens are denied (potential scam)"}
	}

	amount, err := strconv.ParseFloat(stringOption(input, "amount"), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, &ValidationError{Message: "Invalid amount"}
	}

	// SOL amounts are given in display units; any other token in raw units.
	var baseUnits int64
	if inputMint == bags.WrappedSOLMint {
		baseUnits = security.ToBaseUnits(amount)
	} else {
		baseUnits = int64(math.Floor(amount))
	}
	if baseUnits <= 0 {
		return nil, &ValidationError{Message: "Invalid amount"}
	}

	slippage := defaultSlippageBps
	if s, ok := input.IntOption("slippage"); ok && s != 0 {
		if s < 0 || s > maxSlippageBps {
			return nil, &ValidationError{Message: fmt.Sprintf("Slippage must be between 1 and %d basis points", maxSlippageBps)}
		}
		slippage = int(s)
	}

	reservation, err := h.acquire(h.users, input.UserID(), security.ActionQuote, "Cooldown")
	if err != nil {
		return nil, err
	}

	quote, err := h.api.TradeQuote(ctx, bags.QuoteRequest{
		InputMint:   inputMint,
		OutputMint:  outputMint,
		Amount:      baseUnits,
		SlippageBps: slippage,
	})
	if err != nil {
		reservation.Release()
		return nil, err
	}

	quoteID, err := h.quotes.Create(&QuoteDraft{
		Quote:         quote,
		InputMint:     inputMint,
		OutputMint:    outputMint,
		Amount:        baseUnits,
		DisplayAmount: amount,
		SlippageBps:   slippage,
	}, input.UserID(), h.quoteTTL)
	if err != nil {
		reservation.Release()
		return nil, err
	}
	reservation.Commit()

	unit := "tokens"
	if inputMint == bags.WrappedSOLMint {
		unit = "SOL"
	}

	priceImpact := "N/A"
	if quote.PriceImpact != nil {
		priceImpact = fmt.Sprintf("%.2f%%", float64(*quote.PriceImpact))
	}

	return embedMessage(&discordgo.MessageEmbed{
		Title:       "💱 Trade Quote",
		Description: "**⚠️ This is a preview only. No transaction has been created yet.**",
		Color:       colorQuote,
		Fields: []*discordgo.MessageEmbedField{
			field("From Token", short(inputMint), true),
			field("To Token", short(outputMint), true),
			spacer(),
			field("Input Amount", fmt.Sprintf("%s %s", strconv.FormatFloat(amount, 'f', -1, 64), unit), true),
			field("Output Amount", security.ToDisplayUnits(uint64(quote.OutputAmount)), true),
			spacer(),
			field("Price Impact", priceImpact, true),
			field("Slippage", fmt.Sprintf("%.2f%%", float64(slippage)/100), true),
			spacer(),
			field("📝 Next Steps", fmt.Sprintf(
				"Use `/swap` with your Quote ID to generate the transaction.\nQuote ID: `%s`\nExpires in %s.",
				quoteID, security.FormatRemaining(int(h.quoteTTL.Seconds())),
			), false),
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "✅ Safe Command - No transaction created yet"},
		Timestamp: h.timestamp(),
	}), nil
}

// redirectToDM tells the user that command only runs in direct messages and opens one.
func (h *Handler) redirectToDM(ctx context.Context, input *discord.InteractionInput, command string) string {
	notice := "🔒 For security, transaction building is only available in DMs. I'll send you a DM."

	_, err := h.messenger.SendDirect(ctx, input.UserID(), &discordgo.MessageSend{
		Content: fmt.Sprintf("Use `/%s` here to build your transaction safely.", command),
	})
	if err != nil {
		logger.Warnf("Failed to open DM with %s: %+v", input.UserID(), err)
		return notice + "\n\n❌ I couldn't send you a DM. Please enable DMs from server members and try again."
	}
	return notice
}

func (h *Handler) swap(ctx context.Context, input *discord.InteractionInput) (interface{}, error) {
	if !input.IsDirectMessage() {
		return h.redirectToDM(ctx, input, "swap"), nil
	}

	wallet, err := walletOption(input)
	if err != nil {
		return nil, err
	}

	quoteID := stringOption(input, "quote-id")
	draft, err := h.quotes.Peek(quoteID, input.UserID())
	if err != nil {
		return nil, &SessionError{Kind: quoteKind, Err: err}
	}

	if h.denylist.ContainsAny(draft.InputMint, draft.OutputMint) {
		return nil, &PolicyError{Message: "One or more tokens are denied (potential scam)"}
	}

	reservation, err := h.acquire(h.users, input.UserID(), security.ActionSwap, "Cooldown")
	if err != nil {
		return nil, err
	}

	tx, err := h.api.SwapTransaction(ctx, draft.Quote, wallet)
	if err != nil {
		reservation.Release()
		return nil, err
	}

	// The quote may have expired or been used while the transaction was built.
	if _, err := h.quotes.Consume(quoteID, input.UserID()); err != nil {
		reservation.Release()
		return nil, &SessionError{Kind: quoteKind, Err: err}
	}
	reservation.Commit()

	from := security.TruncateAddress(draft.InputMint, 4)
	to := security.TruncateAddress(draft.OutputMint, 4)
	amount := strconv.FormatInt(draft.Amount, 10)

	return h.transactionMessage(tx, txDetails{
		title:   "✅ Swap Transaction Ready",
		summary: fmt.Sprintf("🔄 **Swap**\nFrom: `%s`\nTo: `%s`\nAmount: %s", from, to, amount),
		meta:    SigningMetadata{Action: "swap", Token: draft.OutputMint, Amount: amount},
	}), nil
}

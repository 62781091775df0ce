package command

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/oklahomer/go-kasumi/logger"

	"github.com/bagcord/bagcord-discord"
	"github.com/bagcord/bagcord-discord/internal/bags"
	"github.com/bagcord/bagcord-discord/internal/security"
	"github.com/bagcord/bagcord-discord/internal/session"
)

const (
	maxSymbolLength = 10
	maxNameLength   = 32

	fullShareBps = 10_000

	confirmAction = "confirm"
	cancelAction  = "cancel"

	dmFailedMessage = "❌ I couldn't send you a DM. Please enable DMs from server members and try again."
)

var launchButtonPattern = regexp.MustCompile(`^launch:(confirm|cancel):(\S+)$`)

// LaunchState is the position of a launch draft in the wizard.
type LaunchState int

const (
	// AwaitingConfirmation is a previewed draft waiting for Confirm or Cancel.
	AwaitingConfirmation LaunchState = iota
	// AwaitingWallet is a confirmed draft waiting for the creator wallet reply.
	AwaitingWallet
)

func (s LaunchState) String() string {
	switch s {
	case AwaitingConfirmation:
		return "awaiting confirmation"
	case AwaitingWallet:
		return "awaiting wallet"
	default:
		return "unknown"
	}
}

// LaunchDraft is the state of one launch wizard.
// GuildID is empty when the wizard was started in a direct message.
type LaunchDraft struct {
	Token   bags.TokenInfoRequest
	GuildID string
	State   LaunchState
}

var errAlreadyConfirmed = errors.New("launch is already confirmed")

func launchButtonID(action string, draftID string) string {
	return "launch:" + action + ":" + draftID
}

func (h *Handler) launchCommand(ctx context.Context, input *discord.InteractionInput) (interface{}, error) {
	if !h.launch.IsAuthorized(input.RoleIDs()) {
		return nil, &PolicyError{Message: "You don't have permission to use this command. Contact a server admin."}
	}

	if err := h.check(h.users, input.UserID(), security.ActionLaunch, "Launch cooldown"); err != nil {
		return nil, err
	}

	if !input.IsDirectMessage() {
		if err := h.check(h.servers, input.GuildID(), security.ActionLaunch, "Server launch cooldown"); err != nil {
			return nil, err
		}
	}

	token := bags.TokenInfoRequest{
		Name:        stringOption(input, "name"),
		Symbol:      stringOption(input, "symbol"),
		Description: stringOption(input, "description"),
		ImageURL:    stringOption(input, "image-url"),
		Twitter:     strings.TrimPrefix(stringOption(input, "twitter"), "@"),
		Telegram:    stringOption(input, "telegram"),
		Website:     stringOption(input, "website"),
	}
	if err := validateToken(token); err != nil {
		return nil, err
	}

	draftID, err := h.launches.Create(&LaunchDraft{
		Token:   token,
		GuildID: input.GuildID(),
		State:   AwaitingConfirmation,
	}, input.UserID(), h.launchDraftTTL)
	if err != nil {
		return nil, err
	}

	preview := h.launchPreview(token, draftID)
	if input.IsDirectMessage() {
		return preview, nil
	}

	if _, err := h.messenger.SendDirect(ctx, input.UserID(), preview); err != nil {
		logger.Warnf("Failed to send launch preview to %s: %+v", input.UserID(), err)
		if _, consumeErr := h.launches.Consume(draftID, input.UserID()); consumeErr != nil {
			logger.Debugf("Launch draft %s already gone: %+v", draftID, consumeErr)
		}
		return dmFailedMessage, nil
	}
	return "🔒 For security, I'll continue the launch process in your DMs.", nil
}

func validateToken(token bags.TokenInfoRequest) error {
	switch {
	case token.Name == "" || token.Symbol == "" || token.Description == "":
		return &ValidationError{Message: "Token name, symbol and description are required"}
	case utf8.RuneCountInString(token.Symbol) > maxSymbolLength:
		return &ValidationError{Message: fmt.Sprintf("Token symbol must be %d characters or less", maxSymbolLength)}
	case utf8.RuneCountInString(token.Name) > maxNameLength:
		return &ValidationError{Message: fmt.Sprintf("Token name must be %d characters or less", maxNameLength)}
	default:
		return nil
	}
}

func (h *Handler) launchPreview(token bags.TokenInfoRequest, draftID string) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:       "🚀 Token Launch Preview",
		Description: "**⚠️ Review carefully before confirming**",
		Color:       colorLaunch,
		Fields: []*discordgo.MessageEmbedField{
			field("Name", token.Name, true),
			field("Symbol", token.Symbol, true),
			spacer(),
			field("Description", token.Description, false),
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Click Confirm to proceed to transaction building"},
		Timestamp: h.timestamp(),
	}

	if token.ImageURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: token.ImageURL}
	}

	var socials []string
	if token.Twitter != "" {
		socials = append(socials, "Twitter: @"+token.Twitter)
	}
	if token.Telegram != "" {
		socials = append(socials, "Telegram: "+token.Telegram)
	}
	if token.Website != "" {
		socials = append(socials, "Website: "+token.Website)
	}
	if len(socials) > 0 {
		embed.Fields = append(embed.Fields, field("Socials", strings.Join(socials, "\n"), false))
	}

	embed.Fields = append(embed.Fields, field(
		"⚠️ Security Checklist",
		"✅ You control the creator wallet\n✅ You will sign the transaction\n✅ The bot never holds your keys\n✅ You understand the launch process",
		false,
	))

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "✅ Confirm Launch",
						Style:    discordgo.SuccessButton,
						CustomID: launchButtonID(confirmAction, draftID),
					},
					discordgo.Button{
						Label:    "❌ Cancel",
						Style:    discordgo.DangerButton,
						CustomID: launchButtonID(cancelAction, draftID),
					},
				},
			},
		},
	}
}

// launchButton handles Confirm and Cancel on a launch preview.
// Clicks by anyone but the owner get a private notice and leave the draft untouched.
func (h *Handler) launchButton(ctx context.Context, input *discord.InteractionInput) (interface{}, error) {
	match := launchButtonPattern.FindStringSubmatch(input.CustomID())
	if match == nil {
		return nil, nil
	}
	action, draftID := match[1], match[2]

	if action == cancelAction {
		if _, err := h.launches.Consume(draftID, input.UserID()); err != nil {
			return h.launchSessionFailure(ctx, input, err)
		}
		return "❌ Token launch cancelled.", nil
	}

	err := h.launches.Update(draftID, input.UserID(), h.walletTimeout, func(draft *LaunchDraft) (*LaunchDraft, error) {
		if draft.State != AwaitingConfirmation {
			return nil, errAlreadyConfirmed
		}
		next := *draft
		next.State = AwaitingWallet
		return &next, nil
	})
	if errors.Is(err, errAlreadyConfirmed) {
		h.notify(ctx, input.Interaction(), "⏳ Already waiting for your creator wallet address.")
		return nil, nil
	}
	if err != nil {
		return h.launchSessionFailure(ctx, input, err)
	}

	h.wg.Add(1)
	go h.collectWallet(ctx, input.Interaction(), input.ChannelID(), input.UserID(), draftID)

	return fmt.Sprintf(
		"📝 Please reply with your **creator wallet address** (the wallet that will sign and launch the token) within %s:",
		security.FormatRemaining(int(h.walletTimeout.Seconds())),
	), nil
}

// launchSessionFailure keeps another user's draft on screen and reports everything else in place.
func (h *Handler) launchSessionFailure(ctx context.Context, input *discord.InteractionInput, err error) (interface{}, error) {
	sessionErr := &SessionError{Kind: launchKind, Err: err}
	if errors.Is(err, session.ErrForbidden) {
		h.notify(ctx, input.Interaction(), userMessage(sessionErr))
		return nil, nil
	}
	return nil, sessionErr
}

// notify sends a private follow-up to an interaction.
func (h *Handler) notify(ctx context.Context, interaction *discordgo.Interaction, content string) {
	err := h.messenger.FollowUp(ctx, interaction, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		logger.Errorf("Failed to send follow-up: %+v", err)
	}
}

// collectWallet waits for the owner's wallet reply and builds the launch transaction.
// The draft is gone when this returns, whatever the outcome.
func (h *Handler) collectWallet(ctx context.Context, interaction *discordgo.Interaction, channelID string, userID string, draftID string) {
	defer h.wg.Done()

	msg, err := h.messenger.AwaitMessage(ctx, channelID, userID, h.walletTimeout)
	if err != nil {
		if _, consumeErr := h.launches.Consume(draftID, userID); consumeErr != nil {
			logger.Debugf("Launch draft %s already gone: %+v", draftID, consumeErr)
		}

		if ctx.Err() != nil {
			return
		}

		notice := "⏱️ Wallet address collection timed out. Please try `/launch` again."
		result := "timeout"
		switch {
		case errors.Is(err, discord.ErrCollectAborted):
			notice = "❌ Token launch cancelled."
			result = "aborted"
		case errors.Is(err, discord.ErrCollectorBusy):
			notice = "❌ I'm already waiting for another reply from you here. Please try `/launch` again later."
			result = "busy"
		}
		h.metrics.CommandHandled("launch-wallet", result)

		if err := h.messenger.FollowUp(ctx, interaction, &discordgo.WebhookParams{Content: notice}); err != nil {
			logger.Errorf("Failed to send wallet collection notice: %+v", err)
		}
		return
	}

	reply := func(content interface{}) {
		var send *discordgo.MessageSend
		switch c := content.(type) {
		case string:
			send = &discordgo.MessageSend{Content: c}
		case *discordgo.MessageSend:
			send = c
		}
		if err := h.messenger.Reply(ctx, msg.ChannelID, msg.ID, send); err != nil {
			logger.Errorf("Failed to reply to wallet message: %+v", err)
		}
	}

	content, err := h.buildLaunch(ctx, strings.TrimSpace(msg.Content), userID, draftID, func() {
		reply("⏳ Building your token launch transaction...")
	})
	h.metrics.CommandHandled("launch-wallet", outcome(err))
	if err != nil {
		logger.Warnf("Launch build failed for %s: %+v", userID, err)
		content = userMessage(err)
	}
	reply(content)
}

// buildLaunch consumes the draft and builds the launch transaction for wallet.
// building is called once every local check passed, right before the remote calls start.
func (h *Handler) buildLaunch(ctx context.Context, wallet string, userID string, draftID string, building func()) (interface{}, error) {
	draft, err := h.launches.Consume(draftID, userID)
	if err != nil {
		return nil, &SessionError{Kind: launchKind, Err: err}
	}

	if !security.IsValidAddress(wallet) {
		return nil, &ValidationError{Message: "Invalid wallet address. Please try the `/launch` command again."}
	}

	userReservation, err := h.acquire(h.users, userID, security.ActionLaunch, "Launch cooldown")
	if err != nil {
		return nil, err
	}

	var serverReservation *security.Reservation
	if draft.GuildID != "" {
		serverReservation, err = h.acquire(h.servers, draft.GuildID, security.ActionLaunch, "Server launch cooldown")
		if err != nil {
			userReservation.Release()
			return nil, err
		}
	}

	building()

	info, tx, err := h.launchTransaction(ctx, draft.Token, wallet)
	if err != nil {
		userReservation.Release()
		serverReservation.Release()
		return nil, err
	}
	userReservation.Commit()
	serverReservation.Commit()

	return h.transactionMessage(tx, txDetails{
		title:   "✅ Token Launch Transaction Ready",
		summary: fmt.Sprintf("🚀 **Launch Token**\nName: %s\nSymbol: %s", draft.Token.Name, draft.Token.Symbol),
		fields: []*discordgo.MessageEmbedField{
			field("Token Mint", code(info.TokenMint), false),
			field("Creator Wallet", short(wallet), false),
		},
		meta: SigningMetadata{Action: "launch", Token: info.TokenMint},
	}), nil
}

// launchTransaction creates the token metadata, a fee share config that pays every fee to the creator
// and finally the unsigned launch transaction.
func (h *Handler) launchTransaction(ctx context.Context, token bags.TokenInfoRequest, wallet string) (*bags.TokenInfo, string, error) {
	info, err := h.api.CreateTokenInfo(ctx, token)
	if err != nil {
		return nil, "", err
	}

	feeShare, err := h.api.CreateFeeShareConfig(ctx, bags.FeeShareConfigRequest{
		Payer:            wallet,
		BaseMint:         info.TokenMint,
		ClaimersArray:    []string{wallet},
		BasisPointsArray: []int{fullShareBps},
	})
	if err != nil {
		return nil, "", err
	}

	tx, err := h.api.LaunchTransaction(ctx, bags.LaunchTransactionRequest{
		IPFS:               info.TokenMetadata,
		TokenMint:          info.TokenMint,
		Wallet:             wallet,
		InitialBuyLamports: 0,
		ConfigKey:          feeShare.ConfigKey,
	})
	if err != nil {
		return nil, "", err
	}

	return info, tx, nil
}

package command

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const txPreviewLength = 100

// SigningMetadata describes an unsigned transaction for the external signer.
type SigningMetadata struct {
	Action string
	Token  string
	Amount string
}

// SigningURL appends the transaction and its metadata to signerURL as query parameters.
// Empty metadata is omitted and a missing action is sent as "unknown".
func SigningURL(signerURL string, tx string, meta SigningMetadata) string {
	action := meta.Action
	if action == "" {
		action = "unknown"
	}

	query := url.Values{}
	query.Set("tx", tx)
	query.Set("action", action)
	if meta.Token != "" {
		query.Set("token", meta.Token)
	}
	if meta.Amount != "" {
		query.Set("amount", meta.Amount)
	}

	separator := "?"
	if strings.Contains(signerURL, "?") {
		separator = "&"
	}
	return signerURL + separator + query.Encode()
}

// txDetails is the action specific part of a transaction message.
type txDetails struct {
	title   string
	summary string
	fields  []*discordgo.MessageEmbedField
	meta    SigningMetadata
}

// transactionMessage renders an unsigned transaction with a security reminder and a signing link.
func (h *Handler) transactionMessage(tx string, details txDetails) *discordgo.MessageSend {
	description := "**Transaction Details:**\n\n" + details.summary + "\n\n" +
		"⚠️ **Security Reminder:**\n" +
		"• Review all transaction details carefully\n" +
		"• Verify the token mint address\n" +
		"• Only sign if you understand what the transaction does\n" +
		"• This bot never holds your private keys\n"

	preview := tx
	if len(preview) > txPreviewLength {
		preview = preview[:txPreviewLength]
	}

	fields := append([]*discordgo.MessageEmbedField{}, details.fields...)
	fields = append(fields,
		field("Transaction (Base64)", fmt.Sprintf("```%s...```", preview), false),
		field("⚠️ Important", "**Review the transaction carefully before signing**\nThis bot never stores your private keys", false),
	)

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       details.title,
				Description: description,
				Color:       colorSuccess,
				Fields:      fields,
				Footer:      &discordgo.MessageEmbedFooter{Text: footerBuilt},
				Timestamp:   h.timestamp(),
			},
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label: "Sign Transaction",
						Style: discordgo.LinkButton,
						URL:   SigningURL(h.signerURL, tx, details.meta),
					},
				},
			},
		},
	}
}

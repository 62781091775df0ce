package command

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/bagcord/bagcord-discord"
)

func (h *Handler) help(_ context.Context, _ *discord.InteractionInput) (interface{}, error) {
	return embedMessage(&discordgo.MessageEmbed{
		Title:       "🤖 BagCord - Bags.fm Discord Bot",
		Description: "**A safe, non-custodial bot for Bags.fm API**\n\n🔒 This bot NEVER holds private keys or executes trades for you.\nIt only fetches data and builds unsigned transactions for you to sign.",
		Color:       colorHelp,
		Fields: []*discordgo.MessageEmbedField{
			field("📊 Analytics Commands (Safe - Read Only)",
				"`/token <mint>` - Get detailed token info\n`/fees <mint>` - Get lifetime fees\n`/claim-events <mint>` - Get claim history\n`/creators <mint>` - Get launch creators",
				false),
			field("💱 Trading Commands (Returns Unsigned TX)",
				"`/quote <from> <to> <amount>` - Get trade quote\n`/swap <quote-id> <wallet>` - Build swap transaction\n\n⚠️ Use in DMs for security",
				false),
			field("💰 Fee Claiming (Returns Unsigned TX)",
				"`/claimable <wallet>` - Check claimable positions\n`/claim <wallet> <token>` - Build claim transaction\n\n⚠️ Use in DMs for security",
				false),
			field("🚀 Token Launch (Returns Unsigned TX)",
				"`/launch` - Start token launch wizard\n\n⚠️ Requires role permissions\n⚠️ Has cooldowns to prevent spam",
				false),
			field("🔒 Security Features",
				"• All addresses validated (Base58)\n• Token denylist (scam protection)\n• Role-based permissions for launch\n• Cooldowns (user + server)\n• Two-step confirmations\n• Transaction building in DMs only",
				false),
			field("📝 How Transactions Work",
				"1. Bot builds unsigned transaction\n2. You receive Base64 transaction\n3. You sign in YOUR wallet (not the bot)\n4. You send the transaction\n\n**The bot NEVER has access to your private keys**",
				false),
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Powered by Bags.fm API | Non-custodial & Safe"},
		Timestamp: h.timestamp(),
	}), nil
}

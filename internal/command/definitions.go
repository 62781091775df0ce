package command

import (
	"github.com/bwmarrin/discordgo"

	"github.com/bagcord/bagcord-discord"
)

func stringOpt(name string, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func integerOpt(name string, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: description,
	}
}

func slash(name string, description string, ephemeral bool, options ...*discordgo.ApplicationCommandOption) *discord.ApplicationCommand {
	return &discord.ApplicationCommand{
		ApplicationCommand: &discordgo.ApplicationCommand{
			Name:        name,
			Description: description,
			Options:     options,
		},
		Ephemeral: ephemeral,
	}
}

// ApplicationCommands returns the slash command definitions to register with Discord.
// Commands that reveal wallets or build transactions reply ephemerally.
func ApplicationCommands() []*discord.ApplicationCommand {
	mint := func() *discordgo.ApplicationCommandOption {
		return stringOpt("mint", "Token mint address (Base58)", true)
	}

	limit := integerOpt("limit", "Number of events to fetch (max 25)")
	minLimit := 1.0
	limit.MinValue = &minLimit
	limit.MaxValue = maxClaimEventsLimit

	slippage := integerOpt("slippage", "Slippage tolerance in basis points (default: 100 = 1%)")
	slippage.MaxValue = maxSlippageBps

	symbol := stringOpt("symbol", "Token symbol", true)
	symbol.MaxLength = maxSymbolLength
	name := stringOpt("name", "Token name", true)
	name.MaxLength = maxNameLength

	return []*discord.ApplicationCommand{
		slash("token", "Get detailed token information and statistics", false, mint()),
		slash("fees", "Get lifetime fees for a token", false, mint()),
		slash("claim-events", "Get claim history for a token", false, mint(), limit),
		slash("creators", "Get launch creators for a token", false, mint()),
		slash("quote", "Get a trade quote (swap preview)", true,
			stringOpt("from", "Input token mint address", true),
			stringOpt("to", "Output token mint address", true),
			stringOpt("amount", "Amount in SOL or token units", true),
			slippage,
		),
		slash("swap", "Build swap transaction from quote (returns unsigned transaction)", true,
			stringOpt("quote-id", "Quote ID from /quote command", true),
			stringOpt("wallet", "Your wallet address (will sign the transaction)", true),
		),
		slash("claimable", "Check claimable fee positions for a wallet", true,
			stringOpt("wallet", "Wallet address (Base58)", true),
		),
		slash("claim", "Build claim transaction (returns unsigned transaction)", true,
			stringOpt("wallet", "Your wallet address (will sign the transaction)", true),
			stringOpt("token", "Token mint address to claim fees for", true),
		),
		slash("launch", "Start token launch wizard (requires permissions)", true,
			name,
			symbol,
			stringOpt("description", "Token description", true),
			stringOpt("image-url", "Token image URL", false),
			stringOpt("twitter", "Twitter handle (without @)", false),
			stringOpt("telegram", "Telegram link", false),
			stringOpt("website", "Website URL", false),
		),
		slash("help", "Show all available commands and bot information", true),
	}
}

package discord

import "github.com/bwmarrin/discordgo"

// Config contains configuration variables for the Discord Adapter.
type Config struct {
	// Token is the Discord bot token used for authentication.
	Token string `json:"token" yaml:"token" env:"DISCORD_TOKEN"`

	// ApplicationID is the application that owns the slash commands.
	// When empty, the bot user's ID from the Ready event is used.
	ApplicationID string `json:"application_id" yaml:"application_id" env:"DISCORD_CLIENT_ID"`

	// GuildID limits slash command registration to one guild, which propagates instantly.
	// Empty registers the commands globally.
	GuildID string `json:"guild_id" yaml:"guild_id" env:"DISCORD_GUILD_ID"`

	// HelpCommand is the command string that triggers help.
	// When a user sends this exact string, the input is converted to sarah.HelpInput.
	HelpCommand string `json:"help_command" yaml:"help_command" env:"DISCORD_HELP_COMMAND"`

	// AbortCommand is the command string that cancels a pending message collection.
	// When a user sends this exact string and nothing is waiting for their reply, the input is converted to sarah.AbortInput.
	AbortCommand string `json:"abort_command" yaml:"abort_command" env:"DISCORD_ABORT_COMMAND"`

	// Intents declares the Gateway Intents the bot requires.
	Intents discordgo.Intent `json:"intents" yaml:"intents" env:"DISCORD_INTENTS"`
}

// NewConfig creates and returns a new Config instance with default settings.
// Token is empty and must be set before use.
func NewConfig() *Config {
	return &Config{
		Token:        "",
		HelpCommand:  ".help",
		AbortCommand: ".abort",
		Intents:      discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent,
	}
}

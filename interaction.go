package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/oklahomer/go-sarah/v4"
)

// InteractionDestination addresses the deferred reply of an interaction as sarah.OutputDestination.
type InteractionDestination struct {
	Interaction *discordgo.Interaction
}

var _ sarah.OutputDestination = (*InteractionDestination)(nil)

// InteractionInput is a sarah.Input implementation that represents a slash command or a button click.
//
// Message returns "/<command name>" for slash commands and the button's custom ID for clicks,
// so commands can be matched with sarah's regular expression based routing.
type InteractionInput struct {
	Event       *discordgo.InteractionCreate
	senderKey   string
	text        string
	sentAt      time.Time
	destination *InteractionDestination
	userID      string
	roleIDs     []string
}

var _ sarah.Input = (*InteractionInput)(nil)

// SenderKey returns a unique key representing the sender in the channel.
func (i *InteractionInput) SenderKey() string {
	return i.senderKey
}

// Message returns the routing text of the interaction.
func (i *InteractionInput) Message() string {
	return i.text
}

// SentAt returns when the interaction was created.
func (i *InteractionInput) SentAt() time.Time {
	return i.sentAt
}

// ReplyTo returns the deferred reply of the interaction.
func (i *InteractionInput) ReplyTo() sarah.OutputDestination {
	return i.destination
}

// Interaction returns the underlying interaction.
func (i *InteractionInput) Interaction() *discordgo.Interaction {
	return i.Event.Interaction
}

// UserID returns the ID of the invoking user.
func (i *InteractionInput) UserID() string {
	return i.userID
}

// RoleIDs returns the invoking member's roles. It is empty in direct messages.
func (i *InteractionInput) RoleIDs() []string {
	return i.roleIDs
}

// GuildID returns the guild the interaction happened in, or an empty string in direct messages.
func (i *InteractionInput) GuildID() string {
	return i.Event.GuildID
}

// ChannelID returns the channel the interaction happened in.
func (i *InteractionInput) ChannelID() string {
	return i.Event.ChannelID
}

// IsDirectMessage reports whether the interaction happened outside of a guild.
func (i *InteractionInput) IsDirectMessage() bool {
	return i.Event.GuildID == ""
}

// CommandName returns the slash command name, or an empty string for button clicks.
func (i *InteractionInput) CommandName() string {
	if i.Event.Type != discordgo.InteractionApplicationCommand {
		return ""
	}
	return i.Event.ApplicationCommandData().Name
}

// CustomID returns the clicked button's custom ID, or an empty string for slash commands.
func (i *InteractionInput) CustomID() string {
	if i.Event.Type != discordgo.InteractionMessageComponent {
		return ""
	}
	return i.Event.MessageComponentData().CustomID
}

func (i *InteractionInput) option(name string) *discordgo.ApplicationCommandInteractionDataOption {
	if i.Event.Type != discordgo.InteractionApplicationCommand {
		return nil
	}

	for _, opt := range i.Event.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

// StringOption returns the value of a string option of the slash command.
func (i *InteractionInput) StringOption(name string) (string, bool) {
	opt := i.option(name)
	if opt == nil || opt.Type != discordgo.ApplicationCommandOptionString {
		return "", false
	}
	return opt.StringValue(), true
}

// IntOption returns the value of an integer option of the slash command.
func (i *InteractionInput) IntOption(name string) (int64, bool) {
	opt := i.option(name)
	if opt == nil || opt.Type != discordgo.ApplicationCommandOptionInteger {
		return 0, false
	}
	return opt.IntValue(), true
}

// InteractionToInput converts a *discordgo.InteractionCreate event to *InteractionInput.
// Only slash commands and message component interactions are supported.
func InteractionToInput(i *discordgo.InteractionCreate) (*InteractionInput, error) {
	if i.Interaction == nil {
		return nil, ErrUnsupportedInteraction
	}

	user := i.User
	var roleIDs []string
	if i.Member != nil {
		if i.Member.User != nil {
			user = i.Member.User
		}
		roleIDs = i.Member.Roles
	}
	if user == nil {
		return nil, ErrNoAuthor
	}

	var text string
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		text = "/" + i.ApplicationCommandData().Name

	case discordgo.InteractionMessageComponent:
		text = i.MessageComponentData().CustomID

	default:
		return nil, ErrUnsupportedInteraction
	}

	sentAt, err := discordgo.SnowflakeTimestamp(i.ID)
	if err != nil {
		sentAt = time.Now()
	}

	return &InteractionInput{
		Event:       i,
		senderKey:   senderKey(i.ChannelID, user.ID),
		text:        text,
		sentAt:      sentAt,
		destination: &InteractionDestination{Interaction: i.Interaction},
		userID:      user.ID,
		roleIDs:     roleIDs,
	}, nil
}

package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/oklahomer/go-kasumi/logger"
	"github.com/oklahomer/go-sarah/v4"
)

const (
	// DISCORD is a designated sarah.BotType for Discord integration.
	DISCORD sarah.BotType = "discord"
)

// session is an internal interface that abstracts the discordgo.Session methods
// used by the Adapter. This allows mocking the session in tests.
// *discordgo.Session satisfies this interface.
type session interface {
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// ChannelID represents a Discord channel as sarah.OutputDestination.
type ChannelID string

var _ sarah.OutputDestination = ChannelID("")

// ApplicationCommand is a slash command the Adapter registers on Ready.
// Ephemeral commands are acknowledged with a reply only the invoking user can see.
type ApplicationCommand struct {
	*discordgo.ApplicationCommand
	Ephemeral bool
}

// AdapterOption defines a function signature for Adapter's functional options.
type AdapterOption func(adapter *Adapter)

// WithSession creates an AdapterOption with the given *discordgo.Session.
// Use this to inject a pre-configured session.
// If this option is not given, NewAdapter creates a new session from Config.Token.
func WithSession(session *discordgo.Session) AdapterOption {
	return func(adapter *Adapter) {
		adapter.session = session
	}
}

// WithApplicationCommands registers the given slash commands once the gateway is ready.
func WithApplicationCommands(commands ...*ApplicationCommand) AdapterOption {
	return func(adapter *Adapter) {
		for _, c := range commands {
			adapter.commands = append(adapter.commands, c)
			adapter.ephemeral[c.Name] = c.Ephemeral
		}
	}
}

// Adapter is a sarah.Adapter implementation for Discord.
type Adapter struct {
	config    *Config
	session   session
	commands  []*ApplicationCommand
	ephemeral map[string]bool

	mu         sync.Mutex
	collectors map[string]*collector
}

var _ sarah.Adapter = (*Adapter)(nil)

// NewAdapter creates a new Adapter with the given Config and options.
func NewAdapter(config *Config, options ...AdapterOption) (*Adapter, error) {
	adapter := newAdapter(config)

	for _, opt := range options {
		opt(adapter)
	}

	if adapter.session == nil {
		if config.Token == "" {
			return nil, ErrEmptyToken
		}

		s, err := discordgo.New("Bot " + config.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to create Discord session: %w", err)
		}
		s.Identify.Intents = config.Intents
		adapter.session = s
	}

	return adapter, nil
}

func newAdapter(config *Config) *Adapter {
	return &Adapter{
		config:     config,
		ephemeral:  map[string]bool{},
		collectors: map[string]*collector{},
	}
}

// BotType returns a designated BotType for Discord integration.
func (a *Adapter) BotType() sarah.BotType {
	return DISCORD
}

// Run establishes a connection with Discord and blocks until the context is canceled.
func (a *Adapter) Run(ctx context.Context, enqueueInput func(sarah.Input) error, notifyErr func(error)) {
	a.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.handleReady(r)
	})
	a.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		a.handleMessage(s, m, enqueueInput)
	})
	a.session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		a.handleInteraction(i, enqueueInput)
	})

	err := a.session.Open()
	if err != nil {
		notifyErr(sarah.NewBotNonContinuableError(fmt.Sprintf("failed to open Discord session: %s", err.Error())))
		return
	}

	// Block until the context is canceled.
	<-ctx.Done()

	a.abortAllCollectors()
	if closeErr := a.session.Close(); closeErr != nil {
		logger.Errorf("Failed to close Discord session: %+v", closeErr)
	}
}

// handleReady registers the configured slash commands.
func (a *Adapter) handleReady(r *discordgo.Ready) {
	if len(a.commands) == 0 {
		return
	}

	appID := a.config.ApplicationID
	if appID == "" && r.User != nil {
		appID = r.User.ID
	}
	if appID == "" {
		logger.Errorf("Skipping slash command registration: application ID is unknown.")
		return
	}

	definitions := make([]*discordgo.ApplicationCommand, 0, len(a.commands))
	for _, c := range a.commands {
		definitions = append(definitions, c.ApplicationCommand)
	}

	registered, err := a.session.ApplicationCommandBulkOverwrite(appID, a.config.GuildID, definitions)
	if err != nil {
		logger.Errorf("Failed to register slash commands: %+v", err)
		return
	}
	logger.Infof("Registered %d slash command(s).", len(registered))
}

// handleMessage processes an incoming Discord message and routes it to a waiting collector or enqueueInput.
func (a *Adapter) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate, enqueueInput func(sarah.Input) error) {
	input, err := MessageToInput(m)
	if err != nil {
		// MessageToInput returns ErrNoAuthor for system messages with no author.
		logger.Debugf("Skipping message: %+v", err)
		return
	}

	// Ignore messages from the bot itself.
	if s != nil && s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	trimmed := strings.TrimSpace(input.Message())
	if a.config.AbortCommand != "" && trimmed == a.config.AbortCommand {
		if a.abortCollector(input.SenderKey()) {
			return
		}
	} else if a.deliver(input.SenderKey(), m.Message) {
		return
	}

	var enqueueErr error
	if a.config.HelpCommand != "" && trimmed == a.config.HelpCommand {
		enqueueErr = enqueueInput(sarah.NewHelpInput(input))
	} else if a.config.AbortCommand != "" && trimmed == a.config.AbortCommand {
		enqueueErr = enqueueInput(sarah.NewAbortInput(input))
	} else {
		enqueueErr = enqueueInput(input)
	}
	if enqueueErr != nil {
		logger.Errorf("Failed to enqueue input: %+v", enqueueErr)
	}
}

// handleInteraction acknowledges a slash command or button click and enqueues it.
// Discord requires the acknowledgement within three seconds, so it is sent before any command work starts.
func (a *Adapter) handleInteraction(i *discordgo.InteractionCreate, enqueueInput func(sarah.Input) error) {
	input, err := InteractionToInput(i)
	if err != nil {
		logger.Debugf("Skipping interaction: %+v", err)
		return
	}

	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}
	if i.Type == discordgo.InteractionApplicationCommand {
		resp.Type = discordgo.InteractionResponseDeferredChannelMessageWithSource
		if a.ephemeral[input.CommandName()] {
			resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
		}
	}

	if err := a.session.InteractionRespond(i.Interaction, resp); err != nil {
		logger.Errorf("Failed to acknowledge interaction %s: %+v", i.ID, err)
		return
	}

	if err := enqueueInput(input); err != nil {
		logger.Errorf("Failed to enqueue input: %+v", err)
	}
}

// SendMessage sends the given message to Discord.
// Outputs addressed to an interaction edit the deferred reply of that interaction.
func (a *Adapter) SendMessage(_ context.Context, output sarah.Output) {
	switch destination := output.Destination().(type) {
	case ChannelID:
		a.sendToChannel(string(destination), output)

	case *InteractionDestination:
		a.editInteraction(destination, output)

	default:
		logger.Errorf("Destination is not instance of ChannelID or *InteractionDestination. %#v.", output.Destination())
	}
}

func (a *Adapter) sendToChannel(channelID string, output sarah.Output) {
	switch content := output.Content().(type) {
	case string:
		_, err := a.session.ChannelMessageSend(channelID, content)
		if err != nil {
			logger.Errorf("Failed to send message to %s: %+v", channelID, err)
		}

	case *discordgo.MessageSend:
		_, err := a.session.ChannelMessageSendComplex(channelID, content)
		if err != nil {
			logger.Errorf("Failed to send complex message to %s: %+v", channelID, err)
		}

	case *sarah.CommandHelps:
		_, err := a.session.ChannelMessageSend(channelID, helpText(content))
		if err != nil {
			logger.Errorf("Failed to send help message to %s: %+v", channelID, err)
		}

	default:
		logger.Warnf("Unexpected output %#v", output)
	}
}

func (a *Adapter) editInteraction(destination *InteractionDestination, output sarah.Output) {
	content := ""
	embeds := []*discordgo.MessageEmbed{}
	components := []discordgo.MessageComponent{}

	switch c := output.Content().(type) {
	case string:
		content = c

	case *discordgo.MessageSend:
		content = c.Content
		if c.Embeds != nil {
			embeds = c.Embeds
		}
		if c.Components != nil {
			components = c.Components
		}

	case *sarah.CommandHelps:
		content = helpText(c)

	default:
		logger.Warnf("Unexpected output %#v", output)
		return
	}

	// Always send every field so a button click replaces the embeds and buttons it was attached to.
	edit := &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	}
	if _, err := a.session.InteractionResponseEdit(destination.Interaction, edit); err != nil {
		logger.Errorf("Failed to edit interaction response %s: %+v", destination.Interaction.ID, err)
	}
}

func helpText(helps *sarah.CommandHelps) string {
	lines := make([]string, 0, len(*helps))
	for _, h := range *helps {
		lines = append(lines, fmt.Sprintf("**%s**: %s", h.Identifier, h.Instruction))
	}
	return strings.Join(lines, "\n")
}

// SendDirect opens a direct message channel with the user, sends msg there and returns the channel ID.
func (a *Adapter) SendDirect(_ context.Context, userID string, msg *discordgo.MessageSend) (string, error) {
	channel, err := a.session.UserChannelCreate(userID)
	if err != nil {
		return "", fmt.Errorf("failed to open DM channel with %s: %w", userID, err)
	}

	if _, err := a.session.ChannelMessageSendComplex(channel.ID, msg); err != nil {
		return "", fmt.Errorf("failed to send DM to %s: %w", userID, err)
	}
	return channel.ID, nil
}

// FollowUp sends an additional message for an already acknowledged interaction.
func (a *Adapter) FollowUp(_ context.Context, interaction *discordgo.Interaction, msg *discordgo.WebhookParams) error {
	if _, err := a.session.FollowupMessageCreate(interaction, true, msg); err != nil {
		return fmt.Errorf("failed to send follow-up for interaction %s: %w", interaction.ID, err)
	}
	return nil
}

// Reply sends msg to the channel as a reply to the given message.
func (a *Adapter) Reply(_ context.Context, channelID string, messageID string, msg *discordgo.MessageSend) error {
	reply := *msg
	reply.Reference = &discordgo.MessageReference{
		MessageID: messageID,
		ChannelID: channelID,
	}

	if _, err := a.session.ChannelMessageSendComplex(channelID, &reply); err != nil {
		return fmt.Errorf("failed to reply to message %s: %w", messageID, err)
	}
	return nil
}

// Input is a sarah.Input implementation that represents a received Discord message.
type Input struct {
	Event     *discordgo.MessageCreate
	senderKey string
	text      string
	sentAt    time.Time
	channelID ChannelID
}

var _ sarah.Input = (*Input)(nil)

// SenderKey returns a unique key representing the sender in the channel.
func (i *Input) SenderKey() string {
	return i.senderKey
}

// Message returns the received text.
func (i *Input) Message() string {
	return i.text
}

// SentAt returns when the message was sent.
func (i *Input) SentAt() time.Time {
	return i.sentAt
}

// ReplyTo returns the Discord channel where the message was received.
func (i *Input) ReplyTo() sarah.OutputDestination {
	return i.channelID
}

// MessageToInput converts a *discordgo.MessageCreate event to *Input.
func MessageToInput(m *discordgo.MessageCreate) (*Input, error) {
	if m.Author == nil {
		return nil, ErrNoAuthor
	}

	return &Input{
		Event:     m,
		senderKey: senderKey(m.ChannelID, m.Author.ID),
		text:      m.Content,
		sentAt:    m.Timestamp,
		channelID: ChannelID(m.ChannelID),
	}, nil
}

func senderKey(channelID string, userID string) string {
	return fmt.Sprintf("%s_%s", channelID, userID)
}

// NewResponse creates a *sarah.CommandResponse with the given message.
// The message is either a string or a *discordgo.MessageSend.
func NewResponse(input sarah.Input, message interface{}) (*sarah.CommandResponse, error) {
	switch input.(type) {
	case *Input, *InteractionInput:
		return &sarah.CommandResponse{
			Content: message,
		}, nil

	default:
		return nil, fmt.Errorf("%T is not a *discord.Input or *discord.InteractionInput", input)
	}
}

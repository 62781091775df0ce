package command

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/oklahomer/go-kasumi/logger"
	"github.com/oklahomer/go-sarah/v4"

	"github.com/bagcord/bagcord-discord"
	"github.com/bagcord/bagcord-discord/internal/bags"
	"github.com/bagcord/bagcord-discord/internal/metrics"
	"github.com/bagcord/bagcord-discord/internal/security"
	"github.com/bagcord/bagcord-discord/internal/session"
)

const (
	quoteKind  = "quote"
	launchKind = "launch"

	// DefaultSignerURL is used when no external signer is configured.
	DefaultSignerURL = "https://example.com/sign"

	DefaultQuoteTTL       = 5 * time.Minute
	DefaultLaunchDraftTTL = 10 * time.Minute
	DefaultWalletTimeout  = 2 * time.Minute
)

// API is the subset of the Bags client used by commands.
// *bags.Client satisfies this interface.
type API interface {
	LifetimeFees(ctx context.Context, tokenMint string) (bags.Lamports, error)
	ClaimStats(ctx context.Context, tokenMint string) ([]bags.ClaimStat, error)
	ClaimEvents(ctx context.Context, tokenMint string, opts bags.ClaimEventsOptions) ([]bags.ClaimEvent, error)
	LaunchCreators(ctx context.Context, tokenMint string) ([]bags.Creator, error)
	TradeQuote(ctx context.Context, req bags.QuoteRequest) (*bags.Quote, error)
	SwapTransaction(ctx context.Context, quote *bags.Quote, userPublicKey string) (string, error)
	CreateTokenInfo(ctx context.Context, req bags.TokenInfoRequest) (*bags.TokenInfo, error)
	CreateFeeShareConfig(ctx context.Context, req bags.FeeShareConfigRequest) (*bags.FeeShareConfig, error)
	LaunchTransaction(ctx context.Context, req bags.LaunchTransactionRequest) (string, error)
	ClaimablePositions(ctx context.Context, wallet string) ([]bags.ClaimablePosition, error)
	ClaimTransactions(ctx context.Context, req bags.ClaimRequest) ([]string, error)
}

var _ API = (*bags.Client)(nil)

// Messenger delivers messages outside of a command's own reply.
// *discord.Adapter satisfies this interface.
type Messenger interface {
	SendDirect(ctx context.Context, userID string, msg *discordgo.MessageSend) (string, error)
	FollowUp(ctx context.Context, interaction *discordgo.Interaction, msg *discordgo.WebhookParams) error
	Reply(ctx context.Context, channelID string, messageID string, msg *discordgo.MessageSend) error
	AwaitMessage(ctx context.Context, channelID string, userID string, timeout time.Duration) (*discordgo.Message, error)
}

var _ Messenger = (*discord.Adapter)(nil)

// Handler runs all commands against shared security state and session stores.
type Handler struct {
	api       API
	messenger Messenger

	users    *security.RateLimiter
	servers  *security.RateLimiter
	launch   *security.AccessPolicy
	denylist *security.Denylist

	quotes   *session.Store[*QuoteDraft]
	launches *session.Store[*LaunchDraft]

	signerURL      string
	quoteTTL       time.Duration
	launchDraftTTL time.Duration
	walletTimeout  time.Duration

	metrics *metrics.Metrics
	now     func() time.Time

	// wg tracks wallet collections running beyond their button's command.
	wg sync.WaitGroup
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithRateLimiters replaces the per-user and per-server cooldown engines.
func WithRateLimiters(users *security.RateLimiter, servers *security.RateLimiter) HandlerOption {
	return func(h *Handler) {
		h.users = users
		h.servers = servers
	}
}

// WithLaunchPolicy restricts /launch to the given policy.
func WithLaunchPolicy(policy *security.AccessPolicy) HandlerOption {
	return func(h *Handler) {
		h.launch = policy
	}
}

// WithDenylist sets the token denylist shared with the operator server.
func WithDenylist(denylist *security.Denylist) HandlerOption {
	return func(h *Handler) {
		h.denylist = denylist
	}
}

// WithSessionStores sets the quote and launch draft stores.
func WithSessionStores(quotes *session.Store[*QuoteDraft], launches *session.Store[*LaunchDraft]) HandlerOption {
	return func(h *Handler) {
		h.quotes = quotes
		h.launches = launches
	}
}

// WithSignerURL sets the base URL of the external transaction signer.
func WithSignerURL(signerURL string) HandlerOption {
	return func(h *Handler) {
		h.signerURL = signerURL
	}
}

// WithTTLs sets how long quotes and launch drafts live and how long a wallet reply is awaited.
// Zero values keep the defaults.
func WithTTLs(quote time.Duration, launchDraft time.Duration, wallet time.Duration) HandlerOption {
	return func(h *Handler) {
		if quote > 0 {
			h.quoteTTL = quote
		}
		if launchDraft > 0 {
			h.launchDraftTTL = launchDraft
		}
		if wallet > 0 {
			h.walletTimeout = wallet
		}
	}
}

// WithMetrics enables command metrics.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithClock replaces time.Now for embed timestamps.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.now = now
	}
}

// NewHandler creates a Handler. Unset dependencies fall back to in-memory defaults.
func NewHandler(api API, messenger Messenger, options ...HandlerOption) *Handler {
	h := &Handler{
		api:            api,
		messenger:      messenger,
		signerURL:      DefaultSignerURL,
		quoteTTL:       DefaultQuoteTTL,
		launchDraftTTL: DefaultLaunchDraftTTL,
		walletTimeout:  DefaultWalletTimeout,
		now:            time.Now,
	}

	for _, opt := range options {
		opt(h)
	}

	if h.users == nil {
		h.users = security.NewRateLimiter(security.DefaultCooldownPolicy())
	}
	if h.servers == nil {
		h.servers = security.NewServerRateLimiter(security.DefaultServerLaunchCooldown)
	}
	if h.launch == nil {
		h.launch = security.NewAccessPolicy(nil)
	}
	if h.denylist == nil {
		h.denylist = security.NewDenylist(nil)
	}
	if h.quotes == nil {
		h.quotes = session.NewStore[*QuoteDraft](quoteKind)
	}
	if h.launches == nil {
		h.launches = session.NewStore[*LaunchDraft](launchKind)
	}

	return h
}

// Wait blocks until every pending wallet collection has finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// commandFunc returns a string, a *discordgo.MessageSend or nil when nothing should be sent.
type commandFunc func(ctx context.Context, input *discord.InteractionInput) (interface{}, error)

type definition struct {
	identifier  string
	pattern     *regexp.Regexp
	instruction string
	fnc         commandFunc
}

func (h *Handler) definitions() []*definition {
	return []*definition{
		{"token", regexp.MustCompile(`^/token$`), "Use /token <mint> to get detailed token information.", h.token},
		{"fees", regexp.MustCompile(`^/fees$`), "Use /fees <mint> to get lifetime fees of a token.", h.fees},
		{"claim-events", regexp.MustCompile(`^/claim-events$`), "Use /claim-events <mint> [limit] to get the claim history of a token.", h.claimEvents},
		{"creators", regexp.MustCompile(`^/creators$`), "Use /creators <mint> to get launch creators of a token.", h.creators},
		{"quote", regexp.MustCompile(`^/quote$`), "Use /quote <from> <to> <amount> [slippage] to preview a swap.", h.quote},
		{"swap", regexp.MustCompile(`^/swap$`), "Use /swap <quote-id> <wallet> in DMs to build a swap transaction.", h.swap},
		{"claimable", regexp.MustCompile(`^/claimable$`), "Use /claimable <wallet> to list claimable fee positions.", h.claimable},
		{"claim", regexp.MustCompile(`^/claim$`), "Use /claim <wallet> <token> in DMs to build a claim transaction.", h.claim},
		{"launch", regexp.MustCompile(`^/launch$`), "Use /launch to start the token launch wizard.", h.launchCommand},
		{"launch-button", launchButtonPattern, "Click Confirm or Cancel on a launch preview.", h.launchButton},
		{"help", regexp.MustCompile(`^/help$`), "Use /help to show all commands and the security model.", h.help},
	}
}

// CommandProps builds the go-sarah command registrations of every command.
func (h *Handler) CommandProps() []*sarah.CommandProps {
	definitions := h.definitions()
	props := make([]*sarah.CommandProps, 0, len(definitions))
	for _, d := range definitions {
		props = append(props, sarah.NewCommandPropsBuilder().
			BotType(discord.DISCORD).
			Identifier(d.identifier).
			MatchPattern(d.pattern).
			Func(h.wrap(d.identifier, d.fnc)).
			Instruction(d.instruction).
			MustBuild())
	}
	return props
}

// wrap adapts fnc to go-sarah and turns every failure, including panics, into a user-facing reply.
func (h *Handler) wrap(name string, fnc commandFunc) func(context.Context, sarah.Input) (*sarah.CommandResponse, error) {
	return func(ctx context.Context, input sarah.Input) (resp *sarah.CommandResponse, err error) {
		interaction, ok := input.(*discord.InteractionInput)
		if !ok {
			return discord.NewResponse(input, fmt.Sprintf("Use the `/%s` slash command.", name))
		}

		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("Panic in %s command: %+v", name, r)
				h.metrics.CommandHandled(name, outcomePanic)
				resp, err = h.respond(input, genericErrorMessage)
			}
		}()

		content, cmdErr := fnc(ctx, interaction)
		h.metrics.CommandHandled(name, outcome(cmdErr))
		if cmdErr != nil {
			switch outcome(cmdErr) {
			case outcomeRemote, outcomeError:
				logger.Warnf("Command %s failed for %s: %+v", name, interaction.UserID(), cmdErr)
			default:
				logger.Debugf("Command %s refused for %s: %+v", name, interaction.UserID(), cmdErr)
			}
			content = userMessage(cmdErr)
		}

		if content == nil {
			return nil, nil
		}
		return h.respond(input, content)
	}
}

func (h *Handler) respond(input sarah.Input, content interface{}) (*sarah.CommandResponse, error) {
	resp, err := discord.NewResponse(input, content)
	if err != nil {
		logger.Errorf("Failed to build response: %+v", err)
		return nil, err
	}
	return resp, nil
}

// acquire holds action for subject or returns a CooldownError.
func (h *Handler) acquire(limiter *security.RateLimiter, subject string, action security.Action, label string) (*security.Reservation, error) {
	reservation, res := limiter.Acquire(subject, action)
	if !res.Allowed {
		h.metrics.CooldownRejected(string(action))
		return nil, &CooldownError{Label: label, Action: action, Remaining: res.Remaining}
	}
	return reservation, nil
}

// check reports a CooldownError without holding the action.
func (h *Handler) check(limiter *security.RateLimiter, subject string, action security.Action, label string) error {
	res := limiter.Check(subject, action)
	if !res.Allowed {
		h.metrics.CooldownRejected(string(action))
		return &CooldownError{Label: label, Action: action, Remaining: res.Remaining}
	}
	return nil
}

func (h *Handler) timestamp() string {
	return h.now().Format(time.RFC3339)
}

package command

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/bagcord/bagcord-discord"
	"github.com/bagcord/bagcord-discord/internal/bags"
	"github.com/bagcord/bagcord-discord/internal/security"
	"github.com/bagcord/bagcord-discord/internal/session"
)

const (
	testMintA  = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	testMintB  = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	testWallet = "DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy"
	testOwner  = "user-1"
	testGuild  = "guild-1"
)

type fakeAPI struct {
	lifetimeFeesFunc         func(ctx context.Context, tokenMint string) (bags.Lamports, error)
	claimStatsFunc           func(ctx context.Context, tokenMint string) ([]bags.ClaimStat, error)
	claimEventsFunc          func(ctx context.Context, tokenMint string, opts bags.ClaimEventsOptions) ([]bags.ClaimEvent, error)
	launchCreatorsFunc       func(ctx context.Context, tokenMint string) ([]bags.Creator, error)
	tradeQuoteFunc           func(ctx context.Context, req bags.QuoteRequest) (*bags.Quote, error)
	swapTransactionFunc      func(ctx context.Context, quote *bags.Quote, userPublicKey string) (string, error)
	createTokenInfoFunc      func(ctx context.Context, req bags.TokenInfoRequest) (*bags.TokenInfo, error)
	createFeeShareConfigFunc func(ctx context.Context, req bags.FeeShareConfigRequest) (*bags.FeeShareConfig, error)
	launchTransactionFunc    func(ctx context.Context, req bags.LaunchTransactionRequest) (string, error)
	claimablePositionsFunc   func(ctx context.Context, wallet string) ([]bags.ClaimablePosition, error)
	claimTransactionsFunc    func(ctx context.Context, req bags.ClaimRequest) ([]string, error)
}

var errUnexpectedCall = fmt.Errorf("unexpected call")

func (f *fakeAPI) LifetimeFees(ctx context.Context, tokenMint string) (bags.Lamports, error) {
	if f.lifetimeFeesFunc != nil {
		return f.lifetimeFeesFunc(ctx, tokenMint)
	}
	return 0, errUnexpectedCall
}

func (f *fakeAPI) ClaimStats(ctx context.Context, tokenMint string) ([]bags.ClaimStat, error) {
	if f.claimStatsFunc != nil {
		return f.claimStatsFunc(ctx, tokenMint)
	}
	return nil, errUnexpectedCall
}

func (f *fakeAPI) ClaimEvents(ctx context.Context, tokenMint string, opts bags.ClaimEventsOptions) ([]bags.ClaimEvent, error) {
	if f.claimEventsFunc != nil {
		return f.claimEventsFunc(ctx, tokenMint, opts)
	}
	return nil, errUnexpectedCall
}

func (f *fakeAPI) LaunchCreators(ctx context.Context, tokenMint string) ([]bags.Creator, error) {
	if f.launchCreatorsFunc != nil {
		return f.launchCreatorsFunc(ctx, tokenMint)
	}
	return nil, errUnexpectedCall
}

func (f *fakeAPI) TradeQuote(ctx context.Context, req bags.QuoteRequest) (*bags.Quote, error) {
	if f.tradeQuoteFunc != nil {
		return f.tradeQuoteFunc(ctx, req)
	}
	return nil, errUnexpectedCall
}

func (f *fakeAPI) SwapTransaction(ctx context.Context, quote *bags.Quote, userPublicKey string) (string, error) {
	if f.swapTransactionFunc != nil {
		return f.swapTransactionFunc(ctx, quote, userPublicKey)
	}
	return "", errUnexpectedCall
}

func (f *fakeAPI) CreateTokenInfo(ctx context.Context, req bags.TokenInfoRequest) (*bags.TokenInfo, error) {
	if f.createTokenInfoFunc != nil {
		return f.createTokenInfoFunc(ctx, req)
	}
	return nil, errUnexpectedCall
}

func (f *fakeAPI) CreateFeeShareConfig(ctx context.Context, req bags.FeeShareConfigRequest) (*bags.FeeShareConfig, error) {
	if f.createFeeShareConfigFunc != nil {
		return f.createFeeShareConfigFunc(ctx, req)
	}
	return nil, errUnexpectedCall
}

func (f *fakeAPI) LaunchTransaction(ctx context.Context, req bags.LaunchTransactionRequest) (string, error) {
	if f.launchTransactionFunc != nil {
		return f.launchTransactionFunc(ctx, req)
	}
	return "", errUnexpectedCall
}

func (f *fakeAPI) ClaimablePositions(ctx context.Context, wallet string) ([]bags.ClaimablePosition, error) {
	if f.claimablePositionsFunc != nil {
		return f.claimablePositionsFunc(ctx, wallet)
	}
	return nil, errUnexpectedCall
}

func (f *fakeAPI) ClaimTransactions(ctx context.Context, req bags.ClaimRequest) ([]string, error) {
	if f.claimTransactionsFunc != nil {
		return f.claimTransactionsFunc(ctx, req)
	}
	return nil, errUnexpectedCall
}

type reply struct {
	channelID string
	messageID string
	msg       *discordgo.MessageSend
}

type fakeMessenger struct {
	mu        sync.Mutex
	directs   []*discordgo.MessageSend
	followUps []*discordgo.WebhookParams
	replies   []reply

	sendDirectErr    error
	awaitMessageFunc func(ctx context.Context, channelID string, userID string, timeout time.Duration) (*discordgo.Message, error)
}

func (f *fakeMessenger) SendDirect(_ context.Context, userID string, msg *discordgo.MessageSend) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendDirectErr != nil {
		return "", f.sendDirectErr
	}
	f.directs = append(f.directs, msg)
	return "dm-" + userID, nil
}

func (f *fakeMessenger) FollowUp(_ context.Context, _ *discordgo.Interaction, msg *discordgo.WebhookParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.followUps = append(f.followUps, msg)
	return nil
}

func (f *fakeMessenger) Reply(_ context.Context, channelID string, messageID string, msg *discordgo.MessageSend) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.replies = append(f.replies, reply{channelID: channelID, messageID: messageID, msg: msg})
	return nil
}

func (f *fakeMessenger) AwaitMessage(ctx context.Context, channelID string, userID string, timeout time.Duration) (*discordgo.Message, error) {
	if f.awaitMessageFunc != nil {
		return f.awaitMessageFunc(ctx, channelID, userID, timeout)
	}
	return nil, discord.ErrCollectTimeout
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type testEnv struct {
	handler   *Handler
	api       *fakeAPI
	messenger *fakeMessenger
	clock     *fakeClock
	users     *security.RateLimiter
	servers   *security.RateLimiter
	denylist  *security.Denylist
	quotes    *session.Store[*QuoteDraft]
	launches  *session.Store[*LaunchDraft]
}

func sequentialIDs() func() (string, error) {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id%d", n), nil
	}
}

func newTestEnv(options ...HandlerOption) *testEnv {
	clock := &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	env := &testEnv{
		api:       &fakeAPI{},
		messenger: &fakeMessenger{},
		clock:     clock,
		users:     security.NewRateLimiter(security.DefaultCooldownPolicy(), security.WithClock(clock.Now)),
		servers:   security.NewServerRateLimiter(security.DefaultServerLaunchCooldown, security.WithClock(clock.Now)),
		denylist:  security.NewDenylist(nil),
		quotes:    session.NewStore[*QuoteDraft](quoteKind, session.WithClock(clock.Now), session.WithIDGenerator(sequentialIDs())),
		launches:  session.NewStore[*LaunchDraft](launchKind, session.WithClock(clock.Now), session.WithIDGenerator(sequentialIDs())),
	}

	options = append([]HandlerOption{
		WithRateLimiters(env.users, env.servers),
		WithDenylist(env.denylist),
		WithSessionStores(env.quotes, env.launches),
		WithClock(clock.Now),
	}, options...)
	env.handler = NewHandler(env.api, env.messenger, options...)
	return env
}

// option builds a slash command option. Integers are carried as float64 like decoded gateway JSON.
func option(name string, value interface{}) *discordgo.ApplicationCommandInteractionDataOption {
	switch v := value.(type) {
	case int:
		return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(v)}
	default:
		return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: v}
	}
}

func commandInput(t *testing.T, name string, userID string, guildID string, roles []string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discord.InteractionInput {
	t.Helper()

	i := &discordgo.Interaction{
		ID:        "1234567890123456789",
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "ch-" + userID,
		GuildID:   guildID,
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: options,
		},
	}
	if guildID == "" {
		i.User = &discordgo.User{ID: userID}
	} else {
		i.Member = &discordgo.Member{User: &discordgo.User{ID: userID}, Roles: roles}
	}

	input, err := discord.InteractionToInput(&discordgo.InteractionCreate{Interaction: i})
	if err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}
	return input
}

func buttonInput(t *testing.T, customID string, userID string) *discord.InteractionInput {
	t.Helper()

	i := &discordgo.Interaction{
		ID:        "1234567890123456790",
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: "dm-" + testOwner,
		User:      &discordgo.User{ID: userID},
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      customID,
			ComponentType: discordgo.ButtonComponent,
		},
	}

	input, err := discord.InteractionToInput(&discordgo.InteractionCreate{Interaction: i})
	if err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}
	return input
}

// embedOf returns the only embed of a command result.
func embedOf(t *testing.T, content interface{}) *discordgo.MessageEmbed {
	t.Helper()

	msg, ok := content.(*discordgo.MessageSend)
	if !ok {
		t.Fatalf("Expected *discordgo.MessageSend, got %#v", content)
	}
	if len(msg.Embeds) != 1 {
		t.Fatalf("Expected one embed, got %d", len(msg.Embeds))
	}
	return msg.Embeds[0]
}

func fieldValue(embed *discordgo.MessageEmbed, name string) (string, bool) {
	for _, f := range embed.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

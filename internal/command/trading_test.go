package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bagcord/bagcord-discord/internal/bags"
	"github.com/bagcord/bagcord-discord/internal/security"
	"github.com/bagcord/bagcord-discord/internal/session"
)

func TestHandler_quote(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name     string
			from     string
			to       string
			amount   string
			slippage interface{}
			expected string
		}{
			{name: "invalid from", from: "bad", to: testMintB, amount: "1", expected: "❌ Invalid Solana address format"},
			{name: "invalid to", from: testMintA, to: "0OIl", amount: "1", expected: "❌ Invalid Solana address format"},
			{name: "not a number", from: testMintA, to: testMintB, amount: "abc", expected: "❌ Invalid amount"},
			{name: "negative", from: testMintA, to: testMintB, amount: "-5", expected: "❌ Invalid amount"},
			{name: "raw units below one", from: testMintA, to: testMintB, amount: "0.5", expected: "❌ Invalid amount"},
			{name: "SOL below one lamport", from: bags.WrappedSOLMint, to: testMintB, amount: "0.0000000001", expected: "❌ Invalid amount"},
			{name: "slippage too high", from: testMintA, to: testMintB, amount: "1", slippage: 10001, expected: "❌ Slippage must be between 1 and 10000 basis points"},
			{name: "negative slippage", from: testMintA, to: testMintB, amount: "1", slippage: -1, expected: "❌ Slippage must be between 1 and 10000 basis points"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env := newTestEnv()

				input := commandInput(t, "quote", testOwner, testGuild, nil, option("from", tt.from), option("to", tt.to), option("amount", tt.amount))
				if tt.slippage != nil {
					input = commandInput(t, "quote", testOwner, testGuild, nil, option("from", tt.from), option("to", tt.to), option("amount", tt.amount), option("slippage", tt.slippage))
				}

				_, err := env.handler.quote(context.Background(), input)
				if err == nil {
					t.Fatal("Expected error is not returned.")
				}
				if msg := userMessage(err); msg != tt.expected {
					t.Errorf("Expected %q, got %q", tt.expected, msg)
				}
				if env.quotes.Len() != 0 {
					t.Error("No quote should be stored")
				}
			})
		}
	})

	t.Run("denied token", func(t *testing.T) {
		env := newTestEnv()
		env.denylist.Add(testMintB)

		_, err := env.handler.quote(context.Background(), commandInput(t, "quote", testOwner, testGuild, nil, option("from", testMintA), option("to", testMintB), option("amount", "1")))
		if msg := userMessage(err); msg != "❌ One or more tokens are denied (potential scam)" {
			t.Errorf("Unexpected message %q", msg)
		}
	})

	t.Run("SOL amount is converted and quote is stored", func(t *testing.T) {
		env := newTestEnv()
		impact := bags.Float(1.234)
		var req bags.QuoteRequest
		env.api.tradeQuoteFunc = func(_ context.Context, r bags.QuoteRequest) (*bags.Quote, error) {
			req = r
			return &bags.Quote{RequestID: "req-1", InAmount: 1_500_000_000, OutputAmount: 42_000_000_000, PriceImpact: &impact}, nil
		}

		content, err := env.handler.quote(context.Background(), commandInput(t, "quote", testOwner, testGuild, nil,
			option("from", bags.WrappedSOLMint), option("to", testMintB), option("amount", " 1.5 ")))
		if err != nil {
			t.Fatalf("Unexpected error: %+v", err)
		}

		if req.Amount != 1_500_000_000 {
			t.Errorf("Expected 1500000000 base units, got %d", req.Amount)
		}
		if req.SlippageBps != 100 {
			t.Errorf("Expected default slippage, got %d", req.SlippageBps)
		}

		embed := embedOf(t, content)
		if v, _ := fieldValue(embed, "Input Amount"); v != "1.5 SOL" {
			t.Errorf("Unexpected input amount %q", v)
		}
		if v, _ := fieldValue(embed, "Output Amount"); v != "42.0000" {
			t.Errorf("Unexpected output amount %q", v)
		}
		if v, _ := fieldValue(embed, "Price Impact"); v != "1.23%" {
			t.Errorf("Unexpected price impact %q", v)
		}
		if v, _ := fieldValue(embed, "Slippage"); v != "1.00%" {
			t.Errorf("Unexpected slippage %q", v)
		}
		if v, _ := fieldValue(embed, "📝 Next Steps"); !strings.Contains(v, "Quote ID: `quote_id1`") || !strings.Contains(v, "Expires in 5 minutes.") {
			t.Errorf("Unexpected next steps %q", v)
		}

		draft, err := env.quotes.Peek("quote_id1", testOwner)
		if err != nil {
			t.Fatalf("Unexpected error: %+v", err)
		}
		if draft.Quote.RequestID != "req-1" || draft.SlippageBps != 100 || draft.DisplayAmount != 1.5 {
			t.Errorf("Unexpected draft %+v", draft)
		}
	})

	t.Run("raw amount is floored", func(t *testing.T) {
		env := newTestEnv()
		var req bags.QuoteRequest
		env.api.tradeQuoteFunc = func(_ context.Context, r bags.QuoteRequest) (*bags.Quote, error) {
			req = r
			return &bags.Quote{}, nil
		}

		content, err := env.handler.quote(context.Background(), commandInput(t, "quote", testOwner, testGuild, nil,
			option("from", testMintA), option("to", testMintB), option("amount", "1000.9"), option("slippage", 250)))
		if err != nil {
			t.Fatalf("Unexpected error: %+v", err)
		}

		if req.Amount != 1000 || req.SlippageBps != 250 {
			t.Errorf("Unexpected request %+v", req)
		}
		if v, _ := fieldValue(embedOf(t, content), "Price Impact"); v != "N/A" {
			t.Errorf("Unexpected price impact %q", v)
		}
	})

	t.Run("upstream failure stores nothing", func(t *testing.T) {
		env := newTestEnv()
		env.api.tradeQuoteFunc = func(_ context.Context, _ bags.QuoteRequest) (*bags.Quote, error) {
			return nil, &bags.Error{Op: "fetch trade quote", Status: 400, Message: "No route found"}
		}

		_, err := env.handler.quote(context.Background(), commandInput(t, "quote", testOwner, testGuild, nil,
			option("from", testMintA), option("to", testMintB), option("amount", "10")))
		if msg := userMessage(err); msg != "❌ Error: No route found" {
			t.Errorf("Unexpected message %q", msg)
		}
		if env.quotes.Len() != 0 {
			t.Error("No quote should be stored")
		}
	})
}

// storeQuote places a quote owned by ownerID and returns its ID.
func storeQuote(t *testing.T, env *testEnv, ownerID string) string {
	t.Helper()

	id, err := env.quotes.Create(&QuoteDraft{
		Quote:       &bags.Quote{RequestID: "req-1"},
		InputMint:   testMintA,
		OutputMint:  testMintB,
		Amount:      1_000_000,
		SlippageBps: 100,
	}, ownerID, DefaultQuoteTTL)
	if err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}
	return id
}

func TestHandler_swap(t *testing.T) {
	t.Run("guild redirects to DM", func(t *testing.T) {
		env := newTestEnv()

		content, err := env.handler.swap(context.Background(), commandInput(t, "swap", testOwner, testGuild, nil, option("quote-id", "quote_x"), option("wallet", testWallet)))
		if err != nil {
			t.Fatalf("Unexpected error: %+v", err)
		}

		text, ok := content.(string)
		if !ok || !strings.HasPrefix(text, "🔒 For security") {
			t.Errorf("Unexpected content %#v", content)
		}
		if strings.Contains(text, "couldn't send you a DM") {
			t.Error("DM failure should not be reported")
		}
		if len(env.messenger.directs) != 1 || !strings.Contains(env.messenger.directs[0].Content, "/swap") {
			t.Errorf("Unexpected DMs %+v", env.messenger.directs)
		}
	})

	t.Run("guild redirect reports DM failure", func(t *testing.T) {
		env := newTestEnv()
		env.messenger.sendDirectErr = errors.New("cannot send messages to this user")

		content, err := env.handler.swap(context.Background(), commandInput(t, "swap", testOwner, testGuild, nil, option("quote-id", "quote_x"), option("wallet", testWallet)))
		if err != nil {
			t.Fatalf("Unexpected error: %+v", err)
		}

		if text, _ := content.(string); !strings.Contains(text, "❌ I couldn't send you a DM.") {
			t.Errorf("Unexpected content %#v", content)
		}
	})

	t.Run("success consumes quote and commits cooldown", func(t *testing.T) {
		env := newTestEnv()
		id := storeQuote(t, env, testOwner)
		env.api.swapTransactionFunc = func(_ context.Context, quote *bags.Quote, wallet string) (string, error) {
			if quote.RequestID != "req-1" || wallet != testWallet {
				t.Errorf("Unexpected arguments %+v %s", quote, wallet)
			}
			return "AQID", nil
		}

		content, err := env.handler.swap(context.Background(), commandInput(t, "swap", testOwner, "", nil, option("quote-id", id), option("wallet", testWallet)))
		if err != nil {
			t.Fatalf("Unexpected error: %+v", err)
		}

		embed := embedOf(t, content)
		if embed.Title != "✅ Swap Transaction Ready" {
			t.Errorf("Unexpected title %q", embed.Title)
		}
		if !strings.Contains(embed.Description, "Amount: 1000000") {
			t.Errorf("Unexpected description %q", embed.Description)
		}

		if res := env.users.Check(testOwner, security.ActionSwap); res.Allowed || res.Remaining != 30 {
			t.Errorf("Expected swap cooldown, got %+v", res)
		}

		_, err = env.handler.swap(context.Background(), commandInput(t, "swap", testOwner, "", nil, option("quote-id", id), option("wallet", testWallet)))
		if msg := userMessage(err); msg != "❌ Quote not found or expired. Please create a new quote with `/quote`" {
			t.Errorf("Unexpected message %q", msg)
		}
	})

	t.Run("cooldown", func(t *testing.T) {
		env := newTestEnv()
		id := storeQuote(t, env, testOwner)
		env.users.Record(testOwner, security.ActionSwap)
		env.clock.Advance(10 * time.Second)

		_, err := env.handler.swap(context.Background(), commandInput(t, "swap", testOwner, "", nil, option("quote-id", id), option("wallet", testWallet)))
		if msg := userMessage(err); msg != "⏳ Cooldown active. Please wait 20 seconds" {
			t.Errorf("Unexpected message %q", msg)
		}
		if _, err := env.quotes.Peek(id, testOwner); err != nil {
			t.Errorf("Quote should be kept: %+v", err)
		}
	})

	t.Run("upstream failure releases cooldown and keeps quote", func(t *testing.T) {
		env := newTestEnv()
		id := storeQuote(t, env, testOwner)
		env.api.swapTransactionFunc = func(_ context.Context, _ *bags.Quote, _ string) (string, error) {
			return "", &bags.Error{Op: "create swap transaction", Status: 500}
		}

		_, err := env.handler.swap(context.Background(), commandInput(t, "swap", testOwner, "", nil, option("quote-id", id), option("wallet", testWallet)))
		if msg := userMessage(err); msg != "❌ Error: Unknown error" {
			t.Errorf("Unexpected message %q", msg)
		}

		if res := env.users.Check(testOwner, security.ActionSwap); !res.Allowed {
			t.Errorf("Cooldown should be released, got %+v", res)
		}
		if _, err := env.quotes.Peek(id, testOwner); err != nil {
			t.Errorf("Quote should be kept: %+v", err)
		}
	})

	t.Run("other user's quote", func(t *testing.T) {
		env := newTestEnv()
		id := storeQuote(t, env, "user-2")

		_, err := env.handler.swap(context.Background(), commandInput(t, "swap", testOwner, "", nil, option("quote-id", id), option("wallet", testWallet)))
		if msg := userMessage(err); msg != "❌ This quote belongs to another user" {
			t.Errorf("Unexpected message %q", msg)
		}
		if !errors.Is(err, session.ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %+v", err)
		}
	})

	t.Run("expired quote", func(t *testing.T) {
		env := newTestEnv()
		id := storeQuote(t, env, testOwner)
		env.clock.Advance(DefaultQuoteTTL + time.Second)

		_, err := env.handler.swap(context.Background(), commandInput(t, "swap", testOwner, "", nil, option("quote-id", id), option("wallet", testWallet)))
		if msg := userMessage(err); msg != "❌ Quote expired. Please create a new quote with `/quote`" {
			t.Errorf("Unexpected message %q", msg)
		}
	})

	t.Run("denied after quoting", func(t *testing.T) {
		env := newTestEnv()
		id := storeQuote(t, env, testOwner)
		env.denylist.Add(testMintA)

		_, err := env.handler.swap(context.Background(), commandInput(t, "swap", testOwner, "", nil, option("quote-id", id), option("wallet", testWallet)))
		var policyErr *PolicyError
		if !errors.As(err, &policyErr) {
			t.Errorf("Expected PolicyError, got %+v", err)
		}
	})

	t.Run("invalid wallet", func(t *testing.T) {
		env := newTestEnv()

		_, err := env.handler.swap(context.Background(), commandInput(t, "swap", testOwner, "", nil, option("quote-id", "quote_x"), option("wallet", "nope")))
		if msg := userMessage(err); msg != "❌ Invalid wallet address format" {
			t.Errorf("Unexpected message %q", msg)
		}
	})
}

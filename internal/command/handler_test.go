package command

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/oklahomer/go-sarah/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bagcord/bagcord-discord"
	"github.com/bagcord/bagcord-discord/internal/metrics"
)

func TestNewHandler_Defaults(t *testing.T) {
	h := NewHandler(&fakeAPI{}, &fakeMessenger{})

	if h.signerURL != DefaultSignerURL {
		t.Errorf("Expected signer URL %q, got %q", DefaultSignerURL, h.signerURL)
	}

	if h.quoteTTL != DefaultQuoteTTL || h.launchDraftTTL != DefaultLaunchDraftTTL || h.walletTimeout != DefaultWalletTimeout {
		t.Errorf("Unexpected TTLs %s %s %s", h.quoteTTL, h.launchDraftTTL, h.walletTimeout)
	}

	if h.users == nil || h.servers == nil || h.launch == nil || h.denylist == nil || h.quotes == nil || h.launches == nil {
		t.Error("Expected every dependency to be defaulted")
	}

	if h.quotes.Kind() != "quote" || h.launches.Kind() != "launch" {
		t.Errorf("Unexpected store kinds %q and %q", h.quotes.Kind(), h.launches.Kind())
	}
}

func TestWithTTLs(t *testing.T) {
	h := NewHandler(&fakeAPI{}, &fakeMessenger{}, WithTTLs(time.Minute, 0, 30*time.Second))

	if h.quoteTTL != time.Minute {
		t.Errorf("Expected quote TTL 1m, got %s", h.quoteTTL)
	}
	if h.launchDraftTTL != DefaultLaunchDraftTTL {
		t.Errorf("Expected default launch draft TTL, got %s", h.launchDraftTTL)
	}
	if h.walletTimeout != 30*time.Second {
		t.Errorf("Expected wallet timeout 30s, got %s", h.walletTimeout)
	}
}

func TestHandler_CommandProps(t *testing.T) {
	env := newTestEnv()

	props := env.handler.CommandProps()
	if len(props) != len(env.handler.definitions()) {
		t.Fatalf("Expected %d props, got %d", len(env.handler.definitions()), len(props))
	}

	identifiers := map[string]bool{}
	for _, d := range env.handler.definitions() {
		identifiers[d.identifier] = true
		if !d.pattern.MatchString("/" + d.identifier) && d.identifier != "launch-button" {
			t.Errorf("Pattern of %q does not match its slash command", d.identifier)
		}
	}

	for _, c := range ApplicationCommands() {
		if !identifiers[c.Name] {
			t.Errorf("Slash command %q has no sarah command", c.Name)
		}
	}
}

func TestApplicationCommands(t *testing.T) {
	ephemeral := map[string]bool{
		"token":        false,
		"fees":         false,
		"claim-events": false,
		"creators":     false,
		"quote":        true,
		"swap":         true,
		"claimable":    true,
		"claim":        true,
		"launch":       true,
		"help":         true,
	}

	commands := ApplicationCommands()
	if len(commands) != len(ephemeral) {
		t.Fatalf("Expected %d commands, got %d", len(ephemeral), len(commands))
	}

	for _, c := range commands {
		expected, ok := ephemeral[c.Name]
		if !ok {
			t.Errorf("Unexpected command %q", c.Name)
			continue
		}
		if c.Ephemeral != expected {
			t.Errorf("Expected %q ephemeral=%t, got %t", c.Name, expected, c.Ephemeral)
		}

		seenOptional := false
		for _, o := range c.Options {
			if !o.Required {
				seenOptional = true
			} else if seenOptional {
				t.Errorf("Required option %q of %q follows an optional one", o.Name, c.Name)
			}
		}
	}
}

func TestHandler_wrap(t *testing.T) {
	t.Run("plain text input gets a hint", func(t *testing.T) {
		env := newTestEnv()
		fnc := env.handler.wrap("fees", func(_ context.Context, _ *discord.InteractionInput) (interface{}, error) {
			t.Error("Command should not run for plain text input")
			return nil, nil
		})

		input, err := discord.MessageToInput(plainMessage("/fees"))
		if err != nil {
			t.Fatalf("Unexpected error: %+v", err)
		}

		resp, err := fnc(context.Background(), input)
		if err != nil {
			t.Fatalf("Unexpected error: %+v", err)
		}
		if resp.Content != "Use the `/fees` slash command." {
			t.Errorf("Unexpected content %#v", resp.Content)
		}
	})

	t.Run("error is rendered and counted", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		m, err := metrics.New(registry)
		if err != nil {
			t.Fatalf("Unexpected error: %+v", err)
		}

		env := newTestEnv(WithMetrics(m))
		fnc := env.handler.wrap("fees", func(_ context.Context, _ *discord.InteractionInput) (interface{}, error) {
			return nil, &ValidationError{Message: "Invalid Solana address format"}
		})

		resp, err := fnc(context.Background(), commandInput(t, "fees", testOwner, testGuild, nil))
		if err != nil {
			t.Fatalf("Unexpected error: %+v", err)
		}
		if resp.Content != "❌ Invalid Solana address format" {
			t.Errorf("Unexpected content %#v", resp.Content)
		}

		count := counterValue(t, registry, "bagcord_commands_total", map[string]string{"command": "fees", "outcome": outcomeValidation})
		if count != 1 {
			t.Errorf("Expected 1 validation outcome, got %v", count)
		}
	})

	t.Run("panic is recovered", func(t *testing.T) {
		env := newTestEnv()
		fnc := env.handler.wrap("token", func(_ context.Context, _ *discord.InteractionInput) (interface{}, error) {
			panic("unexpected")
		})

		resp, err := fnc(context.Background(), commandInput(t, "token", testOwner, testGuild, nil))
		if err != nil {
			t.Fatalf("Unexpected error: %+v", err)
		}
		if resp.Content != genericErrorMessage {
			t.Errorf("Expected generic error message, got %#v", resp.Content)
		}
	})

	t.Run("nil content sends nothing", func(t *testing.T) {
		env := newTestEnv()
		fnc := env.handler.wrap("launch-button", func(_ context.Context, _ *discord.InteractionInput) (interface{}, error) {
			return nil, nil
		})

		resp, err := fnc(context.Background(), buttonInput(t, "launch:confirm:x", testOwner))
		if err != nil {
			t.Fatalf("Unexpected error: %+v", err)
		}
		if resp != nil {
			t.Errorf("Expected nil response, got %#v", resp)
		}
	})
}

func plainMessage(content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ChannelID: "ch-1",
			Content:   content,
			Timestamp: time.Now(),
			Author:    &discordgo.User{ID: testOwner},
		},
	}
}

// counterValue reads one labeled counter from the registry.
func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}

	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			matched := 0
			for _, l := range m.GetLabel() {
				if labels[l.GetName()] == l.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

var _ sarah.Input = (*discord.InteractionInput)(nil)

func TestHandler_help(t *testing.T) {
	env := newTestEnv()

	content, err := env.handler.help(context.Background(), commandInput(t, "help", testOwner, testGuild, nil))
	if err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}

	embed := embedOf(t, content)
	if embed.Title != "🤖 BagCord - Bags.fm Discord Bot" {
		t.Errorf("Unexpected title %q", embed.Title)
	}
	if _, ok := fieldValue(embed, "🔒 Security Features"); !ok {
		t.Error("Security features should be described")
	}
}

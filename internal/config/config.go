// Package config loads the bot configuration.
//
// Values are resolved in this order, later sources overriding earlier ones:
// built-in defaults, an optional YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/bagcord/bagcord-discord"
	"github.com/bagcord/bagcord-discord/internal/bags"
	"github.com/bagcord/bagcord-discord/internal/command"
	"github.com/bagcord/bagcord-discord/internal/security"
)

var (
	// ErrEmptyDiscordToken is returned when no Discord bot token is configured.
	ErrEmptyDiscordToken = errors.New("DISCORD_TOKEN must be set")

	// ErrEmptyBagsAPIKey is returned when no Bags API key is configured.
	ErrEmptyBagsAPIKey = errors.New("BAGS_API_KEY must be set")
)

// Config is the whole application configuration.
type Config struct {
	Discord  discord.Config `yaml:"discord"`
	Bags     BagsConfig     `yaml:"bags"`
	Security SecurityConfig `yaml:"security"`
	Session  SessionConfig  `yaml:"session"`
	Ops      OpsConfig      `yaml:"ops"`
}

// BagsConfig configures the Bags API client.
type BagsConfig struct {
	BaseURL string `yaml:"base_url" env:"BAGS_API_BASE_URL"`
	APIKey  string `yaml:"api_key" env:"BAGS_API_KEY"`

	Timeout time.Duration `yaml:"timeout" env:"BAGS_API_TIMEOUT"`

	// RPS and Burst size the outbound token bucket. Zero disables limiting.
	RPS   float64 `yaml:"rps" env:"BAGS_API_RPS"`
	Burst int     `yaml:"burst" env:"BAGS_API_BURST"`

	// CacheTTL is how long read-only lookups are cached. Zero disables caching.
	CacheTTL time.Duration `yaml:"cache_ttl" env:"BAGS_CACHE_TTL"`
}

// SecurityConfig holds access rules and cooldowns.
type SecurityConfig struct {
	SignerURL          string   `yaml:"signer_url" env:"SIGNER_WEB_URL"`
	LaunchAllowedRoles []string `yaml:"launch_allowed_roles" env:"LAUNCH_ALLOWED_ROLES" envSeparator:","`
	TokenDenylist      []string `yaml:"token_denylist" env:"TOKEN_DENYLIST" envSeparator:","`

	CooldownLaunch       time.Duration `yaml:"cooldown_launch" env:"COOLDOWN_LAUNCH"`
	CooldownSwap         time.Duration `yaml:"cooldown_swap" env:"COOLDOWN_SWAP"`
	CooldownClaim        time.Duration `yaml:"cooldown_claim" env:"COOLDOWN_CLAIM"`
	CooldownQuote        time.Duration `yaml:"cooldown_quote" env:"COOLDOWN_QUOTE"`
	CooldownServerLaunch time.Duration `yaml:"cooldown_server_launch" env:"COOLDOWN_SERVER_LAUNCH"`
}

// CooldownPolicy returns the per-user policy. Zero durations leave the action unlimited.
func (c *SecurityConfig) CooldownPolicy() security.CooldownPolicy {
	policy := security.CooldownPolicy{}
	for action, d := range map[security.Action]time.Duration{
		security.ActionLaunch: c.CooldownLaunch,
		security.ActionSwap:   c.CooldownSwap,
		security.ActionClaim:  c.CooldownClaim,
		security.ActionQuote:  c.CooldownQuote,
	} {
		if d > 0 {
			policy[action] = d
		}
	}
	return policy
}

// SessionConfig holds session lifetimes.
type SessionConfig struct {
	QuoteTTL       time.Duration `yaml:"quote_ttl" env:"QUOTE_TTL"`
	LaunchDraftTTL time.Duration `yaml:"launch_draft_ttl" env:"LAUNCH_DRAFT_TTL"`
	WalletTimeout  time.Duration `yaml:"wallet_timeout" env:"WALLET_TIMEOUT"`

	// SweepSchedule is a cron spec such as "@every 5m".
	SweepSchedule string `yaml:"sweep_schedule" env:"SESSION_SWEEP_SCHEDULE"`
}

// OpsConfig configures the operator HTTP server.
type OpsConfig struct {
	// Addr is the listen address. Empty disables the server.
	Addr string `yaml:"addr" env:"OPS_ADDR"`

	// AdminToken guards the denylist routes. Empty leaves them unmounted.
	AdminToken string `yaml:"admin_token" env:"OPS_ADMIN_TOKEN"`
}

// New returns a Config populated with the defaults.
func New() *Config {
	policy := security.DefaultCooldownPolicy()
	return &Config{
		Discord: *discord.NewConfig(),
		Bags: BagsConfig{
			BaseURL:  bags.DefaultBaseURL,
			Timeout:  15 * time.Second,
			RPS:      5,
			Burst:    10,
			CacheTTL: 30 * time.Second,
		},
		Security: SecurityConfig{
			SignerURL:            command.DefaultSignerURL,
			CooldownLaunch:       policy[security.ActionLaunch],
			CooldownSwap:         policy[security.ActionSwap],
			CooldownClaim:        policy[security.ActionClaim],
			CooldownServerLaunch: security.DefaultServerLaunchCooldown,
		},
		Session: SessionConfig{
			QuoteTTL:       command.DefaultQuoteTTL,
			LaunchDraftTTL: command.DefaultLaunchDraftTTL,
			WalletTimeout:  command.DefaultWalletTimeout,
			SweepSchedule:  "@every 5m",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path when path is not empty,
// and the environment.
func Load(path string) (*Config, error) {
	cfg := New()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing credentials and unusable values.
func (c *Config) Validate() error {
	switch {
	case c.Discord.Token == "":
		return ErrEmptyDiscordToken
	case c.Bags.APIKey == "":
		return ErrEmptyBagsAPIKey
	case c.Session.QuoteTTL <= 0 || c.Session.LaunchDraftTTL <= 0 || c.Session.WalletTimeout <= 0:
		return errors.New("session lifetimes must be positive")
	case c.Session.SweepSchedule == "":
		return errors.New("session sweep schedule must be set")
	case c.Security.CooldownServerLaunch < 0:
		return errors.New("server launch cooldown must not be negative")
	default:
		return nil
	}
}

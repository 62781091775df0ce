// Command bagcord runs the Bags.fm Discord bot.
//
// Usage:
//
//	export DISCORD_TOKEN="your-bot-token"
//	export BAGS_API_KEY="your-bags-api-key"
//	go run ./cmd/bagcord [-config config.yaml]
//
// Variables may also be placed in a .env file in the working directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/oklahomer/go-kasumi/logger"
	"github.com/oklahomer/go-sarah/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bagcord/bagcord-discord"
	"github.com/bagcord/bagcord-discord/internal/bags"
	"github.com/bagcord/bagcord-discord/internal/command"
	"github.com/bagcord/bagcord-discord/internal/config"
	"github.com/bagcord/bagcord-discord/internal/metrics"
	"github.com/bagcord/bagcord-discord/internal/ops"
	"github.com/bagcord/bagcord-discord/internal/security"
	"github.com/bagcord/bagcord-discord/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %s\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %s\n", err)
		os.Exit(1)
	}

	// Set up a context that cancels on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run: %s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	client, err := bags.NewClient(cfg.Bags.BaseURL, cfg.Bags.APIKey,
		bags.WithHTTPClient(&http.Client{Timeout: cfg.Bags.Timeout}),
		bags.WithRateLimit(cfg.Bags.RPS, cfg.Bags.Burst),
		bags.WithCache(cfg.Bags.CacheTTL),
		bags.WithObserver(m.ObserveRequest),
	)
	if err != nil {
		return fmt.Errorf("failed to create Bags client: %w", err)
	}

	denylist := security.NewDenylist(cfg.Security.TokenDenylist)
	quotes := session.NewStore[*command.QuoteDraft]("quote")
	launches := session.NewStore[*command.LaunchDraft]("launch")
	for _, store := range []interface {
		Kind() string
		Len() int
	}{quotes, launches} {
		if err := m.RegisterSessionGauge(store.Kind(), store.Len); err != nil {
			return fmt.Errorf("failed to register session gauge: %w", err)
		}
	}

	sweeper, err := session.NewSweeper(cfg.Session.SweepSchedule, m.SessionsSwept, quotes, launches)
	if err != nil {
		return err
	}

	// Set up the Discord adapter with the slash commands it registers on connect.
	adapter, err := discord.NewAdapter(&cfg.Discord, discord.WithApplicationCommands(command.ApplicationCommands()...))
	if err != nil {
		return fmt.Errorf("failed to create adapter: %w", err)
	}

	handler := command.NewHandler(client, adapter,
		command.WithRateLimiters(
			security.NewRateLimiter(cfg.Security.CooldownPolicy()),
			security.NewServerRateLimiter(cfg.Security.CooldownServerLaunch),
		),
		command.WithLaunchPolicy(security.NewAccessPolicy(cfg.Security.LaunchAllowedRoles)),
		command.WithDenylist(denylist),
		command.WithSessionStores(quotes, launches),
		command.WithSignerURL(cfg.Security.SignerURL),
		command.WithTTLs(cfg.Session.QuoteTTL, cfg.Session.LaunchDraftTTL, cfg.Session.WalletTimeout),
		command.WithMetrics(m),
	)

	if len(cfg.Security.LaunchAllowedRoles) == 0 {
		logger.Warnf("No launch roles are configured. Every member may use /launch.")
	}

	storage := sarah.NewUserContextStorage(sarah.NewCacheConfig())
	bot := sarah.NewBot(adapter, sarah.BotWithStorage(storage))
	sarah.RegisterBot(bot)
	for _, props := range handler.CommandProps() {
		sarah.RegisterCommandProps(props)
	}

	go sweeper.Run(ctx)

	opsErr := make(chan error, 1)
	if cfg.Ops.Addr != "" {
		gin.SetMode(gin.ReleaseMode)
		server := ops.NewServer(cfg.Ops.Addr, denylist,
			ops.WithAdminToken(cfg.Ops.AdminToken),
			ops.WithGatherer(registry),
		)
		go func() {
			opsErr <- server.Run(ctx)
		}()
	}

	// Start go-sarah's lifecycle management.
	if err := sarah.Run(ctx, sarah.NewConfig()); err != nil {
		return err
	}

	logger.Infof("Bot is running. Press Ctrl+C to stop.")

	select {
	case <-ctx.Done():
	case err := <-opsErr:
		if err != nil {
			logger.Errorf("Operator server stopped: %+v", err)
		}
		<-ctx.Done()
	}

	logger.Infof("Shutting down...")
	handler.Wait()
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/slashroute/internal/commands"
	"github.com/keshon/slashroute/internal/config"
	"github.com/keshon/slashroute/internal/discord"
	"github.com/keshon/slashroute/internal/logger"
	"github.com/keshon/slashroute/pkg/retrylimit"
	"github.com/keshon/slashroute/pkg/slash"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const appName = "slashroute"

var envFiles []string

var rootCmd = &cobra.Command{
	Use:          "slashbot",
	Short:        "Discord slash command bot",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Synchronize commands and serve interactions until interrupted",
	RunE:  runBot,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize commands with Discord and exit",
	RunE:  runSync,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, ".env files to load (default .env)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(printCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is everything run and sync share.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *slash.Registry
	catalog  *discord.Catalog
	bot      *discord.Bot
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
		Development: cfg.LogDev,
	})
	if err != nil {
		return nil, err
	}

	s, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	appID, err := discord.ApplicationID(ctx, s, cfg.ApplicationID)
	if err != nil {
		return nil, err
	}

	reg := slash.NewRegistry()
	env := commands.SessionEnv(s, reg)
	env.ModGuildID = cfg.ModGuildID
	env.ModRoleID = cfg.ModRoleID
	if err := declare(reg, env); err != nil {
		return nil, err
	}

	d := slash.NewDispatcher(reg, slash.NewResolver(discord.NewChannels(s)), discord.NewResponder(s),
		slash.WithDispatchLogger(log),
		slash.WithMiddleware(
			slash.WithRecover(),
			slash.WithLogging(log),
			slash.WithGuildOnly(),
		),
	)

	return &app{
		cfg:      cfg,
		log:      log,
		registry: reg,
		catalog:  discord.NewCatalog(s, appID),
		bot:      discord.NewBot(s, d, log),
	}, nil
}

func declare(reg *slash.Registry, env commands.Env) error {
	c := slash.NewCollector()
	if err := commands.Declare(c, env); err != nil {
		return fmt.Errorf("declare commands: %w", err)
	}
	return reg.Collect(c)
}

// synchronize pushes the registry, retrying the scopes that failed.
func (a *app) synchronize(ctx context.Context) error {
	syncer := slash.NewSynchronizer(a.registry, a.catalog,
		slash.WithSyncLogger(a.log),
		slash.WithConcurrency(a.cfg.SyncConcurrency),
	)

	rc := retrylimit.DefaultRetryConfig()
	rc.MaxAttempts = a.cfg.SyncMaxAttempts
	rc.Logger = a.log
	lim := retrylimit.NewAdaptiveLimiter(rate.Limit(2), 1, 5, 0.5, 0.5)

	err := retrylimit.WithRetryConfig(ctx, func() error {
		return syncer.Synchronize(ctx)
	}, lim, rc)
	if err != nil {
		return err
	}
	a.log.Info("Commands synchronized",
		zap.Int("commands", a.registry.Len()),
		zap.Int("bound", a.registry.Bound()))
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runSync(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.log.Sync()
	return a.synchronize(ctx)
}

func runBot(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.log.Sync()
	a.log.Info("Starting bot", zap.String("app", appName))

	// Interactions route by the IDs bound here, so the gateway opens only
	// after a successful synchronization.
	if err := a.synchronize(ctx); err != nil {
		a.log.Error("Command synchronization failed", zap.Error(err))
		return err
	}

	if err := a.bot.Run(ctx); err != nil {
		a.log.Error("Discord bot error", zap.Error(err))
		return err
	}
	a.log.Info("Discord bot exited cleanly")
	return nil
}

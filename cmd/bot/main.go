package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TonsaiX/XerlBot/internal/api"
	"github.com/TonsaiX/XerlBot/internal/bot"
	"github.com/TonsaiX/XerlBot/internal/commands"
	"github.com/TonsaiX/XerlBot/internal/config"
	"github.com/TonsaiX/XerlBot/internal/logging"
	"github.com/TonsaiX/XerlBot/internal/massrole"
	"github.com/TonsaiX/XerlBot/internal/metrics"
	"github.com/TonsaiX/XerlBot/internal/moderation"
	"github.com/TonsaiX/XerlBot/internal/ratetrack"
	"github.com/TonsaiX/XerlBot/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "xerl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadOrDefault("config.json")
	if cfg.Bot.Token == "" {
		return fmt.Errorf("no bot token: set bot.token in config.json or DISCORD_TOKEN")
	}

	if err := logging.InitGlobalLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.File); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logging.Info("Starting Xerl bot")

	store, err := storage.NewSQLite(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	defer store.Close()

	session, err := bot.New(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	gw := session.Discord()

	stats := metrics.NewRegistry()
	tracker := ratetrack.New()
	engine := moderation.NewEngine(tracker, stats)
	enforcer := moderation.NewEnforcer(gw, stats)
	runner := massrole.NewRunner(gw,
		time.Duration(cfg.MassRole.DelayMS)*time.Millisecond,
		cfg.MassRole.UpdateEvery, stats)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Every mass-role job, regardless of the surface that started it, runs
	// under the process context so shutdown interrupts its pacing.
	spawn := func(job *massrole.Job) { go runner.Run(ctx, job) }

	handlers := bot.NewHandlers(store, engine, enforcer, gw)
	handlers.Register(session)

	if err := session.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer session.Close()
	logging.Info("Connected as bot user %s", session.BotID())

	cmdHandler := commands.NewHandler(store, spawn, gw)
	if err := cmdHandler.Attach(session); err != nil {
		return fmt.Errorf("attach commands: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tracker.Run(ctx)
		return nil
	})

	if cfg.Internal.Secret != "" {
		apiServer := api.NewServer(cfg.Internal.Addr, cfg.Internal.Secret, spawn, stats)
		g.Go(func() error {
			return apiServer.Run(ctx)
		})
	} else {
		logging.Warn("BOT_INTERNAL_SECRET not set, internal API disabled")
	}

	logging.Info("Xerl is running. Press Ctrl+C to exit.")
	<-ctx.Done()
	logging.Info("Shutting down...")

	if err := g.Wait(); err != nil {
		return err
	}
	logging.Info("Shutdown complete")
	return nil
}

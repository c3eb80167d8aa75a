package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	configloader "github.com/foxseedlab/bateponto/external/config"
	"github.com/foxseedlab/bateponto/external/discord"
	notifierimpl "github.com/foxseedlab/bateponto/external/notifier"
	repositoryimpl "github.com/foxseedlab/bateponto/external/repository"
	"github.com/foxseedlab/bateponto/internal/config"
	discordpkg "github.com/foxseedlab/bateponto/internal/discord"
	"github.com/foxseedlab/bateponto/internal/punch"
	"github.com/foxseedlab/bateponto/internal/repository"
	"github.com/foxseedlab/bateponto/internal/timeclock"
	"github.com/samber/do/v2"
)

const discordConnectTimeout = 20 * time.Second

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "store_driver", cfg.StoreDriver)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching discord bot")
	runBot(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	timeclock.RegisterDI(injector)
	notifierimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	punch.RegisterDI(injector)

	return injector
}

func runBot(cfg *config.Config, injector do.Injector) {
	store, err := do.Invoke[repository.UserRecordStore](injector)
	if err != nil {
		slog.Error("failed to open store", "error", err, "store_driver", cfg.StoreDriver)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("store close failed", "error", err)
		}
	}()
	dc, err := do.Invoke[discordpkg.Client](injector)
	if err != nil {
		slog.Error("failed to resolve discord client", "error", err)
		os.Exit(1)
	}
	handler, err := do.Invoke[*punch.Handler](injector)
	if err != nil {
		slog.Error("failed to resolve punch handler", "error", err)
		os.Exit(1)
	}
	publisher, err := do.Invoke[*notifierimpl.AMQPPublisher](injector)
	if err != nil {
		slog.Error("failed to resolve amqp publisher", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("amqp publisher close failed", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), discordConnectTimeout)
	defer cancel()

	slog.Info("startup: connecting to discord gateway")
	if err := dc.Connect(ctx); err != nil {
		slog.Error("discord connect failed", "error", err)
		os.Exit(1)
	}
	slog.Info("startup: discord connected")
	closeDiscord := sync.OnceFunc(func() {
		if err := dc.Close(); err != nil {
			slog.Error("discord close failed", "error", err)
		}
	})
	defer closeDiscord()

	if err := dc.UpsertGuildSlashCommands(cfg.DiscordGuildID, punch.SlashCommandDefinitions()); err != nil {
		slog.Error("failed to upsert slash commands", "error", err, "guild_id", cfg.DiscordGuildID)
		os.Exit(1)
	}
	if err := dc.UpdatePresence(discordpkg.Presence{Status: cfg.DiscordPresenceStatus, Activity: cfg.DiscordPresenceActivity}); err != nil {
		slog.Warn("failed to set presence", "error", err)
	}

	dc.RegisterButtonHandler(handler.HandleButton)
	dc.RegisterSlashCommandHandler(handler.HandleSlashCommand)
	slog.Info("discord handlers registered", "guild_id", cfg.DiscordGuildID, "commands", []string{"bateponto", "horas", "ranking"})

	done := make(chan struct{})
	go func() {
		slog.Info("startup: entering discord run loop")
		if err := dc.Run(); err != nil {
			slog.Error("discord run failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}
	// No new interactions arrive once the gateway is closed, so the store
	// stays open until the ones already running are done.
	closeDiscord()
	handler.Wait()
}

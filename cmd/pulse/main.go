package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/clickup"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/config"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/crypto"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/pager"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/router"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/schedule"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/session"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/store"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/wizard"
)

func configureLogger(logLevel string, useDev bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if useDev {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func validateRuntimeConfigReload(oldCfg, newCfg *config.Config) error {
	if oldCfg == nil || newCfg == nil {
		return fmt.Errorf("invalid config state during reload")
	}
	if strings.TrimSpace(oldCfg.General.StateDB) != strings.TrimSpace(newCfg.General.StateDB) {
		return fmt.Errorf("state_db changed and requires restart")
	}
	if strings.TrimSpace(oldCfg.Discord.Token) != strings.TrimSpace(newCfg.Discord.Token) {
		return fmt.Errorf("discord.token changed and requires restart")
	}
	if strings.TrimSpace(oldCfg.General.EncryptionKey) != strings.TrimSpace(newCfg.General.EncryptionKey) {
		return fmt.Errorf("encryption_key changed and requires restart")
	}
	return nil
}

func main() {
	configPath := flag.String("config", "pulse.toml", "path to config file")
	dev := flag.Bool("dev", false, "use text log format (default is JSON)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	logger.Info("pulse starting", "config", *configPath)

	cfgManager, err := config.LoadManager(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := cfgManager.Get()

	logger = configureLogger(cfg.General.LogLevel, *dev)
	slog.SetDefault(logger)

	dbPath := config.ExpandHome(cfg.General.StateDB)
	st, err := store.Open(dbPath)
	if err != nil {
		logger.Error("failed to open store", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	cipher, err := crypto.NewTokenCipher(cfg.EncryptionKey())
	if err != nil {
		logger.Error("failed to build token cipher", "error", err)
		os.Exit(1)
	}

	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logger.Error("failed to create discord session", "error", err)
		os.Exit(1)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	drafts := session.New[*wizard.Draft](cfg.Sessions.DraftTTL.Duration)
	lists := session.New[*pager.Session](cfg.Sessions.ListTTL.Duration)

	httpClient := &http.Client{Timeout: cfg.ClickUp.RequestTimeout.Duration}
	newClient := func(token string) *clickup.Client {
		return clickup.New(cfgManager.Get().ClickUp.BaseURL, token, httpClient)
	}

	responder := &router.DiscordResponder{S: dg}
	handlers := router.New(
		logger,
		cfgManager,
		st,
		cipher,
		responder,
		func(token string) router.ClickUp { return newClient(token) },
		drafts,
		lists,
	)
	handlers.Bind(dg)

	if err := dg.Open(); err != nil {
		logger.Error("failed to open discord gateway", "error", err)
		os.Exit(1)
	}
	defer dg.Close()

	if err := handlers.RegisterCommands(dg, cfg.Discord.AppID); err != nil {
		logger.Error("failed to register slash commands", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go drafts.Run(ctx, cfg.Sessions.SweepInterval.Duration)
	go lists.Run(ctx, cfg.Sessions.SweepInterval.Duration)

	scheduler := schedule.New(
		logger,
		st,
		cipher,
		func(token string) schedule.Client { return newClient(token) },
		responder,
		lists,
		cfg.Location(),
	)
	go scheduler.Run(ctx)

	logger.Info("pulse running",
		"state_db", dbPath,
		"timezone", cfg.General.Timezone,
		"draft_ttl", cfg.Sessions.DraftTTL.Duration.String(),
		"list_ttl", cfg.Sessions.ListTTL.Duration.String(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	for {
		sig := <-sigCh
		switch sig {
		case syscall.SIGHUP:
			oldCfg := cfgManager.Get()
			if err := cfgManager.Reload(*configPath); err != nil {
				logger.Error("config reload failed", "error", err)
				continue
			}
			if err := validateRuntimeConfigReload(oldCfg, cfgManager.Get()); err != nil {
				cfgManager.Set(oldCfg)
				logger.Error("config reload rejected", "error", err)
				continue
			}
			logger = configureLogger(cfgManager.Get().General.LogLevel, *dev)
			slog.SetDefault(logger)
			logger.Info("config reloaded")
		case syscall.SIGINT, syscall.SIGTERM:
			shutdownStart := time.Now()
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
			logger.Info("pulse stopped", "shutdown_duration", time.Since(shutdownStart).String())
			return
		default:
			cancel()
			return
		}
	}
}

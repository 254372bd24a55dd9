package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/mirrorbot/config"
	"github.com/alejandrodnm/mirrorbot/internal/adapters/delta"
	"github.com/alejandrodnm/mirrorbot/internal/adapters/notify"
	"github.com/alejandrodnm/mirrorbot/internal/adapters/storage"
	"github.com/alejandrodnm/mirrorbot/internal/application/mirror"
	"github.com/alejandrodnm/mirrorbot/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one mirror tick and exit")
	dryRun := flag.Bool("dry-run", false, "read real state but never submit orders")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print the full copy-trade table per tick")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("mirrorbot starting",
		"config", *configPath,
		"interval", cfg.PollInterval(),
		"dry_run", *dryRun,
		"once", *once,
	)

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// El base URL del broker master manda sobre el del config: cada master
	// puede vivir en un entorno distinto del exchange.
	baseURL := cfg.API.BaseURL
	master, err := store.GetMasterBroker(ctx)
	if err != nil {
		slog.Error("no active master broker, seed the master_brokers table first", "err", err)
		os.Exit(1)
	}
	if master.BaseURL != "" {
		baseURL = master.BaseURL
	}

	client := delta.NewClient(baseURL)
	catalog := delta.NewCatalog(client, cfg.CatalogRefresh())
	source := delta.NewPositionSource(client)

	var gateway ports.OrderGateway = delta.NewGateway(client)
	if *dryRun {
		gateway = delta.NewDryRunGateway(client)
		slog.Warn("dry-run mode: orders will be logged, never submitted")
	}

	notifier := notify.NewConsole(*table)

	engine := mirror.New(store, source, catalog, gateway, store, notifier, mirror.Config{
		Interval:      cfg.PollInterval(),
		Workers:       cfg.Engine.Workers,
		OrderAttempts: cfg.Engine.OrderAttempts,
	})

	if *once {
		result, err := engine.RunOnce(ctx)
		if err != nil {
			slog.Error("tick failed", "err", err)
			os.Exit(1)
		}
		if err := notifier.Notify(ctx, *result); err != nil {
			slog.Warn("notifier error", "err", err)
		}
		return
	}

	if err := engine.Run(ctx); err != nil {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("mirrorbot stopped cleanly")
}

// setupLogger configura el handler global de slog según el config.
func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

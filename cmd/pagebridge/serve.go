package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pagebridge/internal/bus"
	"pagebridge/internal/config"
	"pagebridge/internal/domain"
	"pagebridge/internal/i18n"
	"pagebridge/internal/messenger"
	"pagebridge/internal/metrics"
	"pagebridge/internal/store"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Long:  "Starts the Messenger webhook endpoint, metrics and health routes. Press Ctrl+C to stop.",
		RunE:  runServe,
	}
}

func newGraphClient(cfg *config.Config) *messenger.GraphClient {
	return messenger.NewGraphClient(cfg.Messenger.AccessToken, cfg.Messenger.GraphURL, logger)
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	var level slog.Level
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out := os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err = newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.NewSQLiteStore(cfg.Store.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	catalog, err := i18n.Load(cfg.I18n.CatalogPath)
	if err != nil {
		return fmt.Errorf("load i18n catalog: %w", err)
	}

	eventBus := bus.NewEventBus(logger)
	eventBus.On("*", func(e bus.Event) {
		logger.Debug("bus event", "type", e.Type, "source", e.Source)
	})

	channel := messenger.NewChannel(messenger.ChannelOptions{
		Config:      cfg.Messenger,
		WebhookPath: cfg.Server.WebhookPath,
		API:         newGraphClient(cfg),
		Bus:         eventBus,
		Subscribers: db,
		Attachments: db,
		Translator:  catalog,
		Logger:      logger,
	})
	channel.RegisterLabelHooks(ctx, db)

	if cfg.Menu.Path != "" {
		tree, err := messenger.LoadMenuFile(cfg.Menu.Path)
		if err != nil {
			logger.Warn("menu load failed, skipping profile sync", "err", err)
		} else if err := channel.SyncProfile(ctx, tree); err != nil {
			logger.Warn("profile sync failed", "err", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.WebhookPath, channel.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})
	if cfg.Metrics.Enabled {
		mux.HandleFunc("GET "+cfg.Metrics.Endpoint, metrics.Collector.Handler())
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("webhook server listening",
			"addr", srv.Addr,
			"webhook", cfg.Server.WebhookPath,
			"channel", messenger.ChannelName,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// ensure domain interfaces stay satisfied by the store
var (
	_ domain.SubscriberStore    = (*store.SQLiteStore)(nil)
	_ domain.AttachmentResolver = (*store.SQLiteStore)(nil)
	_ domain.LabelStore         = (*store.SQLiteStore)(nil)
)

// Command wabridge bridges a WhatsApp session to the answer-generation
// backend, with a rule-based agent in front of it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/desfrut/wabridge"
	"github.com/desfrut/wabridge/backend"
	"github.com/desfrut/wabridge/catalog"
	"github.com/desfrut/wabridge/metrics"
	"github.com/desfrut/wabridge/store"
	"github.com/desfrut/wabridge/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "wabridge:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := wabridge.LoadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	for _, path := range []string{cfg.StateDB, cfg.HandoffDB} {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	voice := wabridge.DefaultVoice()
	if cfg.VoiceFile != "" {
		voice, err = wabridge.LoadVoice(cfg.VoiceFile)
		if err != nil {
			logger.Warn("voice file unusable, using defaults", "error", err)
		}
	}
	logger.Info("voice loaded", "rules", len(voice.Rules))

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	idx := catalog.New(cfg.CatalogCSV, logger)
	states := store.NewStateStore(cfg.StateDB, logger)
	handoffs := store.NewHandoffRegistry(cfg.HandoffDB, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bk := backend.New(cfg.BackendURL, cfg.RequestTimeout, logger, m)
	go bk.KeepAlive(ctx, cfg.KeepAliveInterval)

	bridge, err := wabridge.NewBridge(wabridge.BridgeConfig{
		Router:      wabridge.NewRouter(idx, states, logger, m),
		Backend:     bk,
		Handoffs:    handoffs,
		Voice:       voice,
		OperatorJID: cfg.OperatorJID,
		HandoffTTL:  cfg.HandoffTTL,
		Metrics:     m,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	client, err := transport.New(ctx, transport.ClientConfig{
		SessionDB:   cfg.SessionDB,
		AllowGroups: cfg.AllowGroups,
	}, bridge, logger)
	if err != nil {
		return err
	}

	statusSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: transport.NewStatusHandler(client, idx, registry, logger),
	}
	go func() {
		logger.Info("status server listening", "addr", statusSrv.Addr)
		if err := statusSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("status server failed", "error", err)
		}
	}()

	if err := client.Connect(ctx); err != nil {
		return err
	}
	logger.Info("bridge running", "backend", cfg.BackendURL)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case <-client.Done:
		logger.Error("session logged out, exiting; delete the session db to re-pair")
	}

	client.Disconnect()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return statusSrv.Shutdown(shutdownCtx)
}

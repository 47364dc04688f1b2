package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/blackmichael/skybridge/internal/bluesky"
	"github.com/blackmichael/skybridge/internal/config"
	"github.com/blackmichael/skybridge/internal/domain"
	"github.com/blackmichael/skybridge/internal/mastodon"
	"github.com/blackmichael/skybridge/internal/opsserver"
	"github.com/blackmichael/skybridge/internal/sqlite"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ledger, err := sqlite.Open(cfg.LedgerPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer ledger.Close()
	logger.Info("ledger opened", "path", cfg.LedgerPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := bluesky.NewClient(cfg.BlueskyPDS)
	if err := client.Login(ctx, cfg.BlueskyIdentifier, cfg.BlueskyAppPassword); err != nil {
		return fmt.Errorf("bluesky login: %w", err)
	}
	logger.Info("authenticated with destination", "did", client.DID())

	validator, err := bluesky.NewRecordValidator()
	if err != nil {
		return fmt.Errorf("compile record schema: %w", err)
	}

	filter := domain.NewFilter(cfg.MastodonAccountID)
	transloader := domain.NewTransloader(client)
	assembler := domain.NewAssembler(transloader, ledger, validator)
	service := domain.NewService(filter, assembler, client, ledger, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start the streaming subscriber in the background
	subscriber := mastodon.NewSubscriber(cfg.MastodonServer, cfg.MastodonAccessToken, service, logger)
	go func() {
		if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("streaming subscriber exited with error", "error", err)
		}
	}()

	// Start the ops HTTP server
	server := opsserver.NewServer(cfg.OpsPort, service, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("ops server exited with error", "error", err)
		}
	}()

	logger.Info("bridge started",
		"source", cfg.MastodonServer,
		"account", cfg.MastodonAccountID,
		"ops_port", cfg.OpsPort,
	)

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("error shutting down ops server", "error", err)
	}

	return nil
}

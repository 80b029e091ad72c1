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

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/shoplist/internal/auth"
	"github.com/dukerupert/shoplist/internal/config"
	"github.com/dukerupert/shoplist/internal/database"
	"github.com/dukerupert/shoplist/internal/logging"
	"github.com/dukerupert/shoplist/internal/lookup"
	"github.com/dukerupert/shoplist/internal/server"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-token" {
		os.Exit(hashToken(os.Args[2:]))
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		slog.Error("shoplist exited", "error", err)
		os.Exit(1)
	}
}

// hashToken prints the bcrypt hash to put in SHOPLIST_API_TOKEN_HASH.
func hashToken(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: shoplist hash-token <token>")
		return 2
	}
	hash, err := auth.HashToken(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(hash)
	return 0
}

func run(cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	gate, err := auth.NewTokenGate(cfg.APITokenHash)
	if err != nil {
		return err
	}
	if !gate.Enabled() {
		logger.Warn("SHOPLIST_API_TOKEN_HASH not set, API is open")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(ctx, db, server.Options{
		Lookup: lookup.Config{
			BaseURL:  cfg.LookupBaseURL,
			Timeout:  cfg.LookupTimeout,
			CacheTTL: cfg.LookupCacheTTL,
		},
		ScanSessionTTL: cfg.ScanSessionTTL,
		Gate:           gate,
	}, logger)

	// No WriteTimeout: /ws and ?wait=1 scans hold the response open.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("shoplist starting", "addr", httpServer.Addr, "db", cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return srv.ScanManager().Run(gctx)
	})

	g.Go(func() error {
		return srv.RateLimiter().Run(gctx, time.Hour)
	})

	return g.Wait()
}

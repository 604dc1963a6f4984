// Package main is the entry point of the auto-buy bot service.
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
	"time"

	"github.com/your-org/auto-buy-bot/internal/app"
	"github.com/your-org/auto-buy-bot/internal/config"
	"github.com/your-org/auto-buy-bot/internal/http/handler"
	"github.com/your-org/auto-buy-bot/pkg/logger"
)

func main() {
	// --- Configuration ---
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	envPath := flag.String("env", ".env", "Path to an optional .env file")
	startActive := flag.Bool("start", false, "Mark the bot active on startup (resets last_run)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer logger.Sync()
	logger.Info("Auto-buy bot starting...")
	logger.Infof("Loaded configuration from: %s", *configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize bot: %v", err)
	}
	defer a.Close()

	if *startActive {
		if _, err := a.Engine.Start(ctx); err != nil {
			logger.Errorf("Failed to start bot: %v", err)
		}
	}

	// --- Operator API ---
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.NewRouter(handler.NewBotHandler(a.Engine, a.Reporter, a.Driver, logger.Zap("http"))),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("HTTP server starting on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server failed: %v", err)
			cancel()
		}
	}()

	// --- Tick loop ---
	a.Driver.Start(ctx)

	// --- Graceful Shutdown ---
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Infof("Received signal: %s, initiating shutdown...", sig)
	case <-ctx.Done():
		logger.Info("Context cancelled, initiating shutdown...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("HTTP server shutdown: %v", err)
	}
	a.Driver.Stop()
	cancel()
	logger.Info("Auto-buy bot shut down gracefully.")
}

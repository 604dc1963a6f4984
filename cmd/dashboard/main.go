// Package main runs the bot with an interactive terminal dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/your-org/auto-buy-bot/internal/app"
	"github.com/your-org/auto-buy-bot/internal/config"
	"github.com/your-org/auto-buy-bot/internal/dashboard"
	"github.com/your-org/auto-buy-bot/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	envPath := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = "logs/dashboard.log"
	}
	// The terminal belongs to the dashboard, so logs only go to the file.
	logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       logFile,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		NoConsole:  true,
	})
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Dashboard failed: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ticks, unsubscribe := a.Driver.Subscribe()
	defer unsubscribe()
	a.Driver.Start(ctx)

	p := tea.NewProgram(dashboard.NewModel(ctx, a.Engine, a.Reporter, ticks), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// Package app wires the bot's components from a loaded configuration.
package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/your-org/auto-buy-bot/internal/alert"
	"github.com/your-org/auto-buy-bot/internal/bot"
	"github.com/your-org/auto-buy-bot/internal/config"
	"github.com/your-org/auto-buy-bot/internal/driver"
	"github.com/your-org/auto-buy-bot/internal/engine"
	"github.com/your-org/auto-buy-bot/internal/exchange/alpaca"
	"github.com/your-org/auto-buy-bot/internal/guard"
	"github.com/your-org/auto-buy-bot/internal/report"
	"github.com/your-org/auto-buy-bot/internal/state"
	"github.com/your-org/auto-buy-bot/pkg/logger"
)

// App holds the running components of one bot process.
type App struct {
	Config   *config.Config
	Client   *alpaca.Client
	Store    state.Store
	Reporter *report.Reporter
	Notifier alert.Notifier
	Engine   *bot.Engine
	Driver   *driver.Driver

	closeStore func() error
}

// NewClient builds the brokerage client from cfg.
func NewClient(cfg *config.Config) *alpaca.Client {
	return alpaca.NewClient(alpaca.Options{
		BaseURL:       cfg.Alpaca.BaseURL,
		APIKey:        cfg.APIKey,
		APISecret:     cfg.APISecret,
		Timeout:       cfg.Alpaca.Timeout,
		RatePerMinute: cfg.Alpaca.RatePerMinute,
	})
}

// New builds every component. The caller owns the result and must Close it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY must be set")
	}

	store, closeStore, err := state.Open(ctx, cfg.State, logger.Zap("state"))
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	a := &App{Config: cfg, Store: store, closeStore: closeStore}
	a.Client = NewClient(cfg)
	a.Reporter = report.NewReporter(a.Client, cfg.OrdersLookback)

	var exec engine.Executor
	if cfg.DryRun {
		logger.Warn("dry-run mode: orders are simulated and never sent")
		exec = engine.NewDryRunExecutor()
	} else {
		exec = engine.NewLiveExecutor(a.Client)
	}

	a.Notifier = alert.NewLogNotifier(logger.Zap("alert"))
	if cfg.Discord.BotToken != "" {
		n, err := alert.NewDiscordNotifier(cfg.Discord, logger.Zap("alert"))
		if err != nil {
			logger.Warnf("Discord alerts disabled: %v", err)
		} else {
			a.Notifier = n
		}
	}

	a.Engine, err = bot.NewEngine(
		bot.Config{
			Symbol:   cfg.Symbol,
			Quantity: decimal.NewFromFloat(cfg.Quantity),
			Side:     cfg.Side,
			Interval: cfg.Interval,
		},
		store,
		guard.NewChecker(a.Client, decimal.NewFromFloat(cfg.MinBuyingPower)),
		exec,
		bot.WithSnapshotter(a.Reporter),
		bot.WithNotifier(a.Notifier),
		bot.WithLogger(logger.Zap("bot")),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Driver = driver.New(a.Engine, cfg.Driver.Period, logger.Zap("driver"))
	logger.Zap("app").Info("bot wired",
		zap.String("symbol", cfg.Symbol),
		zap.Float64("quantity", cfg.Quantity),
		zap.String("side", cfg.Side),
		zap.Duration("interval", cfg.Interval),
		zap.String("state_backend", cfg.State.Backend),
		zap.Bool("dry_run", bool(cfg.DryRun)),
	)
	return a, nil
}

// Close stops the driver and releases the notifier and the state store.
func (a *App) Close() error {
	if a.Driver != nil {
		a.Driver.Stop()
	}
	if a.Notifier != nil {
		if err := a.Notifier.Close(); err != nil {
			logger.Warnf("failed to close notifier: %v", err)
		}
	}
	if a.closeStore != nil {
		return a.closeStore()
	}
	return nil
}

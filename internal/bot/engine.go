// Package bot implements the auto-buy state machine: it decides on each tick
// whether a trade is due, runs the solvency guard, places the trade and keeps
// the persisted state in step.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/your-org/auto-buy-bot/internal/alert"
	"github.com/your-org/auto-buy-bot/internal/engine"
	"github.com/your-org/auto-buy-bot/internal/guard"
	"github.com/your-org/auto-buy-bot/internal/report"
	"github.com/your-org/auto-buy-bot/internal/state"
)

// Guard decides whether the account can afford a trade.
type Guard interface {
	Check(ctx context.Context) guard.Result
}

// Snapshotter produces the positions and orders shown after each tick.
type Snapshotter interface {
	Positions(ctx context.Context) report.PositionsView
	RecentOrders(ctx context.Context) report.OrdersView
}

// Config is the fixed trade the engine places every interval.
type Config struct {
	Symbol   string
	Quantity decimal.Decimal
	Side     string
	Interval time.Duration
}

// Validate checks the trade parameters.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return errors.New("symbol must be set")
	}
	if !c.Quantity.IsPositive() {
		return fmt.Errorf("quantity must be positive, got %s", c.Quantity)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	return nil
}

// Engine owns the bot state. Start, Stop and Tick are serialized.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	store    state.Store
	guard    Guard
	executor engine.Executor
	snapshot Snapshotter
	notifier alert.Notifier
	logger   *zap.Logger
	now      func() time.Time

	// lastPersistErr is the most recent Save failure, cleared by the next successful Save.
	lastPersistErr error
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithNotifier sends trade outcomes and failures to n.
func WithNotifier(n alert.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSnapshotter refreshes positions and orders after each running tick.
func WithSnapshotter(s Snapshotter) Option {
	return func(e *Engine) { e.snapshot = s }
}

// NewEngine creates an Engine.
func NewEngine(cfg Config, store state.Store, g Guard, exec engine.Executor, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bot config: %w", err)
	}
	if store == nil || g == nil || exec == nil {
		return nil, errors.New("store, guard and executor are required")
	}
	e := &Engine{
		cfg:      cfg,
		store:    store,
		guard:    g,
		executor: exec,
		notifier: alert.NewNoOpNotifier(),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine's trade configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Start marks the bot active and clears last_run, so the next tick trades immediately.
func (e *Engine) Start(ctx context.Context) (state.BotState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := state.BotState{Active: true}
	if err := e.save(ctx, st); err != nil {
		return e.store.Load(ctx), err
	}
	e.logger.Info("bot started", zap.String("symbol", e.cfg.Symbol), zap.Duration("interval", e.cfg.Interval))
	return st, nil
}

// Stop marks the bot inactive and keeps last_run.
func (e *Engine) Stop(ctx context.Context) (state.BotState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.store.Load(ctx)
	st.Active = false
	if err := e.save(ctx, st); err != nil {
		return e.store.Load(ctx), err
	}
	e.logger.Info("bot stopped", zap.Stringer("state", st))
	return st, nil
}

// Status reports the persisted state without side effects.
func (e *Engine) Status(ctx context.Context) Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.store.Load(ctx)
	s := Status{
		Running:  st.Active,
		LastRun:  st.LastRun,
		NextRun:  e.nextRun(st),
		Symbol:   e.cfg.Symbol,
		Quantity: e.cfg.Quantity,
		Side:     e.cfg.Side,
		Interval: e.cfg.Interval,
	}
	if e.lastPersistErr != nil {
		s.PersistError = e.lastPersistErr.Error()
	}
	return s
}

// Tick evaluates the state machine once. It never returns an error: every
// failure is described in the report.
func (e *Engine) Tick(ctx context.Context) TickReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	st := e.store.Load(ctx)
	rep := TickReport{At: now, State: st}

	if !st.Active {
		return rep
	}

	if st.LastRun != nil && now.Sub(*st.LastRun) < e.cfg.Interval {
		rep.NextRun = e.nextRun(st)
		e.refresh(ctx, &rep)
		return rep
	}

	rep.Eligible = true
	next := st.WithLastRun(now)
	if err := e.save(ctx, next); err != nil {
		rep.Err = err
		rep.addMessage(fmt.Sprintf("Failed to persist bot state, trade skipped: %v", err))
		e.notify(fmt.Sprintf("Persistence failure: %v", err))
		e.refresh(ctx, &rep)
		return rep
	}
	rep.State = next
	rep.NextRun = e.nextRun(next)

	g := e.guard.Check(ctx)
	rep.Guard = &g
	if !g.Eligible {
		e.logger.Warn("guard rejected trade", zap.String("reason", g.Reason), zap.Error(g.Err))
		rep.addMessage("Order failed: " + g.Reason)
		e.notify("Trade skipped: " + g.Reason)
		e.refresh(ctx, &rep)
		return rep
	}

	res := e.executor.Execute(ctx, e.cfg.Symbol, e.cfg.Quantity, e.cfg.Side)
	rep.Trade = &res
	if res.Succeeded {
		e.logger.Info("trade placed", zap.String("order_id", res.OrderID), zap.String("message", res.Message))
		rep.addMessage(fmt.Sprintf("Order placed successfully at %s", now.Format("15:04:05")))
	} else {
		e.logger.Error("trade failed", zap.String("message", res.Message), zap.Error(res.Err))
		rep.addMessage("Order failed: " + res.Message)
	}
	e.notify(res.Message)

	e.refresh(ctx, &rep)
	return rep
}

func (e *Engine) save(ctx context.Context, st state.BotState) error {
	if err := e.store.Save(ctx, st); err != nil {
		e.lastPersistErr = err
		e.logger.Error("failed to persist bot state", zap.Stringer("state", st), zap.Error(err))
		return err
	}
	e.lastPersistErr = nil
	return nil
}

func (e *Engine) nextRun(st state.BotState) *time.Time {
	if st.LastRun == nil {
		return nil
	}
	t := st.LastRun.Add(e.cfg.Interval)
	return &t
}

func (e *Engine) refresh(ctx context.Context, rep *TickReport) {
	if e.snapshot == nil {
		return
	}
	positions := e.snapshot.Positions(ctx)
	orders := e.snapshot.RecentOrders(ctx)
	rep.Positions = &positions
	rep.Orders = &orders
	if positions.Err != nil {
		rep.addMessage(positions.Message)
	}
	if orders.Err != nil {
		rep.addMessage(orders.Message)
	}
}

func (e *Engine) notify(msg string) {
	if err := e.notifier.Send(msg); err != nil {
		e.logger.Warn("failed to queue alert", zap.Error(err))
	}
}

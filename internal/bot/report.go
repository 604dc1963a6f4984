package bot

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/your-org/auto-buy-bot/internal/engine"
	"github.com/your-org/auto-buy-bot/internal/guard"
	"github.com/your-org/auto-buy-bot/internal/report"
	"github.com/your-org/auto-buy-bot/internal/state"
)

// TickReport describes what a single tick did.
type TickReport struct {
	At    time.Time
	State state.BotState
	// Eligible is true when the interval had elapsed and a trade attempt was due.
	Eligible bool
	// Guard is set when the guard ran.
	Guard *guard.Result
	// Trade is set when the executor ran.
	Trade *engine.TradeAttemptResult
	// NextRun is last_run + interval, when last_run is known.
	NextRun   *time.Time
	Positions *report.PositionsView
	Orders    *report.OrdersView
	// Err is a persistence failure. Gateway failures are reported through Guard, Trade and the views.
	Err      error
	Messages []string
}

func (r *TickReport) addMessage(msg string) {
	if msg != "" {
		r.Messages = append(r.Messages, msg)
	}
}

// Attempted reports whether the executor was invoked.
func (r TickReport) Attempted() bool {
	return r.Trade != nil
}

// Status is the read-only view of the engine.
type Status struct {
	Running      bool            `json:"running"`
	LastRun      *time.Time      `json:"last_run"`
	NextRun      *time.Time      `json:"next_run"`
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	Side         string          `json:"side"`
	Interval     time.Duration   `json:"interval"`
	PersistError string          `json:"persist_error,omitempty"`
}

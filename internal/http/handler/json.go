package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/auto-buy-bot/internal/bot"
	"github.com/your-org/auto-buy-bot/internal/report"
	"github.com/your-org/auto-buy-bot/internal/state"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (h *BotHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write JSON response", zap.Int("status", status), zap.Error(err))
	}
}

func (h *BotHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

type statusResponse struct {
	Running         bool       `json:"running"`
	LastRun         *time.Time `json:"last_run"`
	NextRun         *time.Time `json:"next_run"`
	Symbol          string     `json:"symbol"`
	Quantity        string     `json:"quantity"`
	Side            string     `json:"side"`
	IntervalSeconds float64    `json:"interval_seconds"`
	PersistError    string     `json:"persist_error,omitempty"`
}

func newStatusResponse(s bot.Status) statusResponse {
	return statusResponse{
		Running:         s.Running,
		LastRun:         s.LastRun,
		NextRun:         s.NextRun,
		Symbol:          s.Symbol,
		Quantity:        s.Quantity.String(),
		Side:            s.Side,
		IntervalSeconds: s.Interval.Seconds(),
		PersistError:    s.PersistError,
	}
}

type stateResponse struct {
	Active  bool       `json:"is_active"`
	LastRun *time.Time `json:"last_run"`
	Error   string     `json:"error,omitempty"`
}

func newStateResponse(st state.BotState, err error) stateResponse {
	r := stateResponse{Active: st.Active, LastRun: st.LastRun}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

type positionsResponse struct {
	report.PositionsView
	ReturnPct string `json:"return_pct"`
	Error     string `json:"error,omitempty"`
}

type ordersResponse struct {
	report.OrdersView
	Error string `json:"error,omitempty"`
}

type tradeResponse struct {
	Succeeded bool   `json:"succeeded"`
	Message   string `json:"message"`
	OrderID   string `json:"order_id,omitempty"`
}

type tickResponse struct {
	At          time.Time             `json:"at"`
	Active      bool                  `json:"is_active"`
	LastRun     *time.Time            `json:"last_run"`
	NextRun     *time.Time            `json:"next_run"`
	Eligible    bool                  `json:"eligible"`
	GuardReason string                `json:"guard_reason,omitempty"`
	Trade       *tradeResponse        `json:"trade,omitempty"`
	Positions   *report.PositionsView `json:"positions,omitempty"`
	Orders      *report.OrdersView    `json:"orders,omitempty"`
	Messages    []string              `json:"messages"`
	Error       string                `json:"error,omitempty"`
}

func newTickResponse(rep bot.TickReport) tickResponse {
	r := tickResponse{
		At:        rep.At,
		Active:    rep.State.Active,
		LastRun:   rep.State.LastRun,
		NextRun:   rep.NextRun,
		Eligible:  rep.Eligible,
		Positions: rep.Positions,
		Orders:    rep.Orders,
		Messages:  rep.Messages,
	}
	if r.Messages == nil {
		r.Messages = []string{}
	}
	if rep.Guard != nil && !rep.Guard.Eligible {
		r.GuardReason = rep.Guard.Reason
	}
	if rep.Trade != nil {
		r.Trade = &tradeResponse{Succeeded: rep.Trade.Succeeded, Message: rep.Trade.Message, OrderID: rep.Trade.OrderID}
	}
	if rep.Err != nil {
		r.Error = rep.Err.Error()
	}
	return r
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/your-org/auto-buy-bot/internal/bot"
	"github.com/your-org/auto-buy-bot/internal/position"
	"github.com/your-org/auto-buy-bot/internal/report"
	"github.com/your-org/auto-buy-bot/internal/state"
)

// Engine is the bot control surface exposed over HTTP.
type Engine interface {
	Start(ctx context.Context) (state.BotState, error)
	Stop(ctx context.Context) (state.BotState, error)
	Status(ctx context.Context) bot.Status
}

// Reporter provides the read-only views and bulk actions.
type Reporter interface {
	Account(ctx context.Context) report.AccountView
	Positions(ctx context.Context) report.PositionsView
	Orders(ctx context.Context, q report.OrderQuery) report.OrdersView
	CloseAllPositions(ctx context.Context) report.ActionResult
	CancelAllOrders(ctx context.Context) report.ActionResult
}

// TickStream delivers tick reports to websocket clients.
type TickStream interface {
	Subscribe() (<-chan bot.TickReport, func())
	Last() (bot.TickReport, bool)
}

const writeTimeout = 10 * time.Second

// BotHandler serves the operator API.
type BotHandler struct {
	engine   Engine
	reporter Reporter
	ticks    TickStream
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewBotHandler creates a BotHandler. ticks may be nil, which disables /api/ws.
func NewBotHandler(engine Engine, reporter Reporter, ticks TickStream, logger *zap.Logger) *BotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BotHandler{
		engine:   engine,
		reporter: reporter,
		ticks:    ticks,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// NewRouter builds the complete router, health check included.
func NewRouter(h *BotHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Route("/api", h.RegisterRoutes)
	return r
}

// RegisterRoutes registers the operator routes on r.
func (h *BotHandler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.GetStatus)
	r.Post("/bot/start", h.StartBot)
	r.Post("/bot/stop", h.StopBot)
	r.Get("/account", h.GetAccount)
	r.Get("/positions", h.GetPositions)
	r.Post("/positions/close", h.CloseAllPositions)
	r.Get("/orders", h.GetOrders)
	r.Post("/orders/cancel", h.CancelAllOrders)
	if h.ticks != nil {
		r.Get("/ws", h.StreamTicks)
	}
}

// GetStatus returns the persisted bot state and schedule.
func (h *BotHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, newStatusResponse(h.engine.Status(r.Context())))
}

// StartBot activates the bot.
func (h *BotHandler) StartBot(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.Start(r.Context())
	if err != nil {
		h.logger.Error("failed to start bot", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, newStateResponse(st, err))
		return
	}
	h.writeJSON(w, http.StatusOK, newStateResponse(st, nil))
}

// StopBot deactivates the bot.
func (h *BotHandler) StopBot(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.Stop(r.Context())
	if err != nil {
		h.logger.Error("failed to stop bot", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, newStateResponse(st, err))
		return
	}
	h.writeJSON(w, http.StatusOK, newStateResponse(st, nil))
}

// GetAccount returns the brokerage account.
func (h *BotHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	v := h.reporter.Account(r.Context())
	if v.Err != nil {
		h.writeError(w, http.StatusBadGateway, v.Message)
		return
	}
	h.writeJSON(w, http.StatusOK, v.Account)
}

// GetPositions returns open positions with aggregate metrics.
func (h *BotHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	v := h.reporter.Positions(r.Context())
	resp := positionsResponse{PositionsView: v, ReturnPct: v.Metrics.ReturnString()}
	if v.Err != nil {
		resp.Error = v.Message
	}
	if resp.Positions == nil {
		resp.Positions = []position.Row{}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetOrders returns the order history. Query parameters: status, side, symbol,
// start and end (YYYY-MM-DD or RFC 3339).
func (h *BotHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	q, err := parseOrderQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := q.Filter.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	v := h.reporter.Orders(r.Context(), q)
	resp := ordersResponse{OrdersView: v}
	if v.Err != nil {
		resp.Error = v.Message
	}
	if resp.Orders == nil {
		resp.Orders = []report.OrderRow{}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// CloseAllPositions liquidates every position.
func (h *BotHandler) CloseAllPositions(w http.ResponseWriter, r *http.Request) {
	h.writeAction(w, h.reporter.CloseAllPositions(r.Context()))
}

// CancelAllOrders cancels every open order.
func (h *BotHandler) CancelAllOrders(w http.ResponseWriter, r *http.Request) {
	h.writeAction(w, h.reporter.CancelAllOrders(r.Context()))
}

func (h *BotHandler) writeAction(w http.ResponseWriter, res report.ActionResult) {
	status := http.StatusOK
	if !res.OK {
		status = http.StatusBadGateway
	}
	h.writeJSON(w, status, res)
}

// StreamTicks upgrades to a websocket and pushes every tick report.
func (h *BotHandler) StreamTicks(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	reports, unsubscribe := h.ticks.Subscribe()
	defer unsubscribe()

	// The client never sends anything meaningful; reading detects disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("websocket client read error", zap.Error(err))
				}
				return
			}
		}
	}()

	if last, ok := h.ticks.Last(); ok {
		if err := h.writeTick(conn, last); err != nil {
			return
		}
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case rep, ok := <-reports:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := h.writeTick(conn, rep); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *BotHandler) writeTick(conn *websocket.Conn, rep bot.TickReport) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(newTickResponse(rep))
}

func parseOrderQuery(r *http.Request) (report.OrderQuery, error) {
	v := r.URL.Query()
	return report.ParseOrderQuery(v.Get("start"), v.Get("end"), report.OrderFilter{
		Status: v.Get("status"),
		Side:   v.Get("side"),
		Symbol: v.Get("symbol"),
	})
}

package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/your-org/auto-buy-bot/internal/exchange/alpaca"
	"github.com/your-org/auto-buy-bot/pkg/logger"
)

// TradeAttemptResult is the outcome of one Execute call.
type TradeAttemptResult struct {
	Succeeded     bool
	Message       string
	OrderID       string
	ClientOrderID string
	Err           error
}

// Executor places the bot's trade. Implementations never panic on gateway
// failures and never retry: every failure is folded into the result.
type Executor interface {
	Execute(ctx context.Context, symbol string, qty decimal.Decimal, side string) TradeAttemptResult
}

// OrderSubmitter is the part of the gateway LiveExecutor needs.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req alpaca.OrderRequest) (*alpaca.Order, error)
}

// LiveExecutor submits real market orders.
type LiveExecutor struct {
	client OrderSubmitter
}

// NewLiveExecutor creates a new LiveExecutor.
func NewLiveExecutor(client OrderSubmitter) *LiveExecutor {
	return &LiveExecutor{client: client}
}

// Execute submits a single GTC market order.
func (e *LiveExecutor) Execute(ctx context.Context, symbol string, qty decimal.Decimal, side string) TradeAttemptResult {
	if e.client == nil {
		err := fmt.Errorf("LiveExecutor: gateway client is not initialized")
		return TradeAttemptResult{Message: "Error placing order: " + err.Error(), Err: err}
	}

	req := newMarketOrder(symbol, qty, side)
	logger.Infof("[Live] Placing order: %s %s %s (client_order_id=%s)", req.Side, req.Qty, req.Symbol, req.ClientOrderID)

	order, err := e.client.SubmitOrder(ctx, req)
	if err != nil {
		logger.Errorf("[Live] Error placing order: %v", err)
		return TradeAttemptResult{
			Message:       fmt.Sprintf("Error placing order: %v", err),
			ClientOrderID: req.ClientOrderID,
			Err:           err,
		}
	}

	logger.Infof("[Live] Order placed successfully: id=%s status=%s", order.ID, order.Status)
	return TradeAttemptResult{
		Succeeded:     true,
		Message:       successMessage(req),
		OrderID:       order.ID,
		ClientOrderID: req.ClientOrderID,
	}
}

// DryRunExecutor simulates order placement without touching the gateway.
type DryRunExecutor struct {
	mu      sync.Mutex
	now     func() time.Time
	history []SimulatedOrder
}

// SimulatedOrder is an order the DryRunExecutor pretended to place.
type SimulatedOrder struct {
	ID      string
	Request alpaca.OrderRequest
	At      time.Time
}

// NewDryRunExecutor creates a new DryRunExecutor.
func NewDryRunExecutor() *DryRunExecutor {
	return &DryRunExecutor{now: time.Now}
}

// Execute records the order intent and reports success.
func (e *DryRunExecutor) Execute(ctx context.Context, symbol string, qty decimal.Decimal, side string) TradeAttemptResult {
	req := newMarketOrder(symbol, qty, side)
	if req.Symbol == "" || !req.Qty.IsPositive() {
		err := fmt.Errorf("invalid simulated order: symbol=%q qty=%s", req.Symbol, req.Qty)
		return TradeAttemptResult{Message: "Error placing order: " + err.Error(), Err: err}
	}

	id := uuid.NewString()
	e.mu.Lock()
	e.history = append(e.history, SimulatedOrder{ID: id, Request: req, At: e.now().UTC()})
	e.mu.Unlock()

	logger.Infof("[DryRun] Simulating order placement: %s %s %s (id=%s)", req.Side, req.Qty, req.Symbol, id)
	return TradeAttemptResult{
		Succeeded:     true,
		Message:       "[dry-run] " + successMessage(req),
		OrderID:       id,
		ClientOrderID: req.ClientOrderID,
	}
}

// History returns a copy of the simulated orders, oldest first.
func (e *DryRunExecutor) History() []SimulatedOrder {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]SimulatedOrder, len(e.history))
	copy(out, e.history)
	return out
}

func newMarketOrder(symbol string, qty decimal.Decimal, side string) alpaca.OrderRequest {
	return alpaca.OrderRequest{
		Symbol:        strings.ToUpper(strings.TrimSpace(symbol)),
		Qty:           qty,
		Side:          strings.ToLower(side),
		Type:          alpaca.OrderTypeMarket,
		TimeInForce:   alpaca.TimeInForceGTC,
		ClientOrderID: uuid.NewString(),
	}
}

// successMessage renders e.g. "Order placed successfully: Buy 0.01 BTC/USD".
func successMessage(req alpaca.OrderRequest) string {
	side := req.Side
	if side != "" {
		side = strings.ToUpper(side[:1]) + side[1:]
	}
	return fmt.Sprintf("Order placed successfully: %s %s %s", side, req.Qty.String(), req.Symbol)
}

// Package report builds the operator's read-only views of the account,
// positions and order history. Gateway failures never escape as errors:
// every view carries its own Err and a human-readable Message.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/your-org/auto-buy-bot/internal/exchange/alpaca"
	"github.com/your-org/auto-buy-bot/internal/pnl"
	"github.com/your-org/auto-buy-bot/internal/position"
)

// DefaultOrderLimit caps the number of orders fetched per query.
const DefaultOrderLimit = 100

// Gateway is the part of the brokerage API the reporter reads or acts on.
type Gateway interface {
	GetAccount(ctx context.Context) (*alpaca.Account, error)
	ListPositions(ctx context.Context) ([]alpaca.Position, error)
	ListOrders(ctx context.Context, params alpaca.ListOrdersParams) ([]alpaca.Order, error)
	CloseAllPositions(ctx context.Context, cancelOrders bool) error
	CancelAllOrders(ctx context.Context) error
}

// OrderRow is one order as shown to the operator.
type OrderRow struct {
	ID          string              `json:"id"`
	Symbol      string              `json:"symbol"`
	Side        string              `json:"side"`
	Quantity    decimal.Decimal     `json:"quantity"`
	FilledQty   decimal.Decimal     `json:"filled_qty"`
	OrderType   string              `json:"order_type"`
	Status      string              `json:"status"`
	SubmittedAt *time.Time          `json:"submitted_at"`
	FilledAt    *time.Time          `json:"filled_at"`
	FilledPrice decimal.NullDecimal `json:"filled_price"`
}

// AccountView is the result of Reporter.Account.
type AccountView struct {
	Account *alpaca.Account `json:"account,omitempty"`
	Message string          `json:"message,omitempty"`
	Err     error           `json:"-"`
}

// PositionsView is the result of Reporter.Positions.
type PositionsView struct {
	Positions []position.Row `json:"positions"`
	Metrics   pnl.Metrics    `json:"metrics"`
	Message   string         `json:"message,omitempty"`
	Err       error          `json:"-"`
}

// OrdersView is the result of Reporter.Orders.
type OrdersView struct {
	Orders  []OrderRow `json:"orders"`
	Message string     `json:"message,omitempty"`
	Err     error      `json:"-"`
}

// ActionResult is the outcome of a bulk position or order action.
type ActionResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// OrderQuery selects orders by submission window and post-retrieval filter.
// A zero Start or End falls back to the reporter's default window.
type OrderQuery struct {
	Start  time.Time
	End    time.Time
	Filter OrderFilter
}

// Reporter reads from the gateway on every call; nothing is cached.
type Reporter struct {
	gw       Gateway
	lookback time.Duration
	limit    int
	now      func() time.Time
}

// NewReporter creates a Reporter. lookback is the default order window.
func NewReporter(gw Gateway, lookback time.Duration) *Reporter {
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	return &Reporter{gw: gw, lookback: lookback, limit: DefaultOrderLimit, now: time.Now}
}

// Account returns the current account.
func (r *Reporter) Account(ctx context.Context) AccountView {
	acct, err := r.gw.GetAccount(ctx)
	if err != nil {
		return AccountView{Message: fmt.Sprintf("Error fetching account: %v", err), Err: err}
	}
	return AccountView{Account: acct}
}

// Positions returns the open positions and their aggregate metrics.
func (r *Reporter) Positions(ctx context.Context) PositionsView {
	ps, err := r.gw.ListPositions(ctx)
	if err != nil {
		return PositionsView{Message: fmt.Sprintf("Error fetching positions: %v", err), Err: err}
	}
	rows := position.FromAlpacaList(ps)
	v := PositionsView{Positions: rows, Metrics: pnl.Calculate(rows)}
	if len(rows) == 0 {
		v.Message = "No open positions"
	}
	return v
}

// Orders returns the orders submitted within the query window that match its filter.
func (r *Reporter) Orders(ctx context.Context, q OrderQuery) OrdersView {
	if err := q.Filter.Validate(); err != nil {
		return OrdersView{Message: err.Error(), Err: err}
	}
	end := q.End
	if end.IsZero() {
		end = r.now()
	}
	start := q.Start
	if start.IsZero() {
		start = end.Add(-r.lookback)
	}

	orders, err := r.gw.ListOrders(ctx, alpaca.ListOrdersParams{
		Status: alpaca.StatusAll,
		After:  start,
		Until:  end,
		Limit:  r.limit,
	})
	if err != nil {
		return OrdersView{Message: fmt.Sprintf("Error fetching orders: %v", err), Err: err}
	}
	if len(orders) == 0 {
		return OrdersView{Orders: []OrderRow{}, Message: "No orders in the selected date range"}
	}

	rows := make([]OrderRow, 0, len(orders))
	for _, o := range orders {
		row := orderRow(o)
		if q.Filter.Match(row) {
			rows = append(rows, row)
		}
	}
	v := OrdersView{Orders: rows}
	if len(rows) == 0 {
		v.Message = "No orders match the selected filters"
	}
	return v
}

// RecentOrders returns every order of the default window.
func (r *Reporter) RecentOrders(ctx context.Context) OrdersView {
	return r.Orders(ctx, OrderQuery{})
}

// CloseAllPositions liquidates all positions, cancelling open orders first.
func (r *Reporter) CloseAllPositions(ctx context.Context) ActionResult {
	if err := r.gw.CloseAllPositions(ctx, true); err != nil {
		return ActionResult{Message: fmt.Sprintf("Error closing positions: %v", err), Err: err}
	}
	return ActionResult{OK: true, Message: "All positions closed successfully"}
}

// CancelAllOrders cancels every open order.
func (r *Reporter) CancelAllOrders(ctx context.Context) ActionResult {
	if err := r.gw.CancelAllOrders(ctx); err != nil {
		return ActionResult{Message: fmt.Sprintf("Error cancelling orders: %v", err), Err: err}
	}
	return ActionResult{OK: true, Message: "All orders cancelled successfully"}
}

func orderRow(o alpaca.Order) OrderRow {
	return OrderRow{
		ID:          o.ID,
		Symbol:      o.Symbol,
		Side:        o.Side,
		Quantity:    o.Qty,
		FilledQty:   o.FilledQty,
		OrderType:   o.Type,
		Status:      o.Status,
		SubmittedAt: o.SubmittedAt,
		FilledAt:    o.FilledAt,
		FilledPrice: o.FilledAvgPrice,
	}
}

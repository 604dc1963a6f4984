// Package alpaca handles interactions with the Alpaca trading API.
package alpaca

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order sides, types and time-in-force values used by the API.
const (
	SideBuy  = "buy"
	SideSell = "sell"

	OrderTypeMarket = "market"

	TimeInForceGTC = "gtc"
)

// Order status filters accepted by ListOrders.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
	StatusAll    = "all"
)

// Account is the subset of GET /v2/account the bot reads.
// Monetary fields arrive as JSON strings and are decoded into decimals.
type Account struct {
	ID               string          `json:"id"`
	AccountNumber    string          `json:"account_number"`
	Status           string          `json:"status"`
	Currency         string          `json:"currency"`
	BuyingPower      decimal.Decimal `json:"buying_power"`
	Cash             decimal.Decimal `json:"cash"`
	PortfolioValue   decimal.Decimal `json:"portfolio_value"`
	PatternDayTrader bool            `json:"pattern_day_trader"`
	TradingBlocked   bool            `json:"trading_blocked"`
	TransfersBlocked bool            `json:"transfers_blocked"`
	AccountBlocked   bool            `json:"account_blocked"`
	Multiplier       decimal.Decimal `json:"multiplier"`
}

// Position is an open position as returned by GET /v2/positions.
// Qty is signed: negative for short positions.
type Position struct {
	AssetID       string          `json:"asset_id"`
	Symbol        string          `json:"symbol"`
	AssetClass    string          `json:"asset_class"`
	Side          string          `json:"side"`
	Qty           decimal.Decimal `json:"qty"`
	MarketValue   decimal.Decimal `json:"market_value"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	UnrealizedPL  decimal.Decimal `json:"unrealized_pl"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
}

// OrderRequest is the body of POST /v2/orders.
type OrderRequest struct {
	Symbol        string          `json:"symbol"`
	Qty           decimal.Decimal `json:"qty"`
	Side          string          `json:"side"`
	Type          string          `json:"type"`
	TimeInForce   string          `json:"time_in_force"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
}

// Order is an order as returned by the orders endpoints.
type Order struct {
	ID             string              `json:"id"`
	ClientOrderID  string              `json:"client_order_id"`
	Symbol         string              `json:"symbol"`
	Qty            decimal.Decimal     `json:"qty"`
	FilledQty      decimal.Decimal     `json:"filled_qty"`
	Side           string              `json:"side"`
	Type           string              `json:"type"`
	TimeInForce    string              `json:"time_in_force"`
	Status         string              `json:"status"`
	SubmittedAt    *time.Time          `json:"submitted_at"`
	FilledAt       *time.Time          `json:"filled_at"`
	FilledAvgPrice decimal.NullDecimal `json:"filled_avg_price"`
}

// ListOrdersParams are the query parameters of GET /v2/orders.
// Zero times are omitted from the request.
type ListOrdersParams struct {
	Status string
	After  time.Time
	Until  time.Time
	Limit  int
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "no error message"
	}
	if e.Code != 0 {
		return fmt.Sprintf("alpaca API error (status %d, code %d): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("alpaca API error (status %d): %s", e.StatusCode, msg)
}

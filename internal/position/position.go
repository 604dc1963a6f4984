// Package position derives display rows from the gateway's position records.
package position

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/your-org/auto-buy-bot/internal/exchange/alpaca"
)

// Sides reported for a position.
const (
	Long  = "Long"
	Short = "Short"
)

// Row is one open position as shown to the operator.
// Quantity is always non-negative; the direction lives in Side.
type Row struct {
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Quantity      decimal.Decimal `json:"quantity"`
	MarketValue   decimal.Decimal `json:"market_value"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	UnrealizedPL  decimal.Decimal `json:"unrealized_pl"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
}

// SideOf returns Long iff qty is positive, Short otherwise.
func SideOf(qty decimal.Decimal) string {
	if qty.IsPositive() {
		return Long
	}
	return Short
}

// FromAlpaca converts a gateway position. The gateway's own side field is ignored.
func FromAlpaca(p alpaca.Position) Row {
	return Row{
		Symbol:        p.Symbol,
		Side:          SideOf(p.Qty),
		Quantity:      p.Qty.Abs(),
		MarketValue:   p.MarketValue,
		AvgEntryPrice: p.AvgEntryPrice,
		UnrealizedPL:  p.UnrealizedPL,
		CurrentPrice:  p.CurrentPrice,
	}
}

// FromAlpacaList converts positions, keeping the gateway's order.
func FromAlpacaList(ps []alpaca.Position) []Row {
	rows := make([]Row, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, FromAlpaca(p))
	}
	return rows
}

// String returns a string representation of the position.
func (r Row) String() string {
	return fmt.Sprintf("Position{Symbol: %s, Side: %s, Quantity: %s, AvgEntryPrice: %s}", r.Symbol, r.Side, r.Quantity, r.AvgEntryPrice.StringFixed(2))
}

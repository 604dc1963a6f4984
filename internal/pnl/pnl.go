// Package pnl aggregates unrealized profit and loss across open positions.
package pnl

import (
	"github.com/shopspring/decimal"

	"github.com/your-org/auto-buy-bot/internal/position"
)

var hundred = decimal.NewFromInt(100)

// Metrics summarizes the open positions.
type Metrics struct {
	TotalValue        decimal.Decimal `json:"total_value"`
	TotalUnrealizedPL decimal.Decimal `json:"total_unrealized_pl"`
	// ReturnPct is TotalUnrealizedPL / TotalValue * 100, or zero when TotalValue is not positive.
	ReturnPct decimal.Decimal `json:"return_pct"`
}

// Calculate sums market value and unrealized P/L over rows.
func Calculate(rows []position.Row) Metrics {
	var m Metrics
	for _, r := range rows {
		m.TotalValue = m.TotalValue.Add(r.MarketValue)
		m.TotalUnrealizedPL = m.TotalUnrealizedPL.Add(r.UnrealizedPL)
	}
	if m.TotalValue.IsPositive() {
		m.ReturnPct = m.TotalUnrealizedPL.Div(m.TotalValue).Mul(hundred)
	}
	return m
}

// ReturnString formats ReturnPct as e.g. "3.45%".
func (m Metrics) ReturnString() string {
	return m.ReturnPct.StringFixed(2) + "%"
}

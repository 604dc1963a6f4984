package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Summary aggregates an order listing.
type Summary struct {
	TotalOrders    int             `json:"total_orders"`
	FilledOrders   int             `json:"filled_orders"`
	CanceledOrders int             `json:"canceled_orders"`
	RejectedOrders int             `json:"rejected_orders"`
	OpenOrders     int             `json:"open_orders"`
	FillRate       float64         `json:"fill_rate"`
	BoughtQty      decimal.Decimal `json:"bought_qty"`
	SoldQty        decimal.Decimal `json:"sold_qty"`
	BoughtNotional decimal.Decimal `json:"bought_notional"`
	SoldNotional   decimal.Decimal `json:"sold_notional"`
	AvgBuyPrice    decimal.Decimal `json:"avg_buy_price"`
	AvgSellPrice   decimal.Decimal `json:"avg_sell_price"`
}

// Summarize counts orders by outcome and computes quantity-weighted fill prices.
// Only orders with a fill price contribute to quantities and notionals; the
// filled quantity is used when the gateway reports one.
func Summarize(rows []OrderRow) Summary {
	var s Summary
	s.TotalOrders = len(rows)
	for _, row := range rows {
		status := strings.ToLower(row.Status)
		switch {
		case status == "filled":
			s.FilledOrders++
		case status == "canceled":
			s.CanceledOrders++
		case status == "rejected":
			s.RejectedOrders++
		case !closedStatuses[status]:
			s.OpenOrders++
		}

		if !row.FilledPrice.Valid {
			continue
		}
		qty := row.FilledQty
		if !qty.IsPositive() {
			qty = row.Quantity
		}
		notional := row.FilledPrice.Decimal.Mul(qty)
		switch strings.ToLower(row.Side) {
		case "buy":
			s.BoughtQty = s.BoughtQty.Add(qty)
			s.BoughtNotional = s.BoughtNotional.Add(notional)
		case "sell":
			s.SoldQty = s.SoldQty.Add(qty)
			s.SoldNotional = s.SoldNotional.Add(notional)
		}
	}

	if s.TotalOrders > 0 {
		s.FillRate = float64(s.FilledOrders) / float64(s.TotalOrders) * 100
	}
	if s.BoughtQty.IsPositive() {
		s.AvgBuyPrice = s.BoughtNotional.Div(s.BoughtQty)
	}
	if s.SoldQty.IsPositive() {
		s.AvgSellPrice = s.SoldNotional.Div(s.SoldQty)
	}
	return s
}

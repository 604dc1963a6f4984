package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/your-org/auto-buy-bot/internal/exchange/alpaca"
	"github.com/your-org/auto-buy-bot/internal/position"
)

// TimeLayout is used for order timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// FormatMoney renders d as "$1,234.56". Negative amounts keep the sign after the
// currency symbol ("$-1,234.56").
func FormatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	b.WriteString("$")
	b.WriteString(sign)
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteString(frac)
	return b.String()
}

// FormatFilledPrice renders a fill price, or "Not Filled".
func FormatFilledPrice(d decimal.NullDecimal) string {
	if !d.Valid {
		return "Not Filled"
	}
	return FormatMoney(d.Decimal)
}

// FormatTime renders t in local time, or missing when t is nil.
func FormatTime(t *time.Time, missing string) string {
	if t == nil || t.IsZero() {
		return missing
	}
	return t.Local().Format(TimeLayout)
}

// Title upper-cases the first letter of every word: "partially_filled" -> "Partially_Filled".
func Title(s string) string {
	b := []byte(strings.ToLower(s))
	start := true
	for i, c := range b {
		isLetter := c >= 'a' && c <= 'z'
		if start && isLetter {
			b[i] = c - 'a' + 'A'
		}
		start = !isLetter && !(c >= '0' && c <= '9')
	}
	return string(b)
}

// Cells renders row in display order: symbol, side, quantity, type, status,
// submitted, filled, filled price.
func (row OrderRow) Cells() []string {
	return []string{
		row.Symbol,
		Title(row.Side),
		row.Quantity.String(),
		Title(row.OrderType),
		Title(row.Status),
		FormatTime(row.SubmittedAt, "N/A"),
		FormatTime(row.FilledAt, "Not Filled"),
		FormatFilledPrice(row.FilledPrice),
	}
}

// OrderHeader names the columns of OrderRow.Cells.
var OrderHeader = []string{"Symbol", "Side", "Quantity", "Order Type", "Status", "Submitted At", "Filled At", "Filled Price"}

// PositionHeader names the columns of PositionCells.
var PositionHeader = []string{"Symbol", "Side", "Quantity", "Market Value", "Average Entry", "Unrealized P/L", "Current Price"}

// PositionCells renders a position row in display order.
func PositionCells(r position.Row) []string {
	return []string{
		r.Symbol,
		r.Side,
		r.Quantity.String(),
		FormatMoney(r.MarketValue),
		FormatMoney(r.AvgEntryPrice),
		FormatMoney(r.UnrealizedPL),
		FormatMoney(r.CurrentPrice),
	}
}

// AccountField is one labelled account value.
type AccountField struct {
	Label string
	Value string
}

// AccountFields renders the basic and trading-status fields of acct.
func AccountFields(acct *alpaca.Account) []AccountField {
	if acct == nil {
		return nil
	}
	return []AccountField{
		{"Buying Power", FormatMoney(acct.BuyingPower)},
		{"Cash", FormatMoney(acct.Cash)},
		{"Portfolio Value", FormatMoney(acct.PortfolioValue)},
		{"Currency", acct.Currency},
		{"Pattern Day Trader", fmt.Sprint(acct.PatternDayTrader)},
		{"Trading Blocked", fmt.Sprint(acct.TradingBlocked)},
		{"Transfers Blocked", fmt.Sprint(acct.TransfersBlocked)},
		{"Account Blocked", fmt.Sprint(acct.AccountBlocked)},
		{"Multiplier", acct.Multiplier.String()},
	}
}

package position

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/auto-buy-bot/internal/exchange/alpaca"
)

func TestSideOf(t *testing.T) {
	testCases := []struct {
		qty  string
		want string
	}{
		{"0.25", Long},
		{"-0.5", Short},
		{"0", Short},
		{"0.00000001", Long},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, SideOf(decimal.RequireFromString(tc.qty)), "qty=%s", tc.qty)
	}
}

func TestFromAlpaca_ShortUsesAbsoluteQuantity(t *testing.T) {
	row := FromAlpaca(alpaca.Position{
		Symbol:        "ETHUSD",
		Side:          "long", // ignored
		Qty:           decimal.RequireFromString("-0.5"),
		MarketValue:   decimal.RequireFromString("-1500"),
		AvgEntryPrice: decimal.RequireFromString("3100"),
		UnrealizedPL:  decimal.RequireFromString("50"),
		CurrentPrice:  decimal.RequireFromString("3000"),
	})

	assert.Equal(t, Short, row.Side)
	assert.True(t, row.Quantity.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, row.MarketValue.Equal(decimal.RequireFromString("-1500")))
	assert.Equal(t, "ETHUSD", row.Symbol)
}

func TestFromAlpacaList_KeepsOrder(t *testing.T) {
	rows := FromAlpacaList([]alpaca.Position{
		{Symbol: "BTCUSD", Qty: decimal.RequireFromString("0.25")},
		{Symbol: "ETHUSD", Qty: decimal.RequireFromString("-2")},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "BTCUSD", rows[0].Symbol)
	assert.Equal(t, Long, rows[0].Side)
	assert.Equal(t, Short, rows[1].Side)
	assert.Empty(t, FromAlpacaList(nil))
}

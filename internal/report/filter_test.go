package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderFilter_Match(t *testing.T) {
	row := OrderRow{Symbol: "BTC/USD", Side: "buy", Status: "canceled"}
	testCases := []struct {
		name   string
		filter OrderFilter
		want   bool
	}{
		{"empty", OrderFilter{}, true},
		{"all orders label", OrderFilter{Status: "All Orders", Side: "All"}, true},
		{"status match case-insensitive", OrderFilter{Status: "Canceled"}, true},
		{"british spelling", OrderFilter{Status: "cancelled"}, true},
		{"status mismatch", OrderFilter{Status: "filled"}, false},
		{"open excludes canceled", OrderFilter{Status: "open"}, false},
		{"side mismatch", OrderFilter{Side: "sell"}, false},
		{"symbol substring", OrderFilter{Symbol: "usd"}, true},
		{"symbol mismatch", OrderFilter{Symbol: "ETH"}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Match(row))
		})
	}
}

func TestOrderFilter_Validate(t *testing.T) {
	assert.NoError(t, OrderFilter{Status: "Expired", Side: "SELL"}.Validate())
	assert.Error(t, OrderFilter{Status: "pending"}.Validate())
	assert.Error(t, OrderFilter{Side: "long"}.Validate())
}

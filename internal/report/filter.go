package report

import (
	"fmt"
	"strings"
)

// Order status filter values.
const (
	FilterAll      = "all"
	FilterOpen     = "open"
	FilterFilled   = "filled"
	FilterCanceled = "canceled"
	FilterExpired  = "expired"
	FilterRejected = "rejected"
)

// closedStatuses are the gateway statuses after which an order can no longer fill.
var closedStatuses = map[string]bool{
	"filled":       true,
	"canceled":     true,
	"expired":      true,
	"rejected":     true,
	"replaced":     true,
	"done_for_day": true,
	"stopped":      true,
	"suspended":    true,
}

// OrderFilter narrows an order listing after retrieval. Empty fields match everything.
type OrderFilter struct {
	Status string
	Side   string
	Symbol string
}

// Validate rejects unknown status or side values.
func (f OrderFilter) Validate() error {
	switch normalize(f.Status) {
	case "", FilterAll, "all orders", FilterOpen, FilterFilled, FilterCanceled, "cancelled", FilterExpired, FilterRejected:
	default:
		return fmt.Errorf("unknown status filter %q", f.Status)
	}
	switch normalize(f.Side) {
	case "", FilterAll, "buy", "sell":
	default:
		return fmt.Errorf("unknown side filter %q", f.Side)
	}
	return nil
}

// Match reports whether row passes every filter.
func (f OrderFilter) Match(row OrderRow) bool {
	status := strings.ToLower(row.Status)
	switch normalize(f.Status) {
	case "", FilterAll, "all orders":
	case FilterOpen:
		if closedStatuses[status] {
			return false
		}
	case "cancelled":
		if status != FilterCanceled {
			return false
		}
	default:
		if status != normalize(f.Status) {
			return false
		}
	}

	switch side := normalize(f.Side); side {
	case "", FilterAll:
	default:
		if strings.ToLower(row.Side) != side {
			return false
		}
	}

	if sym := strings.TrimSpace(f.Symbol); sym != "" {
		if !strings.Contains(strings.ToUpper(row.Symbol), strings.ToUpper(sym)) {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Package guard implements the pre-trade solvency check.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/your-org/auto-buy-bot/internal/exchange/alpaca"
)

// ErrInsufficientBuyingPower is set on a Result when the account is below the threshold.
var ErrInsufficientBuyingPower = errors.New("insufficient buying power")

// AccountGetter is the part of the gateway the guard needs.
type AccountGetter interface {
	GetAccount(ctx context.Context) (*alpaca.Account, error)
}

// Result is the outcome of a single check. Err is nil only when Eligible is true.
type Result struct {
	Eligible    bool
	Reason      string
	BuyingPower decimal.Decimal
	Err         error
}

// Checker decides whether the account can afford a trade right now.
// It holds no state between calls.
type Checker struct {
	accounts AccountGetter
	min      decimal.Decimal
}

// NewChecker creates a Checker requiring at least min buying power.
func NewChecker(accounts AccountGetter, min decimal.Decimal) *Checker {
	return &Checker{accounts: accounts, min: min}
}

// Threshold returns the configured minimum buying power.
func (c *Checker) Threshold() decimal.Decimal {
	return c.min
}

// Check queries the gateway for the current buying power. Gateway failures are
// reported as an ineligible Result carrying the error.
func (c *Checker) Check(ctx context.Context) Result {
	acct, err := c.accounts.GetAccount(ctx)
	if err != nil {
		return Result{
			Reason: fmt.Sprintf("Error checking account: %v", err),
			Err:    err,
		}
	}
	if acct.BuyingPower.LessThan(c.min) {
		return Result{
			Reason:      fmt.Sprintf("Insufficient buying power: %s < %s", acct.BuyingPower.StringFixed(2), c.min.StringFixed(2)),
			BuyingPower: acct.BuyingPower,
			Err:         ErrInsufficientBuyingPower,
		}
	}
	return Result{Eligible: true, BuyingPower: acct.BuyingPower}
}

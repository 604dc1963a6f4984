package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/your-org/auto-buy-bot/internal/exchange/alpaca"
)

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) GetAccount(ctx context.Context) (*alpaca.Account, error) {
	args := m.Called(ctx)
	acct, _ := args.Get(0).(*alpaca.Account)
	return acct, args.Error(1)
}

func TestCheck(t *testing.T) {
	min := decimal.NewFromInt(100)
	testCases := []struct {
		name        string
		buyingPower string
		wantOK      bool
		wantErr     error
	}{
		{name: "above threshold", buyingPower: "262113.63", wantOK: true},
		{name: "exactly at threshold", buyingPower: "100", wantOK: true},
		{name: "below threshold", buyingPower: "50", wantErr: ErrInsufficientBuyingPower},
		{name: "just below threshold", buyingPower: "99.99", wantErr: ErrInsufficientBuyingPower},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			accounts := new(mockAccounts)
			accounts.On("GetAccount", mock.Anything).
				Return(&alpaca.Account{BuyingPower: decimal.RequireFromString(tc.buyingPower)}, nil).Once()

			res := NewChecker(accounts, min).Check(context.Background())
			assert.Equal(t, tc.wantOK, res.Eligible)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(res.Err, tc.wantErr))
				assert.Contains(t, res.Reason, "Insufficient buying power")
			} else {
				assert.NoError(t, res.Err)
				assert.Empty(t, res.Reason)
			}
			accounts.AssertExpectations(t)
		})
	}
}

func TestCheck_GatewayFailure(t *testing.T) {
	accounts := new(mockAccounts)
	gwErr := &alpaca.APIError{StatusCode: 503, Message: "service unavailable"}
	accounts.On("GetAccount", mock.Anything).Return(nil, gwErr).Once()

	res := NewChecker(accounts, decimal.NewFromInt(100)).Check(context.Background())
	assert.False(t, res.Eligible)
	assert.Contains(t, res.Reason, "service unavailable")

	var apiErr *alpaca.APIError
	assert.True(t, errors.As(res.Err, &apiErr))
}

func TestCheck_IsNeverCached(t *testing.T) {
	accounts := new(mockAccounts)
	accounts.On("GetAccount", mock.Anything).
		Return(&alpaca.Account{BuyingPower: decimal.NewFromInt(500)}, nil).Once()
	accounts.On("GetAccount", mock.Anything).
		Return(&alpaca.Account{BuyingPower: decimal.NewFromInt(10)}, nil).Once()

	c := NewChecker(accounts, decimal.NewFromInt(100))
	assert.True(t, c.Check(context.Background()).Eligible)
	assert.False(t, c.Check(context.Background()).Eligible)
	accounts.AssertNumberOfCalls(t, "GetAccount", 2)
}

package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/your-org/auto-buy-bot/internal/bot"
	"github.com/your-org/auto-buy-bot/internal/exchange/alpaca"
	"github.com/your-org/auto-buy-bot/internal/position"
	"github.com/your-org/auto-buy-bot/internal/report"
	"github.com/your-org/auto-buy-bot/internal/state"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Start(ctx context.Context) (state.BotState, error) {
	args := m.Called()
	return args.Get(0).(state.BotState), args.Error(1)
}

func (m *mockEngine) Stop(ctx context.Context) (state.BotState, error) {
	args := m.Called()
	return args.Get(0).(state.BotState), args.Error(1)
}

func (m *mockEngine) Status(ctx context.Context) bot.Status {
	return m.Called().Get(0).(bot.Status)
}

type mockActions struct {
	mock.Mock
}

func (m *mockActions) Account(ctx context.Context) report.AccountView {
	return m.Called().Get(0).(report.AccountView)
}

func (m *mockActions) CloseAllPositions(ctx context.Context) report.ActionResult {
	return m.Called().Get(0).(report.ActionResult)
}

func (m *mockActions) CancelAllOrders(ctx context.Context) report.ActionResult {
	return m.Called().Get(0).(report.ActionResult)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_StartStopToggle(t *testing.T) {
	e := new(mockEngine)
	e.On("Status").Return(bot.Status{Running: false}).Once()
	e.On("Start").Return(state.BotState{Active: true}, nil).Once()
	e.On("Status").Return(bot.Status{Running: true}).Once()
	e.On("Stop").Return(state.BotState{}, errors.New("disk full")).Once()
	m := NewModel(context.Background(), e, new(mockActions), nil)

	next, cmd := m.Update(key("s"))
	require.NotNil(t, cmd)
	m = next.(Model)
	assert.True(t, m.busy)

	// Keys are ignored while an action is in flight.
	_, ignored := m.Update(key("s"))
	assert.Nil(t, ignored)

	msg := cmd()
	assert.Equal(t, actionMsg{text: "Bot started"}, msg)
	next, _ = m.Update(msg)
	m = next.(Model)
	assert.False(t, m.busy)

	_, cmd = m.Update(key("s"))
	msg = cmd()
	assert.Equal(t, actionMsg{text: "Failed to stop bot: disk full", err: true}, msg)
	e.AssertExpectations(t)
}

func TestModel_ToggleUsesPersistedState(t *testing.T) {
	e := new(mockEngine)
	// Started elsewhere (e.g. over HTTP) after the dashboard last refreshed.
	e.On("Status").Return(bot.Status{Running: true}).Once()
	e.On("Stop").Return(state.BotState{}, nil).Once()
	m := NewModel(context.Background(), e, new(mockActions), nil)

	next, _ := m.Update(statusMsg(bot.Status{Running: false}))
	m = next.(Model)

	_, cmd := m.Update(key("s"))
	require.NotNil(t, cmd)
	assert.Equal(t, actionMsg{text: "Bot stopped"}, cmd())
	e.AssertExpectations(t)
	e.AssertNotCalled(t, "Start")
}

func TestModel_BulkActions(t *testing.T) {
	a := new(mockActions)
	a.On("CancelAllOrders").Return(report.ActionResult{OK: true, Message: "All orders cancelled successfully"})
	a.On("CloseAllPositions").Return(report.ActionResult{Message: "Error closing positions: market closed"})
	m := NewModel(context.Background(), new(mockEngine), a, nil)

	_, cmd := m.Update(key("c"))
	assert.Equal(t, actionMsg{text: "All orders cancelled successfully"}, cmd())

	_, cmd = m.Update(key("x"))
	assert.Equal(t, actionMsg{text: "Error closing positions: market closed", err: true}, cmd())
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(context.Background(), new(mockEngine), new(mockActions), nil)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_WaitForTick(t *testing.T) {
	ticks := make(chan bot.TickReport, 1)
	m := NewModel(context.Background(), new(mockEngine), new(mockActions), ticks)

	ticks <- bot.TickReport{Messages: []string{"hello"}}
	msg := m.waitForTick()()
	assert.Equal(t, []string{"hello"}, bot.TickReport(msg.(tickMsg)).Messages)

	close(ticks)
	assert.Equal(t, ticksClosedMsg{}, m.waitForTick()())
}

func TestModel_View(t *testing.T) {
	last := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	next := last.Add(time.Minute)
	m := NewModel(context.Background(), new(mockEngine), new(mockActions), nil)

	updated, _ := m.Update(statusMsg(bot.Status{
		Running: true, LastRun: &last, NextRun: &next,
		Symbol: "BTC/USD", Quantity: decimal.RequireFromString("0.01"), Side: "buy", Interval: time.Minute,
	}))
	m = updated.(Model)
	updated, _ = m.Update(accountMsg(report.AccountView{Account: &alpaca.Account{BuyingPower: decimal.RequireFromString("1234.5"), Currency: "USD"}}))
	m = updated.(Model)
	updated, _ = m.Update(tickMsg(bot.TickReport{
		Messages: []string{"Order placed successfully at 10:00:00"},
		Positions: &report.PositionsView{Positions: []position.Row{
			{Symbol: "BTCUSD", Side: position.Long, Quantity: decimal.RequireFromString("0.25"), MarketValue: decimal.RequireFromString("15000")},
		}},
		Orders: &report.OrdersView{Message: "Error fetching orders: timeout", Err: errors.New("timeout")},
	}))
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "Running")
	assert.Contains(t, view, "Buy 0.01 BTC/USD every 1m0s")
	assert.Contains(t, view, "Last order: 10:00:00")
	assert.Contains(t, view, "Next order at: 10:01:00")
	assert.Contains(t, view, "Order placed successfully at 10:00:00")
	assert.Contains(t, view, "$1,234.50")
	assert.Contains(t, view, "BTCUSD")
	assert.Contains(t, view, "$15,000.00")
	assert.Contains(t, view, "Error fetching orders: timeout")
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"long-cell", "x"}, {"s", "y"}})
	assert.Contains(t, out, "long-cell  x")
	assert.Contains(t, out, "s          y")
}

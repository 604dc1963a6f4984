// Package dashboard is the terminal operator console of the bot.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/your-org/auto-buy-bot/internal/bot"
	"github.com/your-org/auto-buy-bot/internal/report"
	"github.com/your-org/auto-buy-bot/internal/state"
)

// Engine is the bot control surface the dashboard drives.
type Engine interface {
	Start(ctx context.Context) (state.BotState, error)
	Stop(ctx context.Context) (state.BotState, error)
	Status(ctx context.Context) bot.Status
}

// Actions are the account-level operations offered by the dashboard.
type Actions interface {
	Account(ctx context.Context) report.AccountView
	CloseAllPositions(ctx context.Context) report.ActionResult
	CancelAllOrders(ctx context.Context) report.ActionResult
}

type tickMsg bot.TickReport

type statusMsg bot.Status

type accountMsg report.AccountView

type actionMsg struct {
	text string
	err  bool
}

// ticksClosedMsg is sent when the tick subscription ends.
type ticksClosedMsg struct{}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	runningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	stoppedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx     context.Context
	engine  Engine
	actions Actions
	ticks   <-chan bot.TickReport

	status  bot.Status
	last    *bot.TickReport
	account report.AccountView
	action  actionMsg
	busy    bool
	width   int
}

// NewModel creates a Model fed by ticks.
func NewModel(ctx context.Context, engine Engine, actions Actions, ticks <-chan bot.TickReport) Model {
	return Model{ctx: ctx, engine: engine, actions: actions, ticks: ticks}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForTick(), m.loadStatus(), m.loadAccount())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		rep := bot.TickReport(msg)
		m.last = &rep
		return m, tea.Batch(m.waitForTick(), m.loadStatus())
	case ticksClosedMsg:
		return m, nil
	case statusMsg:
		m.status = bot.Status(msg)
		return m, nil
	case accountMsg:
		m.account = report.AccountView(msg)
		return m, nil
	case actionMsg:
		m.action = msg
		m.busy = false
		return m, tea.Batch(m.loadStatus(), m.loadAccount())
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		return m, tea.Batch(m.loadStatus(), m.loadAccount())
	}
	if m.busy {
		return m, nil
	}
	switch msg.String() {
	case "s":
		m.busy = true
		engine := m.engine
		// The persisted flag decides the direction; the displayed status may be stale.
		return m, m.run(func(ctx context.Context) actionMsg {
			if engine.Status(ctx).Running {
				if _, err := engine.Stop(ctx); err != nil {
					return actionMsg{text: fmt.Sprintf("Failed to stop bot: %v", err), err: true}
				}
				return actionMsg{text: "Bot stopped"}
			}
			if _, err := engine.Start(ctx); err != nil {
				return actionMsg{text: fmt.Sprintf("Failed to start bot: %v", err), err: true}
			}
			return actionMsg{text: "Bot started"}
		})
	case "c":
		m.busy = true
		return m, m.run(func(ctx context.Context) actionMsg {
			res := m.actions.CancelAllOrders(ctx)
			return actionMsg{text: res.Message, err: !res.OK}
		})
	case "x":
		m.busy = true
		return m, m.run(func(ctx context.Context) actionMsg {
			res := m.actions.CloseAllPositions(ctx)
			return actionMsg{text: res.Message, err: !res.OK}
		})
	}
	return m, nil
}

func (m Model) run(fn func(ctx context.Context) actionMsg) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg { return fn(ctx) }
}

func (m Model) waitForTick() tea.Cmd {
	ticks := m.ticks
	if ticks == nil {
		return nil
	}
	return func() tea.Msg {
		rep, ok := <-ticks
		if !ok {
			return ticksClosedMsg{}
		}
		return tickMsg(rep)
	}
}

func (m Model) loadStatus() tea.Cmd {
	ctx, engine := m.ctx, m.engine
	return func() tea.Msg { return statusMsg(engine.Status(ctx)) }
}

func (m Model) loadAccount() tea.Cmd {
	ctx, actions := m.ctx, m.actions
	return func() tea.Msg { return accountMsg(actions.Account(ctx)) }
}

// View implements tea.Model.
func (m Model) View() string {
	sections := []string{
		headerStyle.Render(fmt.Sprintf("Auto %s Buyer Bot | %s", m.status.Symbol, time.Now().Format("15:04:05"))),
		m.renderStatus(),
		m.renderAccount(),
		m.renderPositions(),
		m.renderOrders(),
		mutedStyle.Render("[s] start/stop  [c] cancel all orders  [x] close all positions  [r] refresh  [q] quit"),
	}
	return strings.Join(sections, "\n")
}

func (m Model) renderStatus() string {
	var lines []string
	if m.status.Running {
		lines = append(lines, runningStyle.Render("Bot Status: Running ✅"))
	} else {
		lines = append(lines, stoppedStyle.Render("Bot Status: Stopped ⛔"))
	}
	lines = append(lines, fmt.Sprintf("Trade: %s %s %s every %s",
		report.Title(m.status.Side), m.status.Quantity.String(), m.status.Symbol, m.status.Interval))
	if m.status.LastRun != nil {
		lines = append(lines, fmt.Sprintf("Last order: %s", m.status.LastRun.Local().Format("15:04:05")))
	}
	if m.status.NextRun != nil {
		lines = append(lines, fmt.Sprintf("Next order at: %s", m.status.NextRun.Local().Format("15:04:05")))
	}
	if m.status.PersistError != "" {
		lines = append(lines, errorStyle.Render("State not saved: "+m.status.PersistError))
	}
	if m.last != nil {
		for _, msg := range m.last.Messages {
			lines = append(lines, styleMessage(msg))
		}
	}
	if m.busy {
		lines = append(lines, mutedStyle.Render("working..."))
	} else if m.action.text != "" {
		if m.action.err {
			lines = append(lines, errorStyle.Render(m.action.text))
		} else {
			lines = append(lines, m.action.text)
		}
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func styleMessage(msg string) string {
	if strings.HasPrefix(msg, "Order failed") || strings.HasPrefix(msg, "Error") || strings.HasPrefix(msg, "Failed") {
		return errorStyle.Render(msg)
	}
	return msg
}

func (m Model) renderAccount() string {
	lines := []string{titleStyle.Render("Account Information")}
	switch {
	case m.account.Err != nil:
		lines = append(lines, errorStyle.Render(m.account.Message))
	case m.account.Account == nil:
		lines = append(lines, mutedStyle.Render("loading..."))
	default:
		for _, f := range report.AccountFields(m.account.Account) {
			lines = append(lines, fmt.Sprintf("%-20s %s", f.Label+":", f.Value))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPositions() string {
	lines := []string{titleStyle.Render("Current Positions")}
	if m.last == nil || m.last.Positions == nil {
		return strings.Join(append(lines, mutedStyle.Render("waiting for the bot to run...")), "\n")
	}
	v := m.last.Positions
	if v.Err != nil {
		return strings.Join(append(lines, errorStyle.Render(v.Message)), "\n")
	}
	if len(v.Positions) == 0 {
		return strings.Join(append(lines, v.Message), "\n")
	}
	rows := make([][]string, 0, len(v.Positions))
	for _, p := range v.Positions {
		rows = append(rows, report.PositionCells(p))
	}
	lines = append(lines, renderTable(report.PositionHeader, rows))
	lines = append(lines, fmt.Sprintf("Total Portfolio Value: %s  Total Unrealized P/L: %s  Return: %s",
		report.FormatMoney(v.Metrics.TotalValue), report.FormatMoney(v.Metrics.TotalUnrealizedPL), v.Metrics.ReturnString()))
	return strings.Join(lines, "\n")
}

func (m Model) renderOrders() string {
	lines := []string{titleStyle.Render("Recent Orders")}
	if m.last == nil || m.last.Orders == nil {
		return strings.Join(append(lines, mutedStyle.Render("waiting for the bot to run...")), "\n")
	}
	v := m.last.Orders
	if v.Err != nil {
		return strings.Join(append(lines, errorStyle.Render(v.Message)), "\n")
	}
	if len(v.Orders) == 0 {
		return strings.Join(append(lines, v.Message), "\n")
	}
	rows := make([][]string, 0, len(v.Orders))
	for _, o := range v.Orders {
		rows = append(rows, o.Cells())
	}
	lines = append(lines, renderTable(report.OrderHeader, rows))
	return strings.Join(lines, "\n")
}

// renderTable lays out rows in left-aligned columns sized to their widest cell.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = lipgloss.NewStyle().Width(widths[i]).Render(c)
		}
		return strings.Join(parts, "  ")
	}

	out := []string{titleStyle.Render(line(header))}
	for _, row := range rows {
		out = append(out, line(row))
	}
	return strings.Join(out, "\n")
}

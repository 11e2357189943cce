// Package tui renders a live view of a running time authority by
// polling its admin HTTP endpoints.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"chronosync/internal/authority"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorBlue   = "\x1b[34m"
	colorCyan   = "\x1b[36m"
	colorGray   = "\x1b[90m"

	maxLogLines = 1000
)

// tickMsg drives the poll loop.
type tickMsg time.Time

// pollMsg carries one round of polled data.
type pollMsg struct {
	metrics authority.Metrics
	status  Status
	err     error
}

// actionMsg reports the outcome of a resync or reset request.
type actionMsg struct {
	what string
	err  error
}

// Model is the watch view: a counters table on top and a scrolling
// poll log below.
type Model struct {
	client     *Client
	interval   time.Duration
	table      table.Model
	vp         viewport.Model
	logs       []string
	metrics    authority.Metrics
	status     Status
	lastErr    error
	wrap       bool
	autoscroll bool
	height     int
	ready      bool
}

// NewModel builds a watch model polling the given client.
func NewModel(client *Client, interval time.Duration) Model {
	cols := []table.Column{
		{Title: "Counter", Width: 24},
		{Title: "Value", Width: 18},
		{Title: "Counter", Width: 24},
		{Title: "Value", Width: 18},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(4))
	return Model{
		client:     client,
		interval:   interval,
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.pollCmd(), m.tickCmd())
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) pollCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		metrics, err := client.Metrics()
		if err != nil {
			return pollMsg{err: err}
		}
		status, err := client.Status()
		if err != nil {
			return pollMsg{err: err}
		}
		return pollMsg{metrics: metrics, status: status}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.height = msg.Height
		m.updateViewportHeight()
		m.refreshViewport()
		m.ready = true
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
		case "r":
			client := m.client
			return m, func() tea.Msg { return actionMsg{what: "resync", err: client.Resync()} }
		case "R":
			client := m.client
			return m, func() tea.Msg { return actionMsg{what: "reset", err: client.Reset()} }
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown":
				m.vp.LineDown(10)
			case "pgup":
				m.vp.LineUp(10)
			}
		}
	case tickMsg:
		return m, tea.Batch(m.pollCmd(), m.tickCmd())
	case pollMsg:
		m.lastErr = msg.err
		if msg.err != nil {
			m.appendLog(fmt.Sprintf("%s[%s]%s %spoll failed%s %v",
				colorGray, time.Now().Format(time.RFC3339), colorReset,
				colorRed, colorReset, msg.err))
			break
		}
		m.metrics = msg.metrics
		m.status = msg.status
		m.table.SetRows(m.metricRows())
		m.appendLog(m.statusLine())
	case actionMsg:
		if msg.err != nil {
			m.appendLog(fmt.Sprintf("%s[%s]%s %s%s failed%s %v",
				colorGray, time.Now().Format(time.RFC3339), colorReset,
				colorRed, msg.what, colorReset, msg.err))
		} else {
			m.appendLog(fmt.Sprintf("%s[%s]%s %s%s ok%s",
				colorGray, time.Now().Format(time.RFC3339), colorReset,
				colorGreen, msg.what, colorReset))
		}
		return m, m.pollCmd()
	}
	return m, nil
}

func (m *Model) appendLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	m.refreshViewport()
}

func (m Model) metricRows() []table.Row {
	return []table.Row{
		{"Mode", m.metrics.Mode, "Cache Hit Rate", fmt.Sprintf("%.1f%%", m.metrics.CacheHitRate * 100)},
		{"Attempts", fmt.Sprintf("%d", m.metrics.Attempts), "Successes", fmt.Sprintf("%d", m.metrics.Successes)},
		{"Consecutive Failures", fmt.Sprintf("%d", m.metrics.ConsecutiveFailures), "Last Source", m.metrics.LastSource},
		{"Last Offset (s)", fmt.Sprintf("%+.6f", m.metrics.LastOffsetSeconds), "", ""},
	}
}

func (m Model) statusLine() string {
	modeColor := colorGreen
	switch m.status.Mode {
	case "degraded":
		modeColor = colorYellow
	case "disabled":
		modeColor = colorRed
	}
	line := fmt.Sprintf("%s[%s]%s %smode=%s%s %skind=%s%s %sconf=%s%s %stime=%s%s",
		colorGray, time.Now().Format(time.RFC3339), colorReset,
		modeColor, m.status.Mode, colorReset,
		colorBlue, m.status.Kind, colorReset,
		colorCyan, m.status.Confidence, colorReset,
		colorGreen, m.status.Time.Format(time.RFC3339Nano), colorReset)
	if m.status.Error != "" {
		line += fmt.Sprintf(" %serror=%s%s", colorRed, m.status.Error, colorReset)
	}
	return line
}

func (m *Model) updateViewportHeight() {
	headerHeight := lipgloss.Height(m.table.View())
	bottomHeight := lipgloss.Height(m.renderBottom())
	h := m.height - headerHeight - bottomHeight - 2
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *Model) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m Model) View() string {
	if !m.ready {
		return "connecting..."
	}
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.table.View(),
		divider,
		m.vp.View(),
		divider,
		m.renderBottom(),
	}
	return strings.Join(sections, "\n")
}

func (m Model) renderBottom() string {
	wrapColor := lipgloss.Color("9")
	if m.wrap {
		wrapColor = lipgloss.Color("10")
	}
	scrollColor := lipgloss.Color("10")
	if !m.autoscroll {
		scrollColor = lipgloss.Color("9")
	}
	pollColor := lipgloss.Color("10")
	if m.lastErr != nil {
		pollColor = lipgloss.Color("9")
	}
	wrapIndicator := lipgloss.NewStyle().Foreground(wrapColor).Render("●")
	scrollIndicator := lipgloss.NewStyle().Foreground(scrollColor).Render("●")
	pollIndicator := lipgloss.NewStyle().Foreground(pollColor).Render("●")
	return fmt.Sprintf("%s %s | Wrap %s | Scroll %s | r resync | R reset | q quit",
		pollIndicator, m.client.BaseURL, wrapIndicator, scrollIndicator)
}

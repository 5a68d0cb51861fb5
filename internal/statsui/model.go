// Package statsui provides the Bubble Tea log browser.
package statsui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TanGentleman/keymaster/internal/keys"
	"github.com/TanGentleman/keymaster/internal/model"
	"github.com/TanGentleman/keymaster/internal/stats"
)

const (
	tabOverview = iota
	tabLogs
	tabKeys
)

const slowestShown = 5

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea log browser.
type Model struct {
	coll   *stats.Collection
	oracle *keys.Oracle
	opts   stats.Options

	// scope is the id of the log being summarized, empty for all logs.
	scope   string
	query   string
	visible []model.Log
	summary stats.Summary
	means   map[string]float64
	errMsg  string

	tabs      []string
	activeTab int
	overview  viewport.Model
	logTable  table.Model
	keyTable  table.Model

	width  int
	height int

	filterMode  bool
	filterInput textinput.Model
}

// NewModel constructs a browser over coll.
func NewModel(coll *stats.Collection, oracle *keys.Oracle, opts stats.Options) *Model {
	m := &Model{
		coll:     coll,
		oracle:   oracle,
		opts:     opts,
		tabs:     []string{"Overview", "Logs", "Keys"},
		overview: viewport.New(0, 0),
		logTable: newTable(logColumns(80)),
		keyTable: newTable(keyColumns()),
	}
	m.filterInput = textinput.New()
	m.filterInput.Prompt = "Filter: "
	m.filterInput.Placeholder = "text contained in the log string"
	m.filterInput.Cursor.SetMode(cursor.CursorBlink)
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			m.filterMode = true
			m.filterInput.SetValue(m.query)
			return m, m.filterInput.Focus()
		case "enter":
			if m.activeTab == tabLogs {
				m.selectLog()
			}
			return m, nil
		case "a":
			m.scope = ""
			m.refresh()
			return m, nil
		case "o":
			m.opts.ExcludeOutliers = !m.opts.ExcludeOutliers
			m.refresh()
			return m, nil
		case "g", "home":
			m.gotoEdge(true)
			return m, nil
		case "G", "end":
			m.gotoEdge(false)
			return m, nil
		default:
			return m.updateActive(msg)
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Scope returns the id of the summarized log, or "" for all logs.
func (m *Model) Scope() string {
	return m.scope
}

func (m *Model) updateActive(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case tabLogs:
		m.logTable, cmd = m.logTable.Update(msg)
	case tabKeys:
		m.keyTable, cmd = m.keyTable.Update(msg)
	default:
		m.overview, cmd = m.overview.Update(msg)
	}
	return m, cmd
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.filterMode = false
		m.filterInput.Blur()
		m.query = strings.TrimSpace(m.filterInput.Value())
		m.refresh()
		m.activeTab = tabLogs
		m.focusActive()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func (m *Model) selectLog() {
	idx := m.logTable.Cursor()
	if idx < 0 || idx >= len(m.visible) {
		return
	}
	m.scope = m.visible[idx].ID
	m.refresh()
	m.activeTab = tabOverview
	m.focusActive()
}

func (m *Model) gotoEdge(top bool) {
	switch m.activeTab {
	case tabLogs:
		if top {
			m.logTable.GotoTop()
		} else {
			m.logTable.GotoBottom()
		}
	case tabKeys:
		if top {
			m.keyTable.GotoTop()
		} else {
			m.keyTable.GotoBottom()
		}
	default:
		if top {
			m.overview.GotoTop()
		} else {
			m.overview.GotoBottom()
		}
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	m.focusActive()
}

func (m *Model) focusActive() {
	m.logTable.Blur()
	m.keyTable.Blur()
	switch m.activeTab {
	case tabLogs:
		m.logTable.Focus()
	case tabKeys:
		m.keyTable.Focus()
	}
}

// refresh recomputes everything derived from the collection.
func (m *Model) refresh() {
	m.errMsg = ""
	m.visible = filterLogs(m.coll.Logs(), m.query)
	summary, err := m.coll.Summarize(m.scope, m.opts)
	if err != nil {
		m.errMsg = err.Error()
		m.scope = ""
		summary, _ = m.coll.Summarize("", m.opts)
	}
	m.summary = summary
	means, err := m.coll.CharTimes(m.oracle, m.scope, m.opts)
	if err != nil {
		m.errMsg = err.Error()
	}
	m.means = means

	m.logTable.SetRows(logRows(m.visible, m.opts))
	m.logTable.SetCursor(0)
	m.keyTable.SetRows(keyRows(m.means))
	m.keyTable.SetCursor(0)
	m.renderOverview()
}

func (m *Model) renderOverview() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.summary, m.means, width))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := maxInt(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = maxInt(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.logTable.SetColumns(logColumns(m.width))
	for _, t := range []*table.Model{&m.logTable, &m.keyTable} {
		t.SetWidth(m.width)
		t.SetHeight(maxInt(1, bodyHeight-1))
	}
	m.filterInput.Width = maxInt(10, m.width-lipgloss.Width(m.filterInput.Prompt)-2)
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return padLines(m.renderTabs(), m.width) + "\n" + padLines(m.renderSettings(), m.width)
}

func (m *Model) renderSettings() string {
	scope := "all logs"
	if m.scope != "" {
		scope = "log " + m.scope
	}
	query := "none"
	if m.query != "" {
		query = strconv.Quote(m.query)
	}
	outliers := "kept"
	if m.opts.ExcludeOutliers {
		cutoff := m.opts.Cutoff
		if cutoff <= 0 {
			cutoff = stats.DefaultCutoff
		}
		outliers = fmt.Sprintf("excluded above %.2fs", cutoff)
	}
	line := fmt.Sprintf("Scope: %s  Filter: %s  Outliers: %s", scope, query, outliers)
	return headerStyle.Render(truncateLine(line, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down  Filter: /  All logs: a  Outliers: o  Quit: q"
	if m.activeTab == tabLogs {
		help = "Nav: left/right  Select: enter  Filter: /  All logs: a  Outliers: o  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("enter: apply  esc: cancel")
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderBody() string {
	if m.filterMode {
		return m.filterInput.View()
	}
	switch m.activeTab {
	case tabLogs:
		if len(m.visible) == 0 {
			return "No logs found."
		}
		return tableMutedStyle.Render(m.logTable.View())
	case tabKeys:
		if len(m.means) == 0 {
			return "No key timings found."
		}
		return tableMutedStyle.Render(m.keyTable.View())
	default:
		return m.overview.View()
	}
}

func renderOverview(s stats.Summary, means map[string]float64, width int) string {
	if s.Logs == 0 {
		return "No logs found."
	}
	cards := []string{
		metricCard("Logs", strconv.Itoa(s.Logs)),
		metricCard("Keystrokes", strconv.Itoa(s.Keystrokes)),
		metricCard("WPM", s.WPM.Format("%.1f")),
		metricCard("Avg Delay (ms)", formatMs(s.Average)),
		metricCard("Std Dev (ms)", formatMs(s.StdDev)),
		metricCard("Highest (ms)", formatMs(s.Highest)),
	}
	var body string
	if width < 80 {
		body = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		body = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	slowest := stats.SlowestKeys(means, slowestShown)
	if len(slowest) == 0 {
		return body
	}
	parts := make([]string, 0, len(slowest))
	for _, kt := range slowest {
		parts = append(parts, fmt.Sprintf("%s %.0fms", kt.Label, kt.Mean*1000))
	}
	return body + "\n\n" + headerStyle.Render("Slowest keys: "+strings.Join(parts, ", "))
}

func formatMs(v stats.Metric) string {
	if !v.OK {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v.Value*1000)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func filterLogs(logs []model.Log, query string) []model.Log {
	if query == "" {
		return logs
	}
	out := make([]model.Log, 0, len(logs))
	for _, log := range logs {
		if strings.Contains(log.String, query) {
			out = append(out, log)
		}
	}
	return out
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func logColumns(width int) []table.Column {
	const idWidth, keysWidth, wpmWidth = 36, 6, 7
	textWidth := maxInt(10, width-idWidth-keysWidth-wpmWidth-4)
	return []table.Column{
		{Title: "ID", Width: idWidth},
		{Title: "Keys", Width: keysWidth},
		{Title: "WPM", Width: wpmWidth},
		{Title: "String", Width: textWidth},
	}
}

func logRows(logs []model.Log, opts stats.Options) []table.Row {
	rows := make([]table.Row, 0, len(logs))
	for _, log := range logs {
		wpm := "n/a"
		if v, ok := stats.LogWPM(log, opts); ok {
			wpm = fmt.Sprintf("%.1f", v)
		}
		text := strings.NewReplacer("\n", "⏎", "\t", "→").Replace(log.String)
		rows = append(rows, table.Row{log.ID, strconv.Itoa(len(log.Keystrokes)), wpm, text})
	}
	return rows
}

func keyColumns() []table.Column {
	return []table.Column{
		{Title: "Key", Width: 8},
		{Title: "Avg Delay (ms)", Width: 15},
	}
}

func keyRows(means map[string]float64) []table.Row {
	all := stats.SlowestKeys(means, len(means))
	rows := make([]table.Row, 0, len(all))
	for _, kt := range all {
		rows = append(rows, table.Row{kt.Label, fmt.Sprintf("%.1f", kt.Mean*1000)})
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/Yates-Labs/spoke/internal/orchestrator"
	"github.com/Yates-Labs/spoke/internal/render"
	"github.com/Yates-Labs/spoke/internal/warehouse"
)

// TableLoader serves the dashboard datasets. *warehouse.Loader implements it.
type TableLoader interface {
	Hourly(ctx context.Context) (warehouse.Table, error)
	Weather(ctx context.Context) (warehouse.Table, error)
	Stations(ctx context.Context) (warehouse.Table, error)
}

// dashboardView is one of the fixed analysis views.
type dashboardView int

const (
	viewHourly dashboardView = iota
	viewWeather
	viewStations
	viewQuery
)

// rawRowLimit caps the rows shown in the raw data table.
const rawRowLimit = 50

type viewInfo struct {
	name        string
	header      string
	description string
	empty       string
}

var dashboardViews = []viewInfo{
	viewHourly: {
		name:        "📈 Hourly Trip Analysis",
		header:      "Hourly Trip Analysis",
		description: "This chart shows the total number of bike trips for each hour.",
		empty:       "No hourly data available.",
	},
	viewWeather: {
		name:        "🌦️ Analysis by Weather",
		header:      "Trip Count by Weather Conditions",
		description: "This chart displays how different weather conditions affect the number of bike trips.",
		empty:       "No weather data available.",
	},
	viewStations: {
		name:        "🗺️ Station Popularity Map",
		header:      "Top 100 Most Popular Start Stations",
		description: "This map shows the locations of the 100 most frequently used start stations.",
		empty:       "No station data available.",
	},
	viewQuery: {
		name:        "💬 Natural Language Query",
		header:      "Ask a Question About Your Data",
		description: "This feature uses an AI completion service to answer questions about the hourly trip data. Note that responses are AI-generated and may require verification.",
	},
}

// dashboardModel is the Bubble Tea model of the analytics dashboard.
type dashboardModel struct {
	ctx           context.Context
	loader        TableLoader
	insights      *orchestrator.InsightsPipeline
	sidebar       list.Model
	view          dashboardView
	tables        map[dashboardView]warehouse.Table
	isLoading     bool
	loadingText   string
	err           error
	warning       string
	showRaw       bool
	question      textarea.Model
	insight       *orchestrator.Insight
	insightErr    error
	content       viewport.Model
	spinner       spinner.Model
	width, height int
	requestStart  time.Time
}

// tableMsg carries a loaded dataset.
type tableMsg struct {
	view  dashboardView
	table warehouse.Table
}

// tableErr is sent when a dataset fails to load.
type tableErr struct {
	view dashboardView
	error
}

// insightMsg carries an answer from the insights flow.
type insightMsg struct{ insight *orchestrator.Insight }

// insightErr is sent when the insights flow fails.
type insightErr struct{ error }

func newDashboardModel(ctx context.Context, loader TableLoader, insights *orchestrator.InsightsPipeline) *dashboardModel {
	items := make([]list.Item, len(dashboardViews))
	for i, v := range dashboardViews {
		items[i] = item{title: v.name, desc: v.header}
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	sidebar := list.New(items, delegate, 0, 0)
	sidebar.Title = "Navigation"
	sidebar.SetShowHelp(false)
	sidebar.SetShowStatusBar(false)
	sidebar.SetFilteringEnabled(false)

	question := newInput("e.g., Which hours are the busiest for bike trips?", "Your question: ")
	question.Blur()

	return &dashboardModel{
		ctx:      ctx,
		loader:   loader,
		insights: insights,
		sidebar:  sidebar,
		view:     viewHourly,
		tables:   make(map[dashboardView]warehouse.Table),
		question: question,
		content:  viewport.New(80, 20),
		spinner:  newSpinner(),
	}
}

// RunDashboard starts the analytics dashboard.
func RunDashboard(ctx context.Context, loader TableLoader, insights *orchestrator.InsightsPipeline) error {
	m := newDashboardModel(ctx, loader, insights)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// dataView returns the view whose table backs v. The query view reads the
// hourly table.
func dataView(v dashboardView) dashboardView {
	if v == viewQuery {
		return viewHourly
	}
	return v
}

func (m *dashboardModel) loadCmd(v dashboardView) tea.Cmd {
	v = dataView(v)
	load := m.loader.Hourly
	switch v {
	case viewWeather:
		load = m.loader.Weather
	case viewStations:
		load = m.loader.Stations
	}
	return func() tea.Msg {
		t, err := load(m.ctx)
		if err != nil {
			return tableErr{view: v, error: err}
		}
		return tableMsg{view: v, table: t}
	}
}

func (m *dashboardModel) insightCmd(question string, table warehouse.Table) tea.Cmd {
	return func() tea.Msg {
		insight, err := m.insights.Ask(m.ctx, question, table)
		if err != nil {
			return insightErr{error: err}
		}
		return insightMsg{insight: insight}
	}
}

// Init loads the first view.
func (m *dashboardModel) Init() tea.Cmd {
	return m.selectView(viewHourly)
}

// selectView switches views and loads the backing table when needed.
func (m *dashboardModel) selectView(v dashboardView) tea.Cmd {
	m.view = v
	m.err = nil
	m.warning = ""
	m.sidebar.Select(int(v))
	if v == viewQuery {
		m.question.Focus()
	} else {
		m.question.Blur()
	}

	if _, ok := m.tables[dataView(v)]; ok {
		m.isLoading = false
		m.refresh()
		return nil
	}
	m.isLoading = true
	m.loadingText = "Loading data..."
	m.requestStart = time.Now()
	m.refresh()
	return tea.Batch(m.spinner.Tick, m.loadCmd(v))
}

// Update handles messages for the dashboard.
func (m *dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// Requests run one at a time; keys wait until the current one returns.
		if m.isLoading {
			return m, nil
		}
		switch msg.String() {
		case "tab":
			return m, m.selectView((m.view + 1) % dashboardView(len(dashboardViews)))
		case "shift+tab":
			return m, m.selectView((m.view + dashboardView(len(dashboardViews)) - 1) % dashboardView(len(dashboardViews)))
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.sidebar.SetSize(sidebarWidth, msg.Height-2)
		m.question.SetWidth(m.mainWidth() - 2)
		m.content.Width = m.mainWidth()
		m.content.Height = max(5, msg.Height-6)
		m.refresh()
		return m, nil

	case tableMsg:
		m.tables[msg.view] = msg.table
		if dataView(m.view) == msg.view {
			m.isLoading = false
		}
		m.refresh()
		return m, nil

	case tableErr:
		log.Error().Err(msg.error).Str("view", dashboardViews[msg.view].name).Msg("failed to load dataset")
		if dataView(m.view) == msg.view {
			m.isLoading = false
			m.err = msg.error
		}
		m.refresh()
		return m, nil

	case insightMsg:
		m.isLoading = false
		m.insight = msg.insight
		m.insightErr = nil
		m.question.Focus()
		m.refresh()
		return m, nil

	case insightErr:
		m.isLoading = false
		m.insight = nil
		m.insightErr = msg.error
		m.question.Focus()
		m.refresh()
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		if m.view == viewQuery {
			if key.String() == "enter" {
				return m, m.submit()
			}
			m.question, cmd = m.question.Update(msg)
			cmds = append(cmds, cmd)
		} else {
			switch key.String() {
			case "q":
				return m, tea.Quit
			case "r":
				m.showRaw = !m.showRaw
				m.refresh()
				return m, nil
			case "up", "k", "down", "j":
				m.sidebar, cmd = m.sidebar.Update(msg)
				cmds = append(cmds, cmd)
				if v := dashboardView(m.sidebar.Index()); v != m.view {
					cmds = append(cmds, m.selectView(v))
				}
				return m, tea.Batch(cmds...)
			}
		}
		m.content, cmd = m.content.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.isLoading {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *dashboardModel) submit() tea.Cmd {
	question := m.question.Value()
	if strings.TrimSpace(question) == "" {
		m.warning = orchestrator.InsightsQuestionWarning
		m.refresh()
		return nil
	}
	table, ok := m.tables[viewHourly]
	if !ok {
		return nil
	}

	m.warning = ""
	m.insight = nil
	m.insightErr = nil
	m.isLoading = true
	m.loadingText = "Analyzing data and generating insights..."
	m.requestStart = time.Now()
	m.refresh()
	return tea.Batch(m.spinner.Tick, m.insightCmd(question, table))
}

const sidebarWidth = 30

func (m *dashboardModel) mainWidth() int {
	return max(40, m.width-sidebarWidth-2)
}

func (m *dashboardModel) refresh() {
	m.content.SetContent(m.contentView())
}

// contentView renders the body of the selected view.
func (m *dashboardModel) contentView() string {
	info := dashboardViews[m.view]
	width := m.mainWidth()

	var b strings.Builder
	b.WriteString(render.HeaderStyle.Render(info.header) + "\n")
	b.WriteString(render.MutedStyle.Width(width).Render(info.description) + "\n\n")

	if m.err != nil {
		b.WriteString(render.Notice(render.NoticeError, m.err.Error()))
		return b.String()
	}
	if m.warning != "" {
		b.WriteString(render.Notice(render.NoticeWarning, m.warning) + "\n")
	}

	if m.view == viewQuery {
		b.WriteString(m.queryView(width))
		return b.String()
	}

	table, ok := m.tables[m.view]
	if !ok {
		return b.String()
	}
	if table.Empty() {
		b.WriteString(render.Notice(render.NoticeWarning, info.empty))
		return b.String()
	}

	switch m.view {
	case viewHourly:
		b.WriteString(render.ColumnChart(hourlyPoints(table), width, 12))
	case viewWeather:
		b.WriteString(render.BarChart(weatherBars(table), width))
	case viewStations:
		b.WriteString(render.Card("Stations", render.StationMap(stationPoints(table), width-4, 20), width))
	}
	b.WriteString("\n\n")

	if m.showRaw {
		b.WriteString(render.DataTable(table.Columns, table.Records(), rawRowLimit))
	} else {
		b.WriteString(helpStyle.Render("r: View Raw Data"))
	}
	return b.String()
}

func (m *dashboardModel) queryView(width int) string {
	var b strings.Builder
	if m.insightErr != nil {
		b.WriteString(render.Notice(render.NoticeError, orchestrator.InsightsErrorNotice) + "\n")
		b.WriteString(render.MutedStyle.Render(m.insightErr.Error()) + "\n")
	}
	if m.insight != nil {
		b.WriteString(render.HeaderStyle.Render("AI-Generated Insights:") + "\n")
		b.WriteString(render.AnswerBox(m.insight.Text, width) + "\n")
		if m.insight.Truncated {
			b.WriteString(render.MutedStyle.Render("The data table was truncated for the prompt.") + "\n")
		}
	}
	return b.String()
}

// View renders the sidebar and the selected view.
func (m *dashboardModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	title := titleStyle.Render("🚲 Citibike Data Analysis Dashboard")

	var main strings.Builder
	if m.view == viewQuery {
		main.WriteString(m.question.View() + "\n")
	}
	if m.isLoading {
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStart).Seconds())
		main.WriteString(fmt.Sprintf("\n  %s %s %ss\n", m.spinner.View(), m.loadingText, timer))
	} else {
		main.WriteString(m.content.View())
	}

	sidebar := lipgloss.NewStyle().
		Width(sidebarWidth).
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(render.BorderColor).
		Render(m.sidebar.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, lipgloss.NewStyle().PaddingLeft(1).Render(main.String()))
	help := helpStyle.Render("tab/shift+tab views • ↑/↓ navigate • r raw data • enter ask • q quit")
	return lipgloss.JoinVertical(lipgloss.Left, title, body, help)
}

func hourlyPoints(t warehouse.Table) []render.Point {
	hourCol, tripsCol := t.ColumnIndex(warehouse.ColumnHour), t.ColumnIndex(warehouse.ColumnNumTrips)
	points := make([]render.Point, 0, t.Len())
	for i, row := range t.Rows {
		v, ok := t.Float(i, tripsCol)
		if !ok {
			continue
		}
		label := ""
		if hourCol >= 0 {
			label = warehouse.FormatCell(row[hourCol])
		}
		points = append(points, render.Point{Label: label, Value: v})
	}
	return points
}

func weatherBars(t warehouse.Table) []render.Bar {
	condCol, tripsCol := t.ColumnIndex(warehouse.ColumnConditions), t.ColumnIndex(warehouse.ColumnNumTrips)
	bars := make([]render.Bar, 0, t.Len())
	for i, row := range t.Rows {
		v, ok := t.Float(i, tripsCol)
		if !ok || condCol < 0 {
			continue
		}
		bars = append(bars, render.Bar{Label: warehouse.FormatCell(row[condCol]), Value: v})
	}
	return bars
}

func stationPoints(t warehouse.Table) []render.MapPoint {
	nameCol := t.ColumnIndex(warehouse.ColumnStartStation)
	latCol, lonCol := t.ColumnIndex(warehouse.ColumnLat), t.ColumnIndex(warehouse.ColumnLon)
	tripsCol := t.ColumnIndex(warehouse.ColumnNumTrips)

	points := make([]render.MapPoint, 0, t.Len())
	for i, row := range t.Rows {
		lat, okLat := t.Float(i, latCol)
		lon, okLon := t.Float(i, lonCol)
		if !okLat || !okLon {
			continue
		}
		weight, _ := t.Float(i, tripsCol)
		name := ""
		if nameCol >= 0 {
			name = warehouse.FormatCell(row[nameCol])
		}
		points = append(points, render.MapPoint{Name: name, Lat: lat, Lon: lon, Weight: weight})
	}
	return points
}

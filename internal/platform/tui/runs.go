package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/dyngrid/internal/registry"
	"github.com/vovakirdan/dyngrid/internal/storage"
)

// Runs table layout constants
const (
	minWidthForSidebar = 90  // Minimum width to show model list sidebar
	sidebarWidth       = 20  // Width of model list sidebar
	maxRuns            = 100 // Max runs to load
)

// allModels is the sidebar entry that lists every model.
const allModels = "All models"

// RunsKeyMap defines the key bindings for the runs table.
type RunsKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	NextModel key.Binding
	PrevModel key.Binding
	Back      key.Binding
	Quit      key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k RunsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextModel, k.PrevModel, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k RunsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextModel, k.PrevModel},
		{k.Back, k.Quit},
	}
}

// DefaultRunsKeyMap returns default key bindings.
func DefaultRunsKeyMap() RunsKeyMap {
	return RunsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextModel: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next model"),
		),
		PrevModel: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev model"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// RunsModel is the Bubble Tea model for the recorded-runs screen.
type RunsModel struct {
	models      []registry.ModelInfo // sidebar entries; the first lists all
	modelCursor int
	store       *storage.Store
	runs        []storage.Run
	loadErr     error
	table       table.Model
	help        help.Model
	keys        RunsKeyMap
	width       int
	height      int
	quitting    bool
	goingBack   bool
	showSidebar bool
}

// NewRunsModel creates a runs table. An initial model ID selects its tab.
func NewRunsModel(store *storage.Store, model string, width, height int) RunsModel {
	models := append([]registry.ModelInfo{{Title: allModels}}, registry.List()...)

	m := RunsModel{
		models:      models,
		store:       store,
		keys:        DefaultRunsKeyMap(),
		help:        help.New(),
		width:       width,
		height:      height,
		showSidebar: width >= minWidthForSidebar,
	}
	for i, info := range models {
		if info.ID == model {
			m.modelCursor = i
		}
	}

	m.table = m.createTable()
	m.loadRuns()
	return m
}

// createTable creates a new table with appropriate columns.
func (m *RunsModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Model", Width: 11},
		{Title: "Status", Width: 9},
		{Title: "Steps", Width: 11},
		{Title: "Shape", Width: 9},
		{Title: "Seed", Width: 8},
		{Title: "Started", Width: 12},
		{Title: "Time", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)), // Leave room for header, help, and margins
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// loadRuns loads the runs of the selected model.
func (m *RunsModel) loadRuns() {
	m.runs, m.loadErr = nil, nil
	if m.store != nil {
		m.runs, m.loadErr = m.store.Runs(m.models[m.modelCursor].ID, maxRuns)
	}
	m.table.SetRows(RunRows(m.runs))
	m.table.GotoTop()
}

// RunRows formats runs as table rows, in column order.
func RunRows(runs []storage.Run) []table.Row {
	rows := make([]table.Row, len(runs))
	for i, r := range runs {
		started := ""
		if !r.StartedAt.IsZero() {
			started = r.StartedAt.Format("Jan 02 15:04")
		}
		rows[i] = table.Row{
			fmt.Sprintf("%d", r.ID),
			r.Model,
			r.Status,
			fmt.Sprintf("%d/%d", r.StepsRun, r.Steps),
			storage.FormatShape(r.Shape),
			fmt.Sprintf("%d", r.Seed),
			started,
			r.Duration.Round(10 * time.Millisecond).String(),
		}
	}
	return rows
}

// Init initializes the runs model.
func (m RunsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the runs table.
func (m RunsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextModel):
			m.modelCursor = (m.modelCursor + 1) % len(m.models)
			m.loadRuns()
			return m, nil

		case key.Matches(msg, m.keys.PrevModel):
			m.modelCursor = (m.modelCursor - 1 + len(m.models)) % len(m.models)
			m.loadRuns()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showSidebar = m.width >= minWidthForSidebar
		m.table = m.createTable()
		m.table.SetRows(RunRows(m.runs))
		m.help.Width = msg.Width
		return m, nil
	}

	// Pass other messages to table
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the runs table.
func (m RunsModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)

	title := fmt.Sprintf("RECORDED RUNS - %s", m.models[m.modelCursor].Title)
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	tableRendered := boxStyle.Render(m.renderTableContent())

	if m.showSidebar {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), "  ", tableRendered))
	} else {
		current := fmt.Sprintf("< %s >", m.models[m.modelCursor].Title)
		b.WriteString(centerText(current, m.width))
		b.WriteString("\n\n")
		b.WriteString(tableRendered)
	}

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderSidebar renders the model list.
func (m RunsModel) renderSidebar() string {
	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(sidebarWidth).
		Padding(0, 1)

	var sidebar strings.Builder
	sidebar.WriteString("Models\n")
	sidebar.WriteString(strings.Repeat("-", sidebarWidth-4))
	sidebar.WriteString("\n")

	for i, info := range m.models {
		cursor := "  "
		style := lipgloss.NewStyle()
		if i == m.modelCursor {
			cursor = "> "
			style = style.Bold(true).Foreground(lipgloss.Color("229"))
		}

		name := info.Title
		maxLen := sidebarWidth - 6
		if len(name) > maxLen {
			name = name[:maxLen-1] + "."
		}
		sidebar.WriteString(style.Render(cursor + name))
		sidebar.WriteString("\n")
	}

	return sidebarStyle.Render(sidebar.String())
}

// renderTableContent renders the table or an empty message.
func (m RunsModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	switch {
	case m.store == nil:
		return emptyStyle.Render("No run ledger is open.")
	case m.loadErr != nil:
		return emptyStyle.Render("Could not load runs:\n" + m.loadErr.Error())
	case len(m.runs) == 0:
		return emptyStyle.Render("No runs recorded yet.\nUse `dyngrid run --record` to add some.")
	}
	return m.table.View()
}

// IsGoingBack returns true if user wants to go back to menu.
func (m RunsModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m RunsModel) IsQuitting() bool {
	return m.quitting
}

// RunRuns runs the recorded-runs screen.
// Returns true if user wants to go back to menu, false if quitting.
func RunRuns(store *storage.Store, model string, width, height int) (goBack bool, err error) {
	p := tea.NewProgram(
		NewRunsModel(store, model, width, height),
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m, ok := finalModel.(RunsModel)
	if !ok {
		return false, nil
	}

	return m.IsGoingBack(), nil
}

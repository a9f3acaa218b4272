package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/registry"
)

// MenuItem represents a selectable model in the menu.
type MenuItem struct {
	ModelID     string
	Title       string
	Description string
}

var menuDescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

// MenuModel is the Bubble Tea model for the model picker menu.
type MenuModel struct {
	items     []MenuItem
	cursor    int
	width     int
	height    int
	config    core.RuntimeConfig
	keyMapper *KeyMapper
	quitting  bool
	selected  *MenuItem // Set when user selects a model
	openRuns  bool      // True if user pressed Tab for recorded runs
}

// NewMenuModel creates a new menu model listing every registered model.
func NewMenuModel(cfg core.RuntimeConfig) MenuModel {
	models := registry.List()
	items := make([]MenuItem, 0, len(models))
	for _, info := range models {
		items = append(items, MenuItem{
			ModelID:     info.ID,
			Title:       info.Title,
			Description: info.Description,
		})
	}

	return MenuModel{
		items:     items,
		width:     cfg.ScreenW,
		height:    cfg.ScreenH,
		config:    cfg,
		keyMapper: NewKeyMapper(),
	}
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input for menu navigation.
func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.keyMapper.MapKeyToMenuAction(msg) {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit

	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case MenuActionDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case MenuActionSelect:
		if len(m.items) > 0 {
			selected := m.items[m.cursor]
			m.selected = &selected
		}

	case MenuActionRuns:
		m.openRuns = true
	}

	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText("  D Y N G R I D  ", m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText("Select a model", m.width))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(centerText(fmt.Sprintf("%s%-16s", cursor, item.Title), m.width))
		b.WriteString("\n")
	}

	if len(m.items) > 0 {
		b.WriteString("\n")
		b.WriteString(menuDescStyle.Render(centerText(m.items[m.cursor].Description, m.width)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText("Up/Down: Navigate  |  Enter: Run  |  Tab: Runs  |  Q: Quit", m.width))
	b.WriteString("\n")

	return b.String()
}

// Selected returns the selected menu item, or nil if none selected.
func (m MenuModel) Selected() *MenuItem {
	return m.selected
}

// IsQuitting returns true if user requested to quit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}

// WantsRuns returns true if user requested the recorded runs.
func (m MenuModel) WantsRuns() bool {
	return m.openRuns
}

// Config returns the current runtime config (may have been updated by resize).
func (m MenuModel) Config() core.RuntimeConfig {
	return m.config
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	n := lipgloss.Width(text)
	if n >= width {
		return text
	}
	return strings.Repeat(" ", (width-n)/2) + text
}

// RunMenu shows the model menu in the local terminal, with the same
// screens as an SSH connection. Runs started from it end with the program.
func RunMenu(ctx context.Context, server SSHServerConfig, cfg core.RuntimeConfig) error {
	if server.Launch == nil && server.Shared == nil {
		return errors.New("tui: menu needs a launcher")
	}
	logger := server.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewSessionModel(ctx, server, cfg, "local", logger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if m, ok := final.(SessionModel); ok {
		m.stopSession()
	}
	return err
}

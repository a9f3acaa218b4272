package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/dyngrid/internal/core"
)

// KeyMapper translates Bubble Tea key messages to viewer actions.
// This centralizes key bindings and makes them testable.
type KeyMapper struct{}

// NewKeyMapper creates a new key mapper with default bindings.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{}
}

// MapKey translates a key message to a viewer action.
// Returns the action (may be ActionNone) and whether it's a quit request.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (action core.Action, isQuit bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return core.ActionQuit, true
	case " ", "p":
		return core.ActionPause, false
	case "n", ".":
		return core.ActionStep, false
	case "+", "=":
		return core.ActionFaster, false
	case "-", "_":
		return core.ActionSlower, false
	case "r":
		return core.ActionResume, false
	case "m":
		return core.ActionMode, false
	case "tab":
		return core.ActionLayer, false
	case "?":
		return core.ActionHelp, false
	case "b", "esc":
		return core.ActionBack, false
	}
	return core.ActionNone, false
}

// MenuAction represents a menu-specific action derived from input.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionSelect
	MenuActionBack
	MenuActionRuns
	MenuActionQuit
)

// MapKeyToMenuAction translates a key to a menu action.
func (km *KeyMapper) MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	switch msg.String() {
	case "ctrl+c", "q":
		return MenuActionQuit
	case "w", "up", "k": // vim-style k for up
		return MenuActionUp
	case "s", "down", "j": // vim-style j for down
		return MenuActionDown
	case "enter", " ":
		return MenuActionSelect
	case "b", "esc":
		return MenuActionBack
	case "tab":
		return MenuActionRuns
	}
	return MenuActionNone
}

// ViewerKeyMap describes the viewer bindings for the help line. MapKey
// stays the source of truth for dispatch.
type ViewerKeyMap struct {
	Pause  key.Binding
	Step   key.Binding
	Faster key.Binding
	Slower key.Binding
	Resume key.Binding
	Mode   key.Binding
	Layer  key.Binding
	Help   key.Binding
	Back   key.Binding
	Quit   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ViewerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Step, k.Faster, k.Slower, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ViewerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Step, k.Faster, k.Slower},
		{k.Resume, k.Mode, k.Layer},
		{k.Help, k.Back, k.Quit},
	}
}

// DefaultViewerKeyMap returns the viewer bindings.
func DefaultViewerKeyMap() ViewerKeyMap {
	return ViewerKeyMap{
		Pause:  key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause")),
		Step:   key.NewBinding(key.WithKeys("n", "."), key.WithHelp("n", "step")),
		Faster: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		Slower: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
		Resume: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "run more")),
		Mode:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "render mode")),
		Layer:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "layer")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back:   key.NewBinding(key.WithKeys("b", "esc"), key.WithHelp("esc", "menu")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

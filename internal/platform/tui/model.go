package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/dyngrid/internal/broadcast"
	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/output"
	"github.com/vovakirdan/dyngrid/internal/session"
)

// redrawRate is how often the viewer picks up the latest snapshot.
const redrawRate = 30

// fpsSteps are the speeds +/- move between; 0 is unpaced.
var fpsSteps = []int{1, 2, 5, 10, 15, 20, 30, 60, 0}

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// ViewerOptions configure a viewer.
type ViewerOptions struct {
	Steps     int  // steps per run segment; r runs this many more
	Autostart bool // start the session on Init when it isn't running
	ViewOnly  bool // shared view: pause, step and speed are disabled
	Menu      bool // back returns to a model menu
	Mode      RenderMode
	Cutoff    float64
	Layer     string
	Width     int
	Height    int
}

// ViewerModel is the Bubble Tea model that shows a running session.
type ViewerModel struct {
	ctx        context.Context
	sess       *session.Session
	sub        *broadcast.Subscriber
	opts       ViewerOptions
	screen     *core.Screen
	keyMapper  *KeyMapper
	keys       ViewerKeyMap
	help       help.Model
	snap       output.Snapshot
	have       bool
	layer      int
	mode       RenderMode
	note       string
	quitting   bool
	backToMenu bool
}

// NewViewerModel subscribes to sess. Runs started from the viewer use ctx.
func NewViewerModel(ctx context.Context, sess *session.Session, opts ViewerOptions) ViewerModel {
	if opts.Width <= 0 || opts.Height <= 0 {
		d := core.DefaultConfig()
		opts.Width, opts.Height = d.ScreenW, d.ScreenH
	}
	layer := 0
	for i, name := range sess.Info().Layers {
		if name == opts.Layer {
			layer = i
		}
	}
	return ViewerModel{
		ctx:       ctx,
		sess:      sess,
		sub:       sess.Subscribe(),
		opts:      opts,
		screen:    core.NewScreen(opts.Width, max(opts.Height-2, 1)),
		keyMapper: NewKeyMapper(),
		keys:      DefaultViewerKeyMap(),
		help:      help.New(),
		layer:     layer,
		mode:      opts.Mode,
	}
}

// Init starts the session if requested and the redraw loop.
func (m ViewerModel) Init() tea.Cmd {
	if m.opts.Autostart && !m.sess.Running() {
		m.sess.Start(m.ctx, m.opts.Steps)
	}
	return tickCmd(redrawRate)
}

// Update handles messages and updates the model state.
func (m ViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.opts.Width, m.opts.Height = msg.Width, msg.Height
		m.screen.Resize(msg.Width, max(msg.Height-2, 1))
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		m.drain()
		return m, tickCmd(redrawRate)
	}
	return m, nil
}

// drain keeps only the newest pending snapshot.
func (m *ViewerModel) drain() {
	for {
		select {
		case s := <-m.sub.Events():
			m.snap, m.have = s, true
		default:
			return
		}
	}
}

func (m ViewerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, isQuit := m.keyMapper.MapKey(msg)
	if isQuit {
		m.quitting = true
		m.sess.Unsubscribe(m.sub)
		return m, tea.Quit
	}

	ctrl := m.sess.Control()
	m.note = ""
	switch action {
	case core.ActionPause, core.ActionStep, core.ActionFaster, core.ActionSlower, core.ActionResume:
		if m.opts.ViewOnly {
			m.note = "shared view: controls are disabled"
			return m, nil
		}
	}

	switch action {
	case core.ActionPause:
		ctrl.Toggle()
	case core.ActionStep:
		if !ctrl.Paused() {
			ctrl.Pause()
		}
		ctrl.Step()
	case core.ActionFaster:
		ctrl.SetFPS(nextFPS(ctrl.FPS(), 1))
	case core.ActionSlower:
		ctrl.SetFPS(nextFPS(ctrl.FPS(), -1))
	case core.ActionResume:
		if m.sess.Running() {
			m.note = "already running"
		} else if m.sess.Start(m.ctx, m.opts.Steps) {
			m.note = fmt.Sprintf("running %d more steps", m.opts.Steps)
		}
	case core.ActionMode:
		m.mode = m.mode.Next()
	case core.ActionLayer:
		if n := len(m.sess.Info().Layers); n > 0 {
			m.layer = (m.layer + 1) % n
		}
	case core.ActionHelp:
		m.help.ShowAll = !m.help.ShowAll
	case core.ActionBack:
		if m.opts.Menu {
			m.backToMenu = true
			m.sess.Unsubscribe(m.sub)
		}
	}
	return m, nil
}

// nextFPS moves one entry along fpsSteps.
func nextFPS(cur, dir int) int {
	i := len(fpsSteps) - 1
	for k, f := range fpsSteps {
		if f == cur {
			i = k
			break
		}
		if cur > 0 && f > cur {
			i = k
			if dir > 0 {
				i--
			}
			break
		}
	}
	return fpsSteps[core.Clamp(i+dir, 0, len(fpsSteps)-1)]
}

// View renders the grid, the status line and the help line.
func (m ViewerModel) View() string {
	if m.quitting {
		return ""
	}

	m.screen.Clear()
	if m.have && len(m.snap.Layers) > 0 {
		i := min(m.layer, len(m.snap.Layers)-1)
		p := PlaneOf(m.snap.Layers[i], m.snap.Shape)
		p.Cutoff = m.opts.Cutoff
		p.Color = core.LayerColor(i)
		DrawPlane(m.screen, core.NewRect(0, 0, m.screen.Width(), m.screen.Height()), p, m.mode)
	} else {
		msg := "waiting for the first frame..."
		m.screen.DrawText((m.screen.Width()-len(msg))/2, m.screen.Height()/2, msg, core.ColorGray)
	}

	var b strings.Builder
	b.WriteString(RenderScreen(m.screen))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	if m.note != "" {
		b.WriteString(noteStyle.Render(m.note))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m ViewerModel) statusLine() string {
	info := m.sess.Info()
	ctrl := m.sess.Control()

	state := "running"
	switch {
	case m.sess.Err() != nil && !m.sess.Running():
		state = "error: " + m.sess.Err().Error()
	case m.have && m.snap.Final && !m.sess.Running():
		state = "finished (r for more)"
	case ctrl.Paused():
		state = "paused"
	}
	fps := "max"
	if f := ctrl.FPS(); f > 0 {
		fps = fmt.Sprintf("%d fps", f)
	}

	parts := []string{fmt.Sprintf("step %d", m.snap.Step)}
	if m.have && len(m.snap.Layers) > 0 {
		i := min(m.layer, len(m.snap.Layers)-1)
		parts = append(parts,
			fmt.Sprintf("pop %d", m.snap.Population(i)),
			fmt.Sprintf("total %.4g", m.snap.Total(i)),
		)
		if len(m.snap.Names) > 1 {
			parts = append(parts, "layer "+m.snap.Names[i])
		}
	}
	parts = append(parts, state, fps, m.mode.String())
	if n := m.sess.Viewers(); m.opts.ViewOnly && n > 1 {
		parts = append(parts, fmt.Sprintf("%d viewers", n))
	}

	title := titleStyle.Render(" " + info.Title + " ")
	line := statusStyle.Render(" " + strings.Join(parts, "  ") + " ")
	return title + line
}

// IsQuitting returns true if user requested to quit entirely.
func (m ViewerModel) IsQuitting() bool { return m.quitting }

// BackToMenu returns true if user requested to go back to menu.
func (m ViewerModel) BackToMenu() bool { return m.backToMenu }

// Run shows sess in the terminal until the user quits. The session is
// started when it isn't running and stopped on exit.
func Run(ctx context.Context, sess *session.Session, opts ViewerOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts.Autostart = true
	model := NewViewerModel(ctx, sess, opts)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	cancel()
	//nolint:errcheck // the run was cancelled on purpose
	sess.Wait(context.Background())
	return err
}

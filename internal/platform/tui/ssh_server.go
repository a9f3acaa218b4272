package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/session"
	"github.com/vovakirdan/dyngrid/internal/storage"
)

// LaunchFunc builds a new session for a model picked in the menu.
type LaunchFunc func(modelID string) (*session.Session, error)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.dyngrid/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// Store is the run ledger shown in the runs screen; may be nil.
	Store *storage.Store

	// Launch builds per-connection sessions from the model menu.
	Launch LaunchFunc

	// Shared, when set, is one server-side session every connection
	// watches; the menu is skipped and controls are disabled.
	Shared *session.Session

	// Steps is how many steps a session runs per segment.
	Steps int

	// Viewer holds the display defaults for new viewers.
	Viewer ViewerOptions

	Logger *log.Logger
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		IdleTimeout: 30 * time.Minute,
		Steps:       500,
		Viewer:      ViewerOptions{Cutoff: 0.5},
	}
}

// SSHServer wraps a Wish SSH server for dyngrid.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	if cfg.Shared == nil && cfg.Launch == nil {
		return nil, errors.New("tui: SSH server needs a launcher or a shared session")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "dyngrid-ssh",
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := &SSHServer{
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			cancel()
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".dyngrid", "host_key")
	}

	hostKeyDir := filepath.Dir(hostKeyPath)
	if mkdirErr := os.MkdirAll(hostKeyDir, 0o700); mkdirErr != nil {
		cancel()
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	cfg := core.RuntimeConfig{
		ScreenW: pty.Window.Width,
		ScreenH: pty.Window.Height,
	}
	// Per-connection runs end with the connection.
	model := NewSessionModel(sshSession.Context(), s.config, cfg, sshSession.User(), s.logger)

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown. A shared
// session is started first and stops with the server.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address, "shared", s.config.Shared != nil)

	if sh := s.config.Shared; sh != nil {
		sh.Start(s.ctx, s.config.Steps)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server and every running simulation.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.cancel()
	if sh := s.config.Shared; sh != nil {
		//nolint:errcheck // cancelled on purpose
		sh.Wait(ctx)
		sh.Close()
	}

	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

type sessionScreen int

const (
	screenMenu sessionScreen = iota
	screenViewer
	screenRuns
)

// SessionModel manages one connection: menu -> viewer or runs -> menu.
// With a shared session it only shows the viewer.
type SessionModel struct {
	ctx      context.Context
	server   SSHServerConfig
	config   core.RuntimeConfig
	username string
	logger   *log.Logger
	screen   sessionScreen
	menu     MenuModel
	viewer   *ViewerModel
	runs     *RunsModel
	sess     *session.Session
	stop     context.CancelFunc
	note     string
	quitting bool
}

// NewSessionModel creates a new session model.
func NewSessionModel(ctx context.Context, server SSHServerConfig, cfg core.RuntimeConfig, username string, logger *log.Logger) SessionModel {
	m := SessionModel{
		ctx:      ctx,
		server:   server,
		config:   cfg,
		username: username,
		logger:   logger,
		menu:     NewMenuModel(cfg),
	}
	if server.Shared != nil {
		opts := m.viewerOptions()
		opts.ViewOnly = true
		v := NewViewerModel(ctx, server.Shared, opts)
		m.viewer = &v
		m.screen = screenViewer
	}
	return m
}

func (m SessionModel) viewerOptions() ViewerOptions {
	opts := m.server.Viewer
	opts.Steps = m.server.Steps
	opts.Width, opts.Height = m.config.ScreenW, m.config.ScreenH
	return opts
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	if m.viewer != nil {
		return m.viewer.Init()
	}
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.config.ScreenW = wsm.Width
		m.config.ScreenH = wsm.Height
	}

	switch m.screen {
	case screenViewer:
		return m.updateViewer(msg)
	case screenRuns:
		return m.updateRuns(msg)
	}
	return m.updateMenu(msg)
}

// updateMenu handles updates when in menu mode.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.menu.WantsRuns() {
		runs := NewRunsModel(m.server.Store, "", m.config.ScreenW, m.config.ScreenH)
		m.runs = &runs
		m.screen = screenRuns
		return m, runs.Init()
	}

	if selected := m.menu.Selected(); selected != nil {
		sess, err := m.server.Launch(selected.ModelID)
		if err != nil {
			m.logger.Warn("could not launch model", "model", selected.ModelID, "user", m.username, "error", err)
			m.note = err.Error()
			m.menu = NewMenuModel(m.config)
			return m, nil
		}
		m.logger.Info("model launched", "model", selected.ModelID, "user", m.username, "run", sess.RunID())

		ctx, stop := context.WithCancel(m.ctx)
		opts := m.viewerOptions()
		opts.Autostart = true
		opts.Menu = true
		if d := sess.Config().Display; d.Mode != "" {
			if mode, err := ParseRenderMode(d.Mode); err == nil {
				opts.Mode = mode
			}
			opts.Cutoff = d.Cutoff
			opts.Layer = d.Layer
		}
		v := NewViewerModel(ctx, sess, opts)
		m.viewer, m.sess, m.stop = &v, sess, stop
		m.screen = screenViewer
		m.note = ""
		return m, m.viewer.Init()
	}

	return m, cmd
}

// updateViewer handles updates when a viewer is shown.
func (m SessionModel) updateViewer(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.viewer.Update(msg)
	if v, ok := newModel.(ViewerModel); ok {
		m.viewer = &v
	}

	if m.viewer.IsQuitting() {
		m.stopSession()
		m.quitting = true
		return m, tea.Quit
	}

	if m.viewer.BackToMenu() {
		m.stopSession()
		m.viewer = nil
		m.screen = screenMenu
		m.menu = NewMenuModel(m.config)
		return m, m.menu.Init()
	}

	return m, cmd
}

// updateRuns handles updates when the runs table is shown. The table
// quits on its own; here that means going back.
func (m SessionModel) updateRuns(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.runs.Update(msg)
	if r, ok := newModel.(RunsModel); ok {
		m.runs = &r
	}

	if m.runs.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.runs.IsGoingBack() {
		m.runs = nil
		m.screen = screenMenu
		m.menu = NewMenuModel(m.config)
		return m, m.menu.Init()
	}
	return m, cmd
}

// stopSession cancels a per-connection run and waits for its ledger
// entry to close. Shared sessions keep going.
func (m *SessionModel) stopSession() {
	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
	if m.sess != nil {
		//nolint:errcheck // the run was cancelled on purpose
		m.sess.Wait(context.Background())
		m.sess = nil
	}
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.screen {
	case screenViewer:
		return m.viewer.View()
	case screenRuns:
		return m.runs.View()
	}
	if m.note != "" {
		return m.menu.View() + "\n" + centerText("error: "+m.note, m.config.ScreenW)
	}
	return m.menu.View()
}

package app

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/notify-center/internal/config"
	"github.com/nhle/notify-center/internal/gateway"
	"github.com/nhle/notify-center/internal/keys"
	"github.com/nhle/notify-center/internal/model"
	"github.com/nhle/notify-center/internal/push"
	"github.com/nhle/notify-center/internal/reconciler"
	"github.com/nhle/notify-center/internal/session"
	"github.com/nhle/notify-center/internal/store"
	"github.com/nhle/notify-center/internal/ui"
	helpview "github.com/nhle/notify-center/internal/ui/help"
	"github.com/nhle/notify-center/internal/ui/pagelist"
	"github.com/nhle/notify-center/internal/ui/panel"
	setupview "github.com/nhle/notify-center/internal/ui/setup"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewPanel ViewState = iota
	ViewPage
	ViewSetup
	ViewHelp
)

// toastExpiredMsg clears the new-notification toast if no newer toast
// has replaced it in the meantime.
type toastExpiredMsg struct {
	seq int
}

const startupLoadTimeout = 5 * time.Second

// Model is the root Bubble Tea model. It owns session binding, the
// push channel lifecycle, and routing between the compact panel and
// the full notifications page.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	ready        bool

	cfg        *config.AppConfig
	configPath string
	store      store.Store
	logger     *zap.Logger
	keys       *keys.KeyMap

	binder  *session.Binder
	adapter *push.Adapter

	panelView panel.Model
	pageView  pagelist.Model
	helpView  helpview.Model
	setupView setupview.Model
	synced    bool

	toast    string
	toastSeq int
}

// New creates the root application model. When no identity can be
// resolved it starts in the setup flow instead of syncing.
func New(cfg *config.AppConfig, configPath string, s store.Store, logger *zap.Logger) Model {
	k := keys.DefaultKeyMap()

	m := Model{
		currentView: ViewPanel,
		cfg:         cfg,
		configPath:  configPath,
		store:       s,
		logger:      logger,
		keys:        k,
		helpView:    helpview.New(k, 80, 24),
	}
	m.binder = session.NewBinder(m.connectPush, logger)

	if id, ok := session.Resolve(cfg.Server.TokenEnv); ok {
		m.bootstrap(id)
	} else {
		m.currentView = ViewSetup
		m.setupView = setupview.New(cfg, configPath, logger, 80, 24)
	}

	return m
}

// connectPush is the binder's connect hook: one push adapter per bound
// identity.
func (m *Model) connectPush(id session.Identity) session.Conn {
	a := push.New(m.pushURL(), id.Token, m.reconnectCeiling(), m.logger)
	a.Start()
	return a
}

// bootstrap builds the gateway, both reconciler instances and their
// views for a resolved identity, and binds the push channel.
func (m *Model) bootstrap(id session.Identity) {
	gw := gateway.New(m.cfg.Server.BaseURL, id.Token, m.logger)

	ctx, cancel := context.WithTimeout(context.Background(), startupLoadTimeout)
	defer cancel()

	pageFilters := model.DefaultFilterState(m.cfg.Display.PageLimit)
	if f, err := m.store.GetFilters(ctx, store.ViewPage); err == nil && f != nil {
		pageFilters = *f
		pageFilters.Limit = m.cfg.Display.PageLimit
	}
	cached, _, err := m.store.GetSnapshot(ctx)
	if err != nil {
		cached = nil
	}

	panelRec := reconciler.New(panel.Owner, gw,
		model.DefaultFilterState(m.cfg.Display.PanelLimit), m.logger)
	pageRec := reconciler.New(pagelist.Owner, gw, pageFilters, m.logger)

	width, height := 80, 24
	if m.ready {
		width = m.layout.ContentWidth()
		height = m.layout.ContentHeight()
	}
	m.panelView = panel.New(panelRec, m.keys, width, height)
	m.pageView = pagelist.New(pageRec, m.store, m.keys, cached, width, height)
	m.synced = true

	if conn := m.binder.Bind(id); conn != nil {
		if a, ok := conn.(*push.Adapter); ok {
			m.adapter = a
			panelRec.SetConnState(a.State())
			pageRec.SetConnState(a.State())
		}
	}
}

// Init starts the initial fetches and the push event pump.
func (m Model) Init() tea.Cmd {
	if !m.synced {
		return m.setupView.Init()
	}
	return tea.Batch(
		m.panelView.Init(),
		m.pageView.Init(),
		m.waitForPush(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		if m.synced {
			m.panelView.SetSize(w, h)
			m.pageView.SetSize(w, h)
		}
		m.helpView.SetSize(w, h)
		// Forward to the active view so huh forms can size themselves.
		return m.updateActiveView(msg)

	case push.ConnectedMsg:
		if !m.synced {
			return m, m.waitForPush()
		}
		m.setConnState(push.Connected)
		// Reconcile both views after any gap in the push channel.
		var cmds []tea.Cmd
		cmds = append(cmds, m.panelView.Reconciler().Refresh())
		cmds = append(cmds, m.pageView.Reconciler().Refresh())
		cmds = append(cmds, m.waitForPush())
		return m, tea.Batch(cmds...)

	case push.DisconnectedMsg:
		if m.synced {
			m.setConnState(push.Connecting)
		}
		return m, m.waitForPush()

	case push.CreatedMsg:
		if !m.synced {
			return m, m.waitForPush()
		}
		// The panel reconciler is the dedup authority for toasts: a
		// redelivered event merges silently everywhere.
		isNew := m.panelView.ApplyCreated(msg.Notification)
		_, pageCmd := m.pageView.ApplyCreated(msg.Notification)
		cmds := []tea.Cmd{pageCmd, m.waitForPush()}
		if isNew {
			m.toast = msg.Notification.Title
			m.toastSeq++
			seq := m.toastSeq
			cmds = append(cmds, tea.Tick(m.toastDuration(), func(time.Time) tea.Msg {
				return toastExpiredMsg{seq: seq}
			}))
		}
		return m, tea.Batch(cmds...)

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case reconciler.ListResultMsg:
		return m.routeReconcilerMsg(msg.Owner, msg)

	case reconciler.MutationResultMsg:
		return m.routeReconcilerMsg(msg.Owner, msg)

	case setupview.DoneMsg:
		id, ok := session.Resolve(m.cfg.Server.TokenEnv)
		if !ok {
			// Fail closed: no identity, no notification state.
			m.binder.Unbind()
			if m.synced {
				m.panelView.Reconciler().Clear()
				m.pageView.Reconciler().Clear()
			}
			return m, tea.Quit
		}
		m.bootstrap(id)
		m.currentView = ViewPanel
		return m, tea.Batch(
			m.panelView.Init(),
			m.pageView.Init(),
			m.waitForPush(),
		)

	case setupview.AbortedMsg:
		if m.synced {
			// Setup was re-entered from a running session; just go back.
			m.currentView = m.previousView
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyMsg:
		if handled, mdl, cmd := m.handleGlobalKeys(msg); handled {
			return mdl, cmd
		}
	}

	return m.updateActiveView(msg)
}

// routeReconcilerMsg delivers fetch and mutation results to the view
// owning the reconciler instance that issued them, regardless of which
// view is currently on screen.
func (m Model) routeReconcilerMsg(owner string, msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.synced {
		return m, nil
	}
	var cmd tea.Cmd
	switch owner {
	case panel.Owner:
		m.panelView, cmd = m.panelView.Update(msg)
	case pagelist.Owner:
		m.pageView, cmd = m.pageView.Update(msg)
	}
	return m, cmd
}

// handleGlobalKeys processes keys that work regardless of active view.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	// Never intercept text typed into the setup form.
	if m.currentView == ViewSetup {
		return false, m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.binder.Unbind()
		return true, m, tea.Quit

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case "tab":
		if !m.synced {
			return true, m, nil
		}
		switch m.currentView {
		case ViewPanel:
			m.currentView = ViewPage
		case ViewPage:
			m.currentView = ViewPanel
		}
		return true, m, nil

	case "c":
		m.previousView = m.currentView
		m.currentView = ViewSetup
		m.setupView = setupview.New(m.cfg, m.configPath, m.logger,
			m.layout.ContentWidth(), m.layout.ContentHeight())
		return true, m, m.setupView.Init()
	}

	return false, m, nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewPanel:
		if m.synced {
			m.panelView, cmd = m.panelView.Update(msg)
		}
	case ViewPage:
		if m.synced {
			m.pageView, cmd = m.pageView.Update(msg)
		}
	case ViewSetup:
		m.setupView, cmd = m.setupView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// waitForPush re-arms the push event pump.
func (m Model) waitForPush() tea.Cmd {
	if m.adapter == nil {
		return nil
	}
	return m.adapter.WaitForEvent()
}

// setConnState propagates the push connection state to both reconciler
// instances.
func (m *Model) setConnState(s push.ConnectionState) {
	m.panelView.Reconciler().SetConnState(s)
	m.pageView.Reconciler().SetConnState(s)
}

// View renders the full terminal UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	connStatus := "offline"
	if m.adapter != nil {
		connStatus = m.adapter.State().String()
	}

	unread := 0
	if m.synced {
		unread = m.panelView.Reconciler().Snapshot().Unread
	}

	header := m.layout.RenderHeader("Notifications", unread, connStatus)
	content := m.renderContent()
	toast := ""
	if m.toast != "" {
		toast = "New: " + m.toast
	}
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, toast, statusBar)
}

// renderContent returns the rendered string for the active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewPanel:
		if !m.synced {
			return ""
		}
		return m.panelView.View()
	case ViewPage:
		if !m.synced {
			return ""
		}
		return m.pageView.View()
	case ViewSetup:
		return m.setupView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// keyHints builds the status bar hint line for the active view.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewSetup:
		return "enter confirm · esc cancel"
	case ViewHelp:
		return "? close help"
	case ViewPage:
		hints := "tab recent · m read · M all read · d delete · t/u filter · h/l page · ? help · q quit"
		if m.synced {
			if summary := m.pageView.FilterSummary(); summary != "" {
				hints = summary + "  |  " + hints
			}
		}
		return hints
	default:
		return "tab all · enter read · M all read · d delete · r refresh · ? help · q quit"
	}
}

func (m Model) pushURL() string {
	base := m.cfg.Server.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return strings.TrimRight(base, "/") + m.cfg.Server.PushPath
}

func (m Model) reconnectCeiling() time.Duration {
	s := m.cfg.Server.ReconnectCeilingSec
	if s <= 0 {
		s = 60
	}
	return time.Duration(s) * time.Second
}

func (m Model) toastDuration() time.Duration {
	s := m.cfg.Display.ToastSeconds
	if s <= 0 {
		s = 5
	}
	return time.Duration(s) * time.Second
}

package panel

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notify-center/internal/keys"
	"github.com/nhle/notify-center/internal/model"
	"github.com/nhle/notify-center/internal/reconciler"
	"github.com/nhle/notify-center/internal/theme"
)

// Owner is the reconciler instance tag for the compact panel.
const Owner = "panel"

// Model is the compact recent-notifications panel. It keeps its own
// reconciler instance and never persists filters; every open shows the
// newest items with the unread badge.
type Model struct {
	rec     *reconciler.Reconciler
	keys    *keys.KeyMap
	spinner spinner.Model
	cursor  int
	width   int
	height  int
}

// New creates the panel view with its own reconciler.
func New(rec *reconciler.Reconciler, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		rec:     rec,
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init triggers the initial fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.rec.Refresh(), m.spinner.Tick)
}

// Reconciler exposes the backing reconciler to the root model.
func (m Model) Reconciler() *reconciler.Reconciler {
	return m.rec
}

// Update handles messages for the panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reconciler.ListResultMsg:
		if msg.Owner != Owner {
			return m, nil
		}
		m.rec.ApplyListResult(msg)
		m.clampCursor()
		return m, nil

	case reconciler.MutationResultMsg:
		if msg.Owner != Owner {
			return m, nil
		}
		m.rec.ApplyMutationResult(msg)
		m.clampCursor()
		return m, nil

	case spinner.TickMsg:
		if m.rec.Snapshot().Phase == reconciler.Loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m, nil
}

// ApplyCreated merges a push-delivered notification and reports whether
// it was new to this view.
func (m *Model) ApplyCreated(n model.Notification) bool {
	isNew := m.rec.ApplyCreated(n)
	m.clampCursor()
	return isNew
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	snap := m.rec.Snapshot()

	switch {
	case key.Matches(msg, m.keys.Back):
		m.rec.ClearError()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(snap.Items)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.MarkRead):
		if m.cursor >= len(snap.Items) {
			return m, nil
		}
		n := snap.Items[m.cursor]
		if n.IsRead {
			return m, nil
		}
		return m, m.rec.MarkRead([]int64{n.ID})

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.rec.MarkAllRead()

	case key.Matches(msg, m.keys.Delete):
		if m.cursor >= len(snap.Items) {
			return m, nil
		}
		cmd := m.rec.Delete(snap.Items[m.cursor].ID)
		m.clampCursor()
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.rec.Refresh(), m.spinner.Tick)
	}

	return m, nil
}

func (m *Model) clampCursor() {
	n := len(m.rec.Snapshot().Items)
	if n == 0 {
		m.cursor = 0
	} else if m.cursor >= n {
		m.cursor = n - 1
	}
}

// View renders the compact panel.
func (m Model) View() string {
	snap := m.rec.Snapshot()

	if snap.Phase == reconciler.Loading && len(snap.Items) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(m.spinner.View() + " loading…")
	}

	if len(snap.Items) == 0 {
		msg := "All caught up."
		if snap.Phase == reconciler.Failed && snap.Err != nil {
			msg = "Could not load notifications.\nPress r to retry."
		}
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render(msg)
	}

	var b strings.Builder
	for i, n := range snap.Items {
		b.WriteString(m.renderRow(n, i == m.cursor))
		b.WriteString("\n")
	}
	if snap.Err != nil && snap.Phase != reconciler.Failed {
		b.WriteString(theme.ErrorStyle.Render(snap.Err.Error() + " (esc to dismiss)"))
		b.WriteString("\n")
	}
	return b.String()
}

// renderRow renders one compact line: marker, type tag, title, age.
func (m Model) renderRow(n model.Notification, selected bool) string {
	marker := " "
	if !n.IsRead {
		marker = theme.UnreadMarkerStyle.Render("●")
	}
	tag := theme.TypeStyle(string(n.Type)).Render(theme.TypeLabel(string(n.Type)))

	title := n.Title
	if n.IsRead {
		title = theme.DimmedStyle.Render(title)
	}

	age := theme.DimmedStyle.Render(relativeAge(n.CreatedAt))
	row := fmt.Sprintf("%s %s %s %s", marker, tag, title, age)

	if selected {
		return theme.SelectedItemStyle.Render(row)
	}
	return theme.ListItemStyle.Render(row)
}

func relativeAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

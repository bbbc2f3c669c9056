package pagelist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notify-center/internal/keys"
	"github.com/nhle/notify-center/internal/model"
	"github.com/nhle/notify-center/internal/reconciler"
	"github.com/nhle/notify-center/internal/store"
	"github.com/nhle/notify-center/internal/theme"
)

// Owner is the reconciler instance tag for the full page view.
const Owner = "page"

// persistTimeout bounds the fire-and-forget local cache writes.
const persistTimeout = 5 * time.Second

// Model is the full notifications page: a paged, filterable list backed
// by its own reconciler instance. Its filter state persists across runs.
type Model struct {
	rec        *reconciler.Reconciler
	store      store.Store
	keys       *keys.KeyMap
	list       list.Model
	paginator  paginator.Model
	spinner    spinner.Model
	width      int
	height     int
	loadedOnce bool
}

// New creates the page view. Persisted filters and the cached snapshot
// are already resolved by the caller; cached items render until the
// first fetch lands.
func New(
	rec *reconciler.Reconciler,
	s store.Store,
	k *keys.KeyMap,
	cached []model.Notification,
	width, height int,
) Model {
	delegate := ItemDelegate{}
	l := list.New(nil, delegate, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	items := make([]list.Item, len(cached))
	for i, n := range cached {
		items[i] = NotificationItem{N: n}
	}
	l.SetItems(items)

	p := paginator.New()
	p.Type = paginator.Dots

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		rec:       rec,
		store:     s,
		keys:      k,
		list:      l,
		paginator: p,
		spinner:   sp,
		width:     width,
		height:    height,
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

// Update handles messages for the page view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reconciler.ListResultMsg:
		if msg.Owner != Owner {
			return m, nil
		}
		m.rec.ApplyListResult(msg)
		m.loadedOnce = true
		cmd := m.rebuild()
		if msg.Err == nil {
			return m, tea.Batch(cmd, m.persist())
		}
		return m, cmd

	case reconciler.MutationResultMsg:
		if msg.Owner != Owner {
			return m, nil
		}
		m.rec.ApplyMutationResult(msg)
		return m, m.rebuild()

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

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// ApplyCreated merges a push-delivered notification and reports whether
// it was new to this view.
func (m *Model) ApplyCreated(n model.Notification) (bool, tea.Cmd) {
	isNew := m.rec.ApplyCreated(n)
	return isNew, m.rebuild()
}

// handleKeys processes notification and filter actions.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.rec.ClearError()
		return m, m.rebuild()

	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.MarkRead):
		item, ok := m.list.SelectedItem().(NotificationItem)
		if !ok || item.N.IsRead {
			return m, nil
		}
		cmd := m.rec.MarkRead([]int64{item.N.ID})
		return m, tea.Batch(cmd, m.rebuild())

	case key.Matches(msg, m.keys.MarkAllRead):
		cmd := m.rec.MarkAllRead()
		return m, tea.Batch(cmd, m.rebuild())

	case key.Matches(msg, m.keys.Delete):
		item, ok := m.list.SelectedItem().(NotificationItem)
		if !ok {
			return m, nil
		}
		cmd := m.rec.Delete(item.N.ID)
		return m, tea.Batch(cmd, m.rebuild())

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.rec.Refresh(), m.spinner.Tick)

	case key.Matches(msg, m.keys.CycleType):
		return m, tea.Batch(m.cycleTypeFilter(), m.spinner.Tick)

	case key.Matches(msg, m.keys.CycleReadFlag):
		return m, tea.Batch(m.cycleReadFilter(), m.spinner.Tick)

	case key.Matches(msg, m.keys.ClearFilters):
		return m, tea.Batch(m.rec.UpdateFilters(model.FilterUpdate{
			ClearType:   true,
			ClearIsRead: true,
		}), m.spinner.Tick)

	case key.Matches(msg, m.keys.NextPage):
		return m.changePage(1)

	case key.Matches(msg, m.keys.PrevPage):
		return m.changePage(-1)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// changePage moves by delta within the fetched page bounds.
func (m Model) changePage(delta int) (Model, tea.Cmd) {
	snap := m.rec.Snapshot()
	next := snap.Filters.Page + delta
	if next < 1 {
		return m, nil
	}
	if snap.Meta.TotalPages > 0 && next > snap.Meta.TotalPages {
		return m, nil
	}
	cmd := m.rec.UpdateFilters(model.FilterUpdate{Page: &next})
	return m, tea.Batch(cmd, m.spinner.Tick)
}

// cycleTypeFilter walks all → each type tag → all.
func (m Model) cycleTypeFilter() tea.Cmd {
	snap := m.rec.Snapshot()
	if snap.Filters.Type == nil {
		first := model.KnownTypes[0]
		return m.rec.UpdateFilters(model.FilterUpdate{Type: &first})
	}
	for i, t := range model.KnownTypes {
		if t == *snap.Filters.Type {
			if i == len(model.KnownTypes)-1 {
				return m.rec.UpdateFilters(model.FilterUpdate{ClearType: true})
			}
			next := model.KnownTypes[i+1]
			return m.rec.UpdateFilters(model.FilterUpdate{Type: &next})
		}
	}
	return m.rec.UpdateFilters(model.FilterUpdate{ClearType: true})
}

// cycleReadFilter walks all → unread → read → all.
func (m Model) cycleReadFilter() tea.Cmd {
	snap := m.rec.Snapshot()
	switch {
	case snap.Filters.IsRead == nil:
		unread := false
		return m.rec.UpdateFilters(model.FilterUpdate{IsRead: &unread})
	case !*snap.Filters.IsRead:
		read := true
		return m.rec.UpdateFilters(model.FilterUpdate{IsRead: &read})
	default:
		return m.rec.UpdateFilters(model.FilterUpdate{ClearIsRead: true})
	}
}

// rebuild refreshes the list items and paginator from the reconciler.
func (m *Model) rebuild() tea.Cmd {
	snap := m.rec.Snapshot()

	items := make([]list.Item, len(snap.Items))
	for i, n := range snap.Items {
		items[i] = NotificationItem{N: n}
	}
	cmd := m.list.SetItems(items)

	if snap.Meta.TotalPages > 0 {
		m.paginator.SetTotalPages(snap.Meta.TotalPages)
		m.paginator.Page = snap.Meta.CurrentPage - 1
	}

	return cmd
}

// persist saves the current filters and page snapshot to the local
// cache. Failures only affect the next offline start, so they are
// ignored here.
func (m Model) persist() tea.Cmd {
	snap := m.rec.Snapshot()
	s := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		_ = s.SaveFilters(ctx, store.ViewPage, snap.Filters)
		_ = s.ReplaceSnapshot(ctx, snap.Items, snap.Unread)
		return nil
	}
}

// FilterSummary describes the active filters for the status bar.
func (m Model) FilterSummary() string {
	snap := m.rec.Snapshot()
	var parts []string
	if snap.Filters.Type != nil {
		parts = append(parts, "type: "+theme.TypeLabel(string(*snap.Filters.Type)))
	}
	if snap.Filters.IsRead != nil {
		if *snap.Filters.IsRead {
			parts = append(parts, "read only")
		} else {
			parts = append(parts, "unread only")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " | ")
}

// View renders the page view.
func (m Model) View() string {
	snap := m.rec.Snapshot()

	if snap.Phase == reconciler.Loading && len(snap.Items) == 0 && !m.loadedOnce {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(m.spinner.View() + " loading notifications…")
	}

	if len(snap.Items) == 0 {
		return m.renderEmptyState(snap)
	}

	sections := []string{m.list.View()}
	if snap.Err != nil && snap.Phase != reconciler.Failed {
		sections = append(sections,
			theme.ErrorStyle.Render(snap.Err.Error()+" (esc to dismiss)"))
	}
	if footer := m.renderFooter(snap); footer != "" {
		sections = append(sections, footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderFooter shows the paginator dots and the page x/y counter.
func (m Model) renderFooter(snap reconciler.State) string {
	if snap.Meta.TotalPages <= 1 {
		return ""
	}
	counter := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(fmt.Sprintf(" page %d/%d · %d total",
			snap.Meta.CurrentPage, snap.Meta.TotalPages, snap.Meta.TotalItems))
	return lipgloss.JoinHorizontal(lipgloss.Top, m.paginator.View(), counter)
}

// renderEmptyState shows guidance text when no notifications match.
func (m Model) renderEmptyState(snap reconciler.State) string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if snap.Phase == reconciler.Failed && snap.Err != nil {
		return style.Render(
			"Could not load notifications.\n" +
				snap.Err.Error() + "\n\nPress r to retry.")
	}

	if snap.Filters.Type != nil || snap.Filters.IsRead != nil {
		return style.Render("No matching notifications.\nPress 0 to clear filters.")
	}

	return style.Render("No notifications yet.")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

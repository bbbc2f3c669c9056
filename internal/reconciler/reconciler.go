package reconciler

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/notify-center/internal/gateway"
	"github.com/nhle/notify-center/internal/model"
	"github.com/nhle/notify-center/internal/push"
)

// Gateway is the slice of the fetch gateway the reconciler drives.
type Gateway interface {
	List(ctx context.Context, filters model.FilterState) (*gateway.ListResult, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, ids []int64) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id int64) error
}

// Phase is the reconciler lifecycle for fetches. Optimistic mutations do
// not pass through Loading; they mutate Ready state in place so the UI is
// never blocked by a mark-read/delete round trip.
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Failed
)

// State is a copy of the canonical view handed to UI consumers.
type State struct {
	Items     []model.Notification
	Meta      model.ListMeta
	Unread    int
	Filters   model.FilterState
	Phase     Phase
	Err       error
	ConnState push.ConnectionState
}

// fetchTimeout bounds a single list or unread-count round trip.
const fetchTimeout = 30 * time.Second

// ListResultMsg carries the outcome of a list fetch (optionally paired
// with an unread-count fetch) back into the event loop.
type ListResultMsg struct {
	Owner     string
	Token     string
	Result    *gateway.ListResult
	Unread    int
	HasUnread bool
	Err       error
}

// MutationResultMsg carries the outcome of a confirming mutation call.
type MutationResultMsg struct {
	Owner string
	ID    string
	Err   error
}

// Reconciler holds the canonical in-memory notification view for one UI
// consumer and applies a deterministic merge whenever input arrives from
// a fetch, a push event, or a local mutation. It is the only writer of
// its state; everything else reads snapshots.
type Reconciler struct {
	owner  string
	gw     Gateway
	logger *zap.Logger
	now    func() time.Time

	mu         sync.Mutex
	items      []model.Notification
	meta       model.ListMeta
	unread     int
	filters    model.FilterState
	phase      Phase
	err        error
	connState  push.ConnectionState
	fetchToken string
	pending    map[string]snapshot
}

// snapshot is the pre-mutation state kept for rollback while a mutation's
// confirming call is in flight. A wholesale replace invalidates it.
type snapshot struct {
	items  []model.Notification
	unread int
}

// New creates a reconciler for one UI consumer. The owner tag routes
// result messages back to the right instance.
func New(owner string, gw Gateway, filters model.FilterState, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		owner:   owner,
		gw:      gw,
		logger:  logger,
		now:     time.Now,
		filters: filters,
		phase:   Idle,
		pending: make(map[string]snapshot),
	}
}

// Owner returns the instance tag used on result messages.
func (r *Reconciler) Owner() string {
	return r.owner
}

// Snapshot returns a copy of the current state for rendering.
func (r *Reconciler) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]model.Notification, len(r.items))
	copy(items, r.items)
	return State{
		Items:     items,
		Meta:      r.meta,
		Unread:    r.unread,
		Filters:   r.filters,
		Phase:     r.phase,
		Err:       r.err,
		ConnState: r.connState,
	}
}

// Refresh issues a full list fetch plus an unread-count fetch. The result
// replaces state wholesale and corrects any drift accumulated by
// optimistic or push updates.
func (r *Reconciler) Refresh() tea.Cmd {
	r.mu.Lock()
	r.phase = Loading
	r.err = nil
	token := uuid.New().String()
	r.fetchToken = token
	filters := r.filters
	r.mu.Unlock()

	return r.fetchCmd(token, filters, true)
}

// UpdateFilters applies a partial filter change. Any change other than
// the page resets the page to 1; the resulting fetch replaces items and
// meta wholesale, never merging with prior state.
func (r *Reconciler) UpdateFilters(u model.FilterUpdate) tea.Cmd {
	r.mu.Lock()
	r.filters = r.filters.Merge(u)
	r.phase = Loading
	r.err = nil
	token := uuid.New().String()
	r.fetchToken = token
	filters := r.filters
	r.mu.Unlock()

	return r.fetchCmd(token, filters, false)
}

// fetchCmd runs the gateway calls off the event loop and feeds the result
// back as a ListResultMsg tagged with the fetch token.
func (r *Reconciler) fetchCmd(token string, filters model.FilterState, withUnread bool) tea.Cmd {
	gw := r.gw
	owner := r.owner
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		result, err := gw.List(ctx, filters)
		if err != nil {
			return ListResultMsg{Owner: owner, Token: token, Err: err}
		}

		msg := ListResultMsg{Owner: owner, Token: token, Result: result}
		if withUnread {
			count, err := gw.UnreadCount(ctx)
			if err != nil {
				return ListResultMsg{Owner: owner, Token: token, Err: err}
			}
			msg.Unread = count
			msg.HasUnread = true
		}
		return msg
	}
}

// ApplyListResult merges a completed fetch. A result whose token is not
// the latest issued one is discarded: its triggering filter or page has
// changed since, and applying it would overwrite fresher state.
func (r *Reconciler) ApplyListResult(msg ListResultMsg) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.Token != r.fetchToken {
		r.logger.Debug("discarding stale fetch result",
			zap.String("owner", r.owner))
		return
	}

	if msg.Err != nil {
		r.phase = Failed
		r.err = msg.Err
		return
	}

	// Wholesale replace: server truth supersedes optimistic drift, so
	// in-flight rollback snapshots are no longer meaningful.
	r.items = msg.Result.Items
	r.meta = msg.Result.Meta
	if msg.HasUnread {
		r.unread = msg.Unread
	}
	r.phase = Ready
	r.err = nil
	r.pending = make(map[string]snapshot)
}

// ApplyCreated merges a push-delivered creation event. Duplicate ids are
// discarded without touching the unread counter, so at-least-once
// delivery is safe. New items are prepended: a creation event is newer
// than anything already loaded. Meta is deliberately left stale until
// the next fetch. The return value reports whether the item was new, so
// the caller can raise a toast once per notification rather than once
// per delivery.
func (r *Reconciler) ApplyCreated(n model.Notification) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.ID == n.ID {
			return false
		}
	}

	r.items = append([]model.Notification{n}, r.items...)
	if !n.IsRead {
		r.unread++
	}
	return true
}

// MarkRead optimistically marks the given notifications read and issues
// the confirming call. On failure the pre-mutation state is restored and
// the error surfaced.
func (r *Reconciler) MarkRead(ids []int64) tea.Cmd {
	r.mu.Lock()
	mutID := r.beginMutationLocked()

	now := r.now()
	idSet := make(map[int64]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	for i := range r.items {
		if idSet[r.items[i].ID] && !r.items[i].IsRead {
			r.items[i].MarkRead(now)
			if r.unread > 0 {
				r.unread--
			}
		}
	}
	r.mu.Unlock()

	gw := r.gw
	owner := r.owner
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return MutationResultMsg{Owner: owner, ID: mutID, Err: gw.MarkRead(ctx, ids)}
	}
}

// MarkAllRead optimistically marks every local item read and zeroes the
// unread counter; the confirming call affects the entire unread set
// server-side, not just the current page.
func (r *Reconciler) MarkAllRead() tea.Cmd {
	r.mu.Lock()
	mutID := r.beginMutationLocked()

	now := r.now()
	for i := range r.items {
		r.items[i].MarkRead(now)
	}
	r.unread = 0
	r.mu.Unlock()

	gw := r.gw
	owner := r.owner
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return MutationResultMsg{Owner: owner, ID: mutID, Err: gw.MarkAllRead(ctx)}
	}
}

// Delete optimistically removes the item and issues the confirming call.
func (r *Reconciler) Delete(id int64) tea.Cmd {
	r.mu.Lock()
	mutID := r.beginMutationLocked()

	kept := r.items[:0:0]
	for _, n := range r.items {
		if n.ID == id {
			if !n.IsRead && r.unread > 0 {
				r.unread--
			}
			continue
		}
		kept = append(kept, n)
	}
	r.items = kept
	r.mu.Unlock()

	gw := r.gw
	owner := r.owner
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return MutationResultMsg{Owner: owner, ID: mutID, Err: gw.Delete(ctx, id)}
	}
}

// ApplyMutationResult confirms or rolls back an optimistic mutation. A
// snapshot invalidated by an intervening wholesale replace is simply
// dropped: the fetch already carried server truth.
func (r *Reconciler) ApplyMutationResult(msg MutationResultMsg) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, ok := r.pending[msg.ID]
	delete(r.pending, msg.ID)

	if msg.Err == nil {
		return
	}

	if ok {
		r.items = snap.items
		r.unread = snap.unread
	}
	r.err = msg.Err
	r.logger.Warn("mutation failed, rolled back optimistic state",
		zap.String("owner", r.owner),
		zap.Error(msg.Err))
}

// ClearError drops a surfaced error after the UI has shown it.
func (r *Reconciler) ClearError() {
	r.mu.Lock()
	if r.phase != Failed {
		r.err = nil
	}
	r.mu.Unlock()
}

// SetConnState records the push channel state for display.
func (r *Reconciler) SetConnState(s push.ConnectionState) {
	r.mu.Lock()
	r.connState = s
	r.mu.Unlock()
}

// Clear drops all notification state. Called when the identity is
// unbound or fails to resolve, so no stale data survives a logout.
func (r *Reconciler) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = nil
	r.meta = model.ListMeta{}
	r.unread = 0
	r.phase = Idle
	r.err = nil
	r.fetchToken = ""
	r.pending = make(map[string]snapshot)
}

// beginMutationLocked records a rollback snapshot and returns the
// mutation id. The mutex must be held.
func (r *Reconciler) beginMutationLocked() string {
	mutID := uuid.New().String()
	items := make([]model.Notification, len(r.items))
	copy(items, r.items)
	r.pending[mutID] = snapshot{items: items, unread: r.unread}
	return mutID
}

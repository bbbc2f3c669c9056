package reconciler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nhle/notify-center/internal/gateway"
	"github.com/nhle/notify-center/internal/model"
)

// fakeGateway is a scriptable Gateway that records mutation calls.
type fakeGateway struct {
	mu sync.Mutex

	listResult *gateway.ListResult
	listErr    error

	unread    int
	unreadErr error

	markReadErr error
	markAllErr  error
	deleteErr   error

	markReadIDs  [][]int64
	markAllCalls int
	deletedIDs   []int64
}

func (f *fakeGateway) List(_ context.Context, _ model.FilterState) (*gateway.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listResult, nil
}

func (f *fakeGateway) UnreadCount(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread, f.unreadErr
}

func (f *fakeGateway) MarkRead(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReadIDs = append(f.markReadIDs, ids)
	return f.markReadErr
}

func (f *fakeGateway) MarkAllRead(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markAllCalls++
	return f.markAllErr
}

func (f *fakeGateway) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedIDs = append(f.deletedIDs, id)
	return f.deleteErr
}

func notif(id int64, read bool) model.Notification {
	n := model.Notification{
		ID:        id,
		Type:      model.TypeSystemAnnouncement,
		Title:     "n",
		Message:   "m",
		CreatedAt: time.Now().Add(-time.Duration(id) * time.Minute),
	}
	if read {
		n.MarkRead(time.Now())
	}
	return n
}

func listResult(items ...model.Notification) *gateway.ListResult {
	return &gateway.ListResult{
		Items: items,
		Meta: model.ListMeta{
			TotalItems:   len(items),
			ItemsPerPage: 20,
			TotalPages:   1,
			CurrentPage:  1,
		},
	}
}

// newTestReconciler returns a reconciler whose refresh result has been
// applied, so tests start from a Ready state.
func newTestReconciler(t *testing.T, gw *fakeGateway) *Reconciler {
	t.Helper()
	r := New("test", gw, model.DefaultFilterState(20), nil)
	msg := r.Refresh()().(ListResultMsg)
	r.ApplyListResult(msg)
	return r
}

func TestRefresh(t *testing.T) {
	gw := &fakeGateway{
		listResult: listResult(notif(1, false), notif(2, true), notif(3, false)),
		unread:     2,
	}
	r := New("test", gw, model.DefaultFilterState(20), nil)

	cmd := r.Refresh()
	if got := r.Snapshot().Phase; got != Loading {
		t.Fatalf("phase after Refresh = %v, want Loading", got)
	}

	msg, ok := cmd().(ListResultMsg)
	if !ok {
		t.Fatal("Refresh cmd did not produce a ListResultMsg")
	}
	if msg.Owner != "test" {
		t.Errorf("Owner = %q, want %q", msg.Owner, "test")
	}
	if !msg.HasUnread {
		t.Error("Refresh result should carry the unread count")
	}

	r.ApplyListResult(msg)

	snap := r.Snapshot()
	if snap.Phase != Ready {
		t.Errorf("phase = %v, want Ready", snap.Phase)
	}
	if len(snap.Items) != 3 {
		t.Errorf("len(Items) = %d, want 3", len(snap.Items))
	}
	if snap.Unread != 2 {
		t.Errorf("Unread = %d, want 2", snap.Unread)
	}
	if snap.Meta.TotalItems != 3 {
		t.Errorf("Meta.TotalItems = %d, want 3", snap.Meta.TotalItems)
	}
}

func TestRefreshError(t *testing.T) {
	gw := &fakeGateway{listErr: errors.New("boom")}
	r := New("test", gw, model.DefaultFilterState(20), nil)

	msg := r.Refresh()().(ListResultMsg)
	r.ApplyListResult(msg)

	snap := r.Snapshot()
	if snap.Phase != Failed {
		t.Errorf("phase = %v, want Failed", snap.Phase)
	}
	if snap.Err == nil {
		t.Error("Err should be set after a failed fetch")
	}
}

func TestStaleFetchResultDiscarded(t *testing.T) {
	gw := &fakeGateway{
		listResult: listResult(notif(1, false)),
		unread:     1,
	}
	r := New("test", gw, model.DefaultFilterState(20), nil)

	staleCmd := r.Refresh()
	staleMsg := staleCmd().(ListResultMsg)

	// A newer fetch supersedes the first before its result lands.
	gw.mu.Lock()
	gw.listResult = listResult(notif(7, false), notif(8, false))
	gw.mu.Unlock()
	freshMsg := r.UpdateFilters(model.FilterUpdate{})().(ListResultMsg)

	r.ApplyListResult(staleMsg)
	if got := len(r.Snapshot().Items); got != 0 {
		t.Fatalf("stale result was applied: len(Items) = %d, want 0", got)
	}

	r.ApplyListResult(freshMsg)
	if got := len(r.Snapshot().Items); got != 2 {
		t.Errorf("fresh result not applied: len(Items) = %d, want 2", got)
	}
}

func TestApplyCreated(t *testing.T) {
	gw := &fakeGateway{
		listResult: listResult(notif(1, false), notif(2, true)),
		unread:     5,
	}
	r := newTestReconciler(t, gw)

	n := notif(42, false)
	if !r.ApplyCreated(n) {
		t.Fatal("first delivery should report new")
	}

	snap := r.Snapshot()
	if snap.Items[0].ID != 42 {
		t.Errorf("new item not prepended: Items[0].ID = %d", snap.Items[0].ID)
	}
	if snap.Unread != 6 {
		t.Errorf("Unread = %d, want 6", snap.Unread)
	}

	// Redelivery of the same event must change nothing.
	if r.ApplyCreated(n) {
		t.Error("duplicate delivery should not report new")
	}
	snap = r.Snapshot()
	if len(snap.Items) != 3 {
		t.Errorf("len(Items) = %d after duplicate, want 3", len(snap.Items))
	}
	if snap.Unread != 6 {
		t.Errorf("Unread = %d after duplicate, want 6", snap.Unread)
	}
}

func TestApplyCreatedReadItem(t *testing.T) {
	gw := &fakeGateway{listResult: listResult(), unread: 0}
	r := newTestReconciler(t, gw)

	r.ApplyCreated(notif(9, true))
	if got := r.Snapshot().Unread; got != 0 {
		t.Errorf("Unread = %d after read-item create, want 0", got)
	}
}

func TestMarkRead(t *testing.T) {
	gw := &fakeGateway{
		listResult: listResult(notif(1, false), notif(2, false), notif(3, true)),
		unread:     2,
	}
	r := newTestReconciler(t, gw)

	cmd := r.MarkRead([]int64{1})
	snap := r.Snapshot()
	if !snap.Items[0].IsRead {
		t.Error("item 1 should be read immediately")
	}
	if snap.Items[0].ReadAt == nil {
		t.Error("ReadAt should be stamped with IsRead")
	}
	if snap.Unread != 1 {
		t.Errorf("Unread = %d, want 1", snap.Unread)
	}

	res := cmd().(MutationResultMsg)
	if res.Err != nil {
		t.Fatalf("mutation err = %v", res.Err)
	}
	r.ApplyMutationResult(res)
	if got := r.Snapshot().Unread; got != 1 {
		t.Errorf("Unread = %d after confirm, want 1", got)
	}

	if len(gw.markReadIDs) != 1 || gw.markReadIDs[0][0] != 1 {
		t.Errorf("gateway MarkRead calls = %v, want [[1]]", gw.markReadIDs)
	}
}

func TestMarkReadAlreadyRead(t *testing.T) {
	gw := &fakeGateway{
		listResult: listResult(notif(3, true)),
		unread:     0,
	}
	r := newTestReconciler(t, gw)

	before := *r.Snapshot().Items[0].ReadAt
	r.MarkRead([]int64{3})

	snap := r.Snapshot()
	if snap.Unread != 0 {
		t.Errorf("Unread = %d, want 0", snap.Unread)
	}
	if !snap.Items[0].ReadAt.Equal(before) {
		t.Error("ReadAt of an already-read item must not change")
	}
}

func TestMarkReadUnknownID(t *testing.T) {
	gw := &fakeGateway{
		listResult: listResult(notif(1, false)),
		unread:     1,
	}
	r := newTestReconciler(t, gw)

	r.MarkRead([]int64{99})
	snap := r.Snapshot()
	if snap.Unread != 1 {
		t.Errorf("Unread = %d, want 1", snap.Unread)
	}
	if snap.Items[0].IsRead {
		t.Error("unrelated item must stay unread")
	}
}

func TestMarkAllRead(t *testing.T) {
	gw := &fakeGateway{
		listResult: listResult(notif(1, false), notif(2, false), notif(3, false)),
		unread:     3,
	}
	r := newTestReconciler(t, gw)

	cmd := r.MarkAllRead()
	snap := r.Snapshot()
	if snap.Unread != 0 {
		t.Errorf("Unread = %d, want 0", snap.Unread)
	}
	for _, n := range snap.Items {
		if !n.IsRead || n.ReadAt == nil {
			t.Errorf("item %d not marked read", n.ID)
		}
	}

	r.ApplyMutationResult(cmd().(MutationResultMsg))
	if gw.markAllCalls != 1 {
		t.Errorf("gateway MarkAllRead calls = %d, want 1", gw.markAllCalls)
	}
}

func TestDelete(t *testing.T) {
	gw := &fakeGateway{
		listResult: listResult(notif(1, false), notif(2, true)),
		unread:     6,
	}
	r := newTestReconciler(t, gw)

	cmd := r.Delete(1)
	snap := r.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].ID != 2 {
		t.Errorf("Items after delete = %v", snap.Items)
	}
	if snap.Unread != 5 {
		t.Errorf("Unread = %d after deleting unread item, want 5", snap.Unread)
	}

	r.ApplyMutationResult(cmd().(MutationResultMsg))
	if len(gw.deletedIDs) != 1 || gw.deletedIDs[0] != 1 {
		t.Errorf("gateway Delete calls = %v, want [1]", gw.deletedIDs)
	}
}

func TestDeleteReadItemKeepsUnread(t *testing.T) {
	gw := &fakeGateway{
		listResult: listResult(notif(1, true)),
		unread:     4,
	}
	r := newTestReconciler(t, gw)

	r.Delete(1)
	if got := r.Snapshot().Unread; got != 4 {
		t.Errorf("Unread = %d after deleting read item, want 4", got)
	}
}

func TestUnreadNeverNegative(t *testing.T) {
	// Server count can lag local mutations; the counter must floor at 0.
	gw := &fakeGateway{
		listResult: listResult(notif(1, false)),
		unread:     0,
	}
	r := newTestReconciler(t, gw)

	r.MarkRead([]int64{1})
	if got := r.Snapshot().Unread; got != 0 {
		t.Errorf("Unread = %d, want 0", got)
	}

	r.Delete(1)
	if got := r.Snapshot().Unread; got != 0 {
		t.Errorf("Unread = %d after delete, want 0", got)
	}
}

func TestMutationRollback(t *testing.T) {
	gw := &fakeGateway{
		listResult:  listResult(notif(1, false), notif(2, false)),
		unread:      2,
		markReadErr: errors.New("503"),
	}
	r := newTestReconciler(t, gw)

	cmd := r.MarkRead([]int64{1})
	if got := r.Snapshot().Unread; got != 1 {
		t.Fatalf("optimistic Unread = %d, want 1", got)
	}

	r.ApplyMutationResult(cmd().(MutationResultMsg))

	snap := r.Snapshot()
	if snap.Unread != 2 {
		t.Errorf("Unread = %d after rollback, want 2", snap.Unread)
	}
	if snap.Items[0].IsRead {
		t.Error("item 1 should be unread again after rollback")
	}
	if snap.Err == nil {
		t.Error("failed mutation should surface an error")
	}
}

func TestRollbackInvalidatedByFetch(t *testing.T) {
	gw := &fakeGateway{
		listResult: listResult(notif(1, false)),
		unread:     1,
		deleteErr:  errors.New("504"),
	}
	r := newTestReconciler(t, gw)

	cmd := r.Delete(1)

	// A refresh completes before the failed mutation result arrives; its
	// wholesale replace is newer truth than the rollback snapshot.
	gw.mu.Lock()
	gw.listResult = listResult(notif(5, false), notif(6, false))
	gw.unread = 2
	gw.mu.Unlock()
	r.ApplyListResult(r.Refresh()().(ListResultMsg))

	r.ApplyMutationResult(cmd().(MutationResultMsg))

	snap := r.Snapshot()
	if len(snap.Items) != 2 || snap.Items[0].ID != 5 {
		t.Errorf("fetched state was overwritten by rollback: %v", snap.Items)
	}
	if snap.Unread != 2 {
		t.Errorf("Unread = %d, want 2", snap.Unread)
	}
	if snap.Err == nil {
		t.Error("failed mutation should still surface its error")
	}
}

func TestFilterChangeResetsPage(t *testing.T) {
	gw := &fakeGateway{listResult: listResult(), unread: 0}
	r := newTestReconciler(t, gw)

	page := 3
	r.ApplyListResult(r.UpdateFilters(model.FilterUpdate{Page: &page})().(ListResultMsg))
	if got := r.Snapshot().Filters.Page; got != 3 {
		t.Fatalf("Page = %d, want 3", got)
	}

	typ := model.TypePaymentApproved
	r.ApplyListResult(r.UpdateFilters(model.FilterUpdate{Type: &typ})().(ListResultMsg))

	f := r.Snapshot().Filters
	if f.Page != 1 {
		t.Errorf("Page = %d after type filter change, want 1", f.Page)
	}
	if f.Type == nil || *f.Type != model.TypePaymentApproved {
		t.Errorf("Type filter not applied: %v", f.Type)
	}
}

func TestClear(t *testing.T) {
	gw := &fakeGateway{
		listResult: listResult(notif(1, false)),
		unread:     1,
	}
	r := newTestReconciler(t, gw)

	r.Clear()
	snap := r.Snapshot()
	if len(snap.Items) != 0 || snap.Unread != 0 || snap.Phase != Idle {
		t.Errorf("state after Clear = %+v", snap)
	}
}

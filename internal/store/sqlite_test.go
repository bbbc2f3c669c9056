package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/notify-center/internal/model"
	"github.com/nhle/notify-center/internal/store"
	"github.com/nhle/notify-center/tests/testutil"
)

func TestFiltersRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	typ := model.TypePaymentApproved
	read := false
	saved := model.FilterState{Page: 3, Limit: 20, Type: &typ, IsRead: &read}

	if err := s.SaveFilters(ctx, store.ViewPage, saved); err != nil {
		t.Fatalf("SaveFilters: %v", err)
	}

	got, err := s.GetFilters(ctx, store.ViewPage)
	if err != nil {
		t.Fatalf("GetFilters: %v", err)
	}
	if got == nil {
		t.Fatal("GetFilters returned nil for a saved view")
	}
	if !got.Equal(saved) {
		t.Errorf("GetFilters = %+v, want %+v", got, saved)
	}
}

func TestFiltersPerView(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	pageFilters := model.FilterState{Page: 2, Limit: 20}
	panelFilters := model.FilterState{Page: 1, Limit: 5}

	if err := s.SaveFilters(ctx, store.ViewPage, pageFilters); err != nil {
		t.Fatalf("SaveFilters(page): %v", err)
	}
	if err := s.SaveFilters(ctx, store.ViewPanel, panelFilters); err != nil {
		t.Fatalf("SaveFilters(panel): %v", err)
	}

	got, err := s.GetFilters(ctx, store.ViewPanel)
	if err != nil {
		t.Fatalf("GetFilters: %v", err)
	}
	if !got.Equal(panelFilters) {
		t.Errorf("panel filters = %+v, want %+v", got, panelFilters)
	}
}

func TestFiltersMissingView(t *testing.T) {
	s := testutil.NewTestStore(t)

	got, err := s.GetFilters(context.Background(), store.ViewPage)
	if err != nil {
		t.Fatalf("GetFilters: %v", err)
	}
	if got != nil {
		t.Errorf("GetFilters for an unsaved view = %+v, want nil", got)
	}
}

func TestFiltersOverwrite(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	typ := model.TypeRankAchieved
	if err := s.SaveFilters(ctx, store.ViewPage, model.FilterState{Page: 1, Limit: 20, Type: &typ}); err != nil {
		t.Fatalf("SaveFilters: %v", err)
	}
	cleared := model.FilterState{Page: 1, Limit: 20}
	if err := s.SaveFilters(ctx, store.ViewPage, cleared); err != nil {
		t.Fatalf("SaveFilters: %v", err)
	}

	got, err := s.GetFilters(ctx, store.ViewPage)
	if err != nil {
		t.Fatalf("GetFilters: %v", err)
	}
	if got.Type != nil {
		t.Errorf("Type filter survived overwrite: %v", *got.Type)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	readAt := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	items := []model.Notification{
		{
			ID:        10,
			Type:      model.TypeCommissionEarned,
			Title:     "Commission earned",
			Message:   "You earned a commission",
			CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
			ActionURL: "/commissions",
		},
		{
			ID:        9,
			Type:      model.TypeSystemAnnouncement,
			Title:     "Maintenance",
			Message:   "Planned downtime",
			IsRead:    true,
			CreatedAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
			ReadAt:    &readAt,
		},
	}

	if err := s.ReplaceSnapshot(ctx, items, 1); err != nil {
		t.Fatalf("ReplaceSnapshot: %v", err)
	}

	got, unread, err := s.GetSnapshot(ctx)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if unread != 1 {
		t.Errorf("unread = %d, want 1", unread)
	}
	if len(got) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(got))
	}
	// Fetched order must survive the round trip.
	if got[0].ID != 10 || got[1].ID != 9 {
		t.Errorf("order = [%d %d], want [10 9]", got[0].ID, got[1].ID)
	}
	if got[0].ReadAt != nil {
		t.Error("unread item came back with a ReadAt")
	}
	if got[1].ReadAt == nil || !got[1].ReadAt.Equal(readAt) {
		t.Errorf("ReadAt = %v, want %v", got[1].ReadAt, readAt)
	}
	if got[1].Type != model.TypeSystemAnnouncement {
		t.Errorf("Type = %v", got[1].Type)
	}
}

func TestSnapshotReplacedWholesale(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	first := []model.Notification{
		{ID: 1, Type: model.TypeVolumeAdded, Title: "old", CreatedAt: time.Now().UTC()},
		{ID: 2, Type: model.TypeVolumeAdded, Title: "old", CreatedAt: time.Now().UTC()},
	}
	if err := s.ReplaceSnapshot(ctx, first, 2); err != nil {
		t.Fatalf("ReplaceSnapshot: %v", err)
	}

	second := []model.Notification{
		{ID: 3, Type: model.TypePointsMovement, Title: "new", CreatedAt: time.Now().UTC()},
	}
	if err := s.ReplaceSnapshot(ctx, second, 0); err != nil {
		t.Fatalf("ReplaceSnapshot: %v", err)
	}

	got, unread, err := s.GetSnapshot(ctx)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if len(got) != 1 || got[0].ID != 3 {
		t.Errorf("items = %+v, want only id 3", got)
	}
	if unread != 0 {
		t.Errorf("unread = %d, want 0", unread)
	}
}

func TestSnapshotEmptyStore(t *testing.T) {
	s := testutil.NewTestStore(t)

	items, unread, err := s.GetSnapshot(context.Background())
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if len(items) != 0 || unread != 0 {
		t.Errorf("empty store returned %d items, unread %d", len(items), unread)
	}
}

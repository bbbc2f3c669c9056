package store

import (
	"context"

	"github.com/nhle/notify-center/internal/model"
)

// View names the UI consumers whose preferences are persisted.
const (
	ViewPanel = "panel"
	ViewPage  = "page"
)

// Store defines the local persistence interface: per-view filter
// preferences and a render cache of the last fetched notification page.
// The cache is shown while the first fetch is pending (or when starting
// offline); it is replaced wholesale after successful fetches and never
// merged back into live state.
type Store interface {
	// === Filter preferences ===

	SaveFilters(ctx context.Context, view string, f model.FilterState) error
	GetFilters(ctx context.Context, view string) (*model.FilterState, error)

	// === Snapshot cache ===

	ReplaceSnapshot(ctx context.Context, items []model.Notification, unread int) error
	GetSnapshot(ctx context.Context) ([]model.Notification, int, error)
}

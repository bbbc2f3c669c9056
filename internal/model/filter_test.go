package model

import (
	"testing"
	"time"
)

func intPtr(v int) *int                       { return &v }
func boolPtr(v bool) *bool                    { return &v }
func typePtr(v NotificationType) *NotificationType { return &v }

func TestFilterStateMerge(t *testing.T) {
	base := FilterState{Page: 3, Limit: 20}

	tests := []struct {
		name   string
		start  FilterState
		update FilterUpdate
		want   FilterState
	}{
		{
			name:   "page only change keeps new page",
			start:  base,
			update: FilterUpdate{Page: intPtr(5)},
			want:   FilterState{Page: 5, Limit: 20},
		},
		{
			name:   "type change resets page",
			start:  base,
			update: FilterUpdate{Type: typePtr(TypePaymentApproved)},
			want:   FilterState{Page: 1, Limit: 20, Type: typePtr(TypePaymentApproved)},
		},
		{
			name:   "read flag change resets page",
			start:  base,
			update: FilterUpdate{IsRead: boolPtr(false)},
			want:   FilterState{Page: 1, Limit: 20, IsRead: boolPtr(false)},
		},
		{
			name:   "limit change resets page",
			start:  base,
			update: FilterUpdate{Limit: intPtr(50)},
			want:   FilterState{Page: 1, Limit: 50},
		},
		{
			name:   "clearing an active type filter resets page",
			start:  FilterState{Page: 4, Limit: 20, Type: typePtr(TypeRankAchieved)},
			update: FilterUpdate{ClearType: true},
			want:   FilterState{Page: 1, Limit: 20},
		},
		{
			name:   "clearing an absent filter is a no-op",
			start:  base,
			update: FilterUpdate{ClearType: true, ClearIsRead: true},
			want:   base,
		},
		{
			name:   "setting the same type again does not reset page",
			start:  FilterState{Page: 2, Limit: 20, Type: typePtr(TypeVolumeAdded)},
			update: FilterUpdate{Type: typePtr(TypeVolumeAdded)},
			want:   FilterState{Page: 2, Limit: 20, Type: typePtr(TypeVolumeAdded)},
		},
		{
			name:   "type change with explicit page still resets to 1",
			start:  base,
			update: FilterUpdate{Page: intPtr(7), Type: typePtr(TypePointsMovement)},
			want:   FilterState{Page: 1, Limit: 20, Type: typePtr(TypePointsMovement)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.Merge(tt.update)
			if !got.Equal(tt.want) {
				t.Errorf("Merge() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFilterStateValidate(t *testing.T) {
	tests := []struct {
		name    string
		f       FilterState
		wantErr bool
	}{
		{"default is valid", DefaultFilterState(20), false},
		{"zero page", FilterState{Page: 0, Limit: 20}, true},
		{"zero limit", FilterState{Page: 1, Limit: 0}, true},
		{"known type", FilterState{Page: 1, Limit: 20, Type: typePtr(TypeCommissionEarned)}, false},
		{"unknown type", FilterState{Page: 1, Limit: 20, Type: typePtr(NotificationType("BOGUS"))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNotificationMarkRead(t *testing.T) {
	n := Notification{ID: 1, Type: TypeSystemAnnouncement}
	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	n.MarkRead(first)
	if !n.IsRead {
		t.Fatal("IsRead should be true after MarkRead")
	}
	if n.ReadAt == nil || !n.ReadAt.Equal(first) {
		t.Fatalf("ReadAt = %v, want %v", n.ReadAt, first)
	}

	// Marking again must not move the original read timestamp.
	n.MarkRead(first.Add(time.Hour))
	if !n.ReadAt.Equal(first) {
		t.Errorf("ReadAt = %v after second MarkRead, want %v", n.ReadAt, first)
	}
}

func TestIsKnownType(t *testing.T) {
	for _, k := range KnownTypes {
		if !IsKnownType(k) {
			t.Errorf("IsKnownType(%q) = false", k)
		}
	}
	if IsKnownType(NotificationType("NOPE")) {
		t.Error(`IsKnownType("NOPE") = true`)
	}
}

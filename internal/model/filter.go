package model

import "fmt"

// FilterState controls filtering and pagination for notification list
// queries. Nil pointer fields mean "all". Each UI consumer owns an
// independent FilterState against the same backend.
type FilterState struct {
	Page   int
	Limit  int
	Type   *NotificationType
	IsRead *bool
}

// FilterUpdate is a partial change to a FilterState. Nil fields are left
// untouched; ClearType/ClearIsRead reset the corresponding filter to "all".
type FilterUpdate struct {
	Page        *int
	Limit       *int
	Type        *NotificationType
	ClearType   bool
	IsRead      *bool
	ClearIsRead bool
}

// DefaultFilterState returns page 1 with the given limit and no filters.
func DefaultFilterState(limit int) FilterState {
	if limit < 1 {
		limit = 10
	}
	return FilterState{Page: 1, Limit: limit}
}

// Merge applies a partial update and returns the resulting state.
// Changing any field other than Page resets Page to 1; changing Page
// alone does not.
func (f FilterState) Merge(u FilterUpdate) FilterState {
	next := f
	changed := false

	if u.Limit != nil && *u.Limit != f.Limit {
		next.Limit = *u.Limit
		changed = true
	}
	if u.ClearType {
		if f.Type != nil {
			changed = true
		}
		next.Type = nil
	} else if u.Type != nil {
		if f.Type == nil || *f.Type != *u.Type {
			changed = true
		}
		t := *u.Type
		next.Type = &t
	}
	if u.ClearIsRead {
		if f.IsRead != nil {
			changed = true
		}
		next.IsRead = nil
	} else if u.IsRead != nil {
		if f.IsRead == nil || *f.IsRead != *u.IsRead {
			changed = true
		}
		r := *u.IsRead
		next.IsRead = &r
	}

	if changed {
		next.Page = 1
	} else if u.Page != nil {
		next.Page = *u.Page
	}

	return next
}

// Validate checks the invariants the gateway requires before dispatch.
func (f FilterState) Validate() error {
	if f.Page < 1 {
		return fmt.Errorf("page must be >= 1, got %d", f.Page)
	}
	if f.Limit < 1 {
		return fmt.Errorf("limit must be >= 1, got %d", f.Limit)
	}
	if f.Type != nil && !IsKnownType(*f.Type) {
		return fmt.Errorf("unknown notification type %q", *f.Type)
	}
	return nil
}

// Equal reports whether two filter states describe the same query.
func (f FilterState) Equal(other FilterState) bool {
	if f.Page != other.Page || f.Limit != other.Limit {
		return false
	}
	if (f.Type == nil) != (other.Type == nil) {
		return false
	}
	if f.Type != nil && *f.Type != *other.Type {
		return false
	}
	if (f.IsRead == nil) != (other.IsRead == nil) {
		return false
	}
	if f.IsRead != nil && *f.IsRead != *other.IsRead {
		return false
	}
	return true
}

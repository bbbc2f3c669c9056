package model

import "time"

// NotificationType identifies the business event that produced a
// notification. The set is closed; the client only uses it to route a
// display icon/label and for list filtering.
type NotificationType string

const (
	TypeVolumeAdded        NotificationType = "VOLUME_ADDED"
	TypeCommissionEarned   NotificationType = "COMMISSION_EARNED"
	TypeRankAchieved       NotificationType = "RANK_ACHIEVED"
	TypePaymentApproved    NotificationType = "PAYMENT_APPROVED"
	TypePaymentRejected    NotificationType = "PAYMENT_REJECTED"
	TypeMembershipExpiring NotificationType = "MEMBERSHIP_EXPIRING"
	TypePointsMovement     NotificationType = "POINTS_MOVEMENT"
	TypeSystemAnnouncement NotificationType = "SYSTEM_ANNOUNCEMENT"
)

// KnownTypes lists every valid notification type tag, in display order.
var KnownTypes = []NotificationType{
	TypeVolumeAdded,
	TypeCommissionEarned,
	TypeRankAchieved,
	TypePaymentApproved,
	TypePaymentRejected,
	TypeMembershipExpiring,
	TypePointsMovement,
	TypeSystemAnnouncement,
}

// IsKnownType reports whether t belongs to the closed set of type tags.
func IsKnownType(t NotificationType) bool {
	for _, k := range KnownTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Notification is a single user-facing notification record. The server
// owns the record; the client observes it through a list fetch or a push
// event and mutates it only through mark-read/mark-all-read/delete calls.
//
// Invariant: ReadAt is non-nil exactly when IsRead is true.
type Notification struct {
	// ID is the server-assigned, immutable identifier.
	ID int64 `json:"id"`

	// Type tags the business event behind this notification.
	Type NotificationType `json:"type"`

	// Title is the short headline shown in lists.
	Title string `json:"title"`

	// Message is the full human-readable notification text.
	Message string `json:"message"`

	// IsRead indicates whether the user has seen this notification.
	IsRead bool `json:"isRead"`

	// CreatedAt is when the server generated this notification.
	CreatedAt time.Time `json:"createdAt"`

	// ReadAt is set exactly once, when IsRead transitions to true.
	ReadAt *time.Time `json:"readAt,omitempty"`

	// ActionURL optionally points at the resource the notification
	// is about.
	ActionURL string `json:"actionUrl,omitempty"`
}

// MarkRead transitions the notification to read, setting ReadAt exactly
// once. Calling it on an already-read notification is a no-op.
func (n *Notification) MarkRead(now time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	n.ReadAt = &now
}

// ListMeta is the pagination metadata returned alongside a notification
// page. It is authoritative only immediately after a fetch; a push-driven
// prepend leaves it stale by one item until the next fetch.
type ListMeta struct {
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
}

// EventNotificationCreated is the envelope type tag for a push-delivered
// notification creation event.
const EventNotificationCreated = "notification.created"

// Envelope is the wire frame carried on the push channel.
type Envelope struct {
	Type      string       `json:"type"`
	Payload   Notification `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

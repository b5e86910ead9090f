package notification

import (
	"errors"
	"time"
)

// Notification kinds
const (
	KindAnnouncement = "announcement"
	KindReservation  = "reservation"
	KindEvent        = "event"
)

// Domain errors
var (
	ErrMissingTenant    = errors.New("notification must belong to an association")
	ErrEmptyRecipientID = errors.New("recipient ID (member) is required")
	ErrEmptySubject     = errors.New("notification subject cannot be empty")
	ErrInvalidKind      = errors.New("notification kind must be one of: announcement, reservation, event")
	ErrNotRecipient     = errors.New("only the recipient can mark a notification read")
)

// Notification is an in-app inbox entry for one member.
type Notification struct {
	ID            string
	AssociationID string
	RecipientID   string // Member ID
	Kind          string
	Subject       string
	Body          string
	Link          string // API path of the related resource
	ReadAt        time.Time
	CreatedAt     time.Time
}

// Validate checks if the Notification has valid data.
// PRE: Notification struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Notification) Validate() error {
	if n.AssociationID == "" {
		return ErrMissingTenant
	}
	if n.RecipientID == "" {
		return ErrEmptyRecipientID
	}
	if n.Subject == "" {
		return ErrEmptySubject
	}
	if n.Kind != KindAnnouncement && n.Kind != KindReservation && n.Kind != KindEvent {
		return ErrInvalidKind
	}
	if n.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// IsRead returns true if the notification has been read.
// INVARIANT: ReadAt field is not mutated
func (n *Notification) IsRead() bool {
	return !n.ReadAt.IsZero()
}

// MarkRead records when the notification was read by its recipient.
// PRE: memberID is the recipient
// POST: ReadAt is set to now if previously zero; repeated calls keep the first timestamp
func (n *Notification) MarkRead(memberID string, now time.Time) error {
	if memberID != n.RecipientID {
		return ErrNotRecipient
	}
	if n.ReadAt.IsZero() {
		n.ReadAt = now
	}
	return nil
}

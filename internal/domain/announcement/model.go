package announcement

import (
	"errors"
	"time"
)

// Announcement statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Max length constants.
const (
	MaxTitleLength   = 200
	MaxContentLength = 20000
)

// Domain errors
var (
	ErrEmptyTitle       = errors.New("announcement title cannot be empty")
	ErrTitleTooLong     = errors.New("announcement title cannot exceed 200 characters")
	ErrEmptyContent     = errors.New("announcement content cannot be empty")
	ErrContentTooLong   = errors.New("announcement content cannot exceed 20000 characters")
	ErrInvalidStatus    = errors.New("announcement status must be one of: draft, published")
	ErrMissingTenant    = errors.New("announcement must belong to an association")
	ErrInvalidWindow    = errors.New("visible until must be after visible from")
	ErrAlreadyPublished = errors.New("announcement is already published")
	ErrMissingPublisher = errors.New("publisher ID is required")
	ErrAlreadyPinned    = errors.New("announcement is already pinned")
	ErrNotPinned        = errors.New("announcement is not pinned")
)

// Announcement is a news post to an association or one of its clubs.
// Content supports Markdown formatting.
type Announcement struct {
	ID            string
	AssociationID string
	ClubID        string // empty for association-wide announcements
	Title         string
	Content       string
	Status        string
	CreatedBy     string // AccountID of creator
	PublishedBy   string // AccountID of publisher (empty if draft)
	Pinned        bool
	PinnedAt      time.Time
	VisibleFrom   time.Time // zero = immediately
	VisibleUntil  time.Time // zero = indefinite
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PublishedAt   time.Time
}

// Validate checks if the Announcement has valid data.
// PRE: Announcement struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Announcement) Validate() error {
	if a.AssociationID == "" {
		return ErrMissingTenant
	}
	if a.Title == "" {
		return ErrEmptyTitle
	}
	if len(a.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if a.Content == "" {
		return ErrEmptyContent
	}
	if len(a.Content) > MaxContentLength {
		return ErrContentTooLong
	}
	if a.Status != StatusDraft && a.Status != StatusPublished {
		return ErrInvalidStatus
	}
	if !a.VisibleFrom.IsZero() && !a.VisibleUntil.IsZero() && !a.VisibleUntil.After(a.VisibleFrom) {
		return ErrInvalidWindow
	}
	return nil
}

// IsVisible returns true if the announcement is published and inside its visibility window.
// PRE: now is the current time in UTC
func (a *Announcement) IsVisible(now time.Time) bool {
	if !a.IsPublished() {
		return false
	}
	if !a.VisibleFrom.IsZero() && now.Before(a.VisibleFrom) {
		return false
	}
	if !a.VisibleUntil.IsZero() && !now.Before(a.VisibleUntil) {
		return false
	}
	return true
}

// Pin marks the announcement as pinned.
// PRE: Announcement is not already pinned
// POST: Pinned is true, PinnedAt is set
func (a *Announcement) Pin(now time.Time) error {
	if a.Pinned {
		return ErrAlreadyPinned
	}
	a.Pinned = true
	a.PinnedAt = now
	return nil
}

// Unpin removes the pinned status.
// PRE: Announcement is pinned
// POST: Pinned is false, PinnedAt is zeroed
func (a *Announcement) Unpin() error {
	if !a.Pinned {
		return ErrNotPinned
	}
	a.Pinned = false
	a.PinnedAt = time.Time{}
	return nil
}

// IsDraft returns true if the announcement is in draft state.
// INVARIANT: Status field is not mutated
func (a *Announcement) IsDraft() bool {
	return a.Status == StatusDraft
}

// IsPublished returns true if the announcement has been published.
// INVARIANT: Status field is not mutated
func (a *Announcement) IsPublished() bool {
	return a.Status == StatusPublished
}

// Publish moves the announcement from draft to published.
// PRE: Announcement is in draft state, publisherID is non-empty
// POST: Status is published, PublishedBy and PublishedAt are set
func (a *Announcement) Publish(publisherID string, now time.Time) error {
	if a.IsPublished() {
		return ErrAlreadyPublished
	}
	if publisherID == "" {
		return ErrMissingPublisher
	}
	a.Status = StatusPublished
	a.PublishedBy = publisherID
	a.PublishedAt = now
	a.UpdatedAt = now
	return nil
}

// IsClubScoped returns true if the audience is limited to one club.
func (a *Announcement) IsClubScoped() bool {
	return a.ClubID != ""
}

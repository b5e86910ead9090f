package event

import (
	"errors"
	"time"
)

// Event type constants.
const (
	TypeTraining   = "training"
	TypeMatch      = "match"
	TypeTournament = "tournament"
	TypeMeeting    = "meeting"
	TypeSocial     = "social"
)

// Visibility constants.
const (
	VisibilityPublic  = "public"  // included in anonymous ICS feeds
	VisibilityMembers = "members" // only for signed-in members of the association
)

// Max length constants.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 4000
	MaxLocationLength    = 200
)

// Domain errors
var (
	ErrEmptyTitle        = errors.New("event title cannot be empty")
	ErrTitleTooLong      = errors.New("event title cannot exceed 200 characters")
	ErrInvalidType       = errors.New("event type must be one of: training, match, tournament, meeting, social")
	ErrInvalidVisibility = errors.New("event visibility must be 'public' or 'members'")
	ErrMissingStart      = errors.New("event start time is required")
	ErrInvalidWindow     = errors.New("event end must be after start")
	ErrDescriptionLong   = errors.New("event description cannot exceed 4000 characters")
	ErrLocationLong      = errors.New("event location cannot exceed 200 characters")
	ErrMissingTenant     = errors.New("event must belong to an association")
)

// ValidTypes contains all valid event types.
var ValidTypes = []string{TypeTraining, TypeMatch, TypeTournament, TypeMeeting, TypeSocial}

// Event is a calendar entry of an association or one of its clubs.
// INVARIANT: EndAt > StartAt. The window is half-open [StartAt, EndAt).
type Event struct {
	ID            string
	AssociationID string
	ClubID        string // empty for association-wide events
	Title         string
	Type          string
	Description   string // Markdown
	Location      string
	StartAt       time.Time
	EndAt         time.Time
	Visibility    string
	CreatedBy     string // account ID
	CreatedAt     time.Time
}

// Validate checks the event's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (e *Event) Validate() error {
	if e.AssociationID == "" {
		return ErrMissingTenant
	}
	if e.Title == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if !isValidType(e.Type) {
		return ErrInvalidType
	}
	if e.Visibility != VisibilityPublic && e.Visibility != VisibilityMembers {
		return ErrInvalidVisibility
	}
	if e.StartAt.IsZero() {
		return ErrMissingStart
	}
	if !e.EndAt.After(e.StartAt) {
		return ErrInvalidWindow
	}
	if len(e.Description) > MaxDescriptionLength {
		return ErrDescriptionLong
	}
	if len(e.Location) > MaxLocationLength {
		return ErrLocationLong
	}
	return nil
}

// Overlaps reports whether the event intersects the half-open window [from, to).
// A zero to means the window is open-ended.
func (e *Event) Overlaps(from, to time.Time) bool {
	if !to.IsZero() && !e.StartAt.Before(to) {
		return false
	}
	return e.EndAt.After(from)
}

// IsPublic returns true if anonymous callers may see the event.
func (e *Event) IsPublic() bool {
	return e.Visibility == VisibilityPublic
}

// IsMultiDay returns true if the event spans more than one calendar day.
// PRE: none
// POST: returns true if the last instant of the window falls on a later day than StartAt
func (e *Event) IsMultiDay() bool {
	last := e.EndAt.Add(-time.Nanosecond)
	return last.Format("2006-01-02") != e.StartAt.Format("2006-01-02")
}

func isValidType(t string) bool {
	for _, v := range ValidTypes {
		if v == t {
			return true
		}
	}
	return false
}

package comment

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Target types that accept comments and likes.
const (
	TargetAnnouncement = "announcement"
	TargetEvent        = "event"
)

// MaxBodyLength is the maximum number of characters in a comment body.
const MaxBodyLength = 2000

// Domain errors
var (
	ErrInvalidTarget  = errors.New("target type must be 'announcement' or 'event'")
	ErrMissingTarget  = errors.New("target ID is required")
	ErrMissingAuthor  = errors.New("comment author is required")
	ErrEmptyBody      = errors.New("comment cannot be empty")
	ErrBodyTooLong    = errors.New("comment cannot exceed 2000 characters")
	ErrNotAuthor      = errors.New("only the author can edit this comment")
	ErrNotPermitted   = errors.New("only the author or an association admin can delete this comment")
	ErrAlreadyDeleted = errors.New("comment has been deleted")
)

// Comment is a member's reply under an announcement or event.
// DeletedAt is set on soft delete; listings hide the body of deleted comments.
type Comment struct {
	ID            string
	AssociationID string
	TargetType    string
	TargetID      string
	AuthorID      string // account ID
	AuthorName    string
	Body          string
	CreatedAt     time.Time
	EditedAt      time.Time
	DeletedAt     time.Time
}

// Like records that an account liked a target. At most one per (target, account).
type Like struct {
	TargetType string
	TargetID   string
	AccountID  string
	CreatedAt  time.Time
}

// Summary is the like state of a target as seen by one viewer.
type Summary struct {
	Count         int
	LikedByViewer bool
}

// ValidateTarget checks a target reference.
func ValidateTarget(targetType, targetID string) error {
	if targetType != TargetAnnouncement && targetType != TargetEvent {
		return ErrInvalidTarget
	}
	if targetID == "" {
		return ErrMissingTarget
	}
	return nil
}

// ValidateBody checks a comment body after trimming whitespace.
func ValidateBody(body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return ErrBodyTooLong
	}
	return nil
}

// Validate checks if the Comment has valid data.
// PRE: Comment struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Comment) Validate() error {
	if err := ValidateTarget(c.TargetType, c.TargetID); err != nil {
		return err
	}
	if c.AuthorID == "" {
		return ErrMissingAuthor
	}
	return ValidateBody(c.Body)
}

// IsDeleted returns true if the comment was soft deleted.
func (c *Comment) IsDeleted() bool {
	return !c.DeletedAt.IsZero()
}

// Edit replaces the body.
// PRE: editorID is the author, comment is not deleted
// POST: Body is trimmed and replaced, EditedAt is set
func (c *Comment) Edit(editorID, body string, now time.Time) error {
	if c.IsDeleted() {
		return ErrAlreadyDeleted
	}
	if editorID != c.AuthorID {
		return ErrNotAuthor
	}
	if err := ValidateBody(body); err != nil {
		return err
	}
	c.Body = strings.TrimSpace(body)
	c.EditedAt = now
	return nil
}

// Delete soft deletes the comment.
// PRE: actor is the author, or isAdmin is true
// POST: DeletedAt is set
func (c *Comment) Delete(actorID string, isAdmin bool, now time.Time) error {
	if c.IsDeleted() {
		return ErrAlreadyDeleted
	}
	if actorID != c.AuthorID && !isAdmin {
		return ErrNotPermitted
	}
	c.DeletedAt = now
	return nil
}

// Visible returns a copy safe for listings: deleted comments lose their body.
func (c Comment) Visible() Comment {
	if c.IsDeleted() {
		c.Body = ""
	}
	return c
}

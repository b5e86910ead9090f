package club

import (
	"errors"
	"strings"
	"time"

	"league/internal/domain/association"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 120
	MaxCityLength = 100
)

// Business rule constants
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Domain errors
var (
	ErrEmptyName       = errors.New("club name cannot be empty")
	ErrNameTooLong     = errors.New("club name cannot exceed 120 characters")
	ErrCityTooLong     = errors.New("club city cannot exceed 100 characters")
	ErrMissingTenant   = errors.New("club must belong to an association")
	ErrInvalidStatus   = errors.New("club status must be 'active' or 'archived'")
	ErrInvalidEmail    = errors.New("club contact email must be valid")
	ErrAlreadyArchived = errors.New("club is already archived")
	ErrNotArchived     = errors.New("club is not archived")
	ErrDuplicateSlug   = errors.New("a club with this slug already exists in the association")
)

// Club is a sports club inside an association.
type Club struct {
	ID            string
	AssociationID string
	Name          string
	Slug          string
	City          string
	ContactEmail  string
	Status        string
	CreatedAt     time.Time
}

// Validate checks if the Club has valid data.
// PRE: Club struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Slug follows the association slug rules
func (c *Club) Validate() error {
	if c.AssociationID == "" {
		return ErrMissingTenant
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(c.City) > MaxCityLength {
		return ErrCityTooLong
	}
	if err := association.ValidateSlug(c.Slug); err != nil {
		return err
	}
	if c.ContactEmail != "" && !strings.Contains(c.ContactEmail, "@") {
		return ErrInvalidEmail
	}
	if c.Status != StatusActive && c.Status != StatusArchived {
		return ErrInvalidStatus
	}
	return nil
}

// IsArchived returns true if the club is archived.
// INVARIANT: Status field is not mutated
func (c *Club) IsArchived() bool {
	return c.Status == StatusArchived
}

// Archive sets the club status to archived.
// PRE: Club is not already archived
// POST: Status is set to archived
func (c *Club) Archive() error {
	if c.Status == StatusArchived {
		return ErrAlreadyArchived
	}
	c.Status = StatusArchived
	return nil
}

// Restore sets the club status back to active.
// PRE: Club is currently archived
// POST: Status is set to active
func (c *Club) Restore() error {
	if c.Status != StatusArchived {
		return ErrNotArchived
	}
	c.Status = StatusActive
	return nil
}

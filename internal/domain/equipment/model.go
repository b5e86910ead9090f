package equipment

import (
	"errors"
	"strings"
	"time"
)

// Item statuses
const (
	StatusActive  = "active"
	StatusRetired = "retired"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength        = 120
	MaxCategoryLength    = 60
	MaxDescriptionLength = 2000
)

// Domain errors
var (
	ErrMissingTenant    = errors.New("equipment must belong to an association")
	ErrEmptyName        = errors.New("equipment name cannot be empty")
	ErrNameTooLong      = errors.New("equipment name cannot exceed 120 characters")
	ErrCategoryTooLong  = errors.New("equipment category cannot exceed 60 characters")
	ErrDescriptionLong  = errors.New("equipment description cannot exceed 2000 characters")
	ErrInvalidQuantity  = errors.New("total quantity must be at least 1")
	ErrNegativeQuantity = errors.New("total quantity cannot be negative")
	ErrInvalidStatus    = errors.New("equipment status must be 'active' or 'retired'")
	ErrAlreadyRetired   = errors.New("equipment is already retired")
	ErrBelowCommitted   = errors.New("total quantity cannot drop below units already committed to approved reservations")
	ErrWrongAssociation = errors.New("equipment belongs to a different association")
	ErrNotReservable    = errors.New("retired equipment cannot be reserved")
	ErrNotFound         = errors.New("equipment item not found")
)

// Item is a pool of identical, shared equipment units owned by an association
// or one of its clubs. TotalQuantity is the stock available for reservations.
type Item struct {
	ID            string
	AssociationID string
	ClubID        string // owning club, empty when owned by the association
	Name          string
	Category      string
	Description   string
	TotalQuantity int
	Status        string
	CreatedAt     time.Time
}

// Validate checks if the Item has valid data.
// PRE: Item struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Active items have TotalQuantity >= 1, retired items >= 0
func (i *Item) Validate() error {
	if i.AssociationID == "" {
		return ErrMissingTenant
	}
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if len(i.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(i.Category) > MaxCategoryLength {
		return ErrCategoryTooLong
	}
	if len(i.Description) > MaxDescriptionLength {
		return ErrDescriptionLong
	}
	switch i.Status {
	case StatusActive:
		if i.TotalQuantity < 1 {
			return ErrInvalidQuantity
		}
	case StatusRetired:
		if i.TotalQuantity < 0 {
			return ErrNegativeQuantity
		}
	default:
		return ErrInvalidStatus
	}
	return nil
}

// IsActive returns true if the item can be reserved.
func (i *Item) IsActive() bool {
	return i.Status == StatusActive
}

// Retire takes the item out of circulation.
// PRE: Item is active
// POST: Status is retired
func (i *Item) Retire() error {
	if i.Status == StatusRetired {
		return ErrAlreadyRetired
	}
	i.Status = StatusRetired
	return nil
}

// CheckReservable verifies the item can be booked by a request of the given association.
// PRE: none
// POST: nil when the item is active and belongs to associationID
func (i *Item) CheckReservable(associationID string) error {
	if i.AssociationID != associationID {
		return ErrWrongAssociation
	}
	if !i.IsActive() {
		return ErrNotReservable
	}
	return nil
}

// CheckStockChange verifies that a new total still covers the peak committed usage.
// PRE: peakCommitted is the highest concurrent committed quantity of any current or future booking
// POST: ErrBelowCommitted when newTotal < peakCommitted
func CheckStockChange(newTotal, peakCommitted int) error {
	if newTotal < peakCommitted {
		return ErrBelowCommitted
	}
	return nil
}

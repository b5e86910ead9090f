package member

import (
	"context"

	domain "league/internal/domain/member"
)

// Store persists Member state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Member, error)
	GetByEmail(ctx context.Context, associationID, email string) (domain.Member, error)
	GetByAccount(ctx context.Context, associationID, accountID string) (domain.Member, error)
	Save(ctx context.Context, value domain.Member) error
	List(ctx context.Context, filter ListFilter) ([]domain.Member, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for List operations.
// AssociationID is required; every other field is optional.
type ListFilter struct {
	AssociationID string
	ClubID        string
	Status        string
	Role          string
	Search        string
	Sort          string
	Dir           string
	Limit         int
	Offset        int
}

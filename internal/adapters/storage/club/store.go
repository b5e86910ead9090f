package club

import (
	"context"

	domain "league/internal/domain/club"
)

// Store persists Club state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Club, error)
	GetBySlug(ctx context.Context, associationID, slug string) (domain.Club, error)
	Save(ctx context.Context, value domain.Club) error
	List(ctx context.Context, filter ListFilter) ([]domain.Club, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	AssociationID string
	Status        string
	Search        string
	Sort          string
	Dir           string
	Limit         int
	Offset        int
}

package equipment

import (
	"context"

	domain "league/internal/domain/equipment"
)

// Store persists equipment Item state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Item, error)
	// GetMany returns the items found for ids keyed by ID. Unknown IDs are absent.
	GetMany(ctx context.Context, ids []string) (map[string]domain.Item, error)
	Save(ctx context.Context, value domain.Item) error
	List(ctx context.Context, filter ListFilter) ([]domain.Item, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	AssociationID string
	ClubID        string
	Category      string
	Status        string
	Search        string
	Limit         int
	Offset        int
}

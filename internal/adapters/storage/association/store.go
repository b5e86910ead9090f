package association

import (
	"context"

	domain "league/internal/domain/association"
)

// Store persists Association state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Association, error)
	GetBySlug(ctx context.Context, slug string) (domain.Association, error)
	Save(ctx context.Context, value domain.Association) error
	List(ctx context.Context) ([]domain.Association, error)
}

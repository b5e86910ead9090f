package sponsor

import (
	"context"

	domain "league/internal/domain/sponsor"
)

// Store persists Sponsor state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Sponsor, error)
	Save(ctx context.Context, value domain.Sponsor) error
	Delete(ctx context.Context, id string) error
	ListByAssociation(ctx context.Context, associationID, clubID string) ([]domain.Sponsor, error)
}

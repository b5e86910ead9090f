package event

import (
	"context"
	"time"

	domain "league/internal/domain/event"
)

// Store persists Event state.
type Store interface {
	Save(ctx context.Context, e domain.Event) error
	GetByID(ctx context.Context, id string) (domain.Event, error)
	ListInRange(ctx context.Context, filter RangeFilter) ([]domain.Event, error)
	Delete(ctx context.Context, id string) error
}

// RangeFilter selects the events of one association whose window overlaps [From, To).
// A zero To means open-ended. ClubID also includes association-wide events.
type RangeFilter struct {
	AssociationID string
	ClubID        string
	From          time.Time
	To            time.Time
	PublicOnly    bool
	Limit         int
}

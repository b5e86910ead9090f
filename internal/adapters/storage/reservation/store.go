package reservation

import (
	"context"
	"time"

	"league/internal/domain/availability"
	domain "league/internal/domain/reservation"
)

// Store persists reservation requests together with their lines.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Request, error)
	Save(ctx context.Context, r domain.Request) error
	List(ctx context.Context, filter ListFilter) ([]domain.Request, error)
	Count(ctx context.Context, filter ListFilter) (int, error)

	// CommittedBookings returns, per item, the approved units of every committed
	// request whose window overlaps w. A zero w.End means open-ended.
	CommittedBookings(ctx context.Context, itemIDs []string, w availability.Window) (map[string][]availability.Booking, error)

	// ListExpirable returns pending requests of any association that lapsed at
	// or before cutoff: originals once their window starts, remainders once it ends.
	ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]domain.Request, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	AssociationID string
	ClubID        string
	RequesterID   string
	ItemID        string
	Statuses      []string
	From          time.Time // window overlap lower bound, zero = unbounded
	To            time.Time // window overlap upper bound, zero = unbounded
	Limit         int
	Offset        int
}

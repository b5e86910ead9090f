package announcement

import (
	"context"
	"time"

	domain "league/internal/domain/announcement"
)

// Store persists Announcement state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Announcement, error)
	Save(ctx context.Context, value domain.Announcement) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Announcement, error)
	ListVisible(ctx context.Context, associationID, clubID string, now time.Time) ([]domain.Announcement, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	AssociationID string
	ClubID        string
	Status        string
	Limit         int
	Offset        int
}

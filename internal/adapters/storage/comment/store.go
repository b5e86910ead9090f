package comment

import (
	"context"

	domain "league/internal/domain/comment"
)

// Store persists comments and likes on announcements and events.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Comment, error)
	Save(ctx context.Context, c domain.Comment) error
	ListByTarget(ctx context.Context, targetType, targetID string) ([]domain.Comment, error)

	// ToggleLike adds the like when absent and removes it when present.
	// It reports whether the account likes the target afterwards.
	ToggleLike(ctx context.Context, like domain.Like) (bool, error)
	LikeSummary(ctx context.Context, targetType, targetID, viewerID string) (domain.Summary, error)
}

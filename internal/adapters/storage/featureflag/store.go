package featureflag

import (
	"context"

	domain "league/internal/domain/featureflag"
)

// Store persists per-association FeatureFlag overrides.
type Store interface {
	GetByKey(ctx context.Context, associationID, key string) (domain.FeatureFlag, error)
	List(ctx context.Context, associationID string) ([]domain.FeatureFlag, error)
	Save(ctx context.Context, value domain.FeatureFlag) error
}

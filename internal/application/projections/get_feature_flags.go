package projections

import (
	"context"

	"league/internal/domain/account"
	"league/internal/domain/featureflag"
)

// FlagLister lists the flags saved for an association.
type FlagLister interface {
	List(ctx context.Context, associationID string) ([]featureflag.FeatureFlag, error)
}

// GetFeatureFlagsQuery carries query parameters.
type GetFeatureFlagsQuery struct {
	Actor account.Account
}

// GetFeatureFlagsDeps holds dependencies for GetFeatureFlags.
type GetFeatureFlagsDeps struct {
	FlagStore FlagLister
}

// QueryGetFeatureFlags returns every known flag resolved for the actor's association.
// PRE: Actor is an association admin
// POST: one entry per default flag, saved settings taking precedence
func QueryGetFeatureFlags(ctx context.Context, query GetFeatureFlagsQuery, deps GetFeatureFlagsDeps) ([]featureflag.FeatureFlag, error) {
	if !query.Actor.IsAdmin() {
		return nil, account.ErrForbidden
	}
	saved, err := deps.FlagStore.List(ctx, query.Actor.AssociationID)
	if err != nil {
		return nil, err
	}
	defaults := featureflag.DefaultFlags()
	out := make([]featureflag.FeatureFlag, 0, len(defaults))
	for _, d := range defaults {
		f := featureflag.Resolve(query.Actor.AssociationID, d.Key, saved)
		if f.Description == "" {
			f.Description = d.Description
		}
		out = append(out, f)
	}
	return out, nil
}

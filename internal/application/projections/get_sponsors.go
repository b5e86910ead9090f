package projections

import (
	"context"
	"time"

	"league/internal/domain/account"
	"league/internal/domain/featureflag"
	domainSponsor "league/internal/domain/sponsor"
)

// GetSponsorsQuery carries query parameters.
type GetSponsorsQuery struct {
	Actor      account.Account
	ClubID     string
	ActiveOnly bool
	Now        time.Time
}

// GetSponsorsDeps holds dependencies for GetSponsors.
type GetSponsorsDeps struct {
	SponsorStore SponsorStore
	FlagStore    FlagLookup
}

// QueryGetSponsors lists sponsors ordered by tier rank then name.
// A disabled sponsor directory yields an empty list.
// PRE: Actor belongs to the association
// POST: With ActiveOnly, sponsors outside their contract window are dropped
func QueryGetSponsors(ctx context.Context, query GetSponsorsQuery, deps GetSponsorsDeps) ([]domainSponsor.Sponsor, error) {
	if query.Actor.AssociationID == "" {
		return nil, account.ErrMissingTenant
	}
	on, err := featureOn(ctx, deps.FlagStore, query.Actor, featureflag.KeySponsors)
	if err != nil {
		return nil, err
	}
	if !on {
		return []domainSponsor.Sponsor{}, nil
	}
	list, err := deps.SponsorStore.ListByAssociation(ctx, query.Actor.AssociationID, query.ClubID)
	if err != nil {
		return nil, err
	}
	out := make([]domainSponsor.Sponsor, 0, len(list))
	for _, s := range list {
		if query.ActiveOnly && !s.IsActive(query.Now) {
			continue
		}
		out = append(out, s)
	}
	domainSponsor.SortForDisplay(out)
	return out, nil
}

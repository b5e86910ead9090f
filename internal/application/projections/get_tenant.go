package projections

import (
	"context"

	"league/internal/adapters/storage/club"
	"league/internal/application/listutil"
	"league/internal/domain/account"
	domainAssociation "league/internal/domain/association"
	domainClub "league/internal/domain/club"
)

// ClubSortColumns are the sort keys accepted by QueryGetClubList.
var ClubSortColumns = []string{"name", "city", "created"}

// ClubFilterKeys are the exact-match filters accepted by QueryGetClubList.
var ClubFilterKeys = []string{"status"}

// GetAssociationQuery carries query parameters.
type GetAssociationQuery struct {
	Actor         account.Account
	AssociationID string
}

// GetAssociationDeps holds dependencies for GetAssociation.
type GetAssociationDeps struct {
	AssociationStore AssociationStore
}

// QueryGetAssociation retrieves the association the caller belongs to.
// PRE: Actor is part of the association, or a platform admin
// POST: Returns the association or ErrWrongAssociation
func QueryGetAssociation(ctx context.Context, query GetAssociationQuery, deps GetAssociationDeps) (domainAssociation.Association, error) {
	id := query.AssociationID
	if id == "" {
		id = query.Actor.AssociationID
	}
	if !query.Actor.InAssociation(id) {
		return domainAssociation.Association{}, account.ErrWrongAssociation
	}
	return deps.AssociationStore.GetByID(ctx, id)
}

// GetClubListQuery carries query parameters.
type GetClubListQuery struct {
	Actor  account.Account
	Params listutil.ListParams
}

// GetClubListResult carries the query result.
type GetClubListResult struct {
	Clubs []domainClub.Club
	Page  listutil.PageInfo
}

// GetClubListDeps holds dependencies for GetClubList.
type GetClubListDeps struct {
	ClubStore ClubStore
}

// QueryGetClubList retrieves one page of the association's clubs.
// PRE: Actor belongs to an association
// POST: Clubs are filtered by status and name search
func QueryGetClubList(ctx context.Context, query GetClubListQuery, deps GetClubListDeps) (GetClubListResult, error) {
	if query.Actor.AssociationID == "" {
		return GetClubListResult{}, account.ErrMissingTenant
	}
	p := query.Params
	filter := club.ListFilter{
		AssociationID: query.Actor.AssociationID,
		Status:        p.Filters["status"],
		Search:        p.Search,
		Sort:          p.Sort,
		Dir:           p.Dir,
	}
	total, err := deps.ClubStore.Count(ctx, filter)
	if err != nil {
		return GetClubListResult{}, err
	}
	page := listutil.NewPageInfo(p.Page, p.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	clubs, err := deps.ClubStore.List(ctx, filter)
	if err != nil {
		return GetClubListResult{}, err
	}
	return GetClubListResult{Clubs: clubs, Page: page}, nil
}

// GetClubQuery carries query parameters.
type GetClubQuery struct {
	Actor  account.Account
	ClubID string
}

// GetClubDeps holds dependencies for GetClub.
type GetClubDeps struct {
	ClubStore ClubStore
}

// QueryGetClub retrieves one club of the caller's association.
func QueryGetClub(ctx context.Context, query GetClubQuery, deps GetClubDeps) (domainClub.Club, error) {
	c, err := deps.ClubStore.GetByID(ctx, query.ClubID)
	if err != nil {
		return domainClub.Club{}, err
	}
	if !query.Actor.InAssociation(c.AssociationID) {
		return domainClub.Club{}, account.ErrWrongAssociation
	}
	return c, nil
}

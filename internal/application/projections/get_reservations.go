package projections

import (
	"context"
	"time"

	"league/internal/adapters/storage/reservation"
	"league/internal/application/listutil"
	"league/internal/domain/account"
	domainReservation "league/internal/domain/reservation"
)

// GetReservationListQuery carries query parameters.
// Members always get their own requests regardless of RequesterID.
type GetReservationListQuery struct {
	Actor       account.Account
	Statuses    []string
	ClubID      string
	RequesterID string
	ItemID      string
	From        time.Time
	To          time.Time
	Page        listutil.PageParams
}

// GetReservationListResult carries the query result.
type GetReservationListResult struct {
	Requests []domainReservation.Request
	Page     listutil.PageInfo
}

// GetReservationListDeps holds dependencies for GetReservationList.
type GetReservationListDeps struct {
	ReservationStore ReservationStore
	MemberStore      MemberStore
}

// QueryGetReservationList lists reservation requests ordered by window start.
// Admins see the whole association, managers their club, members their own requests.
// PRE: Actor belongs to the association
// POST: Returns at most PerPage requests plus paging metadata
func QueryGetReservationList(ctx context.Context, query GetReservationListQuery, deps GetReservationListDeps) (GetReservationListResult, error) {
	actor := query.Actor
	if actor.AssociationID == "" {
		return GetReservationListResult{}, account.ErrMissingTenant
	}
	for _, s := range query.Statuses {
		if !isKnownStatus(s) {
			return GetReservationListResult{}, domainReservation.ErrInvalidStatus
		}
	}

	filter := reservation.ListFilter{
		AssociationID: actor.AssociationID,
		ClubID:        query.ClubID,
		RequesterID:   query.RequesterID,
		ItemID:        query.ItemID,
		Statuses:      query.Statuses,
		From:          query.From,
		To:            query.To,
	}
	switch {
	case actor.PlatformAdmin || actor.IsAdmin():
	case actor.Role == account.RoleManager:
		filter.ClubID = actor.ClubID
	default:
		m, err := requireMember(ctx, deps.MemberStore, actor)
		if err != nil {
			return GetReservationListResult{}, err
		}
		filter.RequesterID = m.ID
	}

	total, err := deps.ReservationStore.Count(ctx, filter)
	if err != nil {
		return GetReservationListResult{}, err
	}
	page := listutil.NewPageInfo(query.Page.Page, query.Page.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	requests, err := deps.ReservationStore.List(ctx, filter)
	if err != nil {
		return GetReservationListResult{}, err
	}
	return GetReservationListResult{Requests: requests, Page: page}, nil
}

// GetReservationQuery carries query parameters.
type GetReservationQuery struct {
	Actor     account.Account
	RequestID string
}

// QueryGetReservation retrieves one request.
// PRE: Actor is the requester or staff of the request's club
// POST: Returns the request with its lines
func QueryGetReservation(ctx context.Context, query GetReservationQuery, deps GetReservationListDeps) (domainReservation.Request, error) {
	actor := query.Actor
	r, err := deps.ReservationStore.GetByID(ctx, query.RequestID)
	if err != nil {
		return domainReservation.Request{}, err
	}
	if !actor.InAssociation(r.AssociationID) {
		return domainReservation.Request{}, account.ErrWrongAssociation
	}
	if actor.IsAdmin() || actor.PlatformAdmin || (r.ClubID != "" && actor.CanManage(r.AssociationID, r.ClubID)) {
		return r, nil
	}
	m, err := requireMember(ctx, deps.MemberStore, actor)
	if err != nil || m.ID != r.RequesterID {
		return domainReservation.Request{}, account.ErrForbidden
	}
	return r, nil
}

func isKnownStatus(s string) bool {
	switch s {
	case domainReservation.StatusPending, domainReservation.StatusApproved,
		domainReservation.StatusPartiallyApproved, domainReservation.StatusRejected,
		domainReservation.StatusCancelled, domainReservation.StatusExpired:
		return true
	}
	return false
}

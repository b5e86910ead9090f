package projections

import (
	"context"
	"fmt"
	"time"

	"league/internal/adapters/storage/reservation"
	"league/internal/domain/account"
	domainClub "league/internal/domain/club"
	domainMember "league/internal/domain/member"
	domainReservation "league/internal/domain/reservation"
)

// upcomingLimit caps the reservations shown on a profile.
const upcomingLimit = 20

// GetMemberProfileQuery carries query parameters.
// An empty MemberID resolves to the caller's own member record.
type GetMemberProfileQuery struct {
	Actor    account.Account
	MemberID string
	Now      time.Time
}

// GetMemberProfileResult carries the query result.
type GetMemberProfileResult struct {
	Member   domainMember.Member
	Club     *domainClub.Club // nil when the member has no club
	Upcoming []domainReservation.Request
	IsSelf   bool
}

// GetMemberProfileDeps holds dependencies for GetMemberProfile.
type GetMemberProfileDeps struct {
	MemberStore      MemberStore
	ClubStore        ClubStore
	ReservationStore ReservationStore
}

// QueryGetMemberProfile retrieves a member with their club and upcoming reservations.
// PRE: Actor is the member, or staff allowed to manage the member's club
// POST: Upcoming holds open or committed requests whose window has not ended, soonest first
func QueryGetMemberProfile(ctx context.Context, query GetMemberProfileQuery, deps GetMemberProfileDeps) (GetMemberProfileResult, error) {
	actor := query.Actor
	var m domainMember.Member
	var err error
	if query.MemberID == "" {
		m, err = requireMember(ctx, deps.MemberStore, actor)
	} else {
		m, err = deps.MemberStore.GetByID(ctx, query.MemberID)
	}
	if err != nil {
		return GetMemberProfileResult{}, err
	}
	if !actor.InAssociation(m.AssociationID) {
		return GetMemberProfileResult{}, account.ErrWrongAssociation
	}

	isSelf := m.AccountID != "" && m.AccountID == actor.ID
	if !isSelf && !actor.CanManage(m.AssociationID, m.ClubID) {
		return GetMemberProfileResult{}, account.ErrForbidden
	}

	result := GetMemberProfileResult{Member: m, IsSelf: isSelf}
	if m.ClubID != "" {
		c, err := deps.ClubStore.GetByID(ctx, m.ClubID)
		if err != nil {
			return GetMemberProfileResult{}, fmt.Errorf("load club of member %s: %w", m.ID, err)
		}
		result.Club = &c
	}

	upcoming, err := deps.ReservationStore.List(ctx, reservation.ListFilter{
		AssociationID: m.AssociationID,
		RequesterID:   m.ID,
		Statuses: []string{
			domainReservation.StatusPending,
			domainReservation.StatusApproved,
			domainReservation.StatusPartiallyApproved,
		},
		From:  query.Now,
		Limit: upcomingLimit,
	})
	if err != nil {
		return GetMemberProfileResult{}, err
	}
	result.Upcoming = upcoming
	return result, nil
}

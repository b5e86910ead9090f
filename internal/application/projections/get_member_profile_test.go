package projections

import (
	"context"
	"errors"
	"testing"
	"time"

	"league/internal/domain/account"
	domainClub "league/internal/domain/club"
	domainMember "league/internal/domain/member"
	domainReservation "league/internal/domain/reservation"
)

func profileDeps() GetMemberProfileDeps {
	return GetMemberProfileDeps{
		MemberStore: &mockMemberStore{members: []domainMember.Member{
			{ID: "m-jana", AssociationID: "a1", ClubID: "c1", AccountID: "acc-jana", Name: "Jana", Email: "jana@league.test", Status: domainMember.StatusActive},
			{ID: "m-petr", AssociationID: "a1", ClubID: "c2", AccountID: "acc-petr", Name: "Petr", Email: "petr@league.test", Status: domainMember.StatusActive},
			{ID: "m-solo", AssociationID: "a1", Name: "Solo", Email: "solo@league.test", Status: domainMember.StatusActive},
		}},
		ClubStore: &mockClubStore{clubs: []domainClub.Club{
			{ID: "c1", AssociationID: "a1", Name: "RV Wiking", Status: domainClub.StatusActive},
			{ID: "c2", AssociationID: "a1", Name: "Slavia", Status: domainClub.StatusActive},
		}},
		ReservationStore: &mockReservationStore{requests: []domainReservation.Request{
			{ID: "r-past", AssociationID: "a1", RequesterID: "m-jana", Status: domainReservation.StatusApproved, StartAt: fixedTime.Add(-48 * time.Hour), EndAt: fixedTime.Add(-24 * time.Hour)},
			{ID: "r-next", AssociationID: "a1", RequesterID: "m-jana", Status: domainReservation.StatusPending, StartAt: fixedTime.Add(24 * time.Hour), EndAt: fixedTime.Add(26 * time.Hour)},
			{ID: "r-running", AssociationID: "a1", RequesterID: "m-jana", Status: domainReservation.StatusApproved, StartAt: fixedTime.Add(-time.Hour), EndAt: fixedTime.Add(time.Hour)},
			{ID: "r-rejected", AssociationID: "a1", RequesterID: "m-jana", Status: domainReservation.StatusRejected, StartAt: fixedTime.Add(24 * time.Hour), EndAt: fixedTime.Add(25 * time.Hour)},
			{ID: "r-petr", AssociationID: "a1", RequesterID: "m-petr", Status: domainReservation.StatusPending, StartAt: fixedTime.Add(24 * time.Hour), EndAt: fixedTime.Add(25 * time.Hour)},
		}},
	}
}

// TestQueryGetMemberProfile_Self verifies the caller's own profile with club and upcoming requests.
// PRE: member linked to the caller's account, mixed past/future/terminal requests
// POST: Upcoming holds the running and future open requests, soonest first
func TestQueryGetMemberProfile_Self(t *testing.T) {
	result, err := QueryGetMemberProfile(context.Background(), GetMemberProfileQuery{Actor: memberActor, Now: fixedTime}, profileDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsSelf || result.Member.ID != "m-jana" {
		t.Fatalf("unexpected profile %+v", result.Member)
	}
	if result.Club == nil || result.Club.Name != "RV Wiking" {
		t.Fatalf("club = %+v", result.Club)
	}
	if len(result.Upcoming) != 2 || result.Upcoming[0].ID != "r-running" || result.Upcoming[1].ID != "r-next" {
		t.Fatalf("upcoming = %+v", result.Upcoming)
	}
}

// TestQueryGetMemberProfile_Access verifies who may read which profile.
func TestQueryGetMemberProfile_Access(t *testing.T) {
	tests := []struct {
		name     string
		actor    account.Account
		memberID string
		wantErr  error
	}{
		{"admin reads any member", adminActor, "m-petr", nil},
		{"manager reads own club", managerActor, "m-jana", nil},
		{"manager cannot read other club", managerActor, "m-petr", account.ErrForbidden},
		{"manager cannot read clubless member", managerActor, "m-solo", account.ErrForbidden},
		{"member cannot read others", memberActor, "m-petr", account.ErrForbidden},
		{"foreign admin", foreignActor, "m-jana", account.ErrWrongAssociation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := QueryGetMemberProfile(context.Background(), GetMemberProfileQuery{Actor: tc.actor, MemberID: tc.memberID, Now: fixedTime}, profileDeps())
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// TestQueryGetMemberProfile_NoClub verifies members without a club have a nil Club.
func TestQueryGetMemberProfile_NoClub(t *testing.T) {
	result, err := QueryGetMemberProfile(context.Background(), GetMemberProfileQuery{Actor: adminActor, MemberID: "m-solo", Now: fixedTime}, profileDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Club != nil || result.IsSelf {
		t.Errorf("unexpected result %+v", result)
	}
}

// TestQueryGetMemberProfile_UnlinkedAccount verifies callers without a member record get ErrNoMemberProfile.
func TestQueryGetMemberProfile_UnlinkedAccount(t *testing.T) {
	_, err := QueryGetMemberProfile(context.Background(), GetMemberProfileQuery{Actor: adminActor, Now: fixedTime}, profileDeps())
	if !errors.Is(err, ErrNoMemberProfile) {
		t.Fatalf("got %v, want ErrNoMemberProfile", err)
	}
}

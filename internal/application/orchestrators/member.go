package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"league/internal/domain/account"
	"league/internal/domain/audit"
	"league/internal/domain/club"
	"league/internal/domain/member"
)

// MemberStore defines the interface for member persistence.
type MemberStore interface {
	Save(ctx context.Context, m member.Member) error
	GetByID(ctx context.Context, id string) (member.Member, error)
	GetByEmail(ctx context.Context, associationID, email string) (member.Member, error)
}

// ClubLookup loads clubs by ID.
type ClubLookup interface {
	GetByID(ctx context.Context, id string) (club.Club, error)
}

// ErrClubArchived is returned when members are assigned to an archived club.
var ErrClubArchived = errors.New("club is archived")

// checkClub verifies clubID is an active club of associationID. Empty is allowed.
func checkClub(ctx context.Context, clubs ClubLookup, associationID, clubID string) error {
	if clubID == "" {
		return nil
	}
	c, err := clubs.GetByID(ctx, clubID)
	if err != nil {
		return fmt.Errorf("load club: %w", err)
	}
	if c.AssociationID != associationID {
		return account.ErrWrongAssociation
	}
	if c.IsArchived() {
		return ErrClubArchived
	}
	return nil
}

// --- Register Member ---

// RegisterMemberInput carries input for the orchestrator.
type RegisterMemberInput struct {
	Actor     account.Account
	ClubID    string
	AccountID string // identity provider subject, optional
	Name      string
	Email     string
	Role      string // defaults to member
}

// RegisterMemberDeps holds dependencies for RegisterMember.
type RegisterMemberDeps struct {
	Members    MemberStore
	Clubs      ClubLookup
	Audit      AuditWriter
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteRegisterMember coordinates member registration.
// PRE: Actor may manage ClubID; club (if set) is active; valid name and email
// POST: Member created with ID, Status=active
// INVARIANT: Email must be unique within the association (enforced by store)
func ExecuteRegisterMember(ctx context.Context, input RegisterMemberInput, deps RegisterMemberDeps) (member.Member, error) {
	actor := input.Actor
	if err := actor.Authorize(actor.AssociationID, input.ClubID); err != nil {
		return member.Member{}, err
	}
	if err := checkClub(ctx, deps.Clubs, actor.AssociationID, input.ClubID); err != nil {
		return member.Member{}, err
	}

	role := input.Role
	if role == "" {
		role = member.RoleMember
	}
	m := member.Member{
		ID:            deps.GenerateID(),
		AssociationID: actor.AssociationID,
		ClubID:        input.ClubID,
		AccountID:     strings.TrimSpace(input.AccountID),
		Name:          strings.TrimSpace(input.Name),
		Email:         member.NormalizeEmail(input.Email),
		Role:          role,
		Status:        member.StatusActive,
		JoinedAt:      deps.Now(),
	}
	if err := m.Validate(); err != nil {
		return member.Member{}, err
	}
	if err := deps.Members.Save(ctx, m); err != nil {
		return member.Member{}, err
	}
	if err := recordAudit(ctx, deps.Audit, actor, m.AssociationID, audit.CategoryMember, audit.ActionCreate, "member", m.ID, m.Name, m.JoinedAt); err != nil {
		return member.Member{}, err
	}

	slog.Info("member_event", "event", "member_registered", "member_id", m.ID, "club_id", m.ClubID)
	return m, nil
}

// loadMember fetches a member the actor may manage.
func loadMember(ctx context.Context, store MemberStore, actor account.Account, id string) (member.Member, error) {
	if id == "" {
		return member.Member{}, errors.New("member ID is required")
	}
	m, err := store.GetByID(ctx, id)
	if err != nil {
		return member.Member{}, err
	}
	if err := actor.Authorize(m.AssociationID, m.ClubID); err != nil {
		return member.Member{}, err
	}
	return m, nil
}

// --- Update Member ---

// UpdateMemberInput carries input for the update orchestrator.
// Empty strings keep the current value; ClubID is moved only when MoveClub is set.
type UpdateMemberInput struct {
	Actor     account.Account
	MemberID  string
	Name      string
	Email     string
	Role      string
	AccountID string
	MoveClub  bool
	ClubID    string
}

// UpdateMemberDeps holds dependencies for UpdateMember.
type UpdateMemberDeps struct {
	Members MemberStore
	Clubs   ClubLookup
	Audit   AuditWriter
	Now     func() time.Time
}

// ExecuteUpdateMember changes a member's details.
// PRE: Actor may manage the member's current club, and the target club when moving
// POST: Member saved
func ExecuteUpdateMember(ctx context.Context, input UpdateMemberInput, deps UpdateMemberDeps) (member.Member, error) {
	m, err := loadMember(ctx, deps.Members, input.Actor, input.MemberID)
	if err != nil {
		return member.Member{}, err
	}

	if v := strings.TrimSpace(input.Name); v != "" {
		m.Name = v
	}
	if v := member.NormalizeEmail(input.Email); v != "" {
		m.Email = v
	}
	if input.Role != "" {
		m.Role = input.Role
	}
	if v := strings.TrimSpace(input.AccountID); v != "" {
		m.AccountID = v
	}
	if input.MoveClub && input.ClubID != m.ClubID {
		if err := input.Actor.Authorize(m.AssociationID, input.ClubID); err != nil {
			return member.Member{}, err
		}
		if err := checkClub(ctx, deps.Clubs, m.AssociationID, input.ClubID); err != nil {
			return member.Member{}, err
		}
		m.ClubID = input.ClubID
	}

	if err := m.Validate(); err != nil {
		return member.Member{}, err
	}
	if err := deps.Members.Save(ctx, m); err != nil {
		return member.Member{}, err
	}
	if err := recordAudit(ctx, deps.Audit, input.Actor, m.AssociationID, audit.CategoryMember, audit.ActionUpdate, "member", m.ID, m.Name, deps.Now()); err != nil {
		return member.Member{}, err
	}

	slog.Info("member_event", "event", "member_updated", "member_id", m.ID)
	return m, nil
}

// --- Archive/Restore Member ---

// ArchiveMemberInput carries input for the archive and restore orchestrators.
type ArchiveMemberInput struct {
	Actor    account.Account
	MemberID string
}

// ArchiveMemberDeps holds dependencies for ArchiveMember and RestoreMember.
type ArchiveMemberDeps struct {
	Members MemberStore
	Audit   AuditWriter
	Now     func() time.Time
}

// ExecuteArchiveMember archives a member.
// PRE: MemberID must be non-empty; member must exist and not be archived
// POST: Member status set to archived
func ExecuteArchiveMember(ctx context.Context, input ArchiveMemberInput, deps ArchiveMemberDeps) error {
	m, err := loadMember(ctx, deps.Members, input.Actor, input.MemberID)
	if err != nil {
		return err
	}
	if err := m.Archive(); err != nil {
		return err
	}
	if err := deps.Members.Save(ctx, m); err != nil {
		return err
	}
	if err := recordAudit(ctx, deps.Audit, input.Actor, m.AssociationID, audit.CategoryMember, audit.ActionArchive, "member", m.ID, m.Name, deps.Now()); err != nil {
		return err
	}

	slog.Info("member_event", "event", "member_archived", "member_id", input.MemberID)
	return nil
}

// ExecuteRestoreMember restores an archived member to active status.
// PRE: MemberID must be non-empty; member must exist and be archived
// POST: Member status set to active
func ExecuteRestoreMember(ctx context.Context, input ArchiveMemberInput, deps ArchiveMemberDeps) error {
	m, err := loadMember(ctx, deps.Members, input.Actor, input.MemberID)
	if err != nil {
		return err
	}
	if err := m.Restore(); err != nil {
		return err
	}
	if err := deps.Members.Save(ctx, m); err != nil {
		return err
	}
	if err := recordAudit(ctx, deps.Audit, input.Actor, m.AssociationID, audit.CategoryMember, audit.ActionRestore, "member", m.ID, m.Name, deps.Now()); err != nil {
		return err
	}

	slog.Info("member_event", "event", "member_restored", "member_id", input.MemberID)
	return nil
}

package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"league/internal/domain/account"
	"league/internal/domain/audit"
	"league/internal/domain/featureflag"
	"league/internal/domain/sponsor"
)

// SponsorStoreForOrchestrator defines the store interface needed by sponsor orchestrators.
type SponsorStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (sponsor.Sponsor, error)
	Save(ctx context.Context, s sponsor.Sponsor) error
	Delete(ctx context.Context, id string) error
}

// SponsorInput carries the editable sponsor fields.
type SponsorInput struct {
	Name          string
	Tier          string
	WebsiteURL    string
	LogoKey       string
	ContractStart time.Time
	ContractEnd   time.Time
}

func (in SponsorInput) apply(s *sponsor.Sponsor) {
	s.Name = strings.TrimSpace(in.Name)
	s.Tier = in.Tier
	s.WebsiteURL = strings.TrimSpace(in.WebsiteURL)
	s.LogoKey = strings.TrimSpace(in.LogoKey)
	s.ContractStart = in.ContractStart
	s.ContractEnd = in.ContractEnd
}

// SaveSponsorInput creates a sponsor when SponsorID is empty and replaces one otherwise.
type SaveSponsorInput struct {
	Actor     account.Account
	SponsorID string
	ClubID    string // ignored on update
	Fields    SponsorInput
}

// SaveSponsorDeps holds dependencies for SaveSponsor.
type SaveSponsorDeps struct {
	Sponsors   SponsorStoreForOrchestrator
	Flags      FlagLookup
	Audit      AuditWriter
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteSaveSponsor creates or updates a sponsor.
// PRE: sponsors feature on; Actor may manage the sponsor's club
// POST: Sponsor saved with every field replaced from input
func ExecuteSaveSponsor(ctx context.Context, input SaveSponsorInput, deps SaveSponsorDeps) (sponsor.Sponsor, error) {
	actor := input.Actor
	if err := requireFeature(ctx, deps.Flags, actor.AssociationID, featureflag.KeySponsors, actor.Role); err != nil {
		return sponsor.Sponsor{}, err
	}
	now := deps.Now()

	var s sponsor.Sponsor
	action := audit.ActionCreate
	if input.SponsorID == "" {
		if err := actor.Authorize(actor.AssociationID, input.ClubID); err != nil {
			return sponsor.Sponsor{}, err
		}
		s = sponsor.Sponsor{ID: deps.GenerateID(), AssociationID: actor.AssociationID, ClubID: input.ClubID, CreatedAt: now}
	} else {
		existing, err := loadSponsor(ctx, deps.Sponsors, actor, input.SponsorID)
		if err != nil {
			return sponsor.Sponsor{}, err
		}
		s = existing
		action = audit.ActionUpdate
	}
	input.Fields.apply(&s)

	if err := s.Validate(); err != nil {
		return sponsor.Sponsor{}, err
	}
	if err := deps.Sponsors.Save(ctx, s); err != nil {
		return sponsor.Sponsor{}, err
	}
	if err := recordAudit(ctx, deps.Audit, actor, s.AssociationID, audit.CategorySponsor, action, "sponsor", s.ID, s.Name, now); err != nil {
		return sponsor.Sponsor{}, err
	}
	slog.Info("sponsor_event", "event", "sponsor_saved", "sponsor_id", s.ID, "tier", s.Tier, "action", string(action))
	return s, nil
}

func loadSponsor(ctx context.Context, store SponsorStoreForOrchestrator, actor account.Account, id string) (sponsor.Sponsor, error) {
	if id == "" {
		return sponsor.Sponsor{}, errors.New("sponsor ID is required")
	}
	s, err := store.GetByID(ctx, id)
	if err != nil {
		return sponsor.Sponsor{}, err
	}
	if err := actor.Authorize(s.AssociationID, s.ClubID); err != nil {
		return sponsor.Sponsor{}, err
	}
	return s, nil
}

// DeleteSponsorInput carries input for the delete sponsor orchestrator.
type DeleteSponsorInput struct {
	Actor     account.Account
	SponsorID string
}

// DeleteSponsorDeps holds dependencies for DeleteSponsor.
type DeleteSponsorDeps struct {
	Sponsors SponsorStoreForOrchestrator
	Flags    FlagLookup
	Audit    AuditWriter
	Now      func() time.Time
}

// ExecuteDeleteSponsor removes a sponsor.
func ExecuteDeleteSponsor(ctx context.Context, input DeleteSponsorInput, deps DeleteSponsorDeps) error {
	actor := input.Actor
	if err := requireFeature(ctx, deps.Flags, actor.AssociationID, featureflag.KeySponsors, actor.Role); err != nil {
		return err
	}
	s, err := loadSponsor(ctx, deps.Sponsors, actor, input.SponsorID)
	if err != nil {
		return err
	}
	if err := deps.Sponsors.Delete(ctx, s.ID); err != nil {
		return err
	}
	if err := recordAudit(ctx, deps.Audit, actor, s.AssociationID, audit.CategorySponsor, audit.ActionDelete, "sponsor", s.ID, s.Name, deps.Now()); err != nil {
		return err
	}
	slog.Info("sponsor_event", "event", "sponsor_deleted", "sponsor_id", s.ID)
	return nil
}

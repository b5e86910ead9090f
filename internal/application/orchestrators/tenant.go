package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"league/internal/domain/account"
	"league/internal/domain/association"
	"league/internal/domain/audit"
	"league/internal/domain/club"
)

// AssociationStoreForOrchestrator defines the store interface needed by association orchestrators.
type AssociationStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (association.Association, error)
	Save(ctx context.Context, a association.Association) error
}

// ClubStoreForOrchestrator defines the store interface needed by club orchestrators.
type ClubStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (club.Club, error)
	Save(ctx context.Context, c club.Club) error
}

// --- Create Association ---

// CreateAssociationInput carries input for the create association orchestrator.
type CreateAssociationInput struct {
	Actor        account.Account
	Name         string
	Slug         string // derived from Name when empty
	ContactEmail string
}

// CreateAssociationDeps holds dependencies for CreateAssociation.
type CreateAssociationDeps struct {
	Associations AssociationStoreForOrchestrator
	Audit        AuditWriter
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteCreateAssociation registers a new tenant.
// PRE: Actor is a platform admin
// POST: Association saved; slug unique across tenants (enforced by store)
func ExecuteCreateAssociation(ctx context.Context, input CreateAssociationInput, deps CreateAssociationDeps) (association.Association, error) {
	if !input.Actor.PlatformAdmin {
		return association.Association{}, account.ErrForbidden
	}
	name := strings.TrimSpace(input.Name)
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = association.Slugify(name)
	}
	a := association.Association{
		ID:           deps.GenerateID(),
		Name:         name,
		Slug:         slug,
		ContactEmail: strings.TrimSpace(input.ContactEmail),
		CreatedAt:    deps.Now(),
	}
	if err := a.Validate(); err != nil {
		return association.Association{}, err
	}
	if err := deps.Associations.Save(ctx, a); err != nil {
		return association.Association{}, err
	}
	if err := recordAudit(ctx, deps.Audit, input.Actor, a.ID, audit.CategoryAssociation, audit.ActionCreate, "association", a.ID, a.Name, a.CreatedAt); err != nil {
		return association.Association{}, err
	}
	slog.Info("association_event", "event", "association_created", "association_id", a.ID, "slug", a.Slug)
	return a, nil
}

// --- Update Association ---

// UpdateAssociationInput carries input for the update association orchestrator.
// Empty fields keep their current value.
type UpdateAssociationInput struct {
	Actor         account.Account
	AssociationID string
	Name          string
	ContactEmail  string
}

// UpdateAssociationDeps holds dependencies for UpdateAssociation.
type UpdateAssociationDeps struct {
	Associations AssociationStoreForOrchestrator
	Audit        AuditWriter
	Now          func() time.Time
}

// ExecuteUpdateAssociation changes the tenant's display data. The slug is immutable.
// PRE: Actor is an admin of the association
// POST: Association saved
func ExecuteUpdateAssociation(ctx context.Context, input UpdateAssociationInput, deps UpdateAssociationDeps) (association.Association, error) {
	if err := input.Actor.Authorize(input.AssociationID, ""); err != nil {
		return association.Association{}, err
	}
	a, err := deps.Associations.GetByID(ctx, input.AssociationID)
	if err != nil {
		return association.Association{}, err
	}
	if n := strings.TrimSpace(input.Name); n != "" {
		a.Name = n
	}
	if e := strings.TrimSpace(input.ContactEmail); e != "" {
		a.ContactEmail = e
	}
	if err := a.Validate(); err != nil {
		return association.Association{}, err
	}
	if err := deps.Associations.Save(ctx, a); err != nil {
		return association.Association{}, err
	}
	if err := recordAudit(ctx, deps.Audit, input.Actor, a.ID, audit.CategoryAssociation, audit.ActionUpdate, "association", a.ID, a.Name, deps.Now()); err != nil {
		return association.Association{}, err
	}
	slog.Info("association_event", "event", "association_updated", "association_id", a.ID)
	return a, nil
}

// --- Create Club ---

// CreateClubInput carries input for the create club orchestrator.
type CreateClubInput struct {
	Actor        account.Account
	Name         string
	Slug         string // derived from Name when empty
	City         string
	ContactEmail string
}

// CreateClubDeps holds dependencies for CreateClub.
type CreateClubDeps struct {
	Clubs      ClubStoreForOrchestrator
	Audit      AuditWriter
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteCreateClub adds a club to the actor's association.
// PRE: Actor is an association admin
// POST: Club saved as active; slug unique within the association (enforced by store)
func ExecuteCreateClub(ctx context.Context, input CreateClubInput, deps CreateClubDeps) (club.Club, error) {
	actor := input.Actor
	if err := actor.Authorize(actor.AssociationID, ""); err != nil {
		return club.Club{}, err
	}
	name := strings.TrimSpace(input.Name)
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = association.Slugify(name)
	}
	c := club.Club{
		ID:            deps.GenerateID(),
		AssociationID: actor.AssociationID,
		Name:          name,
		Slug:          slug,
		City:          strings.TrimSpace(input.City),
		ContactEmail:  strings.TrimSpace(input.ContactEmail),
		Status:        club.StatusActive,
		CreatedAt:     deps.Now(),
	}
	if err := c.Validate(); err != nil {
		return club.Club{}, err
	}
	if err := deps.Clubs.Save(ctx, c); err != nil {
		return club.Club{}, err
	}
	if err := recordAudit(ctx, deps.Audit, actor, c.AssociationID, audit.CategoryClub, audit.ActionCreate, "club", c.ID, c.Name, c.CreatedAt); err != nil {
		return club.Club{}, err
	}
	slog.Info("club_event", "event", "club_created", "club_id", c.ID, "association_id", c.AssociationID)
	return c, nil
}

// loadClub fetches a club the actor may manage.
func loadClub(ctx context.Context, store ClubStoreForOrchestrator, actor account.Account, id string) (club.Club, error) {
	if id == "" {
		return club.Club{}, errors.New("club ID is required")
	}
	c, err := store.GetByID(ctx, id)
	if err != nil {
		return club.Club{}, err
	}
	if err := actor.Authorize(c.AssociationID, c.ID); err != nil {
		return club.Club{}, err
	}
	return c, nil
}

// --- Update Club ---

// UpdateClubInput carries input for the update club orchestrator.
// Empty fields keep their current value.
type UpdateClubInput struct {
	Actor        account.Account
	ClubID       string
	Name         string
	City         string
	ContactEmail string
}

// UpdateClubDeps holds dependencies for UpdateClub.
type UpdateClubDeps struct {
	Clubs ClubStoreForOrchestrator
	Audit AuditWriter
	Now   func() time.Time
}

// ExecuteUpdateClub changes a club's display data.
// PRE: Actor is an association admin or the club's manager
// POST: Club saved
func ExecuteUpdateClub(ctx context.Context, input UpdateClubInput, deps UpdateClubDeps) (club.Club, error) {
	c, err := loadClub(ctx, deps.Clubs, input.Actor, input.ClubID)
	if err != nil {
		return club.Club{}, err
	}
	if n := strings.TrimSpace(input.Name); n != "" {
		c.Name = n
	}
	if v := strings.TrimSpace(input.City); v != "" {
		c.City = v
	}
	if v := strings.TrimSpace(input.ContactEmail); v != "" {
		c.ContactEmail = v
	}
	if err := c.Validate(); err != nil {
		return club.Club{}, err
	}
	if err := deps.Clubs.Save(ctx, c); err != nil {
		return club.Club{}, err
	}
	if err := recordAudit(ctx, deps.Audit, input.Actor, c.AssociationID, audit.CategoryClub, audit.ActionUpdate, "club", c.ID, c.Name, deps.Now()); err != nil {
		return club.Club{}, err
	}
	slog.Info("club_event", "event", "club_updated", "club_id", c.ID)
	return c, nil
}

// --- Archive/Restore Club ---

// ArchiveClubInput carries input for the archive and restore orchestrators.
type ArchiveClubInput struct {
	Actor  account.Account
	ClubID string
}

// ArchiveClubDeps holds dependencies for ArchiveClub and RestoreClub.
type ArchiveClubDeps struct {
	Clubs ClubStoreForOrchestrator
	Audit AuditWriter
	Now   func() time.Time
}

// ExecuteArchiveClub archives a club.
// PRE: Actor is an association admin; club is not archived
// POST: Club status set to archived
func ExecuteArchiveClub(ctx context.Context, input ArchiveClubInput, deps ArchiveClubDeps) (club.Club, error) {
	return changeClubStatus(ctx, input, deps, audit.ActionArchive, (*club.Club).Archive)
}

// ExecuteRestoreClub restores an archived club.
// PRE: Actor is an association admin; club is archived
// POST: Club status set to active
func ExecuteRestoreClub(ctx context.Context, input ArchiveClubInput, deps ArchiveClubDeps) (club.Club, error) {
	return changeClubStatus(ctx, input, deps, audit.ActionRestore, (*club.Club).Restore)
}

func changeClubStatus(ctx context.Context, input ArchiveClubInput, deps ArchiveClubDeps, action audit.Action, transition func(*club.Club) error) (club.Club, error) {
	if input.ClubID == "" {
		return club.Club{}, errors.New("club ID is required")
	}
	c, err := deps.Clubs.GetByID(ctx, input.ClubID)
	if err != nil {
		return club.Club{}, err
	}
	if err := input.Actor.Authorize(c.AssociationID, ""); err != nil {
		return club.Club{}, err
	}
	if err := transition(&c); err != nil {
		return club.Club{}, err
	}
	if err := deps.Clubs.Save(ctx, c); err != nil {
		return club.Club{}, err
	}
	if err := recordAudit(ctx, deps.Audit, input.Actor, c.AssociationID, audit.CategoryClub, action, "club", c.ID, c.Name, deps.Now()); err != nil {
		return club.Club{}, err
	}
	slog.Info("club_event", "event", "club_"+string(action)+"d", "club_id", c.ID)
	return c, nil
}

package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	memberStore "league/internal/adapters/storage/member"
	"league/internal/domain/account"
	"league/internal/domain/announcement"
	"league/internal/domain/audit"
	"league/internal/domain/email"
	"league/internal/domain/member"
	"league/internal/domain/notification"
)

// AnnouncementStoreForOrchestrator defines the store interface needed by announcement orchestrators.
type AnnouncementStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (announcement.Announcement, error)
	Save(ctx context.Context, a announcement.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AudienceLister pages through members of an association.
type AudienceLister interface {
	List(ctx context.Context, filter memberStore.ListFilter) ([]member.Member, error)
}

// audiencePageSize bounds one page of the publish fan-out.
const audiencePageSize = 1000

// notifyAudience sends notice to every active member of the association, or of
// clubID when set, one page at a time. It returns the number of recipients.
func notifyAudience(ctx context.Context, members AudienceLister, notifier Notifier, associationID, clubID string, notice Notice) (int, error) {
	filter := memberStore.ListFilter{
		AssociationID: associationID,
		ClubID:        clubID,
		Status:        member.StatusActive,
		Sort:          "joined",
		Limit:         audiencePageSize,
	}
	recipients := 0
	for {
		page, err := members.List(ctx, filter)
		if err != nil {
			return recipients, fmt.Errorf("list audience: %w", err)
		}
		if err := notifier.Notify(ctx, associationID, page, notice); err != nil {
			return recipients, err
		}
		recipients += len(page)
		if len(page) < audiencePageSize {
			return recipients, nil
		}
		filter.Offset += audiencePageSize
	}
}

// loadAnnouncement fetches an announcement the actor may manage.
func loadAnnouncement(ctx context.Context, store AnnouncementStoreForOrchestrator, actor account.Account, id string) (announcement.Announcement, error) {
	if id == "" {
		return announcement.Announcement{}, errors.New("announcement ID is required")
	}
	a, err := store.GetByID(ctx, id)
	if err != nil {
		return announcement.Announcement{}, err
	}
	if err := actor.Authorize(a.AssociationID, a.ClubID); err != nil {
		return announcement.Announcement{}, err
	}
	return a, nil
}

// --- Create Announcement ---

// CreateAnnouncementInput carries input for the create announcement orchestrator.
type CreateAnnouncementInput struct {
	Actor        account.Account
	ClubID       string
	Title        string
	Content      string
	VisibleFrom  time.Time
	VisibleUntil time.Time
}

// CreateAnnouncementDeps holds dependencies for CreateAnnouncement.
type CreateAnnouncementDeps struct {
	Announcements AnnouncementStoreForOrchestrator
	Audit         AuditWriter
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteCreateAnnouncement creates a new announcement in draft status.
// PRE: Actor may manage ClubID (association admins for association-wide posts)
// POST: Announcement created in draft status with generated ID
func ExecuteCreateAnnouncement(ctx context.Context, input CreateAnnouncementInput, deps CreateAnnouncementDeps) (announcement.Announcement, error) {
	actor := input.Actor
	if err := actor.Authorize(actor.AssociationID, input.ClubID); err != nil {
		return announcement.Announcement{}, err
	}

	now := deps.Now()
	a := announcement.Announcement{
		ID:            deps.GenerateID(),
		AssociationID: actor.AssociationID,
		ClubID:        input.ClubID,
		Title:         strings.TrimSpace(input.Title),
		Content:       input.Content,
		Status:        announcement.StatusDraft,
		CreatedBy:     actor.ID,
		VisibleFrom:   input.VisibleFrom,
		VisibleUntil:  input.VisibleUntil,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.Validate(); err != nil {
		return announcement.Announcement{}, err
	}
	if err := deps.Announcements.Save(ctx, a); err != nil {
		return announcement.Announcement{}, err
	}
	if err := recordAudit(ctx, deps.Audit, actor, a.AssociationID, audit.CategoryCommunications, audit.ActionCreate, "announcement", a.ID, a.Title, now); err != nil {
		return announcement.Announcement{}, err
	}

	slog.Info("announcement_event", "event", "announcement_created", "announcement_id", a.ID, "club_id", a.ClubID, "created_by", actor.ID)
	return a, nil
}

// --- Edit Announcement ---

// EditAnnouncementInput carries input for the edit announcement orchestrator.
type EditAnnouncementInput struct {
	Actor          account.Account
	AnnouncementID string
	Title          string
	Content        string
	VisibleFrom    time.Time
	VisibleUntil   time.Time
}

// EditAnnouncementDeps holds dependencies for EditAnnouncement.
type EditAnnouncementDeps struct {
	Announcements AnnouncementStoreForOrchestrator
	Now           func() time.Time
}

// ExecuteEditAnnouncement updates fields on an existing announcement.
// Partial-update semantics:
//   - Title, Content: only updated when the input value is non-empty (cannot be cleared).
//   - VisibleFrom, VisibleUntil: always overwritten (cleared by sending zero values).
//
// PRE: announcement exists and the actor may manage it
// POST: Announcement fields updated, UpdatedAt set
func ExecuteEditAnnouncement(ctx context.Context, input EditAnnouncementInput, deps EditAnnouncementDeps) (announcement.Announcement, error) {
	a, err := loadAnnouncement(ctx, deps.Announcements, input.Actor, input.AnnouncementID)
	if err != nil {
		return announcement.Announcement{}, err
	}

	if t := strings.TrimSpace(input.Title); t != "" {
		a.Title = t
	}
	if input.Content != "" {
		a.Content = input.Content
	}
	a.VisibleFrom = input.VisibleFrom
	a.VisibleUntil = input.VisibleUntil
	a.UpdatedAt = deps.Now()

	if err := a.Validate(); err != nil {
		return announcement.Announcement{}, err
	}
	if err := deps.Announcements.Save(ctx, a); err != nil {
		return announcement.Announcement{}, err
	}

	slog.Info("announcement_event", "event", "announcement_edited", "announcement_id", a.ID, "title", a.Title)
	return a, nil
}

// --- Publish Announcement ---

// PublishAnnouncementInput carries input for the publish announcement orchestrator.
type PublishAnnouncementInput struct {
	Actor          account.Account
	AnnouncementID string
}

// PublishAnnouncementDeps holds dependencies for PublishAnnouncement.
type PublishAnnouncementDeps struct {
	Announcements AnnouncementStoreForOrchestrator
	Members       AudienceLister
	Notifier      Notifier
	Audit         AuditWriter
	RunInTx       TxRunner
	Now           func() time.Time
}

// PublishAnnouncementResult is the published announcement and the audience size.
type PublishAnnouncementResult struct {
	Announcement announcement.Announcement
	Recipients   int
}

// ExecutePublishAnnouncement publishes a draft and notifies its audience.
// The audience is every active member of the association, or of the club for
// club-scoped announcements.
// PRE: announcement exists, is a draft, and the actor may manage it
// POST: Status published; one notification per active audience member; emails
// queued through the outbox when email notifications are on
func ExecutePublishAnnouncement(ctx context.Context, input PublishAnnouncementInput, deps PublishAnnouncementDeps) (PublishAnnouncementResult, error) {
	var result PublishAnnouncementResult
	err := runInTx(ctx, deps.RunInTx, func(ctx context.Context) error {
		a, err := loadAnnouncement(ctx, deps.Announcements, input.Actor, input.AnnouncementID)
		if err != nil {
			return err
		}
		now := deps.Now()
		if err := a.Publish(input.Actor.ID, now); err != nil {
			return err
		}
		if err := deps.Announcements.Save(ctx, a); err != nil {
			return err
		}

		notice := Notice{
			Kind:      notification.KindAnnouncement,
			EmailKind: email.KindAnnouncement,
			Subject:   a.Title,
			Body:      a.Content,
			Link:      "/api/announcements/" + a.ID,
		}
		recipients, err := notifyAudience(ctx, deps.Members, deps.Notifier, a.AssociationID, a.ClubID, notice)
		if err != nil {
			return err
		}

		if err := recordAudit(ctx, deps.Audit, input.Actor, a.AssociationID, audit.CategoryCommunications, audit.ActionPublish,
			"announcement", a.ID, fmt.Sprintf("%s (%d recipients)", a.Title, recipients), now); err != nil {
			return err
		}
		result = PublishAnnouncementResult{Announcement: a, Recipients: recipients}
		return nil
	})
	if err != nil {
		return PublishAnnouncementResult{}, err
	}

	slog.Info("announcement_event", "event", "announcement_published", "announcement_id", result.Announcement.ID,
		"published_by", input.Actor.ID, "recipients", result.Recipients)
	return result, nil
}

// --- Pin/Unpin Announcement ---

// PinAnnouncementInput carries input for the pin/unpin orchestrator.
type PinAnnouncementInput struct {
	Actor          account.Account
	AnnouncementID string
	Pinned         bool // true = pin, false = unpin
}

// PinAnnouncementDeps holds dependencies for PinAnnouncement.
type PinAnnouncementDeps struct {
	Announcements AnnouncementStoreForOrchestrator
	Now           func() time.Time
}

// ExecutePinAnnouncement pins or unpins an announcement.
// PRE: announcement exists and the actor may manage it
// POST: Pinned/PinnedAt updated, UpdatedAt set
func ExecutePinAnnouncement(ctx context.Context, input PinAnnouncementInput, deps PinAnnouncementDeps) (announcement.Announcement, error) {
	a, err := loadAnnouncement(ctx, deps.Announcements, input.Actor, input.AnnouncementID)
	if err != nil {
		return announcement.Announcement{}, err
	}

	now := deps.Now()
	if input.Pinned {
		if err := a.Pin(now); err != nil {
			return announcement.Announcement{}, err
		}
	} else {
		if err := a.Unpin(); err != nil {
			return announcement.Announcement{}, err
		}
	}
	a.UpdatedAt = now

	if err := deps.Announcements.Save(ctx, a); err != nil {
		return announcement.Announcement{}, err
	}

	action := "announcement_pinned"
	if !input.Pinned {
		action = "announcement_unpinned"
	}
	slog.Info("announcement_event", "event", action, "announcement_id", a.ID)
	return a, nil
}

// --- Delete Announcement ---

// DeleteAnnouncementInput carries input for the delete orchestrator.
type DeleteAnnouncementInput struct {
	Actor          account.Account
	AnnouncementID string
}

// DeleteAnnouncementDeps holds dependencies for DeleteAnnouncement.
type DeleteAnnouncementDeps struct {
	Announcements AnnouncementStoreForOrchestrator
	Audit         AuditWriter
	Now           func() time.Time
}

// ExecuteDeleteAnnouncement removes an announcement.
// PRE: announcement exists and the actor may manage it
// POST: Announcement deleted; audit event written
func ExecuteDeleteAnnouncement(ctx context.Context, input DeleteAnnouncementInput, deps DeleteAnnouncementDeps) error {
	a, err := loadAnnouncement(ctx, deps.Announcements, input.Actor, input.AnnouncementID)
	if err != nil {
		return err
	}
	if err := deps.Announcements.Delete(ctx, a.ID); err != nil {
		return err
	}
	if err := recordAudit(ctx, deps.Audit, input.Actor, a.AssociationID, audit.CategoryCommunications, audit.ActionDelete, "announcement", a.ID, a.Title, deps.Now()); err != nil {
		return err
	}
	slog.Info("announcement_event", "event", "announcement_deleted", "announcement_id", a.ID)
	return nil
}

package projections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"league/internal/adapters/storage/announcement"
	"league/internal/adapters/storage/audit"
	"league/internal/adapters/storage/club"
	"league/internal/adapters/storage/equipment"
	"league/internal/adapters/storage/event"
	"league/internal/adapters/storage/member"
	"league/internal/adapters/storage/reservation"
	"league/internal/domain/account"
	domainAnnouncement "league/internal/domain/announcement"
	domainAssociation "league/internal/domain/association"
	domainAudit "league/internal/domain/audit"
	"league/internal/domain/availability"
	domainClub "league/internal/domain/club"
	domainComment "league/internal/domain/comment"
	domainEquipment "league/internal/domain/equipment"
	domainEvent "league/internal/domain/event"
	"league/internal/domain/featureflag"
	domainMember "league/internal/domain/member"
	domainNotification "league/internal/domain/notification"
	domainOutbox "league/internal/domain/outbox"
	domainReservation "league/internal/domain/reservation"
	domainSponsor "league/internal/domain/sponsor"
)

// ErrNoMemberProfile is returned when a caller without a member record asks for member-scoped data.
var ErrNoMemberProfile = errors.New("account is not linked to a member of this association")

// AssociationStore interface for association queries.
type AssociationStore interface {
	GetByID(ctx context.Context, id string) (domainAssociation.Association, error)
	GetBySlug(ctx context.Context, slug string) (domainAssociation.Association, error)
}

// ClubStore interface for club queries.
type ClubStore interface {
	GetByID(ctx context.Context, id string) (domainClub.Club, error)
	List(ctx context.Context, filter club.ListFilter) ([]domainClub.Club, error)
	Count(ctx context.Context, filter club.ListFilter) (int, error)
}

// MemberStore interface for member queries.
type MemberStore interface {
	GetByID(ctx context.Context, id string) (domainMember.Member, error)
	GetByAccount(ctx context.Context, associationID, accountID string) (domainMember.Member, error)
	List(ctx context.Context, filter member.ListFilter) ([]domainMember.Member, error)
	Count(ctx context.Context, filter member.ListFilter) (int, error)
}

// EventStore interface for calendar queries.
type EventStore interface {
	GetByID(ctx context.Context, id string) (domainEvent.Event, error)
	ListInRange(ctx context.Context, filter event.RangeFilter) ([]domainEvent.Event, error)
}

// AnnouncementStore interface for announcement queries.
type AnnouncementStore interface {
	GetByID(ctx context.Context, id string) (domainAnnouncement.Announcement, error)
	List(ctx context.Context, filter announcement.ListFilter) ([]domainAnnouncement.Announcement, error)
	ListVisible(ctx context.Context, associationID, clubID string, now time.Time) ([]domainAnnouncement.Announcement, error)
}

// CommentStore interface for comment and like queries.
type CommentStore interface {
	ListByTarget(ctx context.Context, targetType, targetID string) ([]domainComment.Comment, error)
	LikeSummary(ctx context.Context, targetType, targetID, viewerID string) (domainComment.Summary, error)
}

// NotificationStore interface for inbox queries.
type NotificationStore interface {
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]domainNotification.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
}

// ItemStore interface for equipment queries.
type ItemStore interface {
	GetByID(ctx context.Context, id string) (domainEquipment.Item, error)
	List(ctx context.Context, filter equipment.ListFilter) ([]domainEquipment.Item, error)
}

// BookingStore interface for committed stock queries.
type BookingStore interface {
	CommittedBookings(ctx context.Context, itemIDs []string, w availability.Window) (map[string][]availability.Booking, error)
}

// ReservationStore interface for reservation queries.
type ReservationStore interface {
	GetByID(ctx context.Context, id string) (domainReservation.Request, error)
	List(ctx context.Context, filter reservation.ListFilter) ([]domainReservation.Request, error)
	Count(ctx context.Context, filter reservation.ListFilter) (int, error)
}

// SponsorStore interface for sponsor queries.
type SponsorStore interface {
	ListByAssociation(ctx context.Context, associationID, clubID string) ([]domainSponsor.Sponsor, error)
}

// AuditStore interface for audit log queries.
type AuditStore interface {
	List(ctx context.Context, filter audit.Filter, limit int) ([]domainAudit.Event, error)
}

// OutboxStore interface for outbox queries.
type OutboxStore interface {
	ListFailed(ctx context.Context, associationID string, limit int) ([]domainOutbox.Entry, error)
}

// requireMember resolves the member record linked to the caller.
func requireMember(ctx context.Context, members MemberStore, actor account.Account) (domainMember.Member, error) {
	m, err := members.GetByAccount(ctx, actor.AssociationID, actor.ID)
	if err != nil {
		return domainMember.Member{}, ErrNoMemberProfile
	}
	return m, nil
}

// FlagLookup reads per-association feature flags.
type FlagLookup interface {
	GetByKey(ctx context.Context, associationID, key string) (featureflag.FeatureFlag, error)
}

// featureOn resolves key for the actor's role, falling back to the default
// when the association never saved the flag. A nil lookup uses defaults.
func featureOn(ctx context.Context, flags FlagLookup, actor account.Account, key string) (bool, error) {
	if flags == nil {
		f, _ := featureflag.Default(key)
		return f.EnabledForRole(actor.Role), nil
	}
	f, err := flags.GetByKey(ctx, actor.AssociationID, key)
	if errors.Is(err, sql.ErrNoRows) {
		f = featureflag.Resolve(actor.AssociationID, key, nil)
	} else if err != nil {
		return false, fmt.Errorf("load feature flag %s: %w", key, err)
	}
	return f.EnabledForRole(actor.Role), nil
}

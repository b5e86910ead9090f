package projections

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
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

var fixedTime = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

var (
	adminActor   = account.Account{ID: "acc-admin", Email: "admin@league.test", Role: account.RoleAdmin, AssociationID: "a1"}
	managerActor = account.Account{ID: "acc-manager", Email: "manager@league.test", Role: account.RoleManager, AssociationID: "a1", ClubID: "c1"}
	memberActor  = account.Account{ID: "acc-jana", Email: "jana@league.test", Role: account.RoleMember, AssociationID: "a1", ClubID: "c1"}
	foreignActor = account.Account{ID: "acc-foreign", Email: "x@other.test", Role: account.RoleAdmin, AssociationID: "a2"}
)

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, sql.ErrNoRows)
}

func page(n, offset, limit int) (int, int) {
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

type mockMemberStore struct {
	members []domainMember.Member
}

// GetByID returns a seeded member by ID.
// PRE: id is non-empty
// POST: Returns the member or an error wrapping sql.ErrNoRows
func (m *mockMemberStore) GetByID(_ context.Context, id string) (domainMember.Member, error) {
	for _, mem := range m.members {
		if mem.ID == id {
			return mem, nil
		}
	}
	return domainMember.Member{}, notFound("member", id)
}

// GetByAccount returns the member linked to an account.
func (m *mockMemberStore) GetByAccount(_ context.Context, associationID, accountID string) (domainMember.Member, error) {
	for _, mem := range m.members {
		if mem.AssociationID == associationID && mem.AccountID == accountID {
			return mem, nil
		}
	}
	return domainMember.Member{}, notFound("member account", accountID)
}

func (m *mockMemberStore) matching(filter member.ListFilter) []domainMember.Member {
	var out []domainMember.Member
	for _, mem := range m.members {
		if mem.AssociationID != filter.AssociationID {
			continue
		}
		if filter.ClubID != "" && mem.ClubID != filter.ClubID {
			continue
		}
		if filter.Status != "" && mem.Status != filter.Status {
			continue
		}
		if filter.Role != "" && mem.Role != filter.Role {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(mem.Name+" "+mem.Email), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, mem)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// List returns the seeded members matching the filter ordered by name.
// PRE: filter.AssociationID is non-empty
// POST: Offset and Limit are applied after filtering
func (m *mockMemberStore) List(_ context.Context, filter member.ListFilter) ([]domainMember.Member, error) {
	all := m.matching(filter)
	from, to := page(len(all), filter.Offset, filter.Limit)
	return all[from:to], nil
}

// Count returns the number of members matching the filter.
func (m *mockMemberStore) Count(_ context.Context, filter member.ListFilter) (int, error) {
	return len(m.matching(filter)), nil
}

type mockClubStore struct {
	clubs []domainClub.Club
}

// GetByID returns a seeded club by ID.
func (m *mockClubStore) GetByID(_ context.Context, id string) (domainClub.Club, error) {
	for _, c := range m.clubs {
		if c.ID == id {
			return c, nil
		}
	}
	return domainClub.Club{}, notFound("club", id)
}

func (m *mockClubStore) matching(filter club.ListFilter) []domainClub.Club {
	var out []domainClub.Club
	for _, c := range m.clubs {
		if c.AssociationID != filter.AssociationID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// List returns the seeded clubs matching the filter.
func (m *mockClubStore) List(_ context.Context, filter club.ListFilter) ([]domainClub.Club, error) {
	all := m.matching(filter)
	from, to := page(len(all), filter.Offset, filter.Limit)
	return all[from:to], nil
}

// Count returns the number of clubs matching the filter.
func (m *mockClubStore) Count(_ context.Context, filter club.ListFilter) (int, error) {
	return len(m.matching(filter)), nil
}

type mockAssociationStore struct {
	items []domainAssociation.Association
}

// GetByID returns a seeded association by ID.
func (m *mockAssociationStore) GetByID(_ context.Context, id string) (domainAssociation.Association, error) {
	for _, a := range m.items {
		if a.ID == id {
			return a, nil
		}
	}
	return domainAssociation.Association{}, notFound("association", id)
}

// GetBySlug returns a seeded association by slug.
func (m *mockAssociationStore) GetBySlug(_ context.Context, slug string) (domainAssociation.Association, error) {
	for _, a := range m.items {
		if a.Slug == slug {
			return a, nil
		}
	}
	return domainAssociation.Association{}, notFound("association", slug)
}

type mockEventStore struct {
	events  []domainEvent.Event
	filters []event.RangeFilter
}

// GetByID returns a seeded event by ID.
func (m *mockEventStore) GetByID(_ context.Context, id string) (domainEvent.Event, error) {
	for _, e := range m.events {
		if e.ID == id {
			return e, nil
		}
	}
	return domainEvent.Event{}, notFound("event", id)
}

// ListInRange returns seeded events overlapping the filter window.
// PRE: filter.AssociationID is non-empty
// POST: The filter is recorded for assertions
func (m *mockEventStore) ListInRange(_ context.Context, filter event.RangeFilter) ([]domainEvent.Event, error) {
	m.filters = append(m.filters, filter)
	var out []domainEvent.Event
	for _, e := range m.events {
		if e.AssociationID != filter.AssociationID {
			continue
		}
		if !filter.From.IsZero() && !e.EndAt.After(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !e.StartAt.Before(filter.To) {
			continue
		}
		if filter.ClubID != "" && e.ClubID != "" && e.ClubID != filter.ClubID {
			continue
		}
		if filter.PublicOnly && !e.IsPublic() {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type mockAnnouncementStore struct {
	items    []domainAnnouncement.Announcement
	lastList announcement.ListFilter
}

// GetByID returns a seeded announcement by ID.
func (m *mockAnnouncementStore) GetByID(_ context.Context, id string) (domainAnnouncement.Announcement, error) {
	for _, a := range m.items {
		if a.ID == id {
			return a, nil
		}
	}
	return domainAnnouncement.Announcement{}, notFound("announcement", id)
}

// List returns seeded announcements matching the filter.
func (m *mockAnnouncementStore) List(_ context.Context, filter announcement.ListFilter) ([]domainAnnouncement.Announcement, error) {
	m.lastList = filter
	var out []domainAnnouncement.Announcement
	for _, a := range m.items {
		if a.AssociationID != filter.AssociationID {
			continue
		}
		if filter.ClubID != "" && a.ClubID != filter.ClubID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// ListVisible returns visible announcements of the association plus clubID, pinned first.
func (m *mockAnnouncementStore) ListVisible(_ context.Context, associationID, clubID string, now time.Time) ([]domainAnnouncement.Announcement, error) {
	var out []domainAnnouncement.Announcement
	for _, a := range m.items {
		if a.AssociationID != associationID || !a.IsVisible(now) {
			continue
		}
		if a.ClubID != "" && a.ClubID != clubID {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pinned && !out[j].Pinned })
	return out, nil
}

type mockCommentStore struct {
	comments []domainComment.Comment
	likes    map[string][]string // "type/id" -> account IDs
}

// ListByTarget returns the seeded comments of a target in insertion order.
func (m *mockCommentStore) ListByTarget(_ context.Context, targetType, targetID string) ([]domainComment.Comment, error) {
	var out []domainComment.Comment
	for _, c := range m.comments {
		if c.TargetType == targetType && c.TargetID == targetID {
			out = append(out, c)
		}
	}
	return out, nil
}

// LikeSummary counts the seeded likes of a target.
func (m *mockCommentStore) LikeSummary(_ context.Context, targetType, targetID, viewerID string) (domainComment.Summary, error) {
	accounts := m.likes[targetType+"/"+targetID]
	s := domainComment.Summary{Count: len(accounts)}
	for _, a := range accounts {
		if a == viewerID {
			s.LikedByViewer = true
		}
	}
	return s, nil
}

type mockNotificationStore struct {
	items []domainNotification.Notification
}

// ListByRecipient returns the recipient's seeded notifications.
func (m *mockNotificationStore) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool, limit int) ([]domainNotification.Notification, error) {
	var out []domainNotification.Notification
	for _, n := range m.items {
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead()) {
			continue
		}
		out = append(out, n)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// CountUnread counts the recipient's unread notifications.
func (m *mockNotificationStore) CountUnread(_ context.Context, recipientID string) (int, error) {
	n := 0
	for _, item := range m.items {
		if item.RecipientID == recipientID && !item.IsRead() {
			n++
		}
	}
	return n, nil
}

type mockItemStore struct {
	items []domainEquipment.Item
}

// GetByID returns a seeded item by ID.
func (m *mockItemStore) GetByID(_ context.Context, id string) (domainEquipment.Item, error) {
	for _, it := range m.items {
		if it.ID == id {
			return it, nil
		}
	}
	return domainEquipment.Item{}, notFound("item", id)
}

// List returns seeded items matching the filter.
func (m *mockItemStore) List(_ context.Context, filter equipment.ListFilter) ([]domainEquipment.Item, error) {
	var out []domainEquipment.Item
	for _, it := range m.items {
		if it.AssociationID != filter.AssociationID {
			continue
		}
		if filter.ClubID != "" && it.ClubID != filter.ClubID {
			continue
		}
		if filter.Status != "" && it.Status != filter.Status {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

type mockBookingStore struct {
	bookings map[string][]availability.Booking
}

// CommittedBookings returns seeded bookings overlapping w. A zero w.End is open-ended.
func (m *mockBookingStore) CommittedBookings(_ context.Context, itemIDs []string, w availability.Window) (map[string][]availability.Booking, error) {
	out := make(map[string][]availability.Booking)
	for _, id := range itemIDs {
		for _, b := range m.bookings[id] {
			if b.Window.End.After(w.Start) && (w.End.IsZero() || b.Window.Start.Before(w.End)) {
				out[id] = append(out[id], b)
			}
		}
	}
	return out, nil
}

type mockReservationStore struct {
	requests []domainReservation.Request
	lastList reservation.ListFilter
}

// GetByID returns a seeded request by ID.
func (m *mockReservationStore) GetByID(_ context.Context, id string) (domainReservation.Request, error) {
	for _, r := range m.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return domainReservation.Request{}, notFound("reservation", id)
}

func (m *mockReservationStore) matching(filter reservation.ListFilter) []domainReservation.Request {
	m.lastList = filter
	var out []domainReservation.Request
	for _, r := range m.requests {
		if r.AssociationID != filter.AssociationID {
			continue
		}
		if filter.ClubID != "" && r.ClubID != filter.ClubID {
			continue
		}
		if filter.RequesterID != "" && r.RequesterID != filter.RequesterID {
			continue
		}
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, r.Status) {
			continue
		}
		if !filter.From.IsZero() && !r.EndAt.After(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !r.StartAt.Before(filter.To) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out
}

// List returns the seeded requests matching the filter ordered by start.
func (m *mockReservationStore) List(_ context.Context, filter reservation.ListFilter) ([]domainReservation.Request, error) {
	all := m.matching(filter)
	from, to := page(len(all), filter.Offset, filter.Limit)
	return all[from:to], nil
}

// Count returns the number of requests matching the filter.
func (m *mockReservationStore) Count(_ context.Context, filter reservation.ListFilter) (int, error) {
	return len(m.matching(filter)), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type mockSponsorStore struct {
	items []domainSponsor.Sponsor
}

// ListByAssociation returns the seeded sponsors of the association, plus clubID ones when set.
func (m *mockSponsorStore) ListByAssociation(_ context.Context, associationID, clubID string) ([]domainSponsor.Sponsor, error) {
	var out []domainSponsor.Sponsor
	for _, s := range m.items {
		if s.AssociationID == associationID && (clubID == "" || s.ClubID == "" || s.ClubID == clubID) {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockAuditStore struct {
	events     []domainAudit.Event
	lastFilter audit.Filter
	lastLimit  int
}

// List returns the seeded events of the filter's association.
func (m *mockAuditStore) List(_ context.Context, filter audit.Filter, limit int) ([]domainAudit.Event, error) {
	m.lastFilter, m.lastLimit = filter, limit
	var out []domainAudit.Event
	for _, e := range m.events {
		if e.AssociationID != filter.AssociationID {
			continue
		}
		if filter.Category != nil && e.Category != *filter.Category {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type mockOutboxStore struct {
	entries []domainOutbox.Entry
}

// ListFailed returns the seeded failed entries of the association.
func (m *mockOutboxStore) ListFailed(_ context.Context, associationID string, limit int) ([]domainOutbox.Entry, error) {
	var out []domainOutbox.Entry
	for _, e := range m.entries {
		if e.AssociationID == associationID && e.Status == domainOutbox.StatusFailed {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockFlagStore struct {
	flags map[string]featureflag.FeatureFlag
}

// GetByKey returns a seeded flag or an error wrapping sql.ErrNoRows.
func (m *mockFlagStore) GetByKey(_ context.Context, associationID, key string) (featureflag.FeatureFlag, error) {
	f, ok := m.flags[key]
	if !ok {
		return featureflag.FeatureFlag{}, notFound("feature flag", key)
	}
	f.AssociationID = associationID
	return f, nil
}

func flagsOff(keys ...string) *mockFlagStore {
	m := &mockFlagStore{flags: map[string]featureflag.FeatureFlag{}}
	for _, k := range keys {
		m.flags[k] = featureflag.FeatureFlag{Key: k, Enabled: false}
	}
	return m
}

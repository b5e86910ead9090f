package orchestrators

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	memberStore "league/internal/adapters/storage/member"
	"league/internal/domain/account"
	"league/internal/domain/announcement"
	"league/internal/domain/association"
	"league/internal/domain/audit"
	"league/internal/domain/availability"
	"league/internal/domain/club"
	"league/internal/domain/comment"
	"league/internal/domain/equipment"
	"league/internal/domain/event"
	"league/internal/domain/featureflag"
	"league/internal/domain/member"
	"league/internal/domain/notification"
	"league/internal/domain/outbox"
	"league/internal/domain/reservation"
	"league/internal/domain/sponsor"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// sequentialIDs returns a generator producing prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s not found: %w", kind, id, sql.ErrNoRows)
}

var (
	adminActor   = account.Account{ID: "acct-admin", Email: "admin@example.com", Role: account.RoleAdmin, AssociationID: "a1"}
	managerActor = account.Account{ID: "acct-manager", Email: "mgr@example.com", Role: account.RoleManager, AssociationID: "a1", ClubID: "c1"}
	memberActor  = account.Account{ID: "acct-jana", Email: "jana@example.com", Role: account.RoleMember, AssociationID: "a1", ClubID: "c1"}
	otherActor   = account.Account{ID: "acct-piet", Email: "piet@example.com", Role: account.RoleMember, AssociationID: "a1", ClubID: "c1"}
)

// --- reservations ---

type mockReservationStore struct {
	mu       sync.Mutex
	requests map[string]reservation.Request
	saves    int
}

func newMockReservationStore(seed ...reservation.Request) *mockReservationStore {
	s := &mockReservationStore{requests: map[string]reservation.Request{}}
	for _, r := range seed {
		s.requests[r.ID] = copyRequest(r)
	}
	return s
}

func copyRequest(r reservation.Request) reservation.Request {
	r.Lines = append([]reservation.Line(nil), r.Lines...)
	return r
}

func (m *mockReservationStore) GetByID(_ context.Context, id string) (reservation.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return reservation.Request{}, notFound("reservation", id)
	}
	return copyRequest(r), nil
}

func (m *mockReservationStore) Save(_ context.Context, r reservation.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = copyRequest(r)
	m.saves++
	return nil
}

func (m *mockReservationStore) CommittedBookings(_ context.Context, itemIDs []string, w availability.Window) (map[string][]availability.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string][]availability.Booking{}
	for _, r := range m.requests {
		for _, id := range itemIDs {
			for _, b := range r.Bookings(id) {
				if !b.Window.End.After(w.Start) || (!w.End.IsZero() && !b.Window.Start.Before(w.End)) {
					continue
				}
				out[id] = append(out[id], b)
			}
		}
	}
	return out, nil
}

func (m *mockReservationStore) ListExpirable(_ context.Context, cutoff time.Time, limit int) ([]reservation.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []reservation.Request
	for _, r := range m.requests {
		if r.IsPending() && !r.ExpiresAt().After(cutoff) {
			out = append(out, copyRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockReservationStore) get(id string) reservation.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[id]
}

// --- items ---

type mockItemStore struct {
	mu    sync.Mutex
	items map[string]equipment.Item
}

func newMockItemStore(items ...equipment.Item) *mockItemStore {
	s := &mockItemStore{items: map[string]equipment.Item{}}
	for _, i := range items {
		s.items[i.ID] = i
	}
	return s
}

func (m *mockItemStore) GetByID(_ context.Context, id string) (equipment.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[id]
	if !ok {
		return equipment.Item{}, notFound("equipment item", id)
	}
	return i, nil
}

func (m *mockItemStore) GetMany(_ context.Context, ids []string) (map[string]equipment.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]equipment.Item{}
	for _, id := range ids {
		if i, ok := m.items[id]; ok {
			out[id] = i
		}
	}
	return out, nil
}

func (m *mockItemStore) Save(_ context.Context, i equipment.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[i.ID] = i
	return nil
}

// --- members ---

type mockMemberStore struct {
	mu      sync.Mutex
	members map[string]member.Member
}

func newMockMemberStore(members ...member.Member) *mockMemberStore {
	s := &mockMemberStore{members: map[string]member.Member{}}
	for _, m := range members {
		s.members[m.ID] = m
	}
	return s
}

func (m *mockMemberStore) GetByID(_ context.Context, id string) (member.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.members[id]
	if !ok {
		return member.Member{}, notFound("member", id)
	}
	return v, nil
}

func (m *mockMemberStore) GetByAccount(_ context.Context, associationID, accountID string) (member.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.members {
		if v.AssociationID == associationID && v.AccountID != "" && v.AccountID == accountID {
			return v, nil
		}
	}
	return member.Member{}, notFound("member for account", accountID)
}

func (m *mockMemberStore) GetByEmail(_ context.Context, associationID, email string) (member.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.members {
		if v.AssociationID == associationID && v.Email == member.NormalizeEmail(email) {
			return v, nil
		}
	}
	return member.Member{}, notFound("member with email", email)
}

func (m *mockMemberStore) Save(_ context.Context, v member.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.members {
		if other.ID != v.ID && other.AssociationID == v.AssociationID && other.Email == member.NormalizeEmail(v.Email) {
			return member.ErrDuplicateEmail
		}
	}
	v.Email = member.NormalizeEmail(v.Email)
	m.members[v.ID] = v
	return nil
}

func (m *mockMemberStore) List(_ context.Context, f memberStore.ListFilter) ([]member.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []member.Member
	for _, v := range m.members {
		if v.AssociationID != f.AssociationID {
			continue
		}
		if f.ClubID != "" && v.ClubID != f.ClubID {
			continue
		}
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// --- tenants ---

type mockAssociationStore struct {
	items map[string]association.Association
}

func (m *mockAssociationStore) GetByID(_ context.Context, id string) (association.Association, error) {
	a, ok := m.items[id]
	if !ok {
		return association.Association{}, notFound("association", id)
	}
	return a, nil
}

func (m *mockAssociationStore) Save(_ context.Context, a association.Association) error {
	for _, other := range m.items {
		if other.ID != a.ID && other.Slug == a.Slug {
			return association.ErrDuplicateSlug
		}
	}
	m.items[a.ID] = a
	return nil
}

type mockClubStore struct {
	items map[string]club.Club
}

func newMockClubStore(clubs ...club.Club) *mockClubStore {
	s := &mockClubStore{items: map[string]club.Club{}}
	for _, c := range clubs {
		s.items[c.ID] = c
	}
	return s
}

func (m *mockClubStore) GetByID(_ context.Context, id string) (club.Club, error) {
	c, ok := m.items[id]
	if !ok {
		return club.Club{}, notFound("club", id)
	}
	return c, nil
}

func (m *mockClubStore) GetBySlug(_ context.Context, associationID, slug string) (club.Club, error) {
	for _, c := range m.items {
		if c.AssociationID == associationID && c.Slug == slug {
			return c, nil
		}
	}
	return club.Club{}, notFound("club", slug)
}

func (m *mockClubStore) Save(_ context.Context, c club.Club) error {
	for _, other := range m.items {
		if other.ID != c.ID && other.AssociationID == c.AssociationID && other.Slug == c.Slug {
			return club.ErrDuplicateSlug
		}
	}
	m.items[c.ID] = c
	return nil
}

// --- communications ---

type mockAnnouncementStore struct {
	items map[string]announcement.Announcement
}

func newMockAnnouncementStore(items ...announcement.Announcement) *mockAnnouncementStore {
	s := &mockAnnouncementStore{items: map[string]announcement.Announcement{}}
	for _, a := range items {
		s.items[a.ID] = a
	}
	return s
}

func (m *mockAnnouncementStore) GetByID(_ context.Context, id string) (announcement.Announcement, error) {
	a, ok := m.items[id]
	if !ok {
		return announcement.Announcement{}, notFound("announcement", id)
	}
	return a, nil
}

func (m *mockAnnouncementStore) Save(_ context.Context, a announcement.Announcement) error {
	m.items[a.ID] = a
	return nil
}

func (m *mockAnnouncementStore) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return notFound("announcement", id)
	}
	delete(m.items, id)
	return nil
}

type mockEventStore struct {
	items map[string]event.Event
}

func newMockEventStore(items ...event.Event) *mockEventStore {
	s := &mockEventStore{items: map[string]event.Event{}}
	for _, e := range items {
		s.items[e.ID] = e
	}
	return s
}

func (m *mockEventStore) GetByID(_ context.Context, id string) (event.Event, error) {
	e, ok := m.items[id]
	if !ok {
		return event.Event{}, notFound("event", id)
	}
	return e, nil
}

func (m *mockEventStore) Save(_ context.Context, e event.Event) error {
	m.items[e.ID] = e
	return nil
}

func (m *mockEventStore) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return notFound("event", id)
	}
	delete(m.items, id)
	return nil
}

type mockCommentStore struct {
	comments map[string]comment.Comment
	likes    map[string]bool // target|account
}

func newMockCommentStore() *mockCommentStore {
	return &mockCommentStore{comments: map[string]comment.Comment{}, likes: map[string]bool{}}
}

func (m *mockCommentStore) GetByID(_ context.Context, id string) (comment.Comment, error) {
	c, ok := m.comments[id]
	if !ok {
		return comment.Comment{}, notFound("comment", id)
	}
	return c, nil
}

func (m *mockCommentStore) Save(_ context.Context, c comment.Comment) error {
	m.comments[c.ID] = c
	return nil
}

func (m *mockCommentStore) ToggleLike(_ context.Context, l comment.Like) (bool, error) {
	key := l.TargetType + "/" + l.TargetID + "|" + l.AccountID
	if m.likes[key] {
		delete(m.likes, key)
		return false, nil
	}
	m.likes[key] = true
	return true, nil
}

func (m *mockCommentStore) LikeSummary(_ context.Context, targetType, targetID, viewerID string) (comment.Summary, error) {
	prefix := targetType + "/" + targetID + "|"
	var s comment.Summary
	for key := range m.likes {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			s.Count++
			if key[len(prefix):] == viewerID {
				s.LikedByViewer = true
			}
		}
	}
	return s, nil
}

type mockSponsorStore struct {
	items map[string]sponsor.Sponsor
}

func (m *mockSponsorStore) GetByID(_ context.Context, id string) (sponsor.Sponsor, error) {
	s, ok := m.items[id]
	if !ok {
		return sponsor.Sponsor{}, notFound("sponsor", id)
	}
	return s, nil
}

func (m *mockSponsorStore) Save(_ context.Context, s sponsor.Sponsor) error {
	m.items[s.ID] = s
	return nil
}

func (m *mockSponsorStore) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

// --- side effects ---

type mockNotificationStore struct {
	mu    sync.Mutex
	items map[string]notification.Notification
	order []string
}

func newMockNotificationStore() *mockNotificationStore {
	return &mockNotificationStore{items: map[string]notification.Notification{}}
}

func (m *mockNotificationStore) SaveAll(_ context.Context, values []notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		if _, ok := m.items[v.ID]; !ok {
			m.order = append(m.order, v.ID)
		}
		m.items[v.ID] = v
	}
	return nil
}

func (m *mockNotificationStore) GetByID(_ context.Context, id string) (notification.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return notification.Notification{}, notFound("notification", id)
	}
	return v, nil
}

func (m *mockNotificationStore) Save(ctx context.Context, v notification.Notification) error {
	return m.SaveAll(ctx, []notification.Notification{v})
}

func (m *mockNotificationStore) all() []notification.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notification.Notification, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id])
	}
	return out
}

type mockOutboxStore struct {
	mu      sync.Mutex
	entries map[string]outbox.Entry
	order   []string
}

func newMockOutboxStore(seed ...outbox.Entry) *mockOutboxStore {
	s := &mockOutboxStore{entries: map[string]outbox.Entry{}}
	for _, e := range seed {
		s.entries[e.ID] = e
		s.order = append(s.order, e.ID)
	}
	return s
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, notFound("outbox entry", id)
	}
	return e, nil
}

func (m *mockOutboxStore) ListDue(_ context.Context, now time.Time, limit int) ([]outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []outbox.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if (e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying) && !now.Before(e.NextAttemptAt) {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockOutboxStore) all() []outbox.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]outbox.Entry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.entries[id])
	}
	return out
}

type mockAuditStore struct {
	mu     sync.Mutex
	events []audit.Event
}

func (m *mockAuditStore) Save(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *mockAuditStore) actions() []audit.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.Action, len(m.events))
	for i, e := range m.events {
		out[i] = e.Action
	}
	return out
}

type mockFlags struct {
	flags map[string]featureflag.FeatureFlag // keyed by flag key
}

func disabledFlags(keys ...string) *mockFlags {
	m := &mockFlags{flags: map[string]featureflag.FeatureFlag{}}
	for _, k := range keys {
		m.flags[k] = featureflag.FeatureFlag{AssociationID: "a1", Key: k, Enabled: false}
	}
	return m
}

func (m *mockFlags) GetByKey(_ context.Context, associationID, key string) (featureflag.FeatureFlag, error) {
	f, ok := m.flags[key]
	if !ok || f.AssociationID != associationID {
		return featureflag.FeatureFlag{}, notFound("feature flag", key)
	}
	return f, nil
}

type mockTransitions struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *mockTransitions) RecordTransition(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[status]++
}

// serialTx stands in for a database transaction by running units of work one at a time.
func serialTx() TxRunner {
	var mu sync.Mutex
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		mu.Lock()
		defer mu.Unlock()
		return fn(ctx)
	}
}

package member_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"league/internal/adapters/storage"
	"league/internal/adapters/storage/member"
	"league/internal/adapters/storage/storagetest"
	domain "league/internal/domain/member"
)

func newStore(t *testing.T) (*member.SQLStore, storage.SQLDB) {
	t.Helper()
	db := storagetest.Open(t)
	storagetest.SeedAssociation(t, db, "a1", "north")
	storagetest.SeedAssociation(t, db, "a2", "south")
	storagetest.Exec(t, db, `INSERT INTO club (id, association_id, name, slug, status, created_at) VALUES ('c1', 'a1', 'Club', 'club', 'active', '2026-01-01T00:00:00Z')`)
	return member.NewSQLStore(db), db
}

func TestSQLStore_SaveNormalizesEmail(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	m := domain.Member{
		ID: "m1", AssociationID: "a1", ClubID: "c1", AccountID: "acc-1",
		Name: "Jana Novak", Email: " Jana@Example.com", Role: domain.RoleCoach,
		Status: domain.StatusActive, JoinedAt: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, m); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.GetByEmail(ctx, "a1", "JANA@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.Email != "jana@example.com" || got.ClubID != "c1" || got.Role != domain.RoleCoach {
		t.Errorf("unexpected member %+v", got)
	}
	if !got.JoinedAt.Equal(m.JoinedAt) {
		t.Errorf("joined_at = %v, want %v", got.JoinedAt, m.JoinedAt)
	}

	byAccount, err := store.GetByAccount(ctx, "a1", "acc-1")
	if err != nil {
		t.Fatalf("get by account: %v", err)
	}
	if byAccount.ID != "m1" {
		t.Errorf("by account = %s", byAccount.ID)
	}
	if _, err := store.GetByAccount(ctx, "a2", "acc-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("account lookup must be tenant scoped, got %v", err)
	}
}

func TestSQLStore_EmailUniquePerAssociation(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	now := time.Now()

	base := domain.Member{AssociationID: "a1", Name: "A", Email: "same@example.com", Role: domain.RoleMember, Status: domain.StatusActive, JoinedAt: now}
	first, second, other := base, base, base
	first.ID, second.ID, other.ID = "m1", "m2", "m3"
	other.AssociationID = "a2"

	if err := store.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, second); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail in the same association, got %v", err)
	}
	if err := store.Save(ctx, other); err != nil {
		t.Fatalf("same email in another association should succeed: %v", err)
	}
}

func TestSQLStore_ListFilters(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []domain.Member{
		{ID: "m1", AssociationID: "a1", ClubID: "c1", Name: "Charlie", Email: "c@example.com", Role: domain.RoleMember, Status: domain.StatusActive, JoinedAt: day},
		{ID: "m2", AssociationID: "a1", Name: "alice", Email: "a@example.com", Role: domain.RoleBoard, Status: domain.StatusActive, JoinedAt: day.AddDate(0, 1, 0)},
		{ID: "m3", AssociationID: "a1", ClubID: "c1", Name: "Bob", Email: "b@example.com", Role: domain.RoleCoach, Status: domain.StatusArchived, JoinedAt: day.AddDate(0, 2, 0)},
		{ID: "m4", AssociationID: "a2", Name: "Dora", Email: "d@example.com", Role: domain.RoleMember, Status: domain.StatusActive, JoinedAt: day},
	}
	for _, m := range seed {
		if err := store.Save(ctx, m); err != nil {
			t.Fatalf("save %s: %v", m.ID, err)
		}
	}

	tests := []struct {
		name   string
		filter member.ListFilter
		want   []string
	}{
		{"default sort by name", member.ListFilter{AssociationID: "a1"}, []string{"m2", "m3", "m1"}},
		{"club", member.ListFilter{AssociationID: "a1", ClubID: "c1"}, []string{"m3", "m1"}},
		{"status", member.ListFilter{AssociationID: "a1", Status: domain.StatusActive}, []string{"m2", "m1"}},
		{"role", member.ListFilter{AssociationID: "a1", Role: domain.RoleBoard}, []string{"m2"}},
		{"search case insensitive", member.ListFilter{AssociationID: "a1", Search: "ALI"}, []string{"m2"}},
		{"joined desc", member.ListFilter{AssociationID: "a1", Sort: "joined", Dir: "desc"}, []string{"m3", "m2", "m1"}},
		{"unknown sort falls back", member.ListFilter{AssociationID: "a1", Sort: "id; DROP TABLE member"}, []string{"m2", "m3", "m1"}},
		{"limit offset", member.ListFilter{AssociationID: "a1", Limit: 2, Offset: 1}, []string{"m3", "m1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d members, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}

	n, err := store.Count(ctx, member.ListFilter{AssociationID: "a1", ClubID: "c1"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

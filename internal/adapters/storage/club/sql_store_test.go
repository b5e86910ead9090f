package club_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"league/internal/adapters/storage/club"
	"league/internal/adapters/storage/storagetest"
	domain "league/internal/domain/club"
)

func seedClubs(t *testing.T) *club.SQLStore {
	t.Helper()
	db := storagetest.Open(t)
	storagetest.SeedAssociation(t, db, "a1", "north")
	storagetest.SeedAssociation(t, db, "a2", "south")
	store := club.NewSQLStore(db)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	clubs := []domain.Club{
		{ID: "c1", AssociationID: "a1", Name: "Rowing Club Hamburg", Slug: "rc-hamburg", City: "Hamburg", Status: domain.StatusActive, CreatedAt: now},
		{ID: "c2", AssociationID: "a1", Name: "Alster Paddlers", Slug: "alster", City: "Hamburg", Status: domain.StatusArchived, CreatedAt: now.Add(time.Hour)},
		{ID: "c3", AssociationID: "a1", Name: "Kiel Sailing", Slug: "kiel", City: "Kiel", Status: domain.StatusActive, CreatedAt: now.Add(2 * time.Hour)},
		{ID: "c4", AssociationID: "a2", Name: "Munich Rowing", Slug: "munich", City: "Munich", Status: domain.StatusActive, CreatedAt: now},
	}
	for _, c := range clubs {
		if err := store.Save(context.Background(), c); err != nil {
			t.Fatalf("save %s: %v", c.ID, err)
		}
	}
	return store
}

func TestSQLStore_ListScopedToAssociation(t *testing.T) {
	store := seedClubs(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter club.ListFilter
		want   []string
	}{
		{"all in a1 by name", club.ListFilter{AssociationID: "a1"}, []string{"c2", "c3", "c1"}},
		{"active only", club.ListFilter{AssociationID: "a1", Status: domain.StatusActive}, []string{"c3", "c1"}},
		{"search city", club.ListFilter{AssociationID: "a1", Search: "hamburg"}, []string{"c2", "c1"}},
		{"created desc", club.ListFilter{AssociationID: "a1", Sort: "created", Dir: "desc"}, []string{"c3", "c2", "c1"}},
		{"paged", club.ListFilter{AssociationID: "a1", Limit: 1, Offset: 1}, []string{"c3"}},
		{"other tenant", club.ListFilter{AssociationID: "a2"}, []string{"c4"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d clubs, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}

	n, err := store.Count(ctx, club.ListFilter{AssociationID: "a1", Status: domain.StatusActive})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestSQLStore_GetBySlug(t *testing.T) {
	store := seedClubs(t)
	ctx := context.Background()

	c, err := store.GetBySlug(ctx, "a1", "kiel")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if c.ID != "c3" || c.City != "Kiel" {
		t.Errorf("unexpected club %+v", c)
	}
	if _, err := store.GetBySlug(ctx, "a2", "kiel"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("slug lookup must be tenant scoped, got %v", err)
	}
}

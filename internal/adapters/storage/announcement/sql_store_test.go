package announcement_test

import (
	"context"
	"testing"
	"time"

	"league/internal/adapters/storage/announcement"
	"league/internal/adapters/storage/storagetest"
	domain "league/internal/domain/announcement"
)

func TestSQLStore_RoundTrip(t *testing.T) {
	db := storagetest.Open(t)
	storagetest.SeedAssociation(t, db, "a1", "north")
	store := announcement.NewSQLStore(db)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	a := domain.Announcement{
		ID: "n1", AssociationID: "a1", Title: "Season opening", Content: "**Welcome**",
		Status: domain.StatusDraft, CreatedBy: "acc-1", CreatedAt: now, UpdatedAt: now,
	}
	if err := store.Save(ctx, a); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if err := a.Publish("acc-2", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := a.Pin(now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	a.VisibleUntil = now.AddDate(0, 1, 0)
	if err := store.Save(ctx, a); err != nil {
		t.Fatalf("save published: %v", err)
	}

	got, err := store.GetByID(ctx, "n1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusPublished || got.PublishedBy != "acc-2" || !got.Pinned {
		t.Errorf("unexpected announcement %+v", got)
	}
	if !got.PublishedAt.Equal(now.Add(time.Hour)) || !got.VisibleUntil.Equal(a.VisibleUntil) {
		t.Errorf("timestamps not preserved: %+v", got)
	}
	if !got.VisibleFrom.IsZero() {
		t.Errorf("visible_from should stay zero, got %v", got.VisibleFrom)
	}
}

func TestSQLStore_ListVisible(t *testing.T) {
	db := storagetest.Open(t)
	storagetest.SeedAssociation(t, db, "a1", "north")
	storagetest.Exec(t, db, `INSERT INTO club (id, association_id, name, slug, status, created_at) VALUES ('c1', 'a1', 'One', 'one', 'active', '2026-01-01T00:00:00Z')`)
	store := announcement.NewSQLStore(db)
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	published := func(id, clubID string, publishedAt time.Time) domain.Announcement {
		return domain.Announcement{
			ID: id, AssociationID: "a1", ClubID: clubID, Title: id, Content: "x",
			Status: domain.StatusPublished, PublishedBy: "acc", CreatedAt: publishedAt,
			UpdatedAt: publishedAt, PublishedAt: publishedAt,
		}
	}
	expired := published("expired", "", now.AddDate(0, 0, -5))
	expired.VisibleUntil = now
	future := published("future", "", now.AddDate(0, 0, -1))
	future.VisibleFrom = now.Add(time.Hour)
	pinned := published("pinned", "", now.AddDate(0, 0, -9))
	pinned.Pinned, pinned.PinnedAt = true, now.AddDate(0, 0, -1)
	draft := published("draft", "", now)
	draft.Status, draft.PublishedAt = domain.StatusDraft, time.Time{}

	for _, a := range []domain.Announcement{
		published("wide", "", now.AddDate(0, 0, -2)),
		published("club", "c1", now.AddDate(0, 0, -1)),
		expired, future, pinned, draft,
	} {
		if err := store.Save(ctx, a); err != nil {
			t.Fatalf("save %s: %v", a.ID, err)
		}
	}

	tests := []struct {
		name   string
		clubID string
		want   []string
	}{
		{"association-wide only", "", []string{"pinned", "wide"}},
		{"with club", "c1", []string{"pinned", "club", "wide"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.ListVisible(ctx, "a1", tc.clubID, now)
			if err != nil {
				t.Fatalf("list visible: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}

	all, err := store.List(ctx, announcement.ListFilter{AssociationID: "a1", Status: domain.StatusDraft})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].ID != "draft" {
		t.Errorf("draft filter returned %+v", all)
	}
}

package sponsor_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"league/internal/adapters/storage/sponsor"
	"league/internal/adapters/storage/storagetest"
	domain "league/internal/domain/sponsor"
)

func TestSQLStore_CRUD(t *testing.T) {
	db := storagetest.Open(t)
	storagetest.SeedAssociation(t, db, "a1", "north")
	store := sponsor.NewSQLStore(db)
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	sp := domain.Sponsor{
		ID: "s1", AssociationID: "a1", Name: "Harbour Bank", Tier: domain.TierGold,
		WebsiteURL: "https://bank.example", LogoKey: "logos/harbour.png",
		ContractStart: now, CreatedAt: now,
	}
	if err := store.Save(ctx, sp); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, domain.Sponsor{ID: "s2", AssociationID: "a1", Name: "Anchor Beer", Tier: domain.TierMain, CreatedAt: now}); err != nil {
		t.Fatalf("save s2: %v", err)
	}

	got, err := store.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.ContractStart.Equal(now) || !got.ContractEnd.IsZero() || got.LogoKey != "logos/harbour.png" {
		t.Errorf("unexpected sponsor %+v", got)
	}

	list, err := store.ListByAssociation(ctx, "a1", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	domain.SortForDisplay(list)
	if len(list) != 2 || list[0].ID != "s2" {
		t.Errorf("main tier sponsor should come first: %+v", list)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID(ctx, "s1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

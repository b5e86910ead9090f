package notification_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"league/internal/adapters/storage/notification"
	"league/internal/adapters/storage/storagetest"
	domain "league/internal/domain/notification"
)

func TestSQLStore_Inbox(t *testing.T) {
	db := storagetest.Open(t)
	storagetest.SeedAssociation(t, db, "a1", "north")
	storagetest.SeedMember(t, db, "m1", "a1", "m1@example.com")
	storagetest.SeedMember(t, db, "m2", "a1", "m2@example.com")
	store := notification.NewSQLStore(db)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	batch := []domain.Notification{
		{ID: "n1", AssociationID: "a1", RecipientID: "m1", Kind: domain.KindAnnouncement, Subject: "Old", CreatedAt: now},
		{ID: "n2", AssociationID: "a1", RecipientID: "m1", Kind: domain.KindReservation, Subject: "New", CreatedAt: now.Add(time.Hour)},
		{ID: "n3", AssociationID: "a1", RecipientID: "m2", Kind: domain.KindAnnouncement, Subject: "Other", CreatedAt: now},
	}
	if err := store.SaveAll(ctx, batch); err != nil {
		t.Fatalf("save all: %v", err)
	}

	inbox, err := store.ListByRecipient(ctx, "m1", false, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(inbox) != 2 || inbox[0].ID != "n2" {
		t.Fatalf("inbox = %+v, want n2 first", inbox)
	}

	n := inbox[1]
	if err := n.MarkRead("m1", now.Add(2*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, n); err != nil {
		t.Fatalf("save read: %v", err)
	}

	unread, err := store.ListByRecipient(ctx, "m1", true, 10)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != "n2" {
		t.Errorf("unread = %+v", unread)
	}
	count, err := store.CountUnread(ctx, "m1")
	if err != nil || count != 1 {
		t.Errorf("count unread = %d, %v", count, err)
	}

	got, err := store.GetByID(ctx, "n1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsRead() {
		t.Error("expected n1 read")
	}
	if _, err := store.GetByID(ctx, "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected not found, got %v", err)
	}
}

package announcement_test

import (
	"testing"
	"time"

	"league/internal/domain/announcement"
)

func draft() announcement.Announcement {
	return announcement.Announcement{
		ID: "an-1", AssociationID: "a1", Status: announcement.StatusDraft,
		Title: "Season opening", Content: "Join us on **Saturday**.", CreatedBy: "acct-1",
	}
}

// TestAnnouncement_Validate tests validation of Announcement.
func TestAnnouncement_Validate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		modify  func(a *announcement.Announcement)
		wantErr error
	}{
		{"valid draft", func(a *announcement.Announcement) {}, nil},
		{"valid club scoped", func(a *announcement.Announcement) { a.ClubID = "c1" }, nil},
		{"missing tenant", func(a *announcement.Announcement) { a.AssociationID = "" }, announcement.ErrMissingTenant},
		{"empty title", func(a *announcement.Announcement) { a.Title = "" }, announcement.ErrEmptyTitle},
		{"empty content", func(a *announcement.Announcement) { a.Content = "" }, announcement.ErrEmptyContent},
		{"invalid status", func(a *announcement.Announcement) { a.Status = "bogus" }, announcement.ErrInvalidStatus},
		{"inverted window", func(a *announcement.Announcement) {
			a.VisibleFrom = now
			a.VisibleUntil = now.Add(-time.Hour)
		}, announcement.ErrInvalidWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := draft()
			tt.modify(&a)
			if err := a.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestAnnouncement_Publish tests the draft to published transition.
func TestAnnouncement_Publish(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := draft()
	if err := a.Publish("", now); err != announcement.ErrMissingPublisher {
		t.Fatalf("expected ErrMissingPublisher, got %v", err)
	}
	if err := a.Publish("acct-2", now); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !a.IsPublished() || a.PublishedBy != "acct-2" || !a.PublishedAt.Equal(now) {
		t.Fatalf("unexpected state after publish: %+v", a)
	}
	if err := a.Publish("acct-2", now); err != announcement.ErrAlreadyPublished {
		t.Fatalf("expected ErrAlreadyPublished, got %v", err)
	}
}

// TestAnnouncement_IsVisible tests the scheduled visibility window.
func TestAnnouncement_IsVisible(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := draft()
	if a.IsVisible(now) {
		t.Fatal("draft must not be visible")
	}
	_ = a.Publish("acct-1", now)
	if !a.IsVisible(now) {
		t.Fatal("published without window must be visible")
	}
	a.VisibleFrom = now.Add(time.Hour)
	if a.IsVisible(now) {
		t.Fatal("must not be visible before VisibleFrom")
	}
	a.VisibleFrom = time.Time{}
	a.VisibleUntil = now
	if a.IsVisible(now) {
		t.Fatal("must not be visible at VisibleUntil")
	}
}

// TestAnnouncement_PinUnpin tests pinning.
func TestAnnouncement_PinUnpin(t *testing.T) {
	now := time.Now()
	a := draft()
	if err := a.Unpin(); err != announcement.ErrNotPinned {
		t.Fatalf("expected ErrNotPinned, got %v", err)
	}
	if err := a.Pin(now); err != nil {
		t.Fatalf("pin: %v", err)
	}
	if err := a.Pin(now); err != announcement.ErrAlreadyPinned {
		t.Fatalf("expected ErrAlreadyPinned, got %v", err)
	}
	if err := a.Unpin(); err != nil || a.Pinned || !a.PinnedAt.IsZero() {
		t.Fatalf("unpin: err=%v pinned=%v", err, a.Pinned)
	}
}

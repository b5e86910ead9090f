package event

import (
	"strings"
	"testing"
	"time"
)

func validEvent() Event {
	start := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	return Event{
		ID:            "e1",
		AssociationID: "a1",
		Title:         "Spring regatta",
		Type:          TypeTournament,
		Visibility:    VisibilityPublic,
		StartAt:       start,
		EndAt:         start.Add(6 * time.Hour),
	}
}

// TestEvent_Validate tests event invariants.
func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(e *Event)
		wantErr error
	}{
		{"valid", func(e *Event) {}, nil},
		{"missing tenant", func(e *Event) { e.AssociationID = "" }, ErrMissingTenant},
		{"empty title", func(e *Event) { e.Title = "" }, ErrEmptyTitle},
		{"long title", func(e *Event) { e.Title = strings.Repeat("t", MaxTitleLength+1) }, ErrTitleTooLong},
		{"bad type", func(e *Event) { e.Type = "party" }, ErrInvalidType},
		{"bad visibility", func(e *Event) { e.Visibility = "secret" }, ErrInvalidVisibility},
		{"missing start", func(e *Event) { e.StartAt = time.Time{} }, ErrMissingStart},
		{"end equals start", func(e *Event) { e.EndAt = e.StartAt }, ErrInvalidWindow},
		{"end before start", func(e *Event) { e.EndAt = e.StartAt.Add(-time.Hour) }, ErrInvalidWindow},
		{"long description", func(e *Event) { e.Description = strings.Repeat("d", MaxDescriptionLength+1) }, ErrDescriptionLong},
		{"long location", func(e *Event) { e.Location = strings.Repeat("l", MaxLocationLength+1) }, ErrLocationLong},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := validEvent()
			tc.modify(&e)
			if err := e.Validate(); err != tc.wantErr {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

// TestEvent_Overlaps tests half-open window intersection.
func TestEvent_Overlaps(t *testing.T) {
	e := validEvent()
	tests := []struct {
		name     string
		from, to time.Time
		want     bool
	}{
		{"contains", e.StartAt.Add(-time.Hour), e.EndAt.Add(time.Hour), true},
		{"inside", e.StartAt.Add(time.Hour), e.StartAt.Add(2 * time.Hour), true},
		{"ends at start", e.StartAt.Add(-time.Hour), e.StartAt, false},
		{"starts at end", e.EndAt, e.EndAt.Add(time.Hour), false},
		{"open ended before", e.StartAt.Add(-24 * time.Hour), time.Time{}, true},
		{"open ended after", e.EndAt, time.Time{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.Overlaps(tc.from, tc.to); got != tc.want {
				t.Errorf("Overlaps() = %v, want %v", got, tc.want)
			}
		})
	}
}

// TestEvent_IsMultiDay tests calendar-day spanning.
func TestEvent_IsMultiDay(t *testing.T) {
	e := validEvent()
	if e.IsMultiDay() {
		t.Error("same-day event reported as multi-day")
	}
	e.EndAt = time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)
	if e.IsMultiDay() {
		t.Error("event ending at midnight should stay single-day")
	}
	e.EndAt = time.Date(2026, 5, 3, 12, 0, 0, 0, time.UTC)
	if !e.IsMultiDay() {
		t.Error("expected multi-day")
	}
}

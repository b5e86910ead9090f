package audit

import (
	"testing"
	"time"
)

// TestNewEvent_Builders tests the builder chain.
func TestNewEvent_Builders(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	e := NewEvent("a1", "acct-1", "admin@example.com", "admin", CategoryReservation, ActionApprove, now).
		WithResource("reservation", "r1").
		WithDescription("approved 3 boats").
		WithSeverity(SeverityWarning).
		WithRequest("10.0.0.1", "curl/8").
		WithMetadata(`{"lines":1}`)

	if e.ID == "" {
		t.Fatal("expected generated ID")
	}
	if e.AssociationID != "a1" || !e.Timestamp.Equal(now) || e.Action != ActionApprove {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.ResourceType != "reservation" || e.ResourceID != "r1" || e.Severity != SeverityWarning {
		t.Fatalf("builders not applied: %+v", e)
	}
	if e.IPAddress != "10.0.0.1" || e.Metadata != `{"lines":1}` {
		t.Fatalf("request fields not applied: %+v", e)
	}

	other := NewEvent("a1", "acct-1", "", "", CategorySystem, ActionExpire, now)
	if other.ID == e.ID {
		t.Fatal("IDs must be unique")
	}
}

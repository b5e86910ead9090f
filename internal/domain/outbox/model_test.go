package outbox

import (
	"errors"
	"testing"
	"time"
)

func newEntry() Entry {
	return Entry{
		ID:         "o1",
		ActionType: ActionTypeEmail,
		Payload:    `{"to":"jana@example.com"}`,
		Status:     StatusPending,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// TestEntry_Validate tests required fields and the default retry limit.
func TestEntry_Validate(t *testing.T) {
	e := newEntry()
	if err := e.Validate(); err != nil {
		t.Fatalf("valid entry: %v", err)
	}
	if e.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", e.MaxAttempts, DefaultMaxAttempts)
	}

	e = newEntry()
	e.ActionType = ""
	if err := e.Validate(); err != ErrEmptyActionType {
		t.Errorf("got %v, want ErrEmptyActionType", err)
	}
	e = newEntry()
	e.Payload = ""
	if err := e.Validate(); err != ErrEmptyPayload {
		t.Errorf("got %v, want ErrEmptyPayload", err)
	}
}

// TestEntry_RetryLifecycle tests backoff scheduling until the entry fails for good.
func TestEntry_RetryLifecycle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e := newEntry()
	e.MaxAttempts = 3

	if !e.IsDue(now) {
		t.Fatal("new entry should be due")
	}
	e.MarkAttempt(now)
	e.MarkFailed(errors.New("timeout"), now, time.Minute, time.Hour)
	if e.Status != StatusRetrying || !e.NextAttemptAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("after first failure: status=%s next=%v", e.Status, e.NextAttemptAt)
	}
	if e.IsDue(now.Add(30 * time.Second)) {
		t.Fatal("entry should not be due before backoff elapses")
	}

	e.MarkAttempt(now)
	e.MarkFailed(errors.New("timeout"), now, time.Minute, time.Hour)
	if !e.NextAttemptAt.Equal(now.Add(2 * time.Minute)) {
		t.Fatalf("second backoff = %v", e.NextAttemptAt.Sub(now))
	}

	e.MarkAttempt(now)
	e.MarkFailed(errors.New("timeout"), now, time.Minute, time.Hour)
	if e.Status != StatusFailed || !e.IsTerminal() || e.CanRetry() {
		t.Fatalf("expected terminal failure, got %+v", e)
	}

	if err := e.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !e.IsDue(now) || e.Attempts != 0 {
		t.Fatalf("reset entry not due: %+v", e)
	}
}

// TestEntry_NextRetryDelay tests the backoff cap.
func TestEntry_NextRetryDelay(t *testing.T) {
	e := Entry{Attempts: 10}
	if got := e.NextRetryDelay(time.Minute, 30*time.Minute); got != 30*time.Minute {
		t.Errorf("delay = %v, want cap", got)
	}
	e.Attempts = 0
	if got := e.NextRetryDelay(time.Minute, 30*time.Minute); got != time.Minute {
		t.Errorf("delay = %v, want base", got)
	}
}

// TestEntry_MarkSuccessAbandon tests terminal transitions.
func TestEntry_MarkSuccessAbandon(t *testing.T) {
	e := newEntry()
	e.MarkSuccess("msg-1")
	if !e.IsTerminal() || e.ExternalID != "msg-1" {
		t.Fatalf("unexpected: %+v", e)
	}
	if err := e.MarkAbandoned(); err != ErrInvalidStatus {
		t.Fatalf("abandon done entry: got %v", err)
	}
	if err := e.Reset(); err != ErrInvalidStatus {
		t.Fatalf("reset done entry: got %v", err)
	}
}

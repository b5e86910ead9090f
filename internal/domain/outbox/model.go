package outbox

import (
	"errors"
	"time"
)

// Status constants for outbox entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Action type constants for external integrations.
const (
	ActionTypeEmail = "email"
)

// DefaultMaxAttempts is applied when an entry is created without a limit.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrEmptyActionType = errors.New("action type is required")
	ErrEmptyPayload    = errors.New("payload is required")
	ErrInvalidStatus   = errors.New("invalid status transition")
	ErrMaxRetries      = errors.New("max retry attempts reached")
)

// Entry is one queued call to an external system, written in the same unit of
// work as the business change that caused it and delivered later by a worker.
type Entry struct {
	ID              string
	AssociationID   string
	ActionType      string
	Payload         string // JSON payload for replay
	Status          string
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	NextAttemptAt   time.Time // zero = due immediately
	CreatedAt       time.Time
	ExternalID      string // provider message ID on success
	ErrorMessage    string // last error message if failed
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise; MaxAttempts defaults to DefaultMaxAttempts
func (e *Entry) Validate() error {
	if e.ActionType == "" {
		return ErrEmptyActionType
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// CanRetry returns true if the entry can be retried.
// PRE: Status and Attempts fields are set
// POST: Returns true for pending/retrying/failed with attempts < max
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying || e.Status == StatusFailed) &&
		e.Attempts < e.MaxAttempts
}

// IsDue returns true if the entry may be attempted at now.
func (e *Entry) IsDue(now time.Time) bool {
	return e.CanRetry() && !now.Before(e.NextAttemptAt)
}

// IsTerminal returns true if the entry has reached a terminal state.
// PRE: Status field is set
// POST: Returns true for done, failed (max retries), or abandoned
func (e *Entry) IsTerminal() bool {
	if e.Status == StatusDone || e.Status == StatusAbandoned {
		return true
	}
	return e.Status == StatusFailed && e.Attempts >= e.MaxAttempts
}

// MarkAttempt records a delivery attempt.
// PRE: Entry is in a retryable state
// POST: Attempts incremented, LastAttemptedAt updated, status set to retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry as delivered.
// PRE: External action completed successfully
// POST: Status set to done, ExternalID recorded
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusDone
	e.ExternalID = externalID
	e.ErrorMessage = ""
	e.NextAttemptAt = time.Time{}
}

// MarkFailed records a failed attempt and schedules the next one.
// PRE: MarkAttempt was called for this attempt
// POST: ErrorMessage set; Status is failed once attempts are exhausted,
// otherwise NextAttemptAt = now + backoff
func (e *Entry) MarkFailed(err error, now time.Time, baseDelay, maxDelay time.Duration) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
		e.NextAttemptAt = time.Time{}
		return
	}
	e.NextAttemptAt = now.Add(e.NextRetryDelay(baseDelay, maxDelay))
}

// MarkAbandoned marks the entry as abandoned by an admin.
// PRE: Entry is not done
// POST: Status set to abandoned
func (e *Entry) MarkAbandoned() error {
	if e.Status == StatusDone {
		return ErrInvalidStatus
	}
	e.Status = StatusAbandoned
	return nil
}

// Reset re-queues a failed entry for a fresh round of attempts.
// PRE: Entry is failed or abandoned
// POST: Status pending, Attempts zero, due immediately
func (e *Entry) Reset() error {
	if e.Status != StatusFailed && e.Status != StatusAbandoned {
		return ErrInvalidStatus
	}
	e.Status = StatusPending
	e.Attempts = 0
	e.NextAttemptAt = time.Time{}
	e.ErrorMessage = ""
	return nil
}

// NextRetryDelay calculates the delay before the next retry attempt.
// Uses exponential backoff: 2^(attempts-1) * baseDelay, capped at maxDelay.
// PRE: Attempts is set
// POST: Returns duration for next retry
func (e *Entry) NextRetryDelay(baseDelay time.Duration, maxDelay time.Duration) time.Duration {
	shift := e.Attempts - 1
	if shift < 0 {
		shift = 0
	}
	if shift > 30 {
		return maxDelay
	}
	delay := baseDelay * (1 << shift)
	if delay > maxDelay || delay <= 0 {
		return maxDelay
	}
	return delay
}

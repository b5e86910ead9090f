package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	emailAdapter "league/internal/adapters/email"
	"league/internal/adapters/markdown"
	"league/internal/domain/email"
	domain "league/internal/domain/outbox"
)

// OutboxStoreForProcessor defines the store interface needed by the outbox processor.
type OutboxStoreForProcessor interface {
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	Save(ctx context.Context, e domain.Entry) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Entry, error)
}

// ActionExecutor executes a specific type of external action.
type ActionExecutor interface {
	// Execute runs the external action with the given payload.
	// Returns the provider's ID for the delivered action and any error.
	Execute(ctx context.Context, payload string) (string, error)
}

// DeliveryRecorder counts outbox delivery outcomes.
type DeliveryRecorder interface {
	RecordDelivery(actionType, result string)
}

// ErrTerminalEntry is returned when an admin retries a delivered or abandoned entry.
var ErrTerminalEntry = errors.New("outbox entry is in a terminal state")

// OutboxProcessor delivers queued external actions with exponential backoff.
type OutboxProcessor struct {
	store     OutboxStoreForProcessor
	executors map[string]ActionExecutor
	metrics   DeliveryRecorder
	now       func() time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// OutboxOption configures an OutboxProcessor.
type OutboxOption func(*OutboxProcessor)

// WithBackoff sets the base and maximum retry delay.
func WithBackoff(base, max time.Duration) OutboxOption {
	return func(p *OutboxProcessor) {
		if base > 0 {
			p.baseDelay = base
		}
		if max > 0 {
			p.maxDelay = max
		}
	}
}

// WithBatchSize sets how many due entries one run processes.
func WithBatchSize(n int) OutboxOption {
	return func(p *OutboxProcessor) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithDeliveryMetrics records every attempt's outcome.
func WithDeliveryMetrics(m DeliveryRecorder) OutboxOption {
	return func(p *OutboxProcessor) { p.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) OutboxOption {
	return func(p *OutboxProcessor) { p.now = now }
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store OutboxStoreForProcessor, executors map[string]ActionExecutor, opts ...OutboxOption) *OutboxProcessor {
	p := &OutboxProcessor{
		store:     store,
		executors: executors,
		now:       time.Now,
		baseDelay: 30 * time.Second,
		maxDelay:  time.Hour,
		batchSize: 50,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessStats summarizes one ProcessDue run.
type ProcessStats struct {
	Processed int
	Succeeded int
	Failed    int
}

// ProcessDue attempts every entry whose next attempt is due.
// PRE: Context is valid
// POST: Each due entry is attempted once; failures are rescheduled or marked failed
func (p *OutboxProcessor) ProcessDue(ctx context.Context) (ProcessStats, error) {
	entries, err := p.store.ListDue(ctx, p.now(), p.batchSize)
	if err != nil {
		return ProcessStats{}, fmt.Errorf("list due outbox entries: %w", err)
	}

	var stats ProcessStats
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		stats.Processed++
		ok, err := p.attempt(ctx, entry)
		if err != nil {
			slog.Error("outbox_event", "event", "save_failed", "entry_id", entry.ID, "error", err)
		}
		if ok {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}
	if stats.Processed > 0 {
		slog.Info("outbox_event", "event", "batch_processed", "processed", stats.Processed, "succeeded", stats.Succeeded, "failed", stats.Failed)
	}
	return stats, nil
}

// attempt runs one delivery and saves the outcome. ok reports delivery success.
func (p *OutboxProcessor) attempt(ctx context.Context, entry domain.Entry) (ok bool, err error) {
	now := p.now()
	entry.MarkAttempt(now)

	executor, found := p.executors[entry.ActionType]
	var externalID string
	var execErr error
	if !found {
		execErr = fmt.Errorf("no executor registered for action type: %s", entry.ActionType)
		entry.Attempts = entry.MaxAttempts
	} else {
		externalID, execErr = executor.Execute(ctx, entry.Payload)
	}

	result := "success"
	if execErr != nil {
		entry.MarkFailed(execErr, now, p.baseDelay, p.maxDelay)
		result = "retry"
		if entry.Status == domain.StatusFailed {
			result = "failed"
		}
		slog.Warn("outbox_event", "event", "action_failed", "entry_id", entry.ID, "action_type", entry.ActionType,
			"attempt", entry.Attempts, "status", entry.Status, "error", execErr.Error())
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_event", "event", "action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}
	if p.metrics != nil {
		p.metrics.RecordDelivery(entry.ActionType, result)
	}
	return execErr == nil, p.store.Save(ctx, entry)
}

// ProcessSingle manually processes a single outbox entry (for admin retry).
// A failed entry gets a fresh round of attempts.
// PRE: entryID is non-empty
// POST: Entry is attempted once, status updated
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) (domain.Entry, error) {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.Status == domain.StatusDone || entry.Status == domain.StatusAbandoned {
		return domain.Entry{}, fmt.Errorf("%w: %s", ErrTerminalEntry, entry.Status)
	}
	if entry.Status == domain.StatusFailed {
		if err := entry.Reset(); err != nil {
			return domain.Entry{}, err
		}
	}
	if _, err := p.attempt(ctx, entry); err != nil {
		return domain.Entry{}, err
	}
	return p.store.GetByID(ctx, entryID)
}

// AbandonEntry marks an entry as abandoned by admin.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if err := entry.MarkAbandoned(); err != nil {
		return err
	}
	slog.Info("outbox_event", "event", "entry_abandoned", "entry_id", entry.ID)
	return p.store.Save(ctx, entry)
}

// --- Email Executor ---

// EmailExecutor delivers outbox email payloads through the configured provider.
var _ ActionExecutor = (*EmailExecutor)(nil)

type EmailExecutor struct {
	Sender emailAdapter.Sender
}

// Execute sends an email from the payload.
// PRE: payload is an encoded email.Message
// POST: email accepted by the provider, returns its message ID
// INVARIANT: outbox entry status managed by caller
func (e *EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	msg, err := email.Decode(payload)
	if err != nil {
		return "", err
	}
	body := markdown.RenderOrEscape(msg.Markdown)
	if msg.Link != "" {
		body += fmt.Sprintf(`<p><a href="%s">Open in League</a></p>`, html.EscapeString(msg.Link))
	}
	res, err := e.Sender.Send(ctx, emailAdapter.SendRequest{
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    body,
		Text:    msg.Markdown,
		Tags:    map[string]string{"kind": msg.Kind, "association": msg.AssociationID},
	})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

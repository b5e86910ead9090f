package jobs

import (
	"context"
	"log/slog"

	"league/internal/application/orchestrators"
)

// Job names.
const (
	NameOutboxDrain    = "outbox_drain"
	NameExpireRequests = "expire_requests"
)

// Default schedules.
const (
	DefaultOutboxSchedule = "@every 1m"
	DefaultExpirySchedule = "@every 15m"
)

// OutboxDrainer processes due outbox entries.
type OutboxDrainer interface {
	ProcessDue(ctx context.Context) (orchestrators.ProcessStats, error)
}

// OutboxDrain delivers pending and retrying outbox entries that are due.
func OutboxDrain(schedule string, drainer OutboxDrainer) Job {
	if schedule == "" {
		schedule = DefaultOutboxSchedule
	}
	return Job{
		Name:        NameOutboxDrain,
		Description: "Deliver queued emails with exponential backoff",
		Schedule:    schedule,
		Fn: func(ctx context.Context) error {
			stats, err := drainer.ProcessDue(ctx)
			if stats.Processed > 0 {
				slog.Info("jobs_event", "event", "outbox_drained",
					"processed", stats.Processed, "succeeded", stats.Succeeded, "failed", stats.Failed)
			}
			return err
		},
	}
}

// ExpireRequests marks undecided reservation requests whose window has started as expired.
func ExpireRequests(schedule string, batchSize int, deps orchestrators.ExpireStaleRequestsDeps) Job {
	if schedule == "" {
		schedule = DefaultExpirySchedule
	}
	return Job{
		Name:        NameExpireRequests,
		Description: "Expire pending reservation requests whose window has started",
		Schedule:    schedule,
		Fn: func(ctx context.Context) error {
			_, err := orchestrators.ExecuteExpireStaleRequests(ctx, orchestrators.ExpireStaleRequestsInput{BatchSize: batchSize}, deps)
			return err
		},
	}
}

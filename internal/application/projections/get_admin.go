package projections

import (
	"context"
	"time"

	"league/internal/adapters/storage/audit"
	"league/internal/domain/account"
	domainAudit "league/internal/domain/audit"
	domainOutbox "league/internal/domain/outbox"
)

// Admin list limits.
const (
	DefaultAuditLimit = 100
	MaxAuditLimit     = 500
	failedOutboxLimit = 200
)

// GetAuditLogQuery carries query parameters. Empty strings and zero times do not filter.
type GetAuditLogQuery struct {
	Actor      account.Account
	Category   string
	Action     string
	Severity   string
	ActorID    string
	ResourceID string
	From       time.Time
	To         time.Time
	Limit      int
}

// GetAuditLogDeps holds dependencies for GetAuditLog.
type GetAuditLogDeps struct {
	AuditStore AuditStore
}

// QueryGetAuditLog lists audit events of the caller's association, newest first.
// PRE: Actor is an association admin or platform admin
// POST: Returns at most Limit events
func QueryGetAuditLog(ctx context.Context, query GetAuditLogQuery, deps GetAuditLogDeps) ([]domainAudit.Event, error) {
	actor := query.Actor
	if !actor.IsAdmin() && !actor.PlatformAdmin {
		return nil, account.ErrForbidden
	}
	filter := audit.Filter{AssociationID: actor.AssociationID}
	if query.Category != "" {
		c := domainAudit.Category(query.Category)
		filter.Category = &c
	}
	if query.Action != "" {
		a := domainAudit.Action(query.Action)
		filter.Action = &a
	}
	if query.Severity != "" {
		s := domainAudit.Severity(query.Severity)
		filter.Severity = &s
	}
	if query.ActorID != "" {
		filter.ActorID = &query.ActorID
	}
	if query.ResourceID != "" {
		filter.ResourceID = &query.ResourceID
	}
	if !query.From.IsZero() {
		filter.From = &query.From
	}
	if !query.To.IsZero() {
		filter.To = &query.To
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}
	return deps.AuditStore.List(ctx, filter, limit)
}

// GetFailedOutboxQuery carries query parameters.
type GetFailedOutboxQuery struct {
	Actor account.Account
}

// GetFailedOutboxDeps holds dependencies for GetFailedOutbox.
type GetFailedOutboxDeps struct {
	OutboxStore OutboxStore
}

// QueryGetFailedOutbox lists deliveries that ran out of attempts.
// PRE: Actor is an association admin or platform admin
// POST: Entries are ordered by last attempt, newest first
func QueryGetFailedOutbox(ctx context.Context, query GetFailedOutboxQuery, deps GetFailedOutboxDeps) ([]domainOutbox.Entry, error) {
	if !query.Actor.IsAdmin() && !query.Actor.PlatformAdmin {
		return nil, account.ErrForbidden
	}
	return deps.OutboxStore.ListFailed(ctx, query.Actor.AssociationID, failedOutboxLimit)
}

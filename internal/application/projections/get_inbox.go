package projections

import (
	"context"

	"league/internal/domain/account"
	domainNotification "league/internal/domain/notification"
)

// DefaultInboxLimit caps an inbox page.
const DefaultInboxLimit = 50

// GetInboxQuery carries query parameters.
type GetInboxQuery struct {
	Actor      account.Account
	UnreadOnly bool
	Limit      int
}

// GetInboxResult carries the query result.
type GetInboxResult struct {
	Notifications []domainNotification.Notification
	Unread        int
}

// GetInboxDeps holds dependencies for GetInbox.
type GetInboxDeps struct {
	MemberStore       MemberStore
	NotificationStore NotificationStore
}

// QueryGetInbox lists the caller's notifications, newest first.
// PRE: Actor is linked to a member of the association
// POST: Unread counts every unread notification, not just the returned page
func QueryGetInbox(ctx context.Context, query GetInboxQuery, deps GetInboxDeps) (GetInboxResult, error) {
	m, err := requireMember(ctx, deps.MemberStore, query.Actor)
	if err != nil {
		return GetInboxResult{}, err
	}
	limit := query.Limit
	if limit <= 0 || limit > DefaultInboxLimit {
		limit = DefaultInboxLimit
	}
	list, err := deps.NotificationStore.ListByRecipient(ctx, m.ID, query.UnreadOnly, limit)
	if err != nil {
		return GetInboxResult{}, err
	}
	unread, err := deps.NotificationStore.CountUnread(ctx, m.ID)
	if err != nil {
		return GetInboxResult{}, err
	}
	return GetInboxResult{Notifications: list, Unread: unread}, nil
}

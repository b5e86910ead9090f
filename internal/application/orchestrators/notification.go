package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"league/internal/domain/account"
	"league/internal/domain/notification"
)

// NotificationStoreForOrchestrator defines the store interface needed by MarkRead.
type NotificationStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (notification.Notification, error)
	Save(ctx context.Context, n notification.Notification) error
}

// MarkReadInput carries input for the mark read orchestrator.
type MarkReadInput struct {
	Actor          account.Account
	NotificationID string
}

// MarkReadDeps holds dependencies for MarkRead.
type MarkReadDeps struct {
	Notifications NotificationStoreForOrchestrator
	Members       MemberLookup
	Now           func() time.Time
}

// ExecuteMarkRead marks one of the actor's notifications as read.
// PRE: Actor is linked to the recipient member
// POST: ReadAt set; repeated calls keep the first timestamp and do not write
func ExecuteMarkRead(ctx context.Context, input MarkReadInput, deps MarkReadDeps) (notification.Notification, error) {
	if input.NotificationID == "" {
		return notification.Notification{}, errors.New("notification ID is required")
	}
	n, err := deps.Notifications.GetByID(ctx, input.NotificationID)
	if err != nil {
		return notification.Notification{}, err
	}
	if !input.Actor.InAssociation(n.AssociationID) {
		return notification.Notification{}, account.ErrWrongAssociation
	}
	recipient, err := deps.Members.GetByAccount(ctx, n.AssociationID, input.Actor.ID)
	if err != nil {
		return notification.Notification{}, notification.ErrNotRecipient
	}
	if n.IsRead() {
		if n.RecipientID != recipient.ID {
			return notification.Notification{}, notification.ErrNotRecipient
		}
		return n, nil
	}
	if err := n.MarkRead(recipient.ID, deps.Now()); err != nil {
		return notification.Notification{}, err
	}
	if err := deps.Notifications.Save(ctx, n); err != nil {
		return notification.Notification{}, err
	}
	slog.Debug("notification_event", "event", "notification_read", "notification_id", n.ID)
	return n, nil
}

package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"league/internal/domain/account"
	"league/internal/domain/audit"
	"league/internal/domain/email"
	"league/internal/domain/featureflag"
	"league/internal/domain/member"
	"league/internal/domain/notification"
	"league/internal/domain/outbox"
)

// ErrFeatureDisabled is returned when a feature flag switches an operation off.
var ErrFeatureDisabled = errors.New("feature is disabled for this association")

// TxRunner runs fn in one unit of work. Stores called with the ctx passed to
// fn take part in the transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// runInTx falls back to a direct call when no runner is configured.
func runInTx(ctx context.Context, tx TxRunner, fn func(ctx context.Context) error) error {
	if tx == nil {
		return fn(ctx)
	}
	return tx(ctx, fn)
}

// FlagLookup reads per-association feature flags.
type FlagLookup interface {
	GetByKey(ctx context.Context, associationID, key string) (featureflag.FeatureFlag, error)
}

// requireFeature returns ErrFeatureDisabled unless key is on for the actor's role.
// Flags never saved for the association use their defaults.
// PRE: key is a known flag
// POST: nil when the feature may be used
func requireFeature(ctx context.Context, flags FlagLookup, associationID, key, role string) error {
	on, err := featureEnabled(ctx, flags, associationID, key, role)
	if err != nil {
		return err
	}
	if !on {
		return fmt.Errorf("%w: %s", ErrFeatureDisabled, key)
	}
	return nil
}

func featureEnabled(ctx context.Context, flags FlagLookup, associationID, key, role string) (bool, error) {
	if flags == nil {
		f, _ := featureflag.Default(key)
		return f.EnabledForRole(role), nil
	}
	f, err := flags.GetByKey(ctx, associationID, key)
	if errors.Is(err, sql.ErrNoRows) {
		f = featureflag.Resolve(associationID, key, nil)
	} else if err != nil {
		return false, fmt.Errorf("load feature flag %s: %w", key, err)
	}
	return f.EnabledForRole(role), nil
}

// memberIDForAccount returns the member ID linked to accountID, or "" when the
// account has no member profile in the association.
func memberIDForAccount(ctx context.Context, members MemberLookup, associationID, accountID string) (string, error) {
	m, err := members.GetByAccount(ctx, associationID, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load member for account %s: %w", accountID, err)
	}
	return m.ID, nil
}

// AuditWriter persists audit events.
type AuditWriter interface {
	Save(ctx context.Context, event audit.Event) error
}

// recordAudit stamps an event for actor. A nil writer skips auditing.
func recordAudit(ctx context.Context, w AuditWriter, actor account.Account, associationID string, category audit.Category, action audit.Action, resourceType, resourceID, description string, now time.Time) error {
	if w == nil {
		return nil
	}
	actorID, role := actor.ID, actor.Role
	if actorID == "" {
		actorID, role = audit.SystemActor, audit.SystemActor
	}
	ev := audit.NewEvent(associationID, actorID, actor.Email, role, category, action, now).
		WithResource(resourceType, resourceID).
		WithDescription(description)
	if err := w.Save(ctx, ev); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// NotificationWriter persists inbox entries.
type NotificationWriter interface {
	SaveAll(ctx context.Context, values []notification.Notification) error
}

// OutboxWriter queues calls to external systems.
type OutboxWriter interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// Notice is one in-app notification plus its optional email copy.
type Notice struct {
	Kind      string // notification.Kind*
	EmailKind string // email.Kind*, empty = no email
	Subject   string
	Body      string // markdown
	Link      string // API path of the related resource
}

// Notifier fans a Notice out to members: one inbox entry each, and an
// outbox email each when the association has email notifications on.
type Notifier struct {
	Notifications NotificationWriter
	Outbox        OutboxWriter
	Flags         FlagLookup
	GenerateID    func() string
	Now           func() time.Time
	BaseURL       string
}

// Notify writes the notice for every recipient. Members without an email
// address still get the inbox entry.
// PRE: recipients belong to associationID; called inside the caller's unit of work
// POST: len(recipients) notifications saved; emails queued when enabled
func (n Notifier) Notify(ctx context.Context, associationID string, recipients []member.Member, notice Notice) error {
	if len(recipients) == 0 || n.Notifications == nil {
		return nil
	}
	now := n.Now()

	items := make([]notification.Notification, 0, len(recipients))
	for _, m := range recipients {
		items = append(items, notification.Notification{
			ID:            n.GenerateID(),
			AssociationID: associationID,
			RecipientID:   m.ID,
			Kind:          notice.Kind,
			Subject:       notice.Subject,
			Body:          notice.Body,
			Link:          notice.Link,
			CreatedAt:     now,
		})
	}
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return err
		}
	}
	if err := n.Notifications.SaveAll(ctx, items); err != nil {
		return fmt.Errorf("save notifications: %w", err)
	}

	if notice.EmailKind == "" || n.Outbox == nil {
		return nil
	}
	on, err := featureEnabled(ctx, n.Flags, associationID, featureflag.KeyEmailNotifications, account.RoleMember)
	if err != nil {
		return err
	}
	if !on {
		return nil
	}

	queued := 0
	for _, m := range recipients {
		if m.Email == "" {
			continue
		}
		payload, err := email.Message{
			AssociationID: associationID,
			Kind:          notice.EmailKind,
			To:            []string{m.Email},
			RecipientID:   m.ID,
			Subject:       notice.Subject,
			Markdown:      notice.Body,
			Link:          n.BaseURL + notice.Link,
		}.Encode()
		if err != nil {
			return err
		}
		entry := outbox.Entry{
			ID:            n.GenerateID(),
			AssociationID: associationID,
			ActionType:    outbox.ActionTypeEmail,
			Payload:       payload,
			Status:        outbox.StatusPending,
			CreatedAt:     now,
		}
		if err := entry.Validate(); err != nil {
			return err
		}
		if err := n.Outbox.Save(ctx, entry); err != nil {
			return fmt.Errorf("queue email: %w", err)
		}
		queued++
	}
	slog.Debug("notification_event", "event", "emails_queued", "association_id", associationID, "kind", notice.Kind, "count", queued)
	return nil
}

package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"league/internal/domain/account"
	"league/internal/domain/audit"
	"league/internal/domain/event"
	"league/internal/domain/notification"
)

// EventStoreForOrchestrator defines the store interface needed by event orchestrators.
type EventStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	Save(ctx context.Context, e event.Event) error
	Delete(ctx context.Context, id string) error
}

// --- Create Event ---

// CreateEventInput carries input for the create event orchestrator.
type CreateEventInput struct {
	Actor         account.Account
	ClubID        string
	Title         string
	Type          string
	Description   string
	Location      string
	StartAt       time.Time
	EndAt         time.Time
	Visibility    string // defaults to members
	NotifyMembers bool   // inbox entry for every active audience member
}

// CreateEventDeps holds dependencies for CreateEvent.
type CreateEventDeps struct {
	Events     EventStoreForOrchestrator
	Members    AudienceLister
	Notifier   Notifier
	Audit      AuditWriter
	RunInTx    TxRunner
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteCreateEvent adds an event to the calendar.
// PRE: Actor may manage ClubID; EndAt > StartAt
// POST: Event saved; audience notified when NotifyMembers is set
func ExecuteCreateEvent(ctx context.Context, input CreateEventInput, deps CreateEventDeps) (event.Event, error) {
	actor := input.Actor
	if err := actor.Authorize(actor.AssociationID, input.ClubID); err != nil {
		return event.Event{}, err
	}
	visibility := input.Visibility
	if visibility == "" {
		visibility = event.VisibilityMembers
	}
	e := event.Event{
		ID:            deps.GenerateID(),
		AssociationID: actor.AssociationID,
		ClubID:        input.ClubID,
		Title:         strings.TrimSpace(input.Title),
		Type:          input.Type,
		Description:   input.Description,
		Location:      strings.TrimSpace(input.Location),
		StartAt:       input.StartAt.UTC(),
		EndAt:         input.EndAt.UTC(),
		Visibility:    visibility,
		CreatedBy:     actor.ID,
		CreatedAt:     deps.Now(),
	}
	if err := e.Validate(); err != nil {
		return event.Event{}, err
	}

	recipients := 0
	err := runInTx(ctx, deps.RunInTx, func(ctx context.Context) error {
		if err := deps.Events.Save(ctx, e); err != nil {
			return err
		}
		if err := recordAudit(ctx, deps.Audit, actor, e.AssociationID, audit.CategoryCommunications, audit.ActionCreate, "event", e.ID, e.Title, e.CreatedAt); err != nil {
			return err
		}
		if !input.NotifyMembers || deps.Members == nil {
			return nil
		}
		n, err := notifyAudience(ctx, deps.Members, deps.Notifier, e.AssociationID, e.ClubID, Notice{
			Kind:    notification.KindEvent,
			Subject: "New event: " + e.Title,
			Body:    e.StartAt.Format("Mon 2 Jan 2006 15:04") + " " + e.Location,
			Link:    "/api/events/" + e.ID,
		})
		recipients = n
		return err
	})
	if err != nil {
		return event.Event{}, err
	}

	slog.Info("event_event", "event", "event_created", "event_id", e.ID, "type", e.Type, "recipients", recipients)
	return e, nil
}

// loadEvent fetches an event the actor may manage.
func loadEvent(ctx context.Context, store EventStoreForOrchestrator, actor account.Account, id string) (event.Event, error) {
	if id == "" {
		return event.Event{}, errors.New("event ID is required")
	}
	e, err := store.GetByID(ctx, id)
	if err != nil {
		return event.Event{}, err
	}
	if err := actor.Authorize(e.AssociationID, e.ClubID); err != nil {
		return event.Event{}, err
	}
	return e, nil
}

// --- Update Event ---

// UpdateEventInput carries input for the update event orchestrator.
// Empty strings and zero times keep the current value.
type UpdateEventInput struct {
	Actor       account.Account
	EventID     string
	Title       string
	Type        string
	Description string
	Location    string
	StartAt     time.Time
	EndAt       time.Time
	Visibility  string
}

// UpdateEventDeps holds dependencies for UpdateEvent.
type UpdateEventDeps struct {
	Events EventStoreForOrchestrator
	Audit  AuditWriter
	Now    func() time.Time
}

// ExecuteUpdateEvent changes an event.
// PRE: Actor may manage the event's club
// POST: Event saved; EndAt > StartAt still holds
func ExecuteUpdateEvent(ctx context.Context, input UpdateEventInput, deps UpdateEventDeps) (event.Event, error) {
	e, err := loadEvent(ctx, deps.Events, input.Actor, input.EventID)
	if err != nil {
		return event.Event{}, err
	}
	if v := strings.TrimSpace(input.Title); v != "" {
		e.Title = v
	}
	if input.Type != "" {
		e.Type = input.Type
	}
	if input.Description != "" {
		e.Description = input.Description
	}
	if v := strings.TrimSpace(input.Location); v != "" {
		e.Location = v
	}
	if !input.StartAt.IsZero() {
		e.StartAt = input.StartAt.UTC()
	}
	if !input.EndAt.IsZero() {
		e.EndAt = input.EndAt.UTC()
	}
	if input.Visibility != "" {
		e.Visibility = input.Visibility
	}
	if err := e.Validate(); err != nil {
		return event.Event{}, err
	}
	if err := deps.Events.Save(ctx, e); err != nil {
		return event.Event{}, err
	}
	if err := recordAudit(ctx, deps.Audit, input.Actor, e.AssociationID, audit.CategoryCommunications, audit.ActionUpdate, "event", e.ID, e.Title, deps.Now()); err != nil {
		return event.Event{}, err
	}
	slog.Info("event_event", "event", "event_updated", "event_id", e.ID)
	return e, nil
}

// --- Delete Event ---

// DeleteEventInput carries input for the delete event orchestrator.
type DeleteEventInput struct {
	Actor   account.Account
	EventID string
}

// DeleteEventDeps holds dependencies for DeleteEvent.
type DeleteEventDeps struct {
	Events EventStoreForOrchestrator
	Audit  AuditWriter
	Now    func() time.Time
}

// ExecuteDeleteEvent removes an event from the calendar.
func ExecuteDeleteEvent(ctx context.Context, input DeleteEventInput, deps DeleteEventDeps) error {
	e, err := loadEvent(ctx, deps.Events, input.Actor, input.EventID)
	if err != nil {
		return err
	}
	if err := deps.Events.Delete(ctx, e.ID); err != nil {
		return err
	}
	if err := recordAudit(ctx, deps.Audit, input.Actor, e.AssociationID, audit.CategoryCommunications, audit.ActionDelete, "event", e.ID, e.Title, deps.Now()); err != nil {
		return err
	}
	slog.Info("event_event", "event", "event_deleted", "event_id", e.ID)
	return nil
}

package projections

import (
	"context"
	"errors"
	"time"

	"league/internal/adapters/ics"
	"league/internal/adapters/markdown"
	"league/internal/adapters/storage/event"
	"league/internal/domain/account"
	domainEvent "league/internal/domain/event"
)

// Calendar defaults.
const (
	DefaultEventRange = 90 * 24 * time.Hour
	MaxEventRange     = 400 * 24 * time.Hour
	feedLookBack      = 30 * 24 * time.Hour
	feedLimit         = 500
)

// ErrInvalidRange is returned when the requested calendar range is empty or too large.
var ErrInvalidRange = errors.New("calendar range must end after it starts and span at most 400 days")

// EventView is an event with its description rendered to HTML.
type EventView struct {
	domainEvent.Event
	DescriptionHTML string
}

// GetEventsQuery carries query parameters. A zero To defaults to From plus DefaultEventRange.
type GetEventsQuery struct {
	Actor  account.Account
	ClubID string
	From   time.Time
	To     time.Time
}

// GetEventsResult carries the query result.
type GetEventsResult struct {
	From   time.Time
	To     time.Time
	Events []EventView
}

// GetEventsDeps holds dependencies for GetEvents.
type GetEventsDeps struct {
	EventStore EventStore
}

// QueryGetEvents lists the events whose window overlaps [From, To).
// A ClubID keeps that club's events plus association-wide ones.
// PRE: Actor belongs to the association
// POST: Events are ordered by start time
func QueryGetEvents(ctx context.Context, query GetEventsQuery, deps GetEventsDeps) (GetEventsResult, error) {
	if query.Actor.AssociationID == "" {
		return GetEventsResult{}, account.ErrMissingTenant
	}
	from, to := query.From, query.To
	if to.IsZero() {
		to = from.Add(DefaultEventRange)
	}
	if !to.After(from) || to.Sub(from) > MaxEventRange {
		return GetEventsResult{}, ErrInvalidRange
	}

	events, err := deps.EventStore.ListInRange(ctx, event.RangeFilter{
		AssociationID: query.Actor.AssociationID,
		ClubID:        query.ClubID,
		From:          from,
		To:            to,
	})
	if err != nil {
		return GetEventsResult{}, err
	}

	views := make([]EventView, 0, len(events))
	for _, e := range events {
		views = append(views, EventView{Event: e, DescriptionHTML: markdown.RenderOrEscape(e.Description)})
	}
	return GetEventsResult{From: from, To: to, Events: views}, nil
}

// GetEventQuery carries query parameters.
type GetEventQuery struct {
	Actor   account.Account
	EventID string
}

// QueryGetEvent retrieves one event of the caller's association.
func QueryGetEvent(ctx context.Context, query GetEventQuery, deps GetEventsDeps) (EventView, error) {
	e, err := deps.EventStore.GetByID(ctx, query.EventID)
	if err != nil {
		return EventView{}, err
	}
	if !query.Actor.InAssociation(e.AssociationID) {
		return EventView{}, account.ErrWrongAssociation
	}
	return EventView{Event: e, DescriptionHTML: markdown.RenderOrEscape(e.Description)}, nil
}

// GetEventFeedQuery carries query parameters.
// Actor is nil for anonymous subscribers, who only see public events.
type GetEventFeedQuery struct {
	AssociationSlug string
	Actor           *account.Account
	BaseURL         string
	Now             time.Time
}

// GetEventFeedDeps holds dependencies for GetEventFeed.
type GetEventFeedDeps struct {
	AssociationStore AssociationStore
	EventStore       EventStore
}

// QueryGetEventFeed renders the association calendar as iCalendar text.
// PRE: AssociationSlug names an existing association
// POST: The feed covers events from 30 days ago onwards; members of the association also get members-only events
func QueryGetEventFeed(ctx context.Context, query GetEventFeedQuery, deps GetEventFeedDeps) (string, error) {
	assoc, err := deps.AssociationStore.GetBySlug(ctx, query.AssociationSlug)
	if err != nil {
		return "", err
	}
	publicOnly := query.Actor == nil || !query.Actor.InAssociation(assoc.ID)

	events, err := deps.EventStore.ListInRange(ctx, event.RangeFilter{
		AssociationID: assoc.ID,
		From:          query.Now.Add(-feedLookBack),
		PublicOnly:    publicOnly,
		Limit:         feedLimit,
	})
	if err != nil {
		return "", err
	}
	return ics.Render(ics.Feed{Name: assoc.Name, BaseURL: query.BaseURL, Now: query.Now}, events), nil
}

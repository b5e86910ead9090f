package web

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"league/internal/adapters/http/middleware"
	"league/internal/application/orchestrators"
	"league/internal/application/projections"
	"league/internal/domain/account"
)

type eventRequest struct {
	ClubID        string
	Title         string
	Type          string
	Description   string
	Location      string
	StartAt       time.Time
	EndAt         time.Time
	Visibility    string
	NotifyMembers bool
}

func (s *server) handleEvents(w http.ResponseWriter, r *http.Request, acct account.Account) {
	switch r.Method {
	case http.MethodGet:
		from, to, ok := parseRange(w, r)
		if !ok {
			return
		}
		res, err := projections.QueryGetEvents(r.Context(), projections.GetEventsQuery{
			Actor:  acct,
			ClubID: r.URL.Query().Get("club"),
			From:   from,
			To:     to,
		}, projections.GetEventsDeps{EventStore: s.Stores.Events})
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodPost:
		var req eventRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		e, err := orchestrators.ExecuteCreateEvent(r.Context(), orchestrators.CreateEventInput{
			Actor:         acct,
			ClubID:        req.ClubID,
			Title:         req.Title,
			Type:          req.Type,
			Description:   req.Description,
			Location:      req.Location,
			StartAt:       req.StartAt,
			EndAt:         req.EndAt,
			Visibility:    req.Visibility,
			NotifyMembers: req.NotifyMembers,
		}, orchestrators.CreateEventDeps{
			Events:     s.Stores.Events,
			Members:    s.Stores.Members,
			Notifier:   s.notifier(),
			Audit:      s.Stores.Audit,
			RunInTx:    s.RunInTx,
			GenerateID: s.GenerateID,
			Now:        s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *server) handleEvent(w http.ResponseWriter, r *http.Request, acct account.Account) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		e, err := projections.QueryGetEvent(r.Context(), projections.GetEventQuery{Actor: acct, EventID: id},
			projections.GetEventsDeps{EventStore: s.Stores.Events})
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	case http.MethodPut:
		var req eventRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		e, err := orchestrators.ExecuteUpdateEvent(r.Context(), orchestrators.UpdateEventInput{
			Actor:       acct,
			EventID:     id,
			Title:       req.Title,
			Type:        req.Type,
			Description: req.Description,
			Location:    req.Location,
			StartAt:     req.StartAt,
			EndAt:       req.EndAt,
			Visibility:  req.Visibility,
		}, orchestrators.UpdateEventDeps{
			Events: s.Stores.Events,
			Audit:  s.Stores.Audit,
			Now:    s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	case http.MethodDelete:
		err := orchestrators.ExecuteDeleteEvent(r.Context(), orchestrators.DeleteEventInput{Actor: acct, EventID: id},
			orchestrators.DeleteEventDeps{Events: s.Stores.Events, Audit: s.Stores.Audit, Now: s.Now})
		if err != nil {
			commandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// handleCalendarFeed serves /calendar/{slug}.ics to calendar clients.
// Anonymous callers get public events only.
func (s *server) handleCalendarFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	query := projections.GetEventFeedQuery{
		AssociationSlug: strings.TrimSuffix(r.PathValue("slug"), ".ics"),
		BaseURL:         s.BaseURL,
		Now:             s.Now(),
	}
	if acct, ok := middleware.AccountFromContext(r.Context()); ok {
		query.Actor = &acct
	}
	feed, err := projections.QueryGetEventFeed(r.Context(), query, projections.GetEventFeedDeps{
		AssociationStore: s.Stores.Associations,
		EventStore:       s.Stores.Events,
	})
	if err != nil {
		queryError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Cache-Control", "max-age=300")
	if _, err := w.Write([]byte(feed)); err != nil {
		slog.Debug("calendar_event", "event", "feed_write_failed", "error", err)
	}
}

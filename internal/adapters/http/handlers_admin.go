package web

import (
	"net/http"

	"league/internal/application/orchestrators"
	"league/internal/application/projections"
	"league/internal/domain/account"
)

// handleAdminAudit lists audit events of the caller's association.
// Filters: category, action, severity, actor_id, resource_id, from, to, limit.
func (s *server) handleAdminAudit(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	events, err := projections.QueryGetAuditLog(r.Context(), projections.GetAuditLogQuery{
		Actor:      acct,
		Category:   q.Get("category"),
		Action:     q.Get("action"),
		Severity:   q.Get("severity"),
		ActorID:    q.Get("actor_id"),
		ResourceID: q.Get("resource_id"),
		From:       from,
		To:         to,
		Limit:      intParam(r, "limit", projections.DefaultAuditLimit),
	}, projections.GetAuditLogDeps{AuditStore: s.Stores.Audit})
	if err != nil {
		queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleAdminOutbox lists failed deliveries of the caller's association.
func (s *server) handleAdminOutbox(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	entries, err := projections.QueryGetFailedOutbox(r.Context(), projections.GetFailedOutboxQuery{Actor: acct},
		projections.GetFailedOutboxDeps{OutboxStore: s.Stores.Outbox})
	if err != nil {
		queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleAdminOutboxEntry serves POST /api/admin/outbox/{id}/retry and /abandon.
// PRE: caller is an admin of the entry's association, or a platform admin
func (s *server) handleAdminOutboxEntry(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if s.Outbox == nil {
		writeError(w, http.StatusNotFound, "outbox processing is not configured")
		return
	}
	if !acct.IsAdmin() && !acct.PlatformAdmin {
		commandError(w, account.ErrForbidden)
		return
	}
	ctx := r.Context()
	id := r.PathValue("id")
	entry, err := s.Stores.Outbox.GetByID(ctx, id)
	if err != nil {
		commandError(w, err)
		return
	}
	if !acct.InAssociation(entry.AssociationID) {
		commandError(w, account.ErrWrongAssociation)
		return
	}

	switch r.PathValue("action") {
	case "retry":
		// A failed delivery is not an error here; the returned entry carries it.
		entry, err = s.Outbox.ProcessSingle(ctx, id)
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	case "abandon":
		if err := s.Outbox.AbandonEntry(ctx, id); err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

// handleAdminJobs lists scheduled jobs. Jobs are global, so platform admins only.
func (s *server) handleAdminJobs(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if s.Jobs == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, s.Jobs.List())
}

// handleAdminRunJob runs a job now and waits for it.
func (s *server) handleAdminRunJob(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if s.Jobs == nil {
		writeError(w, http.StatusNotFound, "job scheduler is not configured")
		return
	}
	name := r.PathValue("name")
	if err := s.Jobs.Run(r.Context(), name); err != nil {
		if status := statusFor(err); status != 0 {
			respondError(w, status, err)
			return
		}
		// The job ran and failed; its message is already recorded on the job.
		writeJSON(w, http.StatusOK, map[string]string{"job": name, "status": "failed", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job": name, "status": "succeeded"})
}

// handleAdminFeatures reads or sets the association's feature flags.
func (s *server) handleAdminFeatures(w http.ResponseWriter, r *http.Request, acct account.Account) {
	switch r.Method {
	case http.MethodGet:
		flags, err := projections.QueryGetFeatureFlags(r.Context(), projections.GetFeatureFlagsQuery{Actor: acct},
			projections.GetFeatureFlagsDeps{FlagStore: s.Stores.FeatureFlags})
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, flags)
	case http.MethodPut:
		var req struct {
			Key       string
			Enabled   bool
			StaffOnly bool
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		f, err := orchestrators.ExecuteSetFeatureFlag(r.Context(), orchestrators.SetFeatureFlagInput{
			Actor:     acct,
			Key:       req.Key,
			Enabled:   req.Enabled,
			StaffOnly: req.StaffOnly,
		}, orchestrators.SetFeatureFlagDeps{
			Flags: s.Stores.FeatureFlags,
			Audit: s.Stores.Audit,
			Now:   s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"league/internal/adapters/http/middleware"
	"league/internal/adapters/lock"
	"league/internal/adapters/storage"
	"league/internal/application/jobs"
	"league/internal/application/orchestrators"
	"league/internal/application/projections"
	"league/internal/domain/account"
	"league/internal/domain/announcement"
	"league/internal/domain/association"
	"league/internal/domain/availability"
	"league/internal/domain/club"
	"league/internal/domain/comment"
	"league/internal/domain/equipment"
	"league/internal/domain/member"
	"league/internal/domain/notification"
	"league/internal/domain/reservation"
)

// maxBodyBytes bounds JSON and form bodies. Member imports get importMaxBytes.
const maxBodyBytes = 1 << 20

// authedHandler is a handler that runs for a verified account.
type authedHandler func(w http.ResponseWriter, r *http.Request, acct account.Account)

// authed rejects anonymous requests and passes the account on.
func (s *server) authed(h authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct, ok := middleware.AccountFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		h(w, r, acct)
	})
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("http_event", "event", "encode_failed", "error", err)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeJSON strict-decodes the body and answers 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := strictDecode(w, r, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}

// parseForm reads a CSRF-checked form post and answers 400 itself on failure.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form submission")
		return false
	}
	return true
}

var forbiddenErrors = []error{
	account.ErrForbidden,
	account.ErrWrongAssociation,
	account.ErrMissingTenant,
	equipment.ErrWrongAssociation,
	comment.ErrNotAuthor,
	comment.ErrNotPermitted,
	notification.ErrNotRecipient,
	reservation.ErrNotCancellable,
	projections.ErrNoMemberProfile,
	projections.ErrCommentsDisabled,
	orchestrators.ErrFeatureDisabled,
}

var conflictErrors = []error{
	reservation.ErrInsufficientStock,
	reservation.ErrInvalidTransition,
	reservation.ErrWindowEnded,
	reservation.ErrWindowStarted,
	reservation.ErrNoRemainder,
	equipment.ErrBelowCommitted,
	equipment.ErrAlreadyRetired,
	equipment.ErrNotReservable,
	announcement.ErrAlreadyPublished,
	announcement.ErrAlreadyPinned,
	announcement.ErrNotPinned,
	association.ErrDuplicateSlug,
	club.ErrAlreadyArchived,
	club.ErrNotArchived,
	club.ErrDuplicateSlug,
	member.ErrAlreadyArchived,
	member.ErrNotArchived,
	member.ErrNotActive,
	member.ErrDuplicateEmail,
	comment.ErrAlreadyDeleted,
	orchestrators.ErrTargetNotOpen,
	orchestrators.ErrClubArchived,
	orchestrators.ErrTerminalEntry,
	jobs.ErrAlreadyRunning,
}

// badQueryErrors are the read-side errors caused by the caller's parameters.
var badQueryErrors = []error{
	projections.ErrInvalidRange,
	projections.ErrUsageRangeTooLong,
	reservation.ErrInvalidStatus,
	availability.ErrInvalidWindow,
	comment.ErrInvalidTarget,
	comment.ErrMissingTarget,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// statusFor maps known errors to a status. Zero means unclassified.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrDatabase):
		return http.StatusInternalServerError
	case errors.Is(err, lock.ErrNotAcquired), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, equipment.ErrNotFound), errors.Is(err, jobs.ErrUnknownJob):
		return http.StatusNotFound
	case isAny(err, forbiddenErrors):
		return http.StatusForbidden
	case isAny(err, conflictErrors):
		return http.StatusConflict
	}
	return 0
}

// commandError answers a failed write. Unclassified errors come from
// validation and are returned to the caller as 400.
func commandError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == 0 {
		status = http.StatusBadRequest
	}
	respondError(w, status, err)
}

// queryError answers a failed read. Unclassified errors are internal.
func queryError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == 0 && isAny(err, badQueryErrors) {
		status = http.StatusBadRequest
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}
	respondError(w, status, err)
}

func respondError(w http.ResponseWriter, status int, err error) {
	switch status {
	case http.StatusInternalServerError:
		internalError(w, err)
	case http.StatusNotFound:
		writeError(w, status, "not found")
	case http.StatusServiceUnavailable:
		slog.Warn("http_event", "event", "unavailable", "error", err)
		writeError(w, status, "service busy, try again")
	default:
		writeError(w, status, err.Error())
	}
}

// parseTimeParam accepts RFC 3339 timestamps and plain dates (midnight UTC).
// An absent parameter yields the zero time.
func parseTimeParam(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, errors.New(key + " must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	}
	return t, nil
}

// parseRange reads the from/to query pair.
func parseRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	from, err := parseTimeParam(r, "from")
	if err == nil {
		to, err = parseTimeParam(r, "to")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// intParam returns the query parameter as an int, or fallback when absent or malformed.
func intParam(r *http.Request, key string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return n
}

func boolParam(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

func formBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.FormValue(key))
	return b
}

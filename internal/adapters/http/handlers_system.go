package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/csrf"

	"league/internal/domain/account"
)

const healthTimeout = 2 * time.Second

// handleHealth reports liveness and database reachability.
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	if s.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sessionResponse struct {
	Account   account.Account
	CSRFToken string
}

// handleSession returns the caller's identity and the token browser forms must echo.
func (s *server) handleSession(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Account: acct, CSRFToken: csrf.Token(r)})
}

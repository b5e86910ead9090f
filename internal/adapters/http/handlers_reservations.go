package web

import (
	"net/http"
	"time"

	"league/internal/application/listutil"
	"league/internal/application/orchestrators"
	"league/internal/application/projections"
	"league/internal/domain/account"
)

type windowRequest struct {
	Purpose          string
	StartAt          time.Time
	EndAt            time.Time
	Lines            []orchestrators.LineInput
	ExcludeRequestID string
}

func (s *server) reservationReadDeps() projections.GetReservationListDeps {
	return projections.GetReservationListDeps{
		ReservationStore: s.Stores.Reservations,
		MemberStore:      s.Stores.Members,
	}
}

func (s *server) handleReservations(w http.ResponseWriter, r *http.Request, acct account.Account) {
	switch r.Method {
	case http.MethodGet:
		from, to, ok := parseRange(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		res, err := projections.QueryGetReservationList(r.Context(), projections.GetReservationListQuery{
			Actor:       acct,
			Statuses:    listutil.SplitValues(q, "status"),
			ClubID:      q.Get("club"),
			RequesterID: q.Get("requester"),
			ItemID:      q.Get("item"),
			From:        from,
			To:          to,
			Page:        listutil.ParsePageParams(q),
		}, s.reservationReadDeps())
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodPost:
		var req windowRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		created, err := orchestrators.ExecuteSubmitRequest(r.Context(), orchestrators.SubmitRequestInput{
			Actor:   acct,
			Purpose: req.Purpose,
			StartAt: req.StartAt,
			EndAt:   req.EndAt,
			Lines:   req.Lines,
		}, orchestrators.SubmitRequestDeps{
			Reservations: s.Stores.Reservations,
			Items:        s.Stores.Items,
			Members:      s.Stores.Members,
			Flags:        s.Stores.FeatureFlags,
			Audit:        s.Stores.Audit,
			Metrics:      s.transitions(),
			RunInTx:      s.RunInTx,
			GenerateID:   s.GenerateID,
			Now:          s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// handleCheckAvailability evaluates lines against a window without writing anything.
func (s *server) handleCheckAvailability(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req windowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := orchestrators.ExecuteCheckAvailability(r.Context(), orchestrators.CheckAvailabilityInput{
		Actor:            acct,
		StartAt:          req.StartAt,
		EndAt:            req.EndAt,
		Lines:            req.Lines,
		ExcludeRequestID: req.ExcludeRequestID,
	}, orchestrators.CheckAvailabilityDeps{
		Reservations: s.Stores.Reservations,
		Items:        s.Stores.Items,
		Engine:       s.Engine,
	})
	if err != nil {
		commandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleReservation(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	req, err := projections.QueryGetReservation(r.Context(), projections.GetReservationQuery{
		Actor:     acct,
		RequestID: r.PathValue("id"),
	}, s.reservationReadDeps())
	if err != nil {
		queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type decisionRequest struct {
	Decision       string
	Note           string
	Approved       map[string]int
	SpawnRemainder bool
}

// readDecision accepts JSON or a form post. Forms cannot carry per-item
// quantities, so a partial decision from a form takes the suggested split.
func readDecision(w http.ResponseWriter, r *http.Request) (decisionRequest, bool) {
	if !isForm(r) {
		var req decisionRequest
		return req, decodeJSON(w, r, &req)
	}
	if !parseForm(w, r) {
		return decisionRequest{}, false
	}
	return decisionRequest{
		Decision:       r.FormValue("decision"),
		Note:           r.FormValue("note"),
		SpawnRemainder: formBool(r, "spawn_remainder"),
	}, true
}

// handleDecideReservation approves, partially approves or rejects a pending request.
func (s *server) handleDecideReservation(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	req, ok := readDecision(w, r)
	if !ok {
		return
	}
	res, err := orchestrators.ExecuteDecideRequest(r.Context(), orchestrators.DecideRequestInput{
		Actor:          acct,
		RequestID:      r.PathValue("id"),
		Decision:       req.Decision,
		Note:           req.Note,
		Approved:       req.Approved,
		SpawnRemainder: req.SpawnRemainder,
	}, orchestrators.DecideRequestDeps{
		Reservations: s.Stores.Reservations,
		Items:        s.Stores.Items,
		Members:      s.Stores.Members,
		Flags:        s.Stores.FeatureFlags,
		Audit:        s.Stores.Audit,
		Notifier:     s.notifier(),
		Locker:       s.Locker,
		RunInTx:      s.RunInTx,
		Engine:       s.Engine,
		Metrics:      s.transitions(),
		GenerateID:   s.GenerateID,
		Now:          s.Now,
	})
	if err != nil {
		commandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleCancelReservation(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	res, err := orchestrators.ExecuteCancelRequest(r.Context(), orchestrators.CancelRequestInput{
		Actor:     acct,
		RequestID: r.PathValue("id"),
	}, orchestrators.CancelRequestDeps{
		Reservations: s.Stores.Reservations,
		Members:      s.Stores.Members,
		Audit:        s.Stores.Audit,
		Notifier:     s.notifier(),
		RunInTx:      s.RunInTx,
		Metrics:      s.transitions(),
		Now:          s.Now,
	})
	if err != nil {
		commandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

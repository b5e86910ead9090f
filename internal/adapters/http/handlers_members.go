package web

import (
	"net/http"
	"strings"

	"league/internal/application/listutil"
	"league/internal/application/orchestrators"
	"league/internal/application/projections"
	"league/internal/domain/account"
)

// importMaxBytes bounds a member CSV upload.
const importMaxBytes = 5 << 20

type memberRequest struct {
	ClubID    string
	AccountID string
	Name      string
	Email     string
	Role      string
	MoveClub  bool
}

// readMember accepts JSON or a form post with the same field names in lower case.
func readMember(w http.ResponseWriter, r *http.Request) (memberRequest, bool) {
	if !isForm(r) {
		var req memberRequest
		return req, decodeJSON(w, r, &req)
	}
	if !parseForm(w, r) {
		return memberRequest{}, false
	}
	return memberRequest{
		ClubID:    r.FormValue("club_id"),
		AccountID: r.FormValue("account_id"),
		Name:      r.FormValue("name"),
		Email:     r.FormValue("email"),
		Role:      r.FormValue("role"),
		MoveClub:  formBool(r, "move_club"),
	}, true
}

func (s *server) handleMembers(w http.ResponseWriter, r *http.Request, acct account.Account) {
	switch r.Method {
	case http.MethodGet:
		res, err := projections.QueryGetMemberList(r.Context(), projections.GetMemberListQuery{
			Actor:  acct,
			Params: listutil.ParseListParams(r.URL.Query(), projections.MemberSortColumns, projections.MemberFilterKeys),
		}, projections.GetMemberListDeps{MemberStore: s.Stores.Members})
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodPost:
		req, ok := readMember(w, r)
		if !ok {
			return
		}
		m, err := orchestrators.ExecuteRegisterMember(r.Context(), orchestrators.RegisterMemberInput{
			Actor:     acct,
			ClubID:    req.ClubID,
			AccountID: req.AccountID,
			Name:      req.Name,
			Email:     req.Email,
			Role:      req.Role,
		}, orchestrators.RegisterMemberDeps{
			Members:    s.Stores.Members,
			Clubs:      s.Stores.Clubs,
			Audit:      s.Stores.Audit,
			GenerateID: s.GenerateID,
			Now:        s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// handleImportMembers reads a CSV body. ?dry_run=true validates without writing;
// ?update=true overwrites members matched by email.
func (s *server) handleImportMembers(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	res, err := orchestrators.ExecuteImportMembers(r.Context(), orchestrators.ImportMembersInput{
		Actor:      acct,
		Reader:     http.MaxBytesReader(w, r.Body, importMaxBytes),
		DryRun:     boolParam(r, "dry_run"),
		UpdateMode: boolParam(r, "update"),
	}, orchestrators.ImportMembersDeps{
		Members:    s.Stores.Members,
		Clubs:      s.Stores.Clubs,
		Audit:      s.Stores.Audit,
		GenerateID: s.GenerateID,
		Now:        s.Now,
	})
	if err != nil {
		commandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) profileDeps() projections.GetMemberProfileDeps {
	return projections.GetMemberProfileDeps{
		MemberStore:      s.Stores.Members,
		ClubStore:        s.Stores.Clubs,
		ReservationStore: s.Stores.Reservations,
	}
}

func (s *server) handleMember(w http.ResponseWriter, r *http.Request, acct account.Account) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		profile, err := projections.QueryGetMemberProfile(r.Context(), projections.GetMemberProfileQuery{
			Actor:    acct,
			MemberID: id,
			Now:      s.Now(),
		}, s.profileDeps())
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	case http.MethodPut:
		req, ok := readMember(w, r)
		if !ok {
			return
		}
		m, err := orchestrators.ExecuteUpdateMember(r.Context(), orchestrators.UpdateMemberInput{
			Actor:     acct,
			MemberID:  id,
			Name:      req.Name,
			Email:     req.Email,
			Role:      req.Role,
			AccountID: req.AccountID,
			MoveClub:  req.MoveClub,
			ClubID:    req.ClubID,
		}, orchestrators.UpdateMemberDeps{
			Members: s.Stores.Members,
			Clubs:   s.Stores.Clubs,
			Audit:   s.Stores.Audit,
			Now:     s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

// handleMemberStatus serves both /archive and /restore.
func (s *server) handleMemberStatus(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	input := orchestrators.ArchiveMemberInput{Actor: acct, MemberID: r.PathValue("id")}
	deps := orchestrators.ArchiveMemberDeps{Members: s.Stores.Members, Audit: s.Stores.Audit, Now: s.Now}
	execute := orchestrators.ExecuteArchiveMember
	if strings.HasSuffix(r.URL.Path, "/restore") {
		execute = orchestrators.ExecuteRestoreMember
	}
	if err := execute(r.Context(), input, deps); err != nil {
		commandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the profile linked to the caller's account.
func (s *server) handleMe(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	profile, err := projections.QueryGetMemberProfile(r.Context(), projections.GetMemberProfileQuery{
		Actor: acct,
		Now:   s.Now(),
	}, s.profileDeps())
	if err != nil {
		queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

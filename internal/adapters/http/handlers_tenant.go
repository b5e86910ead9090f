package web

import (
	"net/http"
	"strings"

	"league/internal/application/listutil"
	"league/internal/application/orchestrators"
	"league/internal/application/projections"
	"league/internal/domain/account"
)

// handleAssociations lists or registers tenants. Platform admins only.
func (s *server) handleAssociations(w http.ResponseWriter, r *http.Request, acct account.Account) {
	switch r.Method {
	case http.MethodGet:
		if !acct.PlatformAdmin {
			commandError(w, account.ErrForbidden)
			return
		}
		list, err := s.Stores.Associations.List(r.Context())
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req struct {
			Name         string
			Slug         string
			ContactEmail string
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := orchestrators.ExecuteCreateAssociation(r.Context(), orchestrators.CreateAssociationInput{
			Actor:        acct,
			Name:         req.Name,
			Slug:         req.Slug,
			ContactEmail: req.ContactEmail,
		}, orchestrators.CreateAssociationDeps{
			Associations: s.Stores.Associations,
			Audit:        s.Stores.Audit,
			GenerateID:   s.GenerateID,
			Now:          s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// handleAssociation reads or edits the caller's association.
// Platform admins pick the tenant with ?id=.
func (s *server) handleAssociation(w http.ResponseWriter, r *http.Request, acct account.Account) {
	id := r.URL.Query().Get("id")
	switch r.Method {
	case http.MethodGet:
		a, err := projections.QueryGetAssociation(r.Context(), projections.GetAssociationQuery{
			Actor:         acct,
			AssociationID: id,
		}, projections.GetAssociationDeps{AssociationStore: s.Stores.Associations})
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case http.MethodPut:
		var req struct {
			Name         string
			ContactEmail string
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if id == "" {
			id = acct.AssociationID
		}
		a, err := orchestrators.ExecuteUpdateAssociation(r.Context(), orchestrators.UpdateAssociationInput{
			Actor:         acct,
			AssociationID: id,
			Name:          req.Name,
			ContactEmail:  req.ContactEmail,
		}, orchestrators.UpdateAssociationDeps{
			Associations: s.Stores.Associations,
			Audit:        s.Stores.Audit,
			Now:          s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

type clubRequest struct {
	Name         string
	Slug         string
	City         string
	ContactEmail string
}

func (s *server) handleClubs(w http.ResponseWriter, r *http.Request, acct account.Account) {
	switch r.Method {
	case http.MethodGet:
		res, err := projections.QueryGetClubList(r.Context(), projections.GetClubListQuery{
			Actor:  acct,
			Params: listutil.ParseListParams(r.URL.Query(), projections.ClubSortColumns, projections.ClubFilterKeys),
		}, projections.GetClubListDeps{ClubStore: s.Stores.Clubs})
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodPost:
		var req clubRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := orchestrators.ExecuteCreateClub(r.Context(), orchestrators.CreateClubInput{
			Actor:        acct,
			Name:         req.Name,
			Slug:         req.Slug,
			City:         req.City,
			ContactEmail: req.ContactEmail,
		}, orchestrators.CreateClubDeps{
			Clubs:      s.Stores.Clubs,
			Audit:      s.Stores.Audit,
			GenerateID: s.GenerateID,
			Now:        s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *server) handleClub(w http.ResponseWriter, r *http.Request, acct account.Account) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		c, err := projections.QueryGetClub(r.Context(), projections.GetClubQuery{Actor: acct, ClubID: id},
			projections.GetClubDeps{ClubStore: s.Stores.Clubs})
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case http.MethodPut:
		var req clubRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := orchestrators.ExecuteUpdateClub(r.Context(), orchestrators.UpdateClubInput{
			Actor:        acct,
			ClubID:       id,
			Name:         req.Name,
			City:         req.City,
			ContactEmail: req.ContactEmail,
		}, orchestrators.UpdateClubDeps{
			Clubs: s.Stores.Clubs,
			Audit: s.Stores.Audit,
			Now:   s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

// handleClubStatus serves both /archive and /restore.
func (s *server) handleClubStatus(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	input := orchestrators.ArchiveClubInput{Actor: acct, ClubID: r.PathValue("id")}
	deps := orchestrators.ArchiveClubDeps{Clubs: s.Stores.Clubs, Audit: s.Stores.Audit, Now: s.Now}
	execute := orchestrators.ExecuteArchiveClub
	if strings.HasSuffix(r.URL.Path, "/restore") {
		execute = orchestrators.ExecuteRestoreClub
	}
	c, err := execute(r.Context(), input, deps)
	if err != nil {
		commandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

package web

import (
	"net/http"
	"time"

	"league/internal/application/orchestrators"
	"league/internal/application/projections"
	"league/internal/domain/account"
)

type sponsorRequest struct {
	ClubID        string
	Name          string
	Tier          string
	WebsiteURL    string
	LogoKey       string
	ContractStart time.Time
	ContractEnd   time.Time
}

func (req sponsorRequest) fields() orchestrators.SponsorInput {
	return orchestrators.SponsorInput{
		Name:          req.Name,
		Tier:          req.Tier,
		WebsiteURL:    req.WebsiteURL,
		LogoKey:       req.LogoKey,
		ContractStart: req.ContractStart,
		ContractEnd:   req.ContractEnd,
	}
}

func (s *server) saveSponsorDeps() orchestrators.SaveSponsorDeps {
	return orchestrators.SaveSponsorDeps{
		Sponsors:   s.Stores.Sponsors,
		Flags:      s.Stores.FeatureFlags,
		Audit:      s.Stores.Audit,
		GenerateID: s.GenerateID,
		Now:        s.Now,
	}
}

// handleSponsors lists the directory (?active=true drops expired contracts) or adds a sponsor.
func (s *server) handleSponsors(w http.ResponseWriter, r *http.Request, acct account.Account) {
	switch r.Method {
	case http.MethodGet:
		list, err := projections.QueryGetSponsors(r.Context(), projections.GetSponsorsQuery{
			Actor:      acct,
			ClubID:     r.URL.Query().Get("club"),
			ActiveOnly: boolParam(r, "active"),
			Now:        s.Now(),
		}, projections.GetSponsorsDeps{SponsorStore: s.Stores.Sponsors, FlagStore: s.Stores.FeatureFlags})
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req sponsorRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		sp, err := orchestrators.ExecuteSaveSponsor(r.Context(), orchestrators.SaveSponsorInput{
			Actor:  acct,
			ClubID: req.ClubID,
			Fields: req.fields(),
		}, s.saveSponsorDeps())
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sp)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *server) handleSponsor(w http.ResponseWriter, r *http.Request, acct account.Account) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodPut:
		var req sponsorRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		sp, err := orchestrators.ExecuteSaveSponsor(r.Context(), orchestrators.SaveSponsorInput{
			Actor:     acct,
			SponsorID: id,
			Fields:    req.fields(),
		}, s.saveSponsorDeps())
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sp)
	case http.MethodDelete:
		err := orchestrators.ExecuteDeleteSponsor(r.Context(), orchestrators.DeleteSponsorInput{Actor: acct, SponsorID: id},
			orchestrators.DeleteSponsorDeps{
				Sponsors: s.Stores.Sponsors,
				Flags:    s.Stores.FeatureFlags,
				Audit:    s.Stores.Audit,
				Now:      s.Now,
			})
		if err != nil {
			commandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}

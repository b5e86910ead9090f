package web

import (
	"net/http"

	"league/internal/application/orchestrators"
	"league/internal/application/projections"
	"league/internal/domain/account"
	"league/internal/domain/availability"
)

const defaultItemLimit = 200

type itemRequest struct {
	ClubID        string
	Name          string
	Category      string
	Description   string
	TotalQuantity int
}

// handleItems lists the catalogue. With ?from=&to= every row carries the units free in that window.
func (s *server) handleItems(w http.ResponseWriter, r *http.Request, acct account.Account) {
	switch r.Method {
	case http.MethodGet:
		from, to, ok := parseRange(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		rows, err := projections.QueryGetItemList(r.Context(), projections.GetItemListQuery{
			Actor:    acct,
			ClubID:   q.Get("club"),
			Category: q.Get("category"),
			Status:   q.Get("status"),
			Search:   q.Get("q"),
			Window:   availability.Window{Start: from, End: to},
			Limit:    intParam(r, "limit", defaultItemLimit),
			Offset:   intParam(r, "offset", 0),
		}, projections.GetItemListDeps{
			ItemStore:    s.Stores.Items,
			BookingStore: s.Stores.Reservations,
			Engine:       s.Engine,
		})
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	case http.MethodPost:
		var req itemRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		item, err := orchestrators.ExecuteCreateItem(r.Context(), orchestrators.CreateItemInput{
			Actor:         acct,
			ClubID:        req.ClubID,
			Name:          req.Name,
			Category:      req.Category,
			Description:   req.Description,
			TotalQuantity: req.TotalQuantity,
		}, orchestrators.CreateItemDeps{
			Items:      s.Stores.Items,
			Clubs:      s.Stores.Clubs,
			Audit:      s.Stores.Audit,
			GenerateID: s.GenerateID,
			Now:        s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *server) handleItem(w http.ResponseWriter, r *http.Request, acct account.Account) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		item, err := s.Stores.Items.GetByID(r.Context(), id)
		if err != nil {
			queryError(w, err)
			return
		}
		if !acct.InAssociation(item.AssociationID) {
			queryError(w, account.ErrWrongAssociation)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodPut:
		var req itemRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		item, err := orchestrators.ExecuteUpdateItem(r.Context(), orchestrators.UpdateItemInput{
			Actor:         acct,
			ItemID:        id,
			Name:          req.Name,
			Category:      req.Category,
			Description:   req.Description,
			TotalQuantity: req.TotalQuantity,
		}, orchestrators.UpdateItemDeps{
			Items:    s.Stores.Items,
			Bookings: s.Stores.Reservations,
			Locker:   s.Locker,
			RunInTx:  s.RunInTx,
			Audit:    s.Stores.Audit,
			Now:      s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

func (s *server) handleRetireItem(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	item, err := orchestrators.ExecuteRetireItem(r.Context(), orchestrators.RetireItemInput{
		Actor:  acct,
		ItemID: r.PathValue("id"),
	}, orchestrators.RetireItemDeps{Items: s.Stores.Items, Audit: s.Stores.Audit, Now: s.Now})
	if err != nil {
		commandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleItemUsage returns the committed-quantity timeline of one item over ?from=&to=.
func (s *server) handleItemUsage(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}
	res, err := projections.QueryGetItemUsage(r.Context(), projections.GetItemUsageQuery{
		Actor:  acct,
		ItemID: r.PathValue("id"),
		Window: availability.Window{Start: from, End: to},
	}, projections.GetItemUsageDeps{
		ItemStore:    s.Stores.Items,
		BookingStore: s.Stores.Reservations,
		Engine:       s.Engine,
	})
	if err != nil {
		queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

package projections

import (
	"context"
	"errors"
	"fmt"

	"league/internal/adapters/storage/equipment"
	"league/internal/domain/account"
	"league/internal/domain/availability"
	domainEquipment "league/internal/domain/equipment"
)

// MaxUsageRange bounds the usage timeline window.
const MaxUsageRange = MaxEventRange

// ErrUsageRangeTooLong is returned when the usage window exceeds MaxUsageRange.
var ErrUsageRangeTooLong = errors.New("usage window can span at most 400 days")

// ItemRow is an item with its free units in the queried window.
type ItemRow struct {
	domainEquipment.Item
	Available *int // nil when no window was given
}

// GetItemListQuery carries query parameters. A zero Window lists stock only.
type GetItemListQuery struct {
	Actor    account.Account
	ClubID   string
	Category string
	Status   string
	Search   string
	Window   availability.Window
	Limit    int
	Offset   int
}

// GetItemListDeps holds dependencies for GetItemList.
type GetItemListDeps struct {
	ItemStore    ItemStore
	BookingStore BookingStore
	Engine       availability.Engine
}

// QueryGetItemList lists the association's equipment.
// When a window is set every row carries the units still free in it.
// PRE: Actor belongs to the association
// POST: Rows are ordered by category then name
func QueryGetItemList(ctx context.Context, query GetItemListQuery, deps GetItemListDeps) ([]ItemRow, error) {
	if query.Actor.AssociationID == "" {
		return nil, account.ErrMissingTenant
	}
	items, err := deps.ItemStore.List(ctx, equipment.ListFilter{
		AssociationID: query.Actor.AssociationID,
		ClubID:        query.ClubID,
		Category:      query.Category,
		Status:        query.Status,
		Search:        query.Search,
		Limit:         query.Limit,
		Offset:        query.Offset,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]ItemRow, len(items))
	for i, it := range items {
		rows[i] = ItemRow{Item: it}
	}
	if query.Window.Start.IsZero() || len(items) == 0 {
		return rows, nil
	}
	if err := query.Window.Validate(); err != nil {
		return nil, err
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	bookings, err := deps.BookingStore.CommittedBookings(ctx, ids, query.Window)
	if err != nil {
		return nil, fmt.Errorf("load committed bookings: %w", err)
	}
	for i := range rows {
		free := 0
		if rows[i].IsActive() {
			free = deps.Engine.Evaluate(rows[i].TotalQuantity, bookings[rows[i].ID], query.Window, "").Available
		}
		rows[i].Available = &free
	}
	return rows, nil
}

// GetItemUsageQuery carries query parameters.
type GetItemUsageQuery struct {
	Actor  account.Account
	ItemID string
	Window availability.Window
}

// GetItemUsageResult carries the query result.
type GetItemUsageResult struct {
	Item      domainEquipment.Item
	Window    availability.Window
	Timeline  []availability.Segment
	Peak      int
	Available int
	Bookings  []availability.Booking
}

// GetItemUsageDeps holds dependencies for GetItemUsage.
type GetItemUsageDeps struct {
	ItemStore    ItemStore
	BookingStore BookingStore
	Engine       availability.Engine
}

// QueryGetItemUsage projects the committed quantity of one item over a window.
// PRE: Window is valid and at most MaxUsageRange long
// POST: Timeline covers the whole window; Peak is the highest committed level in it
func QueryGetItemUsage(ctx context.Context, query GetItemUsageQuery, deps GetItemUsageDeps) (GetItemUsageResult, error) {
	w := query.Window
	if err := w.Validate(); err != nil {
		return GetItemUsageResult{}, err
	}
	if w.End.Sub(w.Start) > MaxUsageRange {
		return GetItemUsageResult{}, ErrUsageRangeTooLong
	}
	item, err := deps.ItemStore.GetByID(ctx, query.ItemID)
	if err != nil {
		return GetItemUsageResult{}, err
	}
	if !query.Actor.InAssociation(item.AssociationID) {
		return GetItemUsageResult{}, account.ErrWrongAssociation
	}

	all, err := deps.BookingStore.CommittedBookings(ctx, []string{item.ID}, w)
	if err != nil {
		return GetItemUsageResult{}, fmt.Errorf("load committed bookings: %w", err)
	}
	bookings := all[item.ID]
	result := deps.Engine.Evaluate(item.TotalQuantity, bookings, w, "")
	if !item.IsActive() {
		result.Available = 0
	}
	return GetItemUsageResult{
		Item:      item,
		Window:    w,
		Timeline:  availability.Timeline(bookings, w),
		Peak:      availability.PeakUsage(bookings, w),
		Available: result.Available,
		Bookings:  result.Conflicts,
	}, nil
}

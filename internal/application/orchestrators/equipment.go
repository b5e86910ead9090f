package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"league/internal/adapters/lock"
	"league/internal/domain/account"
	"league/internal/domain/audit"
	"league/internal/domain/availability"
	"league/internal/domain/equipment"
)

// ItemStoreForOrchestrator defines the store interface needed by equipment orchestrators.
type ItemStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (equipment.Item, error)
	Save(ctx context.Context, i equipment.Item) error
}

// BookingLookup reads committed bookings.
type BookingLookup interface {
	CommittedBookings(ctx context.Context, itemIDs []string, w availability.Window) (map[string][]availability.Booking, error)
}

// --- Create Item ---

// CreateItemInput carries input for the create item orchestrator.
type CreateItemInput struct {
	Actor         account.Account
	ClubID        string // owning club, empty for association-owned stock
	Name          string
	Category      string
	Description   string
	TotalQuantity int
}

// CreateItemDeps holds dependencies for CreateItem.
type CreateItemDeps struct {
	Items      ItemStoreForOrchestrator
	Clubs      ClubLookup
	Audit      AuditWriter
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteCreateItem adds an equipment pool.
// PRE: Actor may manage ClubID; TotalQuantity >= 1
// POST: Item saved as active
func ExecuteCreateItem(ctx context.Context, input CreateItemInput, deps CreateItemDeps) (equipment.Item, error) {
	actor := input.Actor
	if err := actor.Authorize(actor.AssociationID, input.ClubID); err != nil {
		return equipment.Item{}, err
	}
	if deps.Clubs != nil {
		if err := checkClub(ctx, deps.Clubs, actor.AssociationID, input.ClubID); err != nil {
			return equipment.Item{}, err
		}
	}
	item := equipment.Item{
		ID:            deps.GenerateID(),
		AssociationID: actor.AssociationID,
		ClubID:        input.ClubID,
		Name:          strings.TrimSpace(input.Name),
		Category:      strings.TrimSpace(input.Category),
		Description:   input.Description,
		TotalQuantity: input.TotalQuantity,
		Status:        equipment.StatusActive,
		CreatedAt:     deps.Now(),
	}
	if err := item.Validate(); err != nil {
		return equipment.Item{}, err
	}
	if err := deps.Items.Save(ctx, item); err != nil {
		return equipment.Item{}, err
	}
	if err := recordAudit(ctx, deps.Audit, actor, item.AssociationID, audit.CategoryEquipment, audit.ActionCreate, "equipment", item.ID,
		fmt.Sprintf("%s x%d", item.Name, item.TotalQuantity), item.CreatedAt); err != nil {
		return equipment.Item{}, err
	}
	slog.Info("equipment_event", "event", "item_created", "item_id", item.ID, "quantity", item.TotalQuantity)
	return item, nil
}

func loadItem(ctx context.Context, store ItemStoreForOrchestrator, actor account.Account, id string) (equipment.Item, error) {
	if id == "" {
		return equipment.Item{}, errors.New("item ID is required")
	}
	item, err := store.GetByID(ctx, id)
	if err != nil {
		return equipment.Item{}, err
	}
	if err := actor.Authorize(item.AssociationID, item.ClubID); err != nil {
		return equipment.Item{}, err
	}
	return item, nil
}

// --- Update Item ---

// UpdateItemInput carries input for the update item orchestrator.
// Empty strings keep the current value; TotalQuantity 0 keeps the current stock.
type UpdateItemInput struct {
	Actor         account.Account
	ItemID        string
	Name          string
	Category      string
	Description   string
	TotalQuantity int
}

// UpdateItemDeps holds dependencies for UpdateItem.
type UpdateItemDeps struct {
	Items    ItemStoreForOrchestrator
	Bookings BookingLookup
	Locker   lock.Locker
	RunInTx  TxRunner
	Audit    AuditWriter
	Now      func() time.Time
}

// ExecuteUpdateItem changes an item. A stock change holds the association's
// approval lock so no approval can commit units between the check and the write.
// PRE: Actor may manage the item's club
// POST: Item saved; TotalQuantity >= peak committed usage of every booking that
// has not ended yet
func ExecuteUpdateItem(ctx context.Context, input UpdateItemInput, deps UpdateItemDeps) (equipment.Item, error) {
	item, err := loadItem(ctx, deps.Items, input.Actor, input.ItemID)
	if err != nil {
		return equipment.Item{}, err
	}
	stockChange := input.TotalQuantity != 0 && input.TotalQuantity != item.TotalQuantity
	if stockChange && input.TotalQuantity < item.TotalQuantity && deps.Locker != nil {
		ctxLock, cancel := context.WithTimeout(ctx, 15*time.Second)
		release, err := deps.Locker.Acquire(ctxLock, lock.ApprovalKey(item.AssociationID))
		cancel()
		if err != nil {
			return equipment.Item{}, fmt.Errorf("acquire approval lock: %w", err)
		}
		defer release()
	}

	var out equipment.Item
	err = runInTx(ctx, deps.RunInTx, func(ctx context.Context) error {
		item, err := deps.Items.GetByID(ctx, input.ItemID)
		if err != nil {
			return err
		}
		now := deps.Now()
		if v := strings.TrimSpace(input.Name); v != "" {
			item.Name = v
		}
		if v := strings.TrimSpace(input.Category); v != "" {
			item.Category = v
		}
		if input.Description != "" {
			item.Description = input.Description
		}
		if stockChange {
			if input.TotalQuantity < item.TotalQuantity {
				peak, err := futurePeak(ctx, deps.Bookings, item.ID, now)
				if err != nil {
					return err
				}
				if err := equipment.CheckStockChange(input.TotalQuantity, peak); err != nil {
					return fmt.Errorf("%w: %d unit(s) committed", err, peak)
				}
			}
			item.TotalQuantity = input.TotalQuantity
		}
		if err := item.Validate(); err != nil {
			return err
		}
		if err := deps.Items.Save(ctx, item); err != nil {
			return err
		}
		out = item
		return recordAudit(ctx, deps.Audit, input.Actor, item.AssociationID, audit.CategoryEquipment, audit.ActionUpdate, "equipment", item.ID,
			fmt.Sprintf("%s x%d", item.Name, item.TotalQuantity), now)
	})
	if err != nil {
		return equipment.Item{}, err
	}
	slog.Info("equipment_event", "event", "item_updated", "item_id", out.ID, "quantity", out.TotalQuantity)
	return out, nil
}

// futurePeak returns the peak committed usage of itemID from now on.
func futurePeak(ctx context.Context, store BookingLookup, itemID string, now time.Time) (int, error) {
	bookings, err := store.CommittedBookings(ctx, []string{itemID}, availability.Window{Start: now})
	if err != nil {
		return 0, fmt.Errorf("load committed bookings: %w", err)
	}
	list := bookings[itemID]
	end := now
	for _, b := range list {
		if b.Window.End.After(end) {
			end = b.Window.End
		}
	}
	if !end.After(now) {
		return 0, nil
	}
	return availability.PeakUsage(list, availability.Window{Start: now, End: end}), nil
}

// --- Retire Item ---

// RetireItemInput carries input for the retire item orchestrator.
type RetireItemInput struct {
	Actor  account.Account
	ItemID string
}

// RetireItemDeps holds dependencies for RetireItem.
type RetireItemDeps struct {
	Items ItemStoreForOrchestrator
	Audit AuditWriter
	Now   func() time.Time
}

// ExecuteRetireItem takes an item out of circulation. Reservations already
// decided keep their units; pending ones can no longer be approved.
// PRE: item is active
// POST: Status retired
func ExecuteRetireItem(ctx context.Context, input RetireItemInput, deps RetireItemDeps) (equipment.Item, error) {
	item, err := loadItem(ctx, deps.Items, input.Actor, input.ItemID)
	if err != nil {
		return equipment.Item{}, err
	}
	if err := item.Retire(); err != nil {
		return equipment.Item{}, err
	}
	if err := deps.Items.Save(ctx, item); err != nil {
		return equipment.Item{}, err
	}
	if err := recordAudit(ctx, deps.Audit, input.Actor, item.AssociationID, audit.CategoryEquipment, audit.ActionArchive, "equipment", item.ID, item.Name, deps.Now()); err != nil {
		return equipment.Item{}, err
	}
	slog.Info("equipment_event", "event", "item_retired", "item_id", item.ID)
	return item, nil
}

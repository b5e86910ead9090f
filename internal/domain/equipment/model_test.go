package equipment_test

import (
	"errors"
	"testing"

	"league/internal/domain/equipment"
)

func boat() equipment.Item {
	return equipment.Item{
		ID:            "i1",
		AssociationID: "a1",
		Name:          "Single scull",
		Category:      "boats",
		TotalQuantity: 4,
		Status:        equipment.StatusActive,
	}
}

// TestItemValidation tests validation of Item.
func TestItemValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(i *equipment.Item)
		wantErr error
	}{
		{"valid", func(i *equipment.Item) {}, nil},
		{"missing tenant", func(i *equipment.Item) { i.AssociationID = "" }, equipment.ErrMissingTenant},
		{"empty name", func(i *equipment.Item) { i.Name = "  " }, equipment.ErrEmptyName},
		{"zero stock active", func(i *equipment.Item) { i.TotalQuantity = 0 }, equipment.ErrInvalidQuantity},
		{"zero stock retired", func(i *equipment.Item) { i.TotalQuantity = 0; i.Status = equipment.StatusRetired }, nil},
		{"negative stock retired", func(i *equipment.Item) { i.TotalQuantity = -1; i.Status = equipment.StatusRetired }, equipment.ErrNegativeQuantity},
		{"bad status", func(i *equipment.Item) { i.Status = "lost" }, equipment.ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := boat()
			tt.modify(&i)
			if err := i.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestItemReservable tests tenant and status checks before booking.
func TestItemReservable(t *testing.T) {
	i := boat()
	if err := i.CheckReservable("a1"); err != nil {
		t.Fatalf("expected reservable, got %v", err)
	}
	if err := i.CheckReservable("a2"); err != equipment.ErrWrongAssociation {
		t.Fatalf("expected ErrWrongAssociation, got %v", err)
	}
	if err := i.Retire(); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if err := i.Retire(); err != equipment.ErrAlreadyRetired {
		t.Fatalf("expected ErrAlreadyRetired, got %v", err)
	}
	if err := i.CheckReservable("a1"); err != equipment.ErrNotReservable {
		t.Fatalf("expected ErrNotReservable, got %v", err)
	}
}

// TestCheckStockChange tests the committed-usage floor.
func TestCheckStockChange(t *testing.T) {
	if err := equipment.CheckStockChange(3, 3); err != nil {
		t.Errorf("equal to peak should pass, got %v", err)
	}
	if err := equipment.CheckStockChange(2, 3); err != equipment.ErrBelowCommitted {
		t.Errorf("expected ErrBelowCommitted, got %v", err)
	}
}

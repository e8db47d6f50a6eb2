package troopstock

import (
	"testing"
	"time"
)

func TestCategoryValid(t *testing.T) {
	for _, c := range []Category{CategoryTent, CategoryCooking, CategoryFood, CategoryCampingTools, CategoryGames} {
		if !c.Valid() {
			t.Errorf("expected %q to be valid", c)
		}
	}
	for _, c := range []Category{"", "tents", "FOOD", "misc"} {
		if c.Valid() {
			t.Errorf("expected %q to be invalid", c)
		}
	}
}

func TestSpaceOrDefault(t *testing.T) {
	item := &InventoryItem{Space: SpaceScoutPostLoft}
	if item.SpaceOrDefault() != SpaceScoutPostLoft {
		t.Errorf("expected scout-post-loft, got %s", item.SpaceOrDefault())
	}

	legacy := &InventoryItem{}
	if legacy.SpaceOrDefault() != SpaceCampStore {
		t.Errorf("expected default space camp-store, got %s", legacy.SpaceOrDefault())
	}
}

func TestItemIsLowStock(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		threshold int
		want      bool
	}{
		{"above threshold", 10, 5, false},
		{"at threshold", 5, 5, true},
		{"below threshold", 3, 5, true},
		{"zero threshold zero stock", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &InventoryItem{Quantity: tt.quantity, MinThreshold: tt.threshold}
			if got := item.IsLowStock(); got != tt.want {
				t.Errorf("IsLowStock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestItemNeedsRepair(t *testing.T) {
	worn := &InventoryItem{Category: CategoryTent, Gear: &GearDetails{Condition: ConditionNeedsRepair}}
	if !worn.NeedsRepair() {
		t.Error("expected needs-repair gear to report NeedsRepair")
	}

	good := &InventoryItem{Category: CategoryTent, Gear: &GearDetails{Condition: "good"}}
	if good.NeedsRepair() {
		t.Error("good condition gear should not need repair")
	}

	noGear := &InventoryItem{Category: CategoryGames}
	if noGear.NeedsRepair() {
		t.Error("item without gear payload should not need repair")
	}
}

func TestItemValidate(t *testing.T) {
	expiry := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		item    InventoryItem
		wantErr bool
	}{
		{
			name: "valid gear item",
			item: InventoryItem{Name: "Patrol tent", Category: CategoryTent, Space: SpaceCampStore, Quantity: 4},
		},
		{
			name: "valid food item",
			item: InventoryItem{Name: "Pasta", Category: CategoryFood, Quantity: 20, Food: &FoodDetails{ExpiryDate: expiry}},
		},
		{
			name:    "missing name",
			item:    InventoryItem{Category: CategoryTent},
			wantErr: true,
		},
		{
			name:    "unknown category",
			item:    InventoryItem{Name: "Mystery box", Category: "misc"},
			wantErr: true,
		},
		{
			name:    "unknown space",
			item:    InventoryItem{Name: "Patrol tent", Category: CategoryTent, Space: "garage"},
			wantErr: true,
		},
		{
			name:    "negative quantity",
			item:    InventoryItem{Name: "Patrol tent", Category: CategoryTent, Quantity: -1},
			wantErr: true,
		},
		{
			name:    "negative threshold",
			item:    InventoryItem{Name: "Patrol tent", Category: CategoryTent, MinThreshold: -1},
			wantErr: true,
		},
		{
			name:    "food without expiry date",
			item:    InventoryItem{Name: "Pasta", Category: CategoryFood, Food: &FoodDetails{}},
			wantErr: true,
		},
		{
			name:    "food without payload",
			item:    InventoryItem{Name: "Pasta", Category: CategoryFood},
			wantErr: true,
		},
		{
			name:    "gear item with food payload",
			item:    InventoryItem{Name: "Patrol tent", Category: CategoryTent, Food: &FoodDetails{ExpiryDate: expiry}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if tt.wantErr && err != nil && !IsValidation(err) {
				t.Errorf("expected ErrInvalidData, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestItemClone(t *testing.T) {
	original := &InventoryItem{
		ID:       "item-1",
		Name:     "Pasta",
		Category: CategoryFood,
		Quantity: 20,
		Food: &FoodDetails{
			ExpiryDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			Allergens:  []string{"gluten"},
		},
	}

	copied := original.clone()
	copied.Quantity = 15
	copied.Food.Nutrition = "carbs"

	if original.Quantity != 20 {
		t.Errorf("clone mutation leaked into original quantity: %d", original.Quantity)
	}
	if original.Food.Nutrition != "" {
		t.Errorf("clone mutation leaked into original food payload: %q", original.Food.Nutrition)
	}
}

func TestItemUpdateApply(t *testing.T) {
	original := &InventoryItem{
		ID:           "item-1",
		Name:         "Patrol tent",
		Category:     CategoryTent,
		Space:        SpaceCampStore,
		Quantity:     4,
		MinThreshold: 1,
		Gear:         &GearDetails{Condition: "good", Capacity: 6},
	}

	t.Run("partial update leaves other fields", func(t *testing.T) {
		qty := 3
		notes := "one pole bent"
		next := ItemUpdate{Quantity: &qty, Notes: &notes}.apply(original)

		if next.Quantity != 3 || next.Notes != "one pole bent" {
			t.Errorf("update not applied: quantity=%d notes=%q", next.Quantity, next.Notes)
		}
		if next.Name != "Patrol tent" || next.Category != CategoryTent {
			t.Error("unrelated fields changed")
		}
		if original.Quantity != 4 || original.Notes != "" {
			t.Error("apply mutated the original item")
		}
	})

	t.Run("gear payload replaced wholesale", func(t *testing.T) {
		next := ItemUpdate{Gear: &GearDetails{Condition: ConditionNeedsRepair}}.apply(original)
		if next.Gear.Condition != ConditionNeedsRepair {
			t.Errorf("expected needs-repair, got %q", next.Gear.Condition)
		}
		if next.Gear.Capacity != 0 {
			t.Errorf("expected capacity reset by payload replacement, got %d", next.Gear.Capacity)
		}
		if original.Gear.Condition != "good" {
			t.Error("apply mutated the original gear payload")
		}
	})

	t.Run("empty update is a no-op copy", func(t *testing.T) {
		next := ItemUpdate{}.apply(original)
		if next == original {
			t.Error("apply should return a copy")
		}
		if next.Name != original.Name || next.Quantity != original.Quantity {
			t.Error("empty update changed fields")
		}
	})
}

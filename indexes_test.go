package troopstock

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestIndexEntriesForGearItem(t *testing.T) {
	item := &InventoryItem{ID: "item-1", Category: CategoryTent, Space: SpaceScoutPostLoft}

	keys := indexEntries(item)
	if len(keys) != 2 {
		t.Fatalf("expected 2 entries for gear item, got %d: %v", len(keys), keys)
	}
	if keys[0] != "inventory/idx/category/tent/item-1" {
		t.Errorf("unexpected category entry: %s", keys[0])
	}
	if keys[1] != "inventory/idx/space/scout-post-loft/item-1" {
		t.Errorf("unexpected space entry: %s", keys[1])
	}
}

func TestIndexEntriesForFoodItem(t *testing.T) {
	item := &InventoryItem{
		ID:       "item-2",
		Category: CategoryFood,
		Food:     &FoodDetails{ExpiryDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)},
	}

	keys := indexEntries(item)
	if len(keys) != 3 {
		t.Fatalf("expected 3 entries for food item, got %d: %v", len(keys), keys)
	}
	if keys[2] != "inventory/idx/expiry/2026-10-01/item-2" {
		t.Errorf("unexpected expiry entry: %s", keys[2])
	}
}

func TestIndexEntriesDefaultSpace(t *testing.T) {
	item := &InventoryItem{ID: "item-3", Category: CategoryGames}
	keys := indexEntries(item)
	if keys[1] != "inventory/idx/space/camp-store/item-3" {
		t.Errorf("item without space must index under the default space, got %s", keys[1])
	}
}

func TestReplaceItemIndexes(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	oldItem := &InventoryItem{ID: "item-1", Category: CategoryTent, Space: SpaceCampStore}

	err := store.WithTransaction(ctx, func(tx *OptimisticTransaction) error {
		addItemToIndexes(tx, oldItem)
		return nil
	})
	if err != nil {
		t.Fatalf("seeding indexes failed: %v", err)
	}

	// Move the item to the other space; the category entry is unchanged.
	newItem := oldItem.clone()
	newItem.Space = SpaceScoutPostLoft

	err = store.WithTransaction(ctx, func(tx *OptimisticTransaction) error {
		replaceItemIndexes(tx, oldItem, newItem)
		return nil
	})
	if err != nil {
		t.Fatalf("replacing indexes failed: %v", err)
	}

	keys, err := store.List(ctx, indexKeyPrefix)
	if err != nil {
		t.Fatalf("listing indexes failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 entries after move, got %d: %v", len(keys), keys)
	}
	for _, key := range keys {
		if strings.Contains(key, "camp-store") {
			t.Errorf("stale space entry survived the move: %s", key)
		}
	}
}

func TestRemoveItemFromIndexes(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	item := &InventoryItem{
		ID:       "item-1",
		Category: CategoryFood,
		Food:     &FoodDetails{ExpiryDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)},
	}

	err := store.WithTransaction(ctx, func(tx *OptimisticTransaction) error {
		addItemToIndexes(tx, item)
		return nil
	})
	if err != nil {
		t.Fatalf("seeding indexes failed: %v", err)
	}

	err = store.WithTransaction(ctx, func(tx *OptimisticTransaction) error {
		removeItemFromIndexes(tx, item)
		return nil
	})
	if err != nil {
		t.Fatalf("removing indexes failed: %v", err)
	}

	keys, err := store.List(ctx, indexKeyPrefix)
	if err != nil {
		t.Fatalf("listing indexes failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected empty index namespace, got %v", keys)
	}
}

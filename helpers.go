package troopstock

import (
	"context"
	"fmt"
	"time"
)

// Package-level helper functions for convenience

// Now returns the current time in UTC (for consistency across the codebase)
func Now() time.Time {
	return time.Now().UTC()
}

// BatchGet retrieves multiple objects by keys with type safety.
// Missing keys are skipped; any other error aborts the batch.
//
// Example:
//
//	items, err := troopstock.BatchGet[storedItem](ctx, store, keys)
func BatchGet[T any](ctx context.Context, store *Store, keys []string) ([]*T, error) {
	if len(keys) == 0 {
		return []*T{}, nil
	}

	results := make([]*T, 0, len(keys))

	for _, key := range keys {
		var item T
		if err := store.GetJSON(ctx, key, &item); err != nil {
			if IsNotFound(err) {
				continue // Skip missing items
			}
			return nil, fmt.Errorf("failed to get %s: %w", key, err)
		}
		results = append(results, &item)
	}

	return results, nil
}

// KeyBuilder helps construct consistent storage keys.
// Eliminates error-prone fmt.Sprintf calls scattered throughout code.
//
// Example:
//
//	kb := KeyBuilder{Prefix: "inventory/items", Suffix: ".json"}
//	key := kb.Key(itemID) // Returns "inventory/items/<id>.json"
type KeyBuilder struct {
	// Prefix is the namespace prefix (e.g., "inventory/items")
	Prefix string

	// Suffix is the file extension (e.g., ".json")
	// Optional - defaults to empty string
	Suffix string
}

// Key constructs a storage key from an ID.
func (kb KeyBuilder) Key(id string) string {
	if kb.Suffix != "" {
		return fmt.Sprintf("%s/%s%s", kb.Prefix, id, kb.Suffix)
	}
	return fmt.Sprintf("%s/%s", kb.Prefix, id)
}

// Keys constructs multiple storage keys from IDs.
func (kb KeyBuilder) Keys(ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = kb.Key(id)
	}
	return keys
}

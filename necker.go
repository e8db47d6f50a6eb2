package troopstock

import (
	"context"
)

// Necker scarf counter. A single scalar stored at its own key, independent
// of the item collection: it never appears in the indexes or the stats
// snapshot, and a missing record reads as zero.

type storedNeckerCount struct {
	Count int `json:"count"`
}

// NeckerCount returns the current scarf count, zero when never set
func (r *Repository) NeckerCount(ctx context.Context) (int, error) {
	var stored storedNeckerCount
	if err := r.store.GetJSON(ctx, neckerCountKey, &stored); err != nil {
		if IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return stored.Count, nil
}

// AdjustNeckerCount adds delta to the scarf count, clamping at zero, and
// returns the new value. Concurrent adjustments are applied through a
// compare-and-set loop so none are lost.
func (r *Repository) AdjustNeckerCount(ctx context.Context, delta int) (int, error) {
	var result int
	err := WithAtomicUpdate(ctx, r.store, neckerCountKey, func(stored *storedNeckerCount) error {
		stored.Count += delta
		if stored.Count < 0 {
			stored.Count = 0
		}
		result = stored.Count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return result, nil
}

// SetNeckerCount overwrites the scarf count. Negative values clamp to zero.
func (r *Repository) SetNeckerCount(ctx context.Context, count int) (int, error) {
	if count < 0 {
		count = 0
	}
	if err := r.store.PutJSON(ctx, neckerCountKey, storedNeckerCount{Count: count}); err != nil {
		return 0, err
	}
	return count, nil
}

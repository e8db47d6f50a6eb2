package troopstock

// BucketStats is a per-category or per-space slice of the aggregate snapshot
type BucketStats struct {
	Count    int `json:"count"`
	Quantity int `json:"quantity"`
}

// ComputedStats is the precomputed aggregate snapshot stored at a single key
// and maintained incrementally on every mutation. It must always equal the
// result of folding every stored item (and active loan) through ApplyItem
// from the empty snapshot; RebuildIndexes recomputes it that way.
type ComputedStats struct {
	TotalItems        int                      `json:"totalItems"`
	TotalQuantity     int                      `json:"totalQuantity"`
	CategoryBreakdown map[Category]BucketStats `json:"categoryBreakdown"`
	SpaceBreakdown    map[Space]BucketStats    `json:"spaceBreakdown"`
	LowStockItems     int                      `json:"lowStockItems"`
	NeedsRepairItems  int                      `json:"needsRepairItems"`
	ActiveLoans       int                      `json:"activeLoansCount"`
}

// NewComputedStats returns the empty snapshot
func NewComputedStats() ComputedStats {
	return ComputedStats{
		CategoryBreakdown: make(map[Category]BucketStats),
		SpaceBreakdown:    make(map[Space]BucketStats),
	}
}

// clone copies the snapshot so delta application never mutates shared state
func (s ComputedStats) clone() ComputedStats {
	next := s
	next.CategoryBreakdown = make(map[Category]BucketStats, len(s.CategoryBreakdown))
	for k, v := range s.CategoryBreakdown {
		next.CategoryBreakdown[k] = v
	}
	next.SpaceBreakdown = make(map[Space]BucketStats, len(s.SpaceBreakdown))
	for k, v := range s.SpaceBreakdown {
		next.SpaceBreakdown[k] = v
	}
	return next
}

// ApplyItem returns a new snapshot with the item's contribution added
// (sign = +1) or removed (sign = -1). The function is pure: an update is
// modeled as ApplyItem(ApplyItem(stats, old, -1), new, +1), which keeps the
// old and new contributions from drifting on partial-field updates.
func (s ComputedStats) ApplyItem(item *InventoryItem, sign int) ComputedStats {
	next := s.clone()

	next.TotalItems += sign
	next.TotalQuantity += sign * item.Quantity

	category := item.Category
	bucket := next.CategoryBreakdown[category]
	bucket.Count += sign
	bucket.Quantity += sign * item.Quantity
	if bucket == (BucketStats{}) {
		delete(next.CategoryBreakdown, category)
	} else {
		next.CategoryBreakdown[category] = bucket
	}

	space := item.SpaceOrDefault()
	bucket = next.SpaceBreakdown[space]
	bucket.Count += sign
	bucket.Quantity += sign * item.Quantity
	if bucket == (BucketStats{}) {
		delete(next.SpaceBreakdown, space)
	} else {
		next.SpaceBreakdown[space] = bucket
	}

	if item.IsLowStock() {
		next.LowStockItems += sign
	}
	if item.NeedsRepair() {
		next.NeedsRepairItems += sign
	}

	return next
}

// ApplyLoanDelta returns a new snapshot with the active-loan count adjusted.
// The clamp at zero is a safety net; under correct use the count never goes
// negative.
func (s ComputedStats) ApplyLoanDelta(delta int) ComputedStats {
	next := s.clone()
	next.ActiveLoans += delta
	if next.ActiveLoans < 0 {
		next.ActiveLoans = 0
	}
	return next
}

package troopstock

import (
	"context"
	"strings"
	"time"
)

// Repository is the data-layer façade. All inventory reads and writes go
// through it: it owns the serialization boundary, keeps the secondary
// indexes and the stats snapshot in step with every mutation, and serves
// collection reads through short-lived caches.
//
// Concurrency model is last-writer-wins on the primary records; the
// transaction layer exists to keep each logical mutation (record + indexes
// + stats) atomic, not to serialize writers.
type Repository struct {
	store   *Store
	logger  Logger
	metrics Metrics

	items     *listCache[*InventoryItem]
	checkouts *listCache[*CheckOut]

	// now is swappable in tests
	now func() time.Time
}

// NewRepository creates a repository with no-op observability
func NewRepository(store *Store) *Repository {
	return NewRepositoryWithObservability(store, &NoOpLogger{}, &NoOpMetrics{})
}

// NewRepositoryWithObservability creates a repository with a custom logger
// and metrics collector.
func NewRepositoryWithObservability(store *Store, logger Logger, metrics Metrics) *Repository {
	return &Repository{
		store:     store,
		logger:    logger,
		metrics:   metrics,
		items:     newListCache[*InventoryItem]("items", DefaultCacheTTL),
		checkouts: newListCache[*CheckOut]("checkouts", DefaultCacheTTL),
		now:       Now,
	}
}

// Store exposes the underlying store for auxiliary records (camp plans,
// meal templates) that live outside the inventory namespace.
func (r *Repository) Store() *Store {
	return r.store
}

// Ping checks backend health
func (r *Repository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Close releases the underlying backend
func (r *Repository) Close() error {
	return r.store.Close()
}

func (r *Repository) invalidateItems() {
	r.items.Invalidate()
	r.metrics.Increment(MetricCacheInvalidated)
}

func (r *Repository) invalidateCheckOuts() {
	r.checkouts.Invalidate()
	r.metrics.Increment(MetricCacheInvalidated)
}

// statsSnapshot loads the current snapshot, treating a missing key as the
// empty snapshot so a fresh store works without seeding.
func (r *Repository) statsSnapshot(ctx context.Context) (ComputedStats, error) {
	var stats ComputedStats
	if err := r.store.GetJSON(ctx, statsKey, &stats); err != nil {
		if IsNotFound(err) {
			return NewComputedStats(), nil
		}
		return ComputedStats{}, err
	}
	// Normalize maps so ApplyItem never writes into a nil map
	if stats.CategoryBreakdown == nil {
		stats.CategoryBreakdown = make(map[Category]BucketStats)
	}
	if stats.SpaceBreakdown == nil {
		stats.SpaceBreakdown = make(map[Space]BucketStats)
	}
	return stats, nil
}

// fetchAllItems scans the item namespace and decodes every record.
// A record that fails to decode aborts the scan; RebuildIndexes is the tool
// for flushing out corrupt records.
func (r *Repository) fetchAllItems(ctx context.Context) ([]*InventoryItem, error) {
	items := make([]*InventoryItem, 0)
	err := r.store.ListPaginated(ctx, itemKeyPrefix, func(keys []string) error {
		for _, key := range keys {
			var stored storedItem
			if err := r.store.GetJSON(ctx, key, &stored); err != nil {
				if IsNotFound(err) {
					continue // deleted between list and get
				}
				return err
			}
			item, err := decodeItem(&stored)
			if err != nil {
				return WithContext(err, map[string]interface{}{"key": key})
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AllItems returns every inventory item, served from the collection cache.
// Ordering follows the backend's key order (item id order).
func (r *Repository) AllItems(ctx context.Context) ([]*InventoryItem, error) {
	return r.items.Get(ctx, r.fetchAllItems)
}

// ItemByID returns a single item, or ErrNotFound
func (r *Repository) ItemByID(ctx context.Context, id string) (*InventoryItem, error) {
	var stored storedItem
	if err := r.store.GetJSON(ctx, itemKey(id), &stored); err != nil {
		return nil, err
	}
	return decodeItem(&stored)
}

// ItemsByCategory returns all items in the given category
func (r *Repository) ItemsByCategory(ctx context.Context, category Category) ([]*InventoryItem, error) {
	items, err := r.AllItems(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]*InventoryItem, 0)
	for _, item := range items {
		if item.Category == category {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// ItemsBySpace returns all items stored in the given space. Items with no
// recorded space count toward the default space.
func (r *Repository) ItemsBySpace(ctx context.Context, space Space) ([]*InventoryItem, error) {
	items, err := r.AllItems(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]*InventoryItem, 0)
	for _, item := range items {
		if item.SpaceOrDefault() == space {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// FoodItemsByExpiry returns food items ordered soonest-expiring first.
// The expiry index keys embed the date as YYYY-MM-DD, so a lexicographic
// prefix scan already yields chronological order and no full-collection
// scan is needed.
func (r *Repository) FoodItemsByExpiry(ctx context.Context) ([]*InventoryItem, error) {
	indexKeys, err := r.store.List(ctx, expiryIndexKeyPrefix)
	if err != nil {
		return nil, err
	}

	recordKeys := make([]string, 0, len(indexKeys))
	for _, key := range indexKeys {
		recordKeys = append(recordKeys, itemKey(idFromIndexKey(key)))
	}

	// Missing records mean a stale index entry; skip them rather than fail
	// the whole read.
	stored, err := BatchGet[storedItem](ctx, r.store, recordKeys)
	if err != nil {
		return nil, err
	}

	items := make([]*InventoryItem, 0, len(stored))
	for _, s := range stored {
		item, err := decodeItem(s)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// LowStockItems returns items at or below their restock threshold
func (r *Repository) LowStockItems(ctx context.Context) ([]*InventoryItem, error) {
	items, err := r.AllItems(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]*InventoryItem, 0)
	for _, item := range items {
		if item.IsLowStock() {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// SearchItems returns items whose name, notes, or location contain the
// query, case-insensitively. Results keep the collection's ordering.
func (r *Repository) SearchItems(ctx context.Context, query string) ([]*InventoryItem, error) {
	items, err := r.AllItems(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items, nil
	}

	matched := make([]*InventoryItem, 0)
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), q) ||
			strings.Contains(strings.ToLower(item.Notes), q) ||
			strings.Contains(strings.ToLower(item.Location), q) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// Stats returns the precomputed aggregate snapshot. This is a single-key
// read; it never scans the collection.
func (r *Repository) Stats(ctx context.Context) (ComputedStats, error) {
	return r.statsSnapshot(ctx)
}

// CreateItem validates and persists a new item, assigning it a fresh id.
// The primary record, its index entries, and the stats delta commit as one
// transaction. Returns the stored item.
func (r *Repository) CreateItem(ctx context.Context, item *InventoryItem) (*InventoryItem, error) {
	if item == nil {
		return nil, WithContext(ErrInvalidData, map[string]interface{}{"reason": "item is nil"})
	}

	next := item.clone()
	next.ID = NewID()
	next.AddedDate = r.now()
	next.LastUpdated = next.AddedDate

	if err := next.Validate(); err != nil {
		return nil, err
	}

	stats, err := r.statsSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	err = r.store.WithTransaction(ctx, func(tx *OptimisticTransaction) error {
		tx.Put(itemKey(next.ID), encodeItem(next))
		addItemToIndexes(tx, next)
		tx.Put(statsKey, stats.ApplyItem(next, +1))
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidateItems()
	r.metrics.Increment(MetricItemCreate)
	r.logger.Info("item created", "id", next.ID, "category", string(next.Category))
	return next, nil
}

// UpdateItem applies a partial update to an existing item. Category is
// immutable. Returns ErrNotFound, with nothing mutated, when the item does
// not exist.
func (r *Repository) UpdateItem(ctx context.Context, id string, update ItemUpdate) (*InventoryItem, error) {
	oldItem, err := r.ItemByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := update.apply(oldItem)
	next.LastUpdated = r.now()

	if err := next.Validate(); err != nil {
		return nil, err
	}

	stats, err := r.statsSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	err = r.store.WithTransaction(ctx, func(tx *OptimisticTransaction) error {
		tx.Put(itemKey(next.ID), encodeItem(next))
		replaceItemIndexes(tx, oldItem, next)
		tx.Put(statsKey, stats.ApplyItem(oldItem, -1).ApplyItem(next, +1))
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidateItems()
	r.metrics.Increment(MetricItemUpdate)
	r.logger.Info("item updated", "id", next.ID)
	return next, nil
}

// DeleteItem removes an item, its index entries, and its stats contribution.
// Returns ErrNotFound when the item does not exist. Checkouts referencing
// the item are kept; returning one later skips the stock restoration.
func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	item, err := r.ItemByID(ctx, id)
	if err != nil {
		return err
	}

	stats, err := r.statsSnapshot(ctx)
	if err != nil {
		return err
	}

	err = r.store.WithTransaction(ctx, func(tx *OptimisticTransaction) error {
		tx.Delete(itemKey(item.ID))
		removeItemFromIndexes(tx, item)
		tx.Put(statsKey, stats.ApplyItem(item, -1))
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidateItems()
	r.metrics.Increment(MetricItemDelete)
	r.logger.Info("item deleted", "id", item.ID)
	return nil
}

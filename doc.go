// Package troopstock is the inventory and loan data layer for a scout
// troop's equipment store: tents, cooking kit, food, tools, and games,
// tracked across storage spaces, loaned out to borrowers, and summarized
// in a precomputed stats snapshot.
//
// # Overview
//
// TroopStock keeps everything in a pluggable key-value backend (filesystem,
// Redis, or S3) as JSON documents, and layers the database-ish parts on
// top:
//
//   - Secondary indexes over category, space, and food expiry date,
//     maintained in the same transaction as the primary record
//   - An incrementally maintained aggregate stats snapshot served from a
//     single key, never a collection scan
//   - TTL collection caches with stampede protection for list reads
//   - Optimistic transactions with best-effort rollback
//   - A full rebuild operation that recovers indexes and stats from the
//     primary records after any drift
//   - Observability via structured logging and Prometheus metrics
//
// # Quick Start
//
// Basic usage with the filesystem backend (development):
//
//	backend := troopstock.NewFilesystemBackend("./data")
//	repo := troopstock.NewRepository(troopstock.NewStore(backend))
//	ctx := context.Background()
//
//	item, _ := repo.CreateItem(ctx, &troopstock.InventoryItem{
//		Name:     "Patrol tent",
//		Category: troopstock.CategoryTent,
//		Quantity: 4,
//	})
//
//	co, _ := repo.CreateCheckOut(ctx, &troopstock.CheckOut{
//		ItemID:   item.ID,
//		Borrower: "Kestrel patrol",
//		Quantity: 1,
//	})
//	repo.ReturnCheckOut(ctx, co.ID)
//
// Production setup with Redis and observability:
//
//	redisClient := redis.NewClient(troopstock.RedisOptions())
//	backend := troopstock.NewRedisBackend(redisClient)
//
//	logger, _ := troopstock.NewProductionZapLogger()
//	metrics := troopstock.NewPrometheusMetrics(prometheus.NewRegistry())
//	store := troopstock.NewStoreWithObservability(backend, logger, metrics)
//	repo := troopstock.NewRepositoryWithObservability(store, logger, metrics)
//
// # Core Concepts
//
// Backend: storage abstraction over filesystem, Redis, and S3. All data
// operations go through the Backend interface; List is ordered so index
// scans behave the same everywhere.
//
// Store: JSON operations, optimistic transactions, and paginated listing
// on top of a Backend.
//
// Repository: the domain façade. Item CRUD, loan lifecycle, queries, the
// necker counter, stats, and RebuildIndexes all live here, and it is the
// only layer that touches serialization, indexes, and the stats snapshot.
//
// # Consistency
//
// Primary records are last-writer-wins. Each mutation commits its record,
// index entries, and stats delta as one optimistic transaction, so readers
// never observe an item without its index entries. If a crash mid-commit
// leaves drift anyway, RebuildIndexes restores the derived state from the
// primary records.
package troopstock

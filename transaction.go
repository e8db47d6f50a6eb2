package troopstock

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// OptimisticTransaction groups a batch of writes and deletes so the primary
// record, its index entries, and the stats snapshot commit as one unit.
//
// Semantics: best-effort all-or-nothing using optimistic locking. Keys read
// through Get are committed with an ETag check; a concurrent modification of
// any tracked key fails the whole commit and triggers a rollback of the keys
// already written. A rollback can itself fail (crash mid-commit); the
// repository's RebuildIndexes operation is the recovery path for any drift
// that leaves behind.
type OptimisticTransaction struct {
	store   *Store
	writes  []writeOp
	deletes []string
	etags   map[string]string // Track ETags for optimistic locking
}

type writeOp struct {
	key   string
	value interface{}
}

// BeginTx creates a new optimistic transaction
func (s *Store) BeginTx(ctx context.Context) *OptimisticTransaction {
	return &OptimisticTransaction{
		store:  s,
		writes: make([]writeOp, 0),
		etags:  make(map[string]string),
	}
}

// Put queues a write operation
func (tx *OptimisticTransaction) Put(key string, value interface{}) {
	tx.writes = append(tx.writes, writeOp{key: key, value: value})
}

// Delete queues a delete operation
func (tx *OptimisticTransaction) Delete(key string) {
	tx.deletes = append(tx.deletes, key)
}

// Get retrieves a value and tracks its ETag for optimistic locking
func (tx *OptimisticTransaction) Get(ctx context.Context, key string, dest interface{}) error {
	etag, err := tx.store.GetJSONWithETag(ctx, key, dest)
	if err != nil {
		return err
	}
	tx.etags[key] = etag
	return nil
}

// Commit attempts to commit all operations using optimistic locking.
// If any operation fails, attempts to rollback (best effort).
//
// Returns an error if:
// - Any ETag check fails (concurrent modification detected)
// - Any write/delete operation fails
// - Rollback fails (data may be in inconsistent state)
func (tx *OptimisticTransaction) Commit(ctx context.Context) error {
	// Track what we've written for potential rollback
	written := make([]string, 0)
	originalValues := make(map[string][]byte)

	// Step 1: Backup existing values for potential rollback
	for _, op := range tx.writes {
		if data, err := tx.store.backend.Get(ctx, op.key); err == nil {
			originalValues[op.key] = data
		}
	}

	// Step 2: Execute all writes with optimistic locking
	for _, op := range tx.writes {
		data, err := json.Marshal(op.value)
		if err != nil {
			tx.rollback(ctx, written, originalValues)
			return fmt.Errorf("marshal error for %s: %w", op.key, err)
		}

		// Use PutIfMatch for keys we've read (optimistic locking)
		if expectedETag, tracked := tx.etags[op.key]; tracked {
			_, err = tx.store.backend.PutIfMatch(ctx, op.key, data, expectedETag)
			if err != nil {
				tx.store.metrics.Increment(MetricTransactionConflict)
				tx.rollback(ctx, written, originalValues)
				return fmt.Errorf("optimistic lock failed for %s: %w", op.key, err)
			}
		} else {
			// Regular put for keys we didn't read
			if err := tx.store.backend.Put(ctx, op.key, data); err != nil {
				tx.rollback(ctx, written, originalValues)
				return fmt.Errorf("write error for %s: %w", op.key, err)
			}
		}

		written = append(written, op.key)
	}

	// Step 3: Execute all deletes
	for _, key := range tx.deletes {
		if data, err := tx.store.backend.Get(ctx, key); err == nil {
			originalValues[key] = data
		}

		if err := tx.store.backend.Delete(ctx, key); err != nil && !IsNotFound(err) {
			tx.rollback(ctx, written, originalValues)
			return fmt.Errorf("delete error for %s: %w", key, err)
		}
	}

	tx.store.metrics.Increment(MetricTransactionSuccess)
	tx.store.metrics.Gauge(MetricTransactionSize, float64(len(tx.writes)+len(tx.deletes)))
	return nil
}

// Rollback attempts to restore original values (best effort)
func (tx *OptimisticTransaction) Rollback(ctx context.Context) error {
	return tx.rollback(ctx, nil, nil)
}

func (tx *OptimisticTransaction) rollback(ctx context.Context, written []string, originalValues map[string][]byte) error {
	tx.store.metrics.Increment(MetricTransactionRollback)

	var rollbackErrors []error

	// Restore written keys to original values
	for _, key := range written {
		if originalData, exists := originalValues[key]; exists {
			if err := tx.store.backend.Put(ctx, key, originalData); err != nil {
				rollbackErrors = append(rollbackErrors, fmt.Errorf("failed to restore %s: %w", key, err))
			}
		} else {
			// Key didn't exist before, delete it
			if err := tx.store.backend.Delete(ctx, key); err != nil && !IsNotFound(err) {
				rollbackErrors = append(rollbackErrors, fmt.Errorf("failed to delete %s: %w", key, err))
			}
		}
	}

	// Restore deleted keys
	for _, key := range tx.deletes {
		if originalData, exists := originalValues[key]; exists {
			if err := tx.store.backend.Put(ctx, key, originalData); err != nil {
				rollbackErrors = append(rollbackErrors, fmt.Errorf("failed to restore deleted %s: %w", key, err))
			}
		}
	}

	if len(rollbackErrors) > 0 {
		return fmt.Errorf("%w (%d errors): %v", ErrRollbackFailed, len(rollbackErrors), rollbackErrors)
	}

	return nil
}

// WithTransaction executes a function within an optimistic transaction.
// Automatically commits on success, rolls back on error.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *OptimisticTransaction) error) error {
	tx := s.BeginTx(ctx)

	if err := fn(tx); err != nil {
		tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

// WithAtomicUpdate performs a read-modify-write on a single key with
// compare-and-set retries and exponential backoff. A missing key hands the
// zero value to update and creates the record.
//
// Use this for counters and other single-key accumulators where lost
// updates matter; record-level writes stay last-writer-wins.
func WithAtomicUpdate[T any](ctx context.Context, store *Store, key string, update func(*T) error) error {
	config := DefaultRetryConfig()

	var lastErr error
	for i := 0; i <= config.MaxRetries; i++ {
		var value T
		etag, err := store.GetJSONWithETag(ctx, key, &value)
		if err != nil {
			if !IsNotFound(err) {
				return err
			}
			var zero T
			value = zero
			etag = ""
		}

		if err := update(&value); err != nil {
			return err
		}

		_, err = store.PutJSONWithETag(ctx, key, value, etag)
		if err == nil {
			return nil
		}
		if !IsConflict(err) {
			return err
		}
		lastErr = err
		store.metrics.Increment(MetricTransactionConflict)

		if i < config.MaxRetries {
			backoff := config.InitialBackoff * time.Duration(1<<uint(i))
			jitter := time.Duration(float64(backoff) * config.JitterPercent * (1.0 - (float64(i%2) * 0.5)))
			time.Sleep(backoff + jitter)
		}
	}

	return WithContext(ErrConflict, map[string]interface{}{
		"key":     key,
		"retries": config.MaxRetries,
		"cause":   lastErr.Error(),
	})
}

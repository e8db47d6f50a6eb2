package troopstock

import (
	"context"
	"fmt"
	"time"
)

// RebuildReport summarizes a full index and stats rebuild
type RebuildReport struct {
	ItemsScanned        int      `json:"itemsScanned"`
	CheckOutsScanned    int      `json:"checkOutsScanned"`
	IndexEntriesBuilt   int      `json:"indexEntriesBuilt"`
	IndexEntriesRemoved int      `json:"indexEntriesRemoved"`
	Errors              []string `json:"errors,omitempty"`
}

// RebuildIndexes drops every secondary index entry and recomputes the
// indexes and the stats snapshot from a full scan of the primary records.
// It is the recovery path after a crash mid-commit or any other drift, and
// is safe to run at any time: on a consistent store it is a no-op apart
// from rewriting identical entries.
//
// Records that fail to decode are reported and skipped so one corrupt
// record cannot block recovery of the rest.
func (r *Repository) RebuildIndexes(ctx context.Context) (*RebuildReport, error) {
	start := time.Now()
	report := &RebuildReport{}

	// Drop all existing index entries first; stale entries for deleted
	// items would otherwise survive the rebuild.
	staleKeys, err := r.store.List(ctx, indexKeyPrefix)
	if err != nil {
		return nil, err
	}
	for _, key := range staleKeys {
		if err := r.store.Delete(ctx, key); err != nil && !IsNotFound(err) {
			return nil, fmt.Errorf("failed to clear index entry %s: %w", key, err)
		}
		report.IndexEntriesRemoved++
	}

	stats := NewComputedStats()

	err = r.store.ListPaginated(ctx, itemKeyPrefix, func(keys []string) error {
		for _, key := range keys {
			report.ItemsScanned++

			var stored storedItem
			if err := r.store.GetJSON(ctx, key, &stored); err != nil {
				if IsNotFound(err) {
					continue
				}
				report.Errors = append(report.Errors,
					fmt.Sprintf("item %s: %v", idFromRecordKey(key, itemKeyPrefix), err))
				r.metrics.Increment(MetricRebuildErrors)
				continue
			}

			item, err := decodeItem(&stored)
			if err != nil {
				report.Errors = append(report.Errors,
					fmt.Sprintf("item %s: %v", idFromRecordKey(key, itemKeyPrefix), err))
				r.metrics.Increment(MetricRebuildErrors)
				continue
			}

			stats = stats.ApplyItem(item, +1)

			for _, indexKey := range indexEntries(item) {
				if err := r.store.PutJSON(ctx, indexKey, item.ID); err != nil {
					return fmt.Errorf("failed to write index entry %s: %w", indexKey, err)
				}
				report.IndexEntriesBuilt++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	activeLoans := 0
	err = r.store.ListPaginated(ctx, checkoutKeyPrefix, func(keys []string) error {
		for _, key := range keys {
			report.CheckOutsScanned++

			var stored storedCheckOut
			if err := r.store.GetJSON(ctx, key, &stored); err != nil {
				if IsNotFound(err) {
					continue
				}
				report.Errors = append(report.Errors,
					fmt.Sprintf("checkout %s: %v", idFromRecordKey(key, checkoutKeyPrefix), err))
				r.metrics.Increment(MetricRebuildErrors)
				continue
			}

			co, err := decodeCheckOut(&stored)
			if err != nil {
				report.Errors = append(report.Errors,
					fmt.Sprintf("checkout %s: %v", idFromRecordKey(key, checkoutKeyPrefix), err))
				r.metrics.Increment(MetricRebuildErrors)
				continue
			}

			if co.IsActive() {
				activeLoans++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats.ActiveLoans = activeLoans

	if err := r.store.PutJSON(ctx, statsKey, stats); err != nil {
		return nil, fmt.Errorf("failed to write stats snapshot: %w", err)
	}

	r.invalidateItems()
	r.invalidateCheckOuts()

	r.metrics.Timing(MetricRebuildDuration, time.Since(start))
	r.logger.Info("rebuild complete",
		"items", report.ItemsScanned,
		"checkouts", report.CheckOutsScanned,
		"indexEntries", report.IndexEntriesBuilt,
		"errors", len(report.Errors))
	return report, nil
}

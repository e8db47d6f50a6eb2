package troopstock

// Loan lifecycle. Each operation commits the checkout record, the affected
// item, its index entries, and the stats snapshot in one transaction, so a
// crash never leaves stock deducted without a matching loan record (or vice
// versa).

import (
	"context"
)

// fetchAllCheckOuts scans the checkout namespace and decodes every record
func (r *Repository) fetchAllCheckOuts(ctx context.Context) ([]*CheckOut, error) {
	checkouts := make([]*CheckOut, 0)
	err := r.store.ListPaginated(ctx, checkoutKeyPrefix, func(keys []string) error {
		for _, key := range keys {
			var stored storedCheckOut
			if err := r.store.GetJSON(ctx, key, &stored); err != nil {
				if IsNotFound(err) {
					continue
				}
				return err
			}
			co, err := decodeCheckOut(&stored)
			if err != nil {
				return WithContext(err, map[string]interface{}{"key": key})
			}
			checkouts = append(checkouts, co)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return checkouts, nil
}

// AllCheckOuts returns every checkout record, served from the collection
// cache. Ordering follows backend key order.
func (r *Repository) AllCheckOuts(ctx context.Context) ([]*CheckOut, error) {
	return r.checkouts.Get(ctx, r.fetchAllCheckOuts)
}

// ActiveCheckOuts returns checkouts whose stock is still out
func (r *Repository) ActiveCheckOuts(ctx context.Context) ([]*CheckOut, error) {
	checkouts, err := r.AllCheckOuts(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]*CheckOut, 0)
	for _, co := range checkouts {
		if co.IsActive() {
			active = append(active, co)
		}
	}
	return active, nil
}

// CheckOutByID returns a single checkout, or ErrNotFound
func (r *Repository) CheckOutByID(ctx context.Context, id string) (*CheckOut, error) {
	var stored storedCheckOut
	if err := r.store.GetJSON(ctx, checkoutKey(id), &stored); err != nil {
		return nil, err
	}
	return decodeCheckOut(&stored)
}

// CreateCheckOut loans stock to a borrower: it deducts the quantity from the
// referenced item and writes the checkout record in one transaction.
// Returns ErrNotFound when the item does not exist and ErrInsufficientStock
// when the requested quantity exceeds available stock; in both cases nothing
// is mutated.
func (r *Repository) CreateCheckOut(ctx context.Context, co *CheckOut) (*CheckOut, error) {
	if co == nil {
		return nil, WithContext(ErrInvalidData, map[string]interface{}{"reason": "checkout is nil"})
	}
	if err := co.Validate(); err != nil {
		return nil, err
	}

	oldItem, err := r.ItemByID(ctx, co.ItemID)
	if err != nil {
		return nil, err
	}
	if co.Quantity > oldItem.Quantity {
		return nil, WithContext(ErrInsufficientStock, map[string]interface{}{
			"itemId":    oldItem.ID,
			"requested": co.Quantity,
			"available": oldItem.Quantity,
		})
	}

	next := *co
	next.ID = NewID()
	next.ItemName = oldItem.Name
	next.Status = StatusCheckedOut
	next.ActualReturnDate = nil
	if next.CheckOutDate.IsZero() {
		next.CheckOutDate = r.now()
	}

	newItem := oldItem.clone()
	newItem.Quantity -= next.Quantity
	newItem.LastUpdated = r.now()

	stats, err := r.statsSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	err = r.store.WithTransaction(ctx, func(tx *OptimisticTransaction) error {
		tx.Put(checkoutKey(next.ID), encodeCheckOut(&next))
		tx.Put(itemKey(newItem.ID), encodeItem(newItem))
		replaceItemIndexes(tx, oldItem, newItem)
		tx.Put(statsKey, stats.
			ApplyItem(oldItem, -1).
			ApplyItem(newItem, +1).
			ApplyLoanDelta(+1))
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidateItems()
	r.invalidateCheckOuts()
	r.metrics.Increment(MetricCheckOutCreate)
	r.logger.Info("checkout created",
		"id", next.ID, "itemId", next.ItemID, "quantity", next.Quantity)
	return &next, nil
}

// ReturnCheckOut closes a loan: it marks the checkout returned, stamps the
// actual return date, and restores the loaned quantity to the item's stock.
// Returns ErrAlreadyReturned when the loan is already closed. When the
// referenced item has been deleted, the return still succeeds but the stock
// restoration is skipped.
func (r *Repository) ReturnCheckOut(ctx context.Context, id string) (*CheckOut, error) {
	co, err := r.CheckOutByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !co.IsActive() {
		return nil, WithContext(ErrAlreadyReturned, map[string]interface{}{"id": id})
	}

	returnedAt := r.now()
	next := *co
	next.Status = StatusReturned
	next.ActualReturnDate = &returnedAt

	stats, err := r.statsSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	stats = stats.ApplyLoanDelta(-1)

	oldItem, err := r.ItemByID(ctx, co.ItemID)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}

	var newItem *InventoryItem
	if oldItem != nil {
		newItem = oldItem.clone()
		newItem.Quantity += co.Quantity
		newItem.LastUpdated = returnedAt
		stats = stats.ApplyItem(oldItem, -1).ApplyItem(newItem, +1)
	} else {
		r.logger.Warn("returning checkout for deleted item, stock not restored",
			"checkoutId", id, "itemId", co.ItemID)
	}

	err = r.store.WithTransaction(ctx, func(tx *OptimisticTransaction) error {
		tx.Put(checkoutKey(next.ID), encodeCheckOut(&next))
		if newItem != nil {
			tx.Put(itemKey(newItem.ID), encodeItem(newItem))
			replaceItemIndexes(tx, oldItem, newItem)
		}
		tx.Put(statsKey, stats)
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidateItems()
	r.invalidateCheckOuts()
	r.metrics.Increment(MetricCheckOutReturn)
	r.logger.Info("checkout returned", "id", next.ID, "itemId", next.ItemID)
	return &next, nil
}

// DeleteCheckOut removes a checkout record. Deleting an active loan cancels
// it: the loaned stock goes back to the item first, exactly as a return
// would, then the record is removed. Deleting an already-returned loan only
// removes the record.
func (r *Repository) DeleteCheckOut(ctx context.Context, id string) error {
	co, err := r.CheckOutByID(ctx, id)
	if err != nil {
		return err
	}

	stats, err := r.statsSnapshot(ctx)
	if err != nil {
		return err
	}

	var oldItem, newItem *InventoryItem
	if co.IsActive() {
		stats = stats.ApplyLoanDelta(-1)

		oldItem, err = r.ItemByID(ctx, co.ItemID)
		if err != nil && !IsNotFound(err) {
			return err
		}
		if oldItem != nil {
			newItem = oldItem.clone()
			newItem.Quantity += co.Quantity
			newItem.LastUpdated = r.now()
			stats = stats.ApplyItem(oldItem, -1).ApplyItem(newItem, +1)
		} else {
			r.logger.Warn("cancelling checkout for deleted item, stock not restored",
				"checkoutId", id, "itemId", co.ItemID)
		}
	}

	err = r.store.WithTransaction(ctx, func(tx *OptimisticTransaction) error {
		tx.Delete(checkoutKey(co.ID))
		if newItem != nil {
			tx.Put(itemKey(newItem.ID), encodeItem(newItem))
			replaceItemIndexes(tx, oldItem, newItem)
		}
		tx.Put(statsKey, stats)
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidateItems()
	r.invalidateCheckOuts()
	r.metrics.Increment(MetricCheckOutDelete)
	r.logger.Info("checkout deleted", "id", co.ID, "wasActive", co.IsActive())
	return nil
}

// OverdueCheckOuts returns active loans past their expected return date
func (r *Repository) OverdueCheckOuts(ctx context.Context) ([]*CheckOut, error) {
	checkouts, err := r.AllCheckOuts(ctx)
	if err != nil {
		return nil, err
	}
	now := r.now()
	overdue := make([]*CheckOut, 0)
	for _, co := range checkouts {
		if co.EffectiveStatus(now) == StatusOverdue {
			overdue = append(overdue, co)
		}
	}
	return overdue, nil
}

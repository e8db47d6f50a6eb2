package troopstock

// Secondary index maintenance. Index entries are key-only: the key encodes
// (attribute value, item id) and the stored payload is just the id. Entries
// are computed as put/delete deltas and folded into the same transaction as
// the primary write, so a reader never sees an item without its index
// entries or vice versa.

// indexEntries returns the index keys derived from an item: one category
// entry, one space entry, and (for food items) one expiry entry.
func indexEntries(item *InventoryItem) []string {
	keys := []string{
		categoryIndexKey(item.Category, item.ID),
		spaceIndexKey(item.SpaceOrDefault(), item.ID),
	}
	if item.Category == CategoryFood && item.Food != nil {
		keys = append(keys, expiryIndexKey(encodeExpiryDate(item.Food.ExpiryDate), item.ID))
	}
	return keys
}

// addItemToIndexes queues index entry writes into the transaction
func addItemToIndexes(tx *OptimisticTransaction, item *InventoryItem) {
	for _, key := range indexEntries(item) {
		tx.Put(key, item.ID)
	}
}

// removeItemFromIndexes queues index entry deletes into the transaction
func removeItemFromIndexes(tx *OptimisticTransaction, item *InventoryItem) {
	for _, key := range indexEntries(item) {
		tx.Delete(key)
	}
}

// replaceItemIndexes queues the delta between the old and new items:
// entries no longer derivable are deleted, new ones are written. Unchanged
// entries are rewritten in place, which is idempotent.
func replaceItemIndexes(tx *OptimisticTransaction, oldItem, newItem *InventoryItem) {
	oldKeys := indexEntries(oldItem)
	newKeys := make(map[string]bool, 3)
	for _, key := range indexEntries(newItem) {
		newKeys[key] = true
		tx.Put(key, newItem.ID)
	}
	for _, key := range oldKeys {
		if !newKeys[key] {
			tx.Delete(key)
		}
	}
}

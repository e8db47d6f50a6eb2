package troopstock

import (
	"fmt"
	"strings"
)

// Key layout. All keys are slash-separated tuples; prefix scans over a
// namespace return its records in lexicographic key order.
//
//	inventory/items/<id>.json              serialized inventory item
//	inventory/checkouts/<id>.json          serialized checkout
//	inventory/neckers/count.json           scalar counter
//	inventory/stats/computed.json          aggregate snapshot
//	inventory/idx/category/<cat>/<id>      key-only index entry (value = id)
//	inventory/idx/space/<space>/<id>       key-only index entry (value = id)
//	inventory/idx/expiry/<date>/<id>       key-only index entry, food items only
//	camps/plans/<id>.json                  camp plan (web tier)
//	camps/templates/<id>.json              camp template (web tier)
//	meals/<id>.json                        meal recipe (web tier)
var (
	itemKeys         = KeyBuilder{Prefix: "inventory/items", Suffix: ".json"}
	checkoutKeys     = KeyBuilder{Prefix: "inventory/checkouts", Suffix: ".json"}
	CampPlanKeys     = KeyBuilder{Prefix: "camps/plans", Suffix: ".json"}
	CampTemplateKeys = KeyBuilder{Prefix: "camps/templates", Suffix: ".json"}
	MealKeys         = KeyBuilder{Prefix: "meals", Suffix: ".json"}
)

const (
	itemKeyPrefix     = "inventory/items/"
	checkoutKeyPrefix = "inventory/checkouts/"
	neckerCountKey    = "inventory/neckers/count.json"
	statsKey          = "inventory/stats/computed.json"

	indexKeyPrefix         = "inventory/idx/"
	categoryIndexKeyPrefix = "inventory/idx/category/"
	spaceIndexKeyPrefix    = "inventory/idx/space/"
	expiryIndexKeyPrefix   = "inventory/idx/expiry/"
)

func itemKey(id string) string {
	return itemKeys.Key(id)
}

func checkoutKey(id string) string {
	return checkoutKeys.Key(id)
}

func categoryIndexKey(category Category, id string) string {
	return fmt.Sprintf("%s%s/%s", categoryIndexKeyPrefix, category, id)
}

func spaceIndexKey(space Space, id string) string {
	return fmt.Sprintf("%s%s/%s", spaceIndexKeyPrefix, space, id)
}

func expiryIndexKey(expiryDate string, id string) string {
	return fmt.Sprintf("%s%s/%s", expiryIndexKeyPrefix, expiryDate, id)
}

// idFromIndexKey extracts the item id (the tail tuple component) from an
// index entry key.
func idFromIndexKey(key string) string {
	idx := strings.LastIndex(key, "/")
	if idx < 0 {
		return key
	}
	return key[idx+1:]
}

// idFromRecordKey extracts the record id from a primary record key.
func idFromRecordKey(key, prefix string) string {
	id := strings.TrimPrefix(key, prefix)
	return strings.TrimSuffix(id, ".json")
}

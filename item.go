package troopstock

import (
	"time"
)

// Category discriminates the inventory item variants.
type Category string

const (
	CategoryTent         Category = "tent"
	CategoryCooking      Category = "cooking"
	CategoryFood         Category = "food"
	CategoryCampingTools Category = "camping-tools"
	CategoryGames        Category = "games"
)

// Valid reports whether the category is one of the known variants
func (c Category) Valid() bool {
	switch c {
	case CategoryTent, CategoryCooking, CategoryFood, CategoryCampingTools, CategoryGames:
		return true
	}
	return false
}

// Space is the storage location of an item.
type Space string

const (
	SpaceCampStore     Space = "camp-store"
	SpaceScoutPostLoft Space = "scout-post-loft"

	// DefaultSpace is applied when a record carries no space
	DefaultSpace = SpaceCampStore
)

// Valid reports whether the space is one of the known locations
func (s Space) Valid() bool {
	return s == SpaceCampStore || s == SpaceScoutPostLoft
}

// ConditionNeedsRepair marks gear that should be counted in the
// needs-repair statistic.
const ConditionNeedsRepair = "needs-repair"

// FoodDetails is the category-specific payload carried by food items.
// ExpiryDate is required at creation time; nutrition and allergen metadata
// are optional.
type FoodDetails struct {
	ExpiryDate time.Time
	Nutrition  string
	Allergens  []string
}

// GearDetails is the optional payload carried by non-food items.
type GearDetails struct {
	Condition string `json:"condition,omitempty"`
	Capacity  int    `json:"capacity,omitempty"`
}

// InventoryItem is the primary inventory record. The Category field
// discriminates the variant: food items carry Food, everything else may
// carry Gear. Absent payloads stay absent through serialization.
type InventoryItem struct {
	ID           string
	Name         string
	Category     Category
	Space        Space
	Quantity     int
	MinThreshold int
	Location     string
	Notes        string
	AddedDate    time.Time
	LastUpdated  time.Time

	Food *FoodDetails
	Gear *GearDetails
}

// clone returns a deep copy, so callers can derive a new version while the
// old one stays usable for stats deltas
func (i *InventoryItem) clone() *InventoryItem {
	next := *i
	if i.Food != nil {
		food := *i.Food
		next.Food = &food
	}
	if i.Gear != nil {
		gear := *i.Gear
		next.Gear = &gear
	}
	return &next
}

// IsLowStock reports whether the item is at or below its restock threshold
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.MinThreshold
}

// NeedsRepair reports whether the item's gear payload marks it as needing
// repair. Food items never need repair.
func (i *InventoryItem) NeedsRepair() bool {
	return i.Gear != nil && i.Gear.Condition == ConditionNeedsRepair
}

// SpaceOrDefault returns the item's space, falling back to the default
// location for legacy records that carry none.
func (i *InventoryItem) SpaceOrDefault() Space {
	if i.Space == "" {
		return DefaultSpace
	}
	return i.Space
}

// Validate rejects malformed items before any store access
func (i *InventoryItem) Validate() error {
	if i.Name == "" {
		return WithContext(ErrInvalidData, map[string]interface{}{
			"field":  "Name",
			"reason": "name is required",
		})
	}
	if !i.Category.Valid() {
		return WithContext(ErrInvalidData, map[string]interface{}{
			"field":  "Category",
			"value":  string(i.Category),
			"reason": "unknown category",
		})
	}
	if i.Space != "" && !i.Space.Valid() {
		return WithContext(ErrInvalidData, map[string]interface{}{
			"field":  "Space",
			"value":  string(i.Space),
			"reason": "unknown space",
		})
	}
	if i.Quantity < 0 {
		return WithContext(ErrInvalidData, map[string]interface{}{
			"field":  "Quantity",
			"value":  i.Quantity,
			"reason": "must be non-negative",
		})
	}
	if i.MinThreshold < 0 {
		return WithContext(ErrInvalidData, map[string]interface{}{
			"field":  "MinThreshold",
			"value":  i.MinThreshold,
			"reason": "must be non-negative",
		})
	}
	if i.Category == CategoryFood {
		if i.Food == nil || i.Food.ExpiryDate.IsZero() {
			return WithContext(ErrInvalidData, map[string]interface{}{
				"field":  "Food.ExpiryDate",
				"reason": "food items require an expiry date",
			})
		}
	} else if i.Food != nil {
		return WithContext(ErrInvalidData, map[string]interface{}{
			"field":  "Food",
			"reason": "only food items carry a food payload",
		})
	}
	return nil
}

// ItemUpdate is a partial update merged onto an existing item.
// Nil fields are left unchanged; Category is immutable and therefore absent.
// Setting Food or Gear replaces the whole payload.
type ItemUpdate struct {
	Name         *string
	Space        *Space
	Quantity     *int
	MinThreshold *int
	Location     *string
	Notes        *string
	Food         *FoodDetails
	Gear         *GearDetails
}

// apply merges the update onto a copy of the item, leaving the original
// untouched so stats deltas can be computed from old and new side by side.
func (u ItemUpdate) apply(item *InventoryItem) *InventoryItem {
	next := item.clone()

	if u.Name != nil {
		next.Name = *u.Name
	}
	if u.Space != nil {
		next.Space = *u.Space
	}
	if u.Quantity != nil {
		next.Quantity = *u.Quantity
	}
	if u.MinThreshold != nil {
		next.MinThreshold = *u.MinThreshold
	}
	if u.Location != nil {
		next.Location = *u.Location
	}
	if u.Notes != nil {
		next.Notes = *u.Notes
	}
	if u.Food != nil {
		food := *u.Food
		next.Food = &food
	}
	if u.Gear != nil {
		gear := *u.Gear
		next.Gear = &gear
	}
	return next
}

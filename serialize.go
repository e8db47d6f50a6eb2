package troopstock

import (
	"time"
)

// Stored (on-disk) record shapes. All timestamps round-trip through ISO-8601
// strings: RFC 3339 for instants, YYYY-MM-DD for the expiry date so that a
// lexicographic scan of the expiry index yields chronological order.

const expiryDateFormat = "2006-01-02"

type storedFood struct {
	ExpiryDate string   `json:"expiryDate"`
	Nutrition  string   `json:"nutrition,omitempty"`
	Allergens  []string `json:"allergens,omitempty"`
}

type storedItem struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	Space        string       `json:"space,omitempty"`
	Quantity     int          `json:"quantity"`
	MinThreshold int          `json:"minThreshold"`
	Location     string       `json:"location,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	AddedDate    string       `json:"addedDate"`
	LastUpdated  string       `json:"lastUpdated"`
	Food         *storedFood  `json:"food,omitempty"`
	Gear         *GearDetails `json:"gear,omitempty"`
}

type storedCheckOut struct {
	ID                 string `json:"id"`
	ItemID             string `json:"itemId"`
	ItemName           string `json:"itemName"`
	Borrower           string `json:"borrower"`
	Quantity           int    `json:"quantity"`
	CheckOutDate       string `json:"checkOutDate"`
	ExpectedReturnDate string `json:"expectedReturnDate"`
	ActualReturnDate   string `json:"actualReturnDate,omitempty"`
	Status             string `json:"status"`
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func decodeTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, WithContext(ErrInvalidData, map[string]interface{}{
			"field":  "timestamp",
			"value":  s,
			"reason": "not an ISO-8601 timestamp",
		})
	}
	return t, nil
}

func encodeExpiryDate(t time.Time) string {
	return t.UTC().Format(expiryDateFormat)
}

func decodeExpiryDate(s string) (time.Time, error) {
	t, err := time.Parse(expiryDateFormat, s)
	if err != nil {
		return time.Time{}, WithContext(ErrInvalidData, map[string]interface{}{
			"field":  "expiryDate",
			"value":  s,
			"reason": "not an ISO-8601 date",
		})
	}
	return t, nil
}

// encodeItem converts a domain item to its stored form
func encodeItem(item *InventoryItem) *storedItem {
	stored := &storedItem{
		ID:           item.ID,
		Name:         item.Name,
		Category:     string(item.Category),
		Space:        string(item.Space),
		Quantity:     item.Quantity,
		MinThreshold: item.MinThreshold,
		Location:     item.Location,
		Notes:        item.Notes,
		AddedDate:    encodeTime(item.AddedDate),
		LastUpdated:  encodeTime(item.LastUpdated),
		Gear:         item.Gear,
	}

	if item.Food != nil {
		stored.Food = &storedFood{
			ExpiryDate: encodeExpiryDate(item.Food.ExpiryDate),
			Nutrition:  item.Food.Nutrition,
			Allergens:  item.Food.Allergens,
		}
	}

	return stored
}

// decodeItem reconstructs a domain item from its stored form. The category
// discriminator selects the variant shape; optional payloads that are absent
// on disk stay absent on the record.
func decodeItem(stored *storedItem) (*InventoryItem, error) {
	added, err := decodeTime(stored.AddedDate)
	if err != nil {
		return nil, err
	}
	updated, err := decodeTime(stored.LastUpdated)
	if err != nil {
		return nil, err
	}

	item := &InventoryItem{
		ID:           stored.ID,
		Name:         stored.Name,
		Category:     Category(stored.Category),
		Space:        Space(stored.Space),
		Quantity:     stored.Quantity,
		MinThreshold: stored.MinThreshold,
		Location:     stored.Location,
		Notes:        stored.Notes,
		AddedDate:    added,
		LastUpdated:  updated,
		Gear:         stored.Gear,
	}

	if stored.Food != nil {
		expiry, err := decodeExpiryDate(stored.Food.ExpiryDate)
		if err != nil {
			return nil, err
		}
		item.Food = &FoodDetails{
			ExpiryDate: expiry,
			Nutrition:  stored.Food.Nutrition,
			Allergens:  stored.Food.Allergens,
		}
	}

	return item, nil
}

// encodeCheckOut converts a domain checkout to its stored form
func encodeCheckOut(co *CheckOut) *storedCheckOut {
	stored := &storedCheckOut{
		ID:                 co.ID,
		ItemID:             co.ItemID,
		ItemName:           co.ItemName,
		Borrower:           co.Borrower,
		Quantity:           co.Quantity,
		CheckOutDate:       encodeTime(co.CheckOutDate),
		ExpectedReturnDate: encodeTime(co.ExpectedReturnDate),
		Status:             string(co.Status),
	}
	if co.ActualReturnDate != nil {
		stored.ActualReturnDate = encodeTime(*co.ActualReturnDate)
	}
	return stored
}

// decodeCheckOut reconstructs a domain checkout from its stored form
func decodeCheckOut(stored *storedCheckOut) (*CheckOut, error) {
	checkOutDate, err := decodeTime(stored.CheckOutDate)
	if err != nil {
		return nil, err
	}
	expected, err := decodeTime(stored.ExpectedReturnDate)
	if err != nil {
		return nil, err
	}

	co := &CheckOut{
		ID:                 stored.ID,
		ItemID:             stored.ItemID,
		ItemName:           stored.ItemName,
		Borrower:           stored.Borrower,
		Quantity:           stored.Quantity,
		CheckOutDate:       checkOutDate,
		ExpectedReturnDate: expected,
		Status:             CheckOutStatus(stored.Status),
	}

	if stored.ActualReturnDate != "" {
		returned, err := decodeTime(stored.ActualReturnDate)
		if err != nil {
			return nil, err
		}
		co.ActualReturnDate = &returned
	}

	return co, nil
}

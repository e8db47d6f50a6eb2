package troopstock

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEncodeDecodeGearItem(t *testing.T) {
	added := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	original := &InventoryItem{
		ID:           "item-1",
		Name:         "Patrol tent",
		Category:     CategoryTent,
		Space:        SpaceScoutPostLoft,
		Quantity:     4,
		MinThreshold: 1,
		Location:     "shelf B",
		AddedDate:    added,
		LastUpdated:  added,
		Gear:         &GearDetails{Condition: "good", Capacity: 6},
	}

	stored := encodeItem(original)
	if stored.AddedDate != "2026-03-14T09:30:00Z" {
		t.Errorf("expected RFC 3339 timestamp, got %q", stored.AddedDate)
	}
	if stored.Food != nil {
		t.Error("gear item should not carry a food payload on disk")
	}

	decoded, err := decodeItem(stored)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Name != original.Name || decoded.Category != original.Category {
		t.Errorf("round trip changed identity: %+v", decoded)
	}
	if !decoded.AddedDate.Equal(added) {
		t.Errorf("round trip changed AddedDate: %v", decoded.AddedDate)
	}
	if decoded.Gear == nil || decoded.Gear.Capacity != 6 {
		t.Errorf("round trip dropped gear payload: %+v", decoded.Gear)
	}
}

func TestEncodeDecodeFoodItem(t *testing.T) {
	expiry := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	original := &InventoryItem{
		ID:       "item-2",
		Name:     "Pasta",
		Category: CategoryFood,
		Quantity: 20,
		Food: &FoodDetails{
			ExpiryDate: expiry,
			Nutrition:  "carbs",
			Allergens:  []string{"gluten"},
		},
	}

	stored := encodeItem(original)
	if stored.Food == nil {
		t.Fatal("food payload missing on disk")
	}
	if stored.Food.ExpiryDate != "2026-10-01" {
		t.Errorf("expiry date must be date-only ISO-8601, got %q", stored.Food.ExpiryDate)
	}

	decoded, err := decodeItem(stored)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Food == nil {
		t.Fatal("round trip dropped food payload")
	}
	if !decoded.Food.ExpiryDate.Equal(expiry) {
		t.Errorf("round trip changed expiry: %v", decoded.Food.ExpiryDate)
	}
	if len(decoded.Food.Allergens) != 1 || decoded.Food.Allergens[0] != "gluten" {
		t.Errorf("round trip changed allergens: %v", decoded.Food.Allergens)
	}
}

func TestStoredItemOmitsAbsentPayloads(t *testing.T) {
	item := &InventoryItem{ID: "item-3", Name: "Chess set", Category: CategoryGames}
	data, err := json.Marshal(encodeItem(item))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(data), `"food"`) || strings.Contains(string(data), `"gear"`) {
		t.Errorf("absent payloads must not appear in JSON: %s", data)
	}
}

func TestDecodeItemRejectsBadTimestamps(t *testing.T) {
	_, err := decodeItem(&storedItem{ID: "x", Name: "x", Category: "tent", AddedDate: "14/03/2026"})
	if err == nil || !IsValidation(err) {
		t.Errorf("expected ErrInvalidData for malformed timestamp, got %v", err)
	}

	_, err = decodeItem(&storedItem{
		ID: "x", Name: "x", Category: "food",
		Food: &storedFood{ExpiryDate: "October 1st"},
	})
	if err == nil || !IsValidation(err) {
		t.Errorf("expected ErrInvalidData for malformed expiry, got %v", err)
	}
}

func TestEncodeDecodeCheckOut(t *testing.T) {
	out := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	back := out.Add(48 * time.Hour)

	t.Run("active loan", func(t *testing.T) {
		original := &CheckOut{
			ID:                 "co-1",
			ItemID:             "item-1",
			ItemName:           "Patrol tent",
			Borrower:           "Falcon patrol",
			Quantity:           2,
			CheckOutDate:       out,
			ExpectedReturnDate: back,
			Status:             StatusCheckedOut,
		}

		stored := encodeCheckOut(original)
		if stored.ActualReturnDate != "" {
			t.Error("active loan must not serialize an actual return date")
		}

		decoded, err := decodeCheckOut(stored)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if decoded.ActualReturnDate != nil {
			t.Error("round trip invented an actual return date")
		}
		if !decoded.ExpectedReturnDate.Equal(back) {
			t.Errorf("round trip changed expected return: %v", decoded.ExpectedReturnDate)
		}
	})

	t.Run("returned loan", func(t *testing.T) {
		returned := back.Add(-time.Hour)
		original := &CheckOut{
			ID: "co-2", ItemID: "item-1", ItemName: "Patrol tent",
			Borrower: "Falcon patrol", Quantity: 2,
			CheckOutDate: out, ExpectedReturnDate: back,
			ActualReturnDate: &returned,
			Status:           StatusReturned,
		}

		decoded, err := decodeCheckOut(encodeCheckOut(original))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if decoded.ActualReturnDate == nil || !decoded.ActualReturnDate.Equal(returned) {
			t.Errorf("round trip changed actual return date: %v", decoded.ActualReturnDate)
		}
		if decoded.Status != StatusReturned {
			t.Errorf("round trip changed status: %s", decoded.Status)
		}
	})
}

func TestExpiryDateLexicalOrderIsChronological(t *testing.T) {
	dates := []time.Time{
		time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	for i := 1; i < len(dates); i++ {
		a, b := encodeExpiryDate(dates[i-1]), encodeExpiryDate(dates[i])
		if a >= b {
			t.Errorf("encoded dates out of order: %q >= %q", a, b)
		}
	}
}

package troopstock

import (
	"time"
)

// CheckOutStatus is the lifecycle state of a loan.
// "overdue" is a derived display status, never stored: a checkout is overdue
// when it is still out past its expected return date.
type CheckOutStatus string

const (
	StatusCheckedOut CheckOutStatus = "checked-out"
	StatusOverdue    CheckOutStatus = "overdue"
	StatusReturned   CheckOutStatus = "returned"
)

// CheckOut records a loan of inventory stock to a borrower. While the loan
// is active the loaned quantity has been deducted from the referenced item's
// stock; return or cancellation restores it exactly once.
type CheckOut struct {
	ID                 string
	ItemID             string
	ItemName           string // denormalized snapshot at creation time
	Borrower           string
	Quantity           int
	CheckOutDate       time.Time
	ExpectedReturnDate time.Time
	ActualReturnDate   *time.Time // absent until returned
	Status             CheckOutStatus
}

// IsActive reports whether the loaned stock is still out
func (c *CheckOut) IsActive() bool {
	return c.Status != StatusReturned
}

// EffectiveStatus derives the display status for the given time.
// A stored "checked-out" becomes "overdue" once past the expected return date.
func (c *CheckOut) EffectiveStatus(now time.Time) CheckOutStatus {
	if c.Status == StatusReturned {
		return StatusReturned
	}
	if !c.ExpectedReturnDate.IsZero() && now.After(c.ExpectedReturnDate) {
		return StatusOverdue
	}
	return StatusCheckedOut
}

// Validate rejects malformed checkouts before any store access.
// The stock-sufficiency check against the referenced item happens in the
// repository, which holds the item.
func (c *CheckOut) Validate() error {
	if c.ItemID == "" {
		return WithContext(ErrInvalidData, map[string]interface{}{
			"field":  "ItemID",
			"reason": "item id is required",
		})
	}
	if c.Borrower == "" {
		return WithContext(ErrInvalidData, map[string]interface{}{
			"field":  "Borrower",
			"reason": "borrower is required",
		})
	}
	if c.Quantity <= 0 {
		return WithContext(ErrInvalidData, map[string]interface{}{
			"field":  "Quantity",
			"value":  c.Quantity,
			"reason": "must be positive",
		})
	}
	return nil
}

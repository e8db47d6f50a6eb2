package troopstock

import (
	"context"
	"testing"
	"time"
)

func testCheckOut(itemID string, quantity int) *CheckOut {
	return &CheckOut{
		ItemID:             itemID,
		Borrower:           "Falcon patrol",
		Quantity:           quantity,
		ExpectedReturnDate: time.Now().UTC().Add(72 * time.Hour),
	}
}

func TestCreateCheckOut(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepository(t)

	item, err := repo.CreateItem(ctx, testGearItem("Patrol tent", CategoryTent, 4))
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	co, err := repo.CreateCheckOut(ctx, testCheckOut(item.ID, 3))
	if err != nil {
		t.Fatalf("CreateCheckOut failed: %v", err)
	}
	if co.ID == "" {
		t.Error("expected a generated id")
	}
	if co.ItemName != "Patrol tent" {
		t.Errorf("item name not snapshotted: %q", co.ItemName)
	}
	if co.Status != StatusCheckedOut {
		t.Errorf("expected checked-out status, got %s", co.Status)
	}
	if co.CheckOutDate.IsZero() {
		t.Error("checkout date not stamped")
	}

	// Stock deducted in the same commit
	after, err := repo.ItemByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("ItemByID failed: %v", err)
	}
	if after.Quantity != 1 {
		t.Errorf("expected quantity 1 after loan of 3, got %d", after.Quantity)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.ActiveLoans != 1 {
		t.Errorf("expected 1 active loan, got %d", stats.ActiveLoans)
	}
	if stats.TotalQuantity != 1 {
		t.Errorf("stats quantity must track the deduction, got %d", stats.TotalQuantity)
	}
}

func TestCreateCheckOutInsufficientStock(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepository(t)

	item, err := repo.CreateItem(ctx, testGearItem("Chess set", CategoryGames, 2))
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	_, err = repo.CreateCheckOut(ctx, testCheckOut(item.ID, 3))
	if !IsInsufficientStock(err) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Nothing mutated
	after, err := repo.ItemByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("ItemByID failed: %v", err)
	}
	if after.Quantity != 2 {
		t.Errorf("rejected loan changed stock: %d", after.Quantity)
	}
	checkouts, err := repo.AllCheckOuts(ctx)
	if err != nil {
		t.Fatalf("AllCheckOuts failed: %v", err)
	}
	if len(checkouts) != 0 {
		t.Errorf("rejected loan was stored: %v", checkouts)
	}
}

func TestCreateCheckOutUnknownItem(t *testing.T) {
	repo := setupTestRepository(t)
	_, err := repo.CreateCheckOut(context.Background(), testCheckOut("no-such-item", 1))
	if !IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateCheckOutValidation(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	tests := []struct {
		name string
		co   CheckOut
	}{
		{"missing item id", CheckOut{Borrower: "Falcon patrol", Quantity: 1}},
		{"missing borrower", CheckOut{ItemID: "item-1", Quantity: 1}},
		{"zero quantity", CheckOut{ItemID: "item-1", Borrower: "Falcon patrol"}},
		{"negative quantity", CheckOut{ItemID: "item-1", Borrower: "Falcon patrol", Quantity: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.CreateCheckOut(ctx, &tt.co); !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestReturnCheckOut(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepository(t)

	item, err := repo.CreateItem(ctx, testGearItem("Patrol tent", CategoryTent, 4))
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	co, err := repo.CreateCheckOut(ctx, testCheckOut(item.ID, 3))
	if err != nil {
		t.Fatalf("CreateCheckOut failed: %v", err)
	}

	returned, err := repo.ReturnCheckOut(ctx, co.ID)
	if err != nil {
		t.Fatalf("ReturnCheckOut failed: %v", err)
	}
	if returned.Status != StatusReturned {
		t.Errorf("expected returned status, got %s", returned.Status)
	}
	if returned.ActualReturnDate == nil {
		t.Error("actual return date not stamped")
	}

	// Stock restored exactly once
	after, err := repo.ItemByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("ItemByID failed: %v", err)
	}
	if after.Quantity != 4 {
		t.Errorf("expected stock restored to 4, got %d", after.Quantity)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.ActiveLoans != 0 || stats.TotalQuantity != 4 {
		t.Errorf("stats not reverted by return: %+v", stats)
	}

	// A second return is rejected and restores nothing
	if _, err := repo.ReturnCheckOut(ctx, co.ID); !IsAlreadyReturned(err) {
		t.Fatalf("expected ErrAlreadyReturned, got %v", err)
	}
	after, err = repo.ItemByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("ItemByID failed: %v", err)
	}
	if after.Quantity != 4 {
		t.Errorf("double return changed stock: %d", after.Quantity)
	}
}

func TestReturnCheckOutDeletedItem(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepository(t)

	item, err := repo.CreateItem(ctx, testGearItem("Chess set", CategoryGames, 2))
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	co, err := repo.CreateCheckOut(ctx, testCheckOut(item.ID, 1))
	if err != nil {
		t.Fatalf("CreateCheckOut failed: %v", err)
	}
	if err := repo.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}

	// The return still closes the loan; stock restoration is skipped
	returned, err := repo.ReturnCheckOut(ctx, co.ID)
	if err != nil {
		t.Fatalf("ReturnCheckOut failed: %v", err)
	}
	if returned.Status != StatusReturned {
		t.Errorf("expected returned status, got %s", returned.Status)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.ActiveLoans != 0 {
		t.Errorf("expected 0 active loans, got %d", stats.ActiveLoans)
	}
}

func TestDeleteCheckOutCancelsActiveLoan(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepository(t)

	item, err := repo.CreateItem(ctx, testGearItem("Patrol tent", CategoryTent, 4))
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	co, err := repo.CreateCheckOut(ctx, testCheckOut(item.ID, 3))
	if err != nil {
		t.Fatalf("CreateCheckOut failed: %v", err)
	}

	if err := repo.DeleteCheckOut(ctx, co.ID); err != nil {
		t.Fatalf("DeleteCheckOut failed: %v", err)
	}

	if _, err := repo.CheckOutByID(ctx, co.ID); !IsNotFound(err) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Cancellation restores stock like a return would
	after, err := repo.ItemByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("ItemByID failed: %v", err)
	}
	if after.Quantity != 4 {
		t.Errorf("expected stock restored to 4, got %d", after.Quantity)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.ActiveLoans != 0 {
		t.Errorf("expected 0 active loans after cancel, got %d", stats.ActiveLoans)
	}
}

func TestDeleteCheckOutReturnedLoan(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepository(t)

	item, err := repo.CreateItem(ctx, testGearItem("Patrol tent", CategoryTent, 4))
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	co, err := repo.CreateCheckOut(ctx, testCheckOut(item.ID, 2))
	if err != nil {
		t.Fatalf("CreateCheckOut failed: %v", err)
	}
	if _, err := repo.ReturnCheckOut(ctx, co.ID); err != nil {
		t.Fatalf("ReturnCheckOut failed: %v", err)
	}

	if err := repo.DeleteCheckOut(ctx, co.ID); err != nil {
		t.Fatalf("DeleteCheckOut failed: %v", err)
	}

	// Stock was already restored by the return; deleting must not restore again
	after, err := repo.ItemByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("ItemByID failed: %v", err)
	}
	if after.Quantity != 4 {
		t.Errorf("deleting a returned loan changed stock: %d", after.Quantity)
	}
}

func TestActiveAndOverdueCheckOuts(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepository(t)

	item, err := repo.CreateItem(ctx, testGearItem("Patrol tent", CategoryTent, 10))
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	onTime := testCheckOut(item.ID, 1)
	if _, err := repo.CreateCheckOut(ctx, onTime); err != nil {
		t.Fatalf("CreateCheckOut failed: %v", err)
	}

	late := testCheckOut(item.ID, 1)
	late.ExpectedReturnDate = time.Now().UTC().Add(-24 * time.Hour)
	lateCo, err := repo.CreateCheckOut(ctx, late)
	if err != nil {
		t.Fatalf("CreateCheckOut failed: %v", err)
	}

	closed := testCheckOut(item.ID, 1)
	closedCo, err := repo.CreateCheckOut(ctx, closed)
	if err != nil {
		t.Fatalf("CreateCheckOut failed: %v", err)
	}
	if _, err := repo.ReturnCheckOut(ctx, closedCo.ID); err != nil {
		t.Fatalf("ReturnCheckOut failed: %v", err)
	}

	active, err := repo.ActiveCheckOuts(ctx)
	if err != nil {
		t.Fatalf("ActiveCheckOuts failed: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("expected 2 active loans, got %d", len(active))
	}

	overdue, err := repo.OverdueCheckOuts(ctx)
	if err != nil {
		t.Fatalf("OverdueCheckOuts failed: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != lateCo.ID {
		t.Errorf("unexpected overdue result: %v", overdue)
	}
	// Overdue is derived, never written back to the record
	stored, err := repo.CheckOutByID(ctx, lateCo.ID)
	if err != nil {
		t.Fatalf("CheckOutByID failed: %v", err)
	}
	if stored.Status != StatusCheckedOut {
		t.Errorf("overdue status must stay derived, stored %s", stored.Status)
	}
}

func TestCheckOutEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		co   CheckOut
		want CheckOutStatus
	}{
		{
			"before due date",
			CheckOut{Status: StatusCheckedOut, ExpectedReturnDate: now.Add(time.Hour)},
			StatusCheckedOut,
		},
		{
			"past due date",
			CheckOut{Status: StatusCheckedOut, ExpectedReturnDate: now.Add(-time.Hour)},
			StatusOverdue,
		},
		{
			"returned stays returned",
			CheckOut{Status: StatusReturned, ExpectedReturnDate: now.Add(-time.Hour)},
			StatusReturned,
		},
		{
			"no due date never goes overdue",
			CheckOut{Status: StatusCheckedOut},
			StatusCheckedOut,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.co.EffectiveStatus(now); got != tt.want {
				t.Errorf("EffectiveStatus = %s, want %s", got, tt.want)
			}
		})
	}
}

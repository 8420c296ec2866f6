package models_test

import (
	"testing"

	"bitbucket.org/zeatech/resto_backend/models"
	"github.com/shopspring/decimal"
)

// The denormalized quantity must always equal the opening quantity plus the
// signed sum of every surviving ledger event, no matter how events interleave.
func TestStockQuantity_ConservedAcrossEventSequence(t *testing.T) {
	ctx, _ := setupLedgerTest(t)
	item := createTestItem(t, ctx, "Rice", "3")
	expected := dec("3")

	apply := func(delta string) {
		expected = expected.Add(dec(delta))
	}

	// purchase of 40
	purchase, err := models.CreatePurchase(ctx, &models.NewPurchase{
		Details: []models.NewPurchaseLine{
			{ItemId: item.ID, Quantity: dec("40"), UnitCost: dec("1.1")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	apply("40")

	// manual IN of 2.5, OUT of 2
	inMove, err := models.CreateStockMovement(ctx, &models.NewStockMovement{
		ItemId: item.ID, MovementType: models.MovementTypeIn, Quantity: dec("2.5"),
	})
	if err != nil {
		t.Fatalf("CreateStockMovement IN: %v", err)
	}
	apply("2.5")
	if _, err := models.CreateStockMovement(ctx, &models.NewStockMovement{
		ItemId: item.ID, MovementType: models.MovementTypeOut, Quantity: dec("2"),
	}); err != nil {
		t.Fatalf("CreateStockMovement OUT: %v", err)
	}
	apply("-2")

	// sale of 12, then one sale line deleted again
	sale, err := models.CreateSale(ctx, &models.NewSale{
		Details: []models.NewSaleLine{
			{ItemId: item.ID, Quantity: dec("12"), UnitPrice: dec("3")},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	apply("-12")
	if _, err := models.DeleteSaleItem(ctx, sale.Details[0].ID); err != nil {
		t.Fatalf("DeleteSaleItem: %v", err)
	}
	apply("12")

	// undo the manual IN, then the whole purchase
	if _, err := models.DeleteStockMovement(ctx, inMove.ID); err != nil {
		t.Fatalf("DeleteStockMovement: %v", err)
	}
	apply("-2.5")
	if _, err := models.DeletePurchase(ctx, purchase.ID); err != nil {
		t.Fatalf("DeletePurchase: %v", err)
	}
	apply("-40")

	got := itemQty(t, ctx, item.ID)
	if !got.Equal(expected) {
		t.Fatalf("quantity = %s, want %s", got, expected)
	}
	if got.Cmp(decimal.Zero) < 0 {
		t.Fatalf("quantity went negative: %s", got)
	}
}

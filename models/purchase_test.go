package models_test

import (
	"errors"
	"testing"

	"bitbucket.org/zeatech/resto_backend/models"
)

func TestCreatePurchase_ReceivesStockAndTotals(t *testing.T) {
	ctx, _ := setupLedgerTest(t)
	item := createTestItem(t, ctx, "Rice", "0")

	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "City Wholesale"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}

	purchase, err := models.CreatePurchase(ctx, &models.NewPurchase{
		SupplierId: &supplier.ID,
		Details: []models.NewPurchaseLine{
			{ItemId: item.ID, Quantity: dec("10"), UnitCost: dec("2")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if len(purchase.Details) != 1 {
		t.Fatalf("expected 1 line, got %d", len(purchase.Details))
	}
	assertQty(t, purchase.Details[0].LineTotal, "20")
	assertQty(t, purchase.TotalCost, "20")
	assertQty(t, itemQty(t, ctx, item.ID), "10")
}

func TestDeletePurchaseItem_RoundTrip(t *testing.T) {
	ctx, _ := setupLedgerTest(t)
	item := createTestItem(t, ctx, "Rice", "0")

	purchase, err := models.CreatePurchase(ctx, &models.NewPurchase{
		Details: []models.NewPurchaseLine{
			{ItemId: item.ID, Quantity: dec("10"), UnitCost: dec("2")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	assertQty(t, itemQty(t, ctx, item.ID), "10")

	if _, err := models.DeletePurchaseItem(ctx, purchase.Details[0].ID); err != nil {
		t.Fatalf("DeletePurchaseItem: %v", err)
	}
	assertQty(t, itemQty(t, ctx, item.ID), "0")

	reloaded, err := models.GetPurchase(ctx, purchase.ID)
	if err != nil {
		t.Fatalf("GetPurchase: %v", err)
	}
	if len(reloaded.Details) != 0 {
		t.Fatalf("expected no lines, got %d", len(reloaded.Details))
	}
	assertQty(t, reloaded.TotalCost, "0")
}

// Removing a purchase line takes received stock back out, so it is guarded the
// same way a sale is: if the stock has since been consumed, the reversal fails.
func TestDeletePurchaseItem_GuardedWhenStockConsumed(t *testing.T) {
	ctx, _ := setupLedgerTest(t)
	item := createTestItem(t, ctx, "Chicken", "0")

	purchase, err := models.CreatePurchase(ctx, &models.NewPurchase{
		Details: []models.NewPurchaseLine{
			{ItemId: item.ID, Quantity: dec("10"), UnitCost: dec("4.5")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	// consume most of the received stock
	if _, err := models.CreateSale(ctx, &models.NewSale{
		Details: []models.NewSaleLine{
			{ItemId: item.ID, Quantity: dec("8"), UnitPrice: dec("9")},
		},
	}); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	assertQty(t, itemQty(t, ctx, item.ID), "2")

	_, err = models.DeletePurchaseItem(ctx, purchase.Details[0].ID)
	if !errors.Is(err, models.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	assertQty(t, itemQty(t, ctx, item.ID), "2")

	reloaded, err := models.GetPurchase(ctx, purchase.ID)
	if err != nil {
		t.Fatalf("GetPurchase: %v", err)
	}
	if len(reloaded.Details) != 1 {
		t.Fatalf("expected line kept after failed reversal, got %d lines", len(reloaded.Details))
	}
	assertQty(t, reloaded.TotalCost, "45")
}

func TestCreatePurchaseItem_AppendsAndRecomputes(t *testing.T) {
	ctx, _ := setupLedgerTest(t)
	rice := createTestItem(t, ctx, "Rice", "0")
	oil := createTestItem(t, ctx, "Oil", "0")

	purchase, err := models.CreatePurchase(ctx, &models.NewPurchase{
		Details: []models.NewPurchaseLine{
			{ItemId: rice.ID, Quantity: dec("10"), UnitCost: dec("1.2")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	if _, err := models.CreatePurchaseItem(ctx, purchase.ID, &models.NewPurchaseLine{
		ItemId: oil.ID, Quantity: dec("5"), UnitCost: dec("2.8"),
	}); err != nil {
		t.Fatalf("CreatePurchaseItem: %v", err)
	}
	assertQty(t, itemQty(t, ctx, oil.ID), "5")

	reloaded, err := models.GetPurchase(ctx, purchase.ID)
	if err != nil {
		t.Fatalf("GetPurchase: %v", err)
	}
	assertQty(t, reloaded.TotalCost, "26")
}

func TestDeletePurchase_ReversesAllLines(t *testing.T) {
	ctx, _ := setupLedgerTest(t)
	rice := createTestItem(t, ctx, "Rice", "0")
	oil := createTestItem(t, ctx, "Oil", "0")

	purchase, err := models.CreatePurchase(ctx, &models.NewPurchase{
		Details: []models.NewPurchaseLine{
			{ItemId: rice.ID, Quantity: dec("10"), UnitCost: dec("1.2")},
			{ItemId: oil.ID, Quantity: dec("4"), UnitCost: dec("2.8")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	if _, err := models.DeletePurchase(ctx, purchase.ID); err != nil {
		t.Fatalf("DeletePurchase: %v", err)
	}
	assertQty(t, itemQty(t, ctx, rice.ID), "0")
	assertQty(t, itemQty(t, ctx, oil.ID), "0")

	if _, err := models.GetPurchase(ctx, purchase.ID); err == nil {
		t.Fatalf("expected purchase to be gone")
	}
}

func TestCreatePurchase_ValidationErrors(t *testing.T) {
	ctx, _ := setupLedgerTest(t)
	item := createTestItem(t, ctx, "Rice", "0")

	cases := []struct {
		name  string
		input models.NewPurchase
	}{
		{"zero quantity", models.NewPurchase{Details: []models.NewPurchaseLine{{ItemId: item.ID, Quantity: dec("0"), UnitCost: dec("1")}}}},
		{"negative unit cost", models.NewPurchase{Details: []models.NewPurchaseLine{{ItemId: item.ID, Quantity: dec("1"), UnitCost: dec("-1")}}}},
		{"unknown item", models.NewPurchase{Details: []models.NewPurchaseLine{{ItemId: 9999, Quantity: dec("1"), UnitCost: dec("1")}}}},
	}
	for _, tc := range cases {
		if _, err := models.CreatePurchase(ctx, &tc.input); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
	assertQty(t, itemQty(t, ctx, item.ID), "0")
}

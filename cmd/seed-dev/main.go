package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/models"
	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Seeds a demo restaurant with a handful of stock items, suppliers and an
// opening purchase so a fresh local database has something to look at.
// Not idempotent; run against an empty database only.
func main() {
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx := context.Background()
	restaurant, err := models.CreateRestaurant(ctx, &models.NewRestaurant{
		Name:    "Golden Wok (dev)",
		Email:   "dev@example.com",
		Address: "123 Demo Street",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create restaurant: %v\n", err)
		os.Exit(1)
	}
	ctx = utils.SetRestaurantIdInContext(ctx, restaurant.ID.String())

	type seedItem struct {
		name      string
		unit      string
		threshold string
	}
	items := []seedItem{
		{"Rice", "kg", "10"},
		{"Chicken", "kg", "5"},
		{"Cooking Oil", "l", "4"},
		{"Soy Sauce", "bottle", "2"},
		{"Eggs", "pcs", "30"},
	}
	itemIds := make(map[string]int, len(items))
	for _, it := range items {
		created, err := models.CreateStockItem(ctx, &models.NewStockItem{
			Name:         it.name,
			Unit:         it.unit,
			MinThreshold: decimal.RequireFromString(it.threshold),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "create stock item %s: %v\n", it.name, err)
			os.Exit(1)
		}
		itemIds[it.name] = created.ID
	}

	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{
		Name:    "City Wholesale",
		Email:   "orders@citywholesale.example.com",
		Address: "45 Market Road",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create supplier: %v\n", err)
		os.Exit(1)
	}

	if _, err := models.CreatePurchase(ctx, &models.NewPurchase{
		SupplierId: &supplier.ID,
		Notes:      "opening stock",
		Details: []models.NewPurchaseLine{
			{ItemId: itemIds["Rice"], Quantity: decimal.NewFromInt(50), UnitCost: decimal.RequireFromString("1.20")},
			{ItemId: itemIds["Chicken"], Quantity: decimal.NewFromInt(20), UnitCost: decimal.RequireFromString("4.50")},
			{ItemId: itemIds["Cooking Oil"], Quantity: decimal.NewFromInt(12), UnitCost: decimal.RequireFromString("2.80")},
			{ItemId: itemIds["Eggs"], Quantity: decimal.NewFromInt(120), UnitCost: decimal.RequireFromString("0.15")},
		},
	}); err != nil {
		fmt.Fprintf(os.Stderr, "create opening purchase: %v\n", err)
		os.Exit(1)
	}

	// an inactive restaurant so the demo data covers both states
	closed := models.Restaurant{
		ID:       uuid.New(),
		Name:     "Closed Bistro (dev)",
		IsActive: utils.NewFalse(),
	}
	utils.ErrorPanic(config.GetDB().Create(&closed).Error)

	fmt.Printf("seeded restaurant %s (%s)\n", restaurant.Name, restaurant.ID)
	fmt.Println("use header x-restaurant-id with that id against the API")
}

package models_test

import (
	"context"
	"testing"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/models"
	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupLedgerTest opens an isolated in-memory database, runs the migrations
// and provisions one restaurant. The returned context is scoped to it.
func setupLedgerTest(t *testing.T) (context.Context, *gorm.DB) {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	config.SetDB(db)
	t.Cleanup(func() { config.SetDB(nil) })
	models.MigrateTable()

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	restaurant, err := models.CreateRestaurant(ctx, &models.NewRestaurant{
		Name: "Ledger Test Kitchen",
	})
	if err != nil {
		t.Fatalf("CreateRestaurant: %v", err)
	}
	ctx = utils.SetRestaurantIdInContext(ctx, restaurant.ID.String())
	return ctx, db
}

// setupSecondRestaurant provisions another restaurant on the same database
// and returns a context scoped to it, for tenant-isolation checks.
func setupSecondRestaurant(t *testing.T, ctx context.Context) context.Context {
	t.Helper()
	restaurant, err := models.CreateRestaurant(ctx, &models.NewRestaurant{
		Name: "Other Kitchen",
	})
	if err != nil {
		t.Fatalf("CreateRestaurant: %v", err)
	}
	return utils.SetRestaurantIdInContext(ctx, restaurant.ID.String())
}

func createTestItem(t *testing.T, ctx context.Context, name string, openingQty string) *models.StockItem {
	t.Helper()
	item, err := models.CreateStockItem(ctx, &models.NewStockItem{
		Name:     name,
		Unit:     "kg",
		Quantity: dec(openingQty),
	})
	if err != nil {
		t.Fatalf("CreateStockItem %s: %v", name, err)
	}
	return item
}

func itemQty(t *testing.T, ctx context.Context, id int) decimal.Decimal {
	t.Helper()
	item, err := models.GetStockItem(ctx, id)
	if err != nil {
		t.Fatalf("GetStockItem %d: %v", id, err)
	}
	return item.Quantity
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertQty(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("quantity = %s, want %s", got, want)
	}
}

package workflow_test

import (
	"context"
	"testing"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/models"
	"bitbucket.org/zeatech/resto_backend/utils"
	"bitbucket.org/zeatech/resto_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRebuildStockQuantities_FixesDrift(t *testing.T) {
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
	restaurant, err := models.CreateRestaurant(ctx, &models.NewRestaurant{Name: "Rebuild Kitchen"})
	if err != nil {
		t.Fatalf("CreateRestaurant: %v", err)
	}
	restaurantId := restaurant.ID.String()
	ctx = utils.SetRestaurantIdInContext(ctx, restaurantId)

	item, err := models.CreateStockItem(ctx, &models.NewStockItem{Name: "Rice", Unit: "kg"})
	if err != nil {
		t.Fatalf("CreateStockItem: %v", err)
	}
	if _, err := models.CreatePurchase(ctx, &models.NewPurchase{
		Details: []models.NewPurchaseLine{
			{ItemId: item.ID, Quantity: dec("10"), UnitCost: dec("2")},
		},
	}); err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if _, err := models.CreateSale(ctx, &models.NewSale{
		Details: []models.NewSaleLine{
			{ItemId: item.ID, Quantity: dec("4"), UnitPrice: dec("5")},
		},
	}); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	// simulate historical corruption of the denormalized quantity
	if err := db.Model(&models.StockItem{}).
		Where("id = ?", item.ID).
		Update("quantity", dec("99")).Error; err != nil {
		t.Fatalf("corrupt quantity: %v", err)
	}

	log := logrus.New()
	tx := db.Begin()
	fixed, err := workflow.RebuildStockQuantities(tx, log, restaurantId)
	if err != nil {
		tx.Rollback()
		t.Fatalf("RebuildStockQuantities: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}
	if fixed != 1 {
		t.Fatalf("expected 1 corrected item, got %d", fixed)
	}

	reloaded, err := models.GetStockItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetStockItem: %v", err)
	}
	if !reloaded.Quantity.Equal(dec("6")) {
		t.Fatalf("quantity = %s, want 6", reloaded.Quantity)
	}

	// already consistent; a second pass is a no-op
	tx = db.Begin()
	fixed, err = workflow.RebuildStockQuantities(tx, log, restaurantId)
	if err != nil {
		tx.Rollback()
		t.Fatalf("RebuildStockQuantities second pass: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}
	if fixed != 0 {
		t.Fatalf("expected no corrections on second pass, got %d", fixed)
	}
}

func TestRebuildStockQuantities_InputChecks(t *testing.T) {
	if _, err := workflow.RebuildStockQuantities(nil, nil, "abc"); err == nil {
		t.Fatalf("expected error for nil tx")
	}
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := workflow.RebuildStockQuantities(db, logrus.New(), ""); err == nil {
		t.Fatalf("expected error for empty restaurant id")
	}
}

package reports_test

import (
	"context"
	"testing"
	"time"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/models"
	"bitbucket.org/zeatech/resto_backend/models/reports"
	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seeds one restaurant with a supplier, two items, one purchase (Rice 10@2,
// Oil 4@3) and one sale (Rice 4@5).
func setupReportTest(t *testing.T) context.Context {
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
	restaurant, err := models.CreateRestaurant(ctx, &models.NewRestaurant{Name: "Report Kitchen"})
	if err != nil {
		t.Fatalf("CreateRestaurant: %v", err)
	}
	ctx = utils.SetRestaurantIdInContext(ctx, restaurant.ID.String())

	rice, err := models.CreateStockItem(ctx, &models.NewStockItem{Name: "Rice", Unit: "kg"})
	if err != nil {
		t.Fatalf("CreateStockItem: %v", err)
	}
	oil, err := models.CreateStockItem(ctx, &models.NewStockItem{Name: "Oil", Unit: "l"})
	if err != nil {
		t.Fatalf("CreateStockItem: %v", err)
	}
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "City Wholesale"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}

	if _, err := models.CreatePurchase(ctx, &models.NewPurchase{
		SupplierId: &supplier.ID,
		Details: []models.NewPurchaseLine{
			{ItemId: rice.ID, Quantity: dec("10"), UnitCost: dec("2")},
			{ItemId: oil.ID, Quantity: dec("4"), UnitCost: dec("3")},
		},
	}); err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if _, err := models.CreateSale(ctx, &models.NewSale{
		Details: []models.NewSaleLine{
			{ItemId: rice.ID, Quantity: dec("4"), UnitPrice: dec("5")},
		},
	}); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	return ctx
}

func reportWindow() (time.Time, time.Time) {
	now := time.Now().UTC()
	return now.Add(-48 * time.Hour), now.Add(48 * time.Hour)
}

func TestGetSalesByItemReport(t *testing.T) {
	ctx := setupReportTest(t)
	from, to := reportWindow()

	records, err := reports.GetSalesByItemReport(ctx, from, to, nil)
	if err != nil {
		t.Fatalf("GetSalesByItemReport: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 row, got %d", len(records))
	}
	r := records[0]
	if r.ItemName == nil || *r.ItemName != "Rice" {
		t.Fatalf("unexpected item name: %v", r.ItemName)
	}
	if !r.SoldQty.Equal(dec("4")) || !r.TotalAmount.Equal(dec("20")) || !r.AveragePrice.Equal(dec("5")) {
		t.Fatalf("unexpected aggregates: qty=%s amount=%s avg=%s", r.SoldQty, r.TotalAmount, r.AveragePrice)
	}
}

func TestGetSalesByItemReport_NameFilter(t *testing.T) {
	ctx := setupReportTest(t)
	from, to := reportWindow()

	name := "oil"
	records, err := reports.GetSalesByItemReport(ctx, from, to, &name)
	if err != nil {
		t.Fatalf("GetSalesByItemReport: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no rows for unsold item filter, got %d", len(records))
	}
}

func TestGetPurchasesBySupplierReport(t *testing.T) {
	ctx := setupReportTest(t)
	from, to := reportWindow()

	records, err := reports.GetPurchasesBySupplierReport(ctx, from, to)
	if err != nil {
		t.Fatalf("GetPurchasesBySupplierReport: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 row, got %d", len(records))
	}
	r := records[0]
	if r.SupplierName == nil || *r.SupplierName != "City Wholesale" {
		t.Fatalf("unexpected supplier name: %v", r.SupplierName)
	}
	if r.PurchaseCount != 1 || !r.TotalCost.Equal(dec("32")) {
		t.Fatalf("unexpected aggregates: count=%d cost=%s", r.PurchaseCount, r.TotalCost)
	}
}

func TestGetInventoryValuationReport(t *testing.T) {
	ctx := setupReportTest(t)

	records, err := reports.GetInventoryValuationReport(ctx)
	if err != nil {
		t.Fatalf("GetInventoryValuationReport: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(records))
	}
	// ordered by name: Oil then Rice
	oil, rice := records[0], records[1]
	if !oil.Quantity.Equal(dec("4")) || !oil.LastUnitCost.Equal(dec("3")) || !oil.StockValue.Equal(dec("12")) {
		t.Fatalf("unexpected oil valuation: qty=%s cost=%s value=%s", oil.Quantity, oil.LastUnitCost, oil.StockValue)
	}
	if !rice.Quantity.Equal(dec("6")) || !rice.LastUnitCost.Equal(dec("2")) || !rice.StockValue.Equal(dec("12")) {
		t.Fatalf("unexpected rice valuation: qty=%s cost=%s value=%s", rice.Quantity, rice.LastUnitCost, rice.StockValue)
	}
}

func TestGetProfitSummaryReport(t *testing.T) {
	ctx := setupReportTest(t)
	from, to := reportWindow()

	record, err := reports.GetProfitSummaryReport(ctx, from, to)
	if err != nil {
		t.Fatalf("GetProfitSummaryReport: %v", err)
	}
	if !record.TotalRevenue.Equal(dec("20")) || !record.TotalCost.Equal(dec("32")) {
		t.Fatalf("unexpected totals: revenue=%s cost=%s", record.TotalRevenue, record.TotalCost)
	}
	if !record.GrossProfit.Equal(dec("-12")) {
		t.Fatalf("unexpected gross profit: %s", record.GrossProfit)
	}
	if record.SaleCount != 1 || record.PurchaseCount != 1 {
		t.Fatalf("unexpected counts: sales=%d purchases=%d", record.SaleCount, record.PurchaseCount)
	}
}

func TestExportSalesByItemExcel(t *testing.T) {
	ctx := setupReportTest(t)
	from, to := reportWindow()

	f, err := reports.ExportSalesByItemExcel(ctx, from, to)
	if err != nil {
		t.Fatalf("ExportSalesByItemExcel: %v", err)
	}
	header, err := f.GetCellValue("Sheet1", "A1")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if header != "ItemName" {
		t.Fatalf("unexpected header: %q", header)
	}
	name, err := f.GetCellValue("Sheet1", "A2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if name != "Rice" {
		t.Fatalf("unexpected first row item: %q", name)
	}
}

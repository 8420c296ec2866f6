package workflow

import (
	"fmt"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RebuildStockQuantities recomputes every StockItem.quantity of a restaurant
// from the event tables (movements, purchase lines, sale lines) and rewrites
// any drifted row. The event tables are the ledger of record; this is the
// repair path for historical data written before the guarded reversal rules.
//
// Returns the number of items whose quantity was corrected.
func RebuildStockQuantities(tx *gorm.DB, logger *logrus.Logger, restaurantId string) (int, error) {
	if tx == nil {
		return 0, fmt.Errorf("rebuild stock: tx is nil")
	}
	if logger == nil {
		logger = config.GetLogger()
	}
	if restaurantId == "" {
		return 0, fmt.Errorf("rebuild stock: restaurant id is required")
	}

	var items []*models.StockItem
	if err := tx.Where("restaurant_id = ?", restaurantId).Find(&items).Error; err != nil {
		return 0, err
	}

	fixed := 0
	for _, item := range items {
		expected, err := computeExpectedQty(tx, restaurantId, item.ID)
		if err != nil {
			return fixed, err
		}
		if expected.Equal(item.Quantity) {
			continue
		}
		logger.WithFields(logrus.Fields{
			"module":       "workflow",
			"funcName":     "RebuildStockQuantities",
			"restaurantId": restaurantId,
			"itemId":       item.ID,
			"stored":       item.Quantity.String(),
			"expected":     expected.String(),
		}).Warn("stock quantity drift; rewriting")

		if err := tx.Model(&models.StockItem{}).
			Where("id = ? AND restaurant_id = ?", item.ID, restaurantId).
			Update("quantity", expected).Error; err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}

// computeExpectedQty sums the signed deltas of all committed events for one
// item: +IN movements, -OUT movements, +purchase lines, -sale lines.
func computeExpectedQty(tx *gorm.DB, restaurantId string, itemId int) (decimal.Decimal, error) {
	var movementDelta decimal.Decimal
	if err := tx.Model(&models.StockMovement{}).
		Where("restaurant_id = ? AND item_id = ?", restaurantId, itemId).
		Select("COALESCE(SUM(CASE WHEN movement_type = 'IN' THEN quantity ELSE -quantity END), 0)").
		Scan(&movementDelta).Error; err != nil {
		return decimal.Zero, err
	}

	var purchasedQty decimal.Decimal
	if err := tx.Model(&models.PurchaseItem{}).
		Joins("JOIN purchases ON purchases.id = purchase_items.purchase_id").
		Where("purchases.restaurant_id = ? AND purchase_items.item_id = ?", restaurantId, itemId).
		Select("COALESCE(SUM(purchase_items.quantity), 0)").
		Scan(&purchasedQty).Error; err != nil {
		return decimal.Zero, err
	}

	var soldQty decimal.Decimal
	if err := tx.Model(&models.SaleItem{}).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.restaurant_id = ? AND sale_items.item_id = ?", restaurantId, itemId).
		Select("COALESCE(SUM(sale_items.quantity), 0)").
		Scan(&soldQty).Error; err != nil {
		return decimal.Zero, err
	}

	return movementDelta.Add(purchasedQty).Sub(soldQty), nil
}

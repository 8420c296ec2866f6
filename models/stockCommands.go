package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Quantity-mutation primitives for the stock ledger.
//
// Every ledger event (movement, purchase line, sale line) mutates
// stock_items.quantity through exactly these two functions, inside the
// event's own transaction.
//
// Decrements are a single guarded statement:
//
//	UPDATE stock_items SET quantity = quantity - ? WHERE id = ? AND quantity >= ?
//
// The sufficiency check and the write are one atomic statement, so two
// concurrent transactions can never both read a stale quantity and both
// commit a decrement past zero. RowsAffected = 0 means the guard failed.
// An optional per-restaurant redislock (utils.RestaurantLock) additionally
// serializes posting when Redis is configured.

// increaseStockQty adds quantity to the item row inside tx.
func increaseStockQty(tx *gorm.DB, restaurantId string, itemId int, quantity decimal.Decimal) error {
	res := tx.Exec(
		"UPDATE stock_items SET quantity = quantity + ? WHERE id = ? AND restaurant_id = ?",
		quantity, itemId, restaurantId,
	)
	if res.Error != nil {
		tx.Rollback()
		return res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return ErrorStockItemMissing
	}
	return nil
}

// decreaseStockQty subtracts quantity from the item row inside tx, failing
// with InsufficientStockError when the row holds less than requested.
// itemName is only used for the error message.
func decreaseStockQty(tx *gorm.DB, restaurantId string, itemId int, itemName string, quantity decimal.Decimal) error {
	res := tx.Exec(
		"UPDATE stock_items SET quantity = quantity - ? WHERE id = ? AND restaurant_id = ? AND quantity >= ?",
		quantity, itemId, restaurantId, quantity,
	)
	if res.Error != nil {
		tx.Rollback()
		return res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return &InsufficientStockError{ItemName: itemName}
	}
	return nil
}

// RecomputeSaleTotal re-derives Sale.total_amount from the sale's current
// line totals inside the caller's transaction. Idempotent.
func RecomputeSaleTotal(tx *gorm.DB, saleId int) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := tx.Model(&SaleItem{}).
		Where("sale_id = ?", saleId).
		Select("COALESCE(SUM(line_total), 0)").
		Scan(&total).Error; err != nil {
		tx.Rollback()
		return decimal.Zero, err
	}
	if err := tx.Model(&Sale{}).Where("id = ?", saleId).
		Update("total_amount", total).Error; err != nil {
		tx.Rollback()
		return decimal.Zero, err
	}
	return total, nil
}

// RecomputePurchaseTotal re-derives Purchase.total_cost the same way.
func RecomputePurchaseTotal(tx *gorm.DB, purchaseId int) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := tx.Model(&PurchaseItem{}).
		Where("purchase_id = ?", purchaseId).
		Select("COALESCE(SUM(line_total), 0)").
		Scan(&total).Error; err != nil {
		tx.Rollback()
		return decimal.Zero, err
	}
	if err := tx.Model(&Purchase{}).Where("id = ?", purchaseId).
		Update("total_cost", total).Error; err != nil {
		tx.Rollback()
		return decimal.Zero, err
	}
	return total, nil
}

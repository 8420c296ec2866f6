package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/shopspring/decimal"
)

// Purchase is a restock event. Every line increases its item's quantity at
// creation and decreases it again at reversal. TotalCost is derived from the
// line totals and recomputed inside the same transaction as any line change.
type Purchase struct {
	ID           int             `gorm:"primary_key" json:"id"`
	RestaurantId string          `gorm:"index;not null" json:"restaurant_id"`
	SupplierId   *int            `gorm:"index" json:"supplier_id"`
	Supplier     *Supplier       `gorm:"foreignKey:SupplierId" json:"supplier,omitempty"`
	Notes        string          `gorm:"size:255" json:"notes"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_cost"`
	Details      []PurchaseItem  `gorm:"foreignKey:PurchaseId" json:"details"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseItem struct {
	ID         int             `gorm:"primary_key" json:"id"`
	PurchaseId int             `gorm:"index;not null" json:"purchase_id"`
	ItemId     int             `gorm:"index;not null" json:"item_id"`
	Item       *StockItem      `gorm:"foreignKey:ItemId" json:"item,omitempty"`
	Quantity   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"line_total"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPurchase struct {
	SupplierId *int              `json:"supplier_id"`
	Notes      string            `json:"notes"`
	Details    []NewPurchaseLine `json:"details" binding:"dive"`
}

type NewPurchaseLine struct {
	ItemId   int             `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

func (input *NewPurchaseLine) validate(ctx context.Context, restaurantId string) error {
	if !input.Quantity.IsPositive() {
		return errInput("quantity must be greater than zero")
	}
	if input.UnitCost.IsNegative() {
		return errInput("unit cost cannot be negative")
	}
	if err := utils.ValidateResourceId[StockItem](ctx, restaurantId, input.ItemId); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return ErrorStockItemMissing
		}
		return err
	}
	return nil
}

func (input *NewPurchase) validate(ctx context.Context, restaurantId string) error {
	if input.SupplierId != nil {
		if err := utils.ValidateResourceId[Supplier](ctx, restaurantId, *input.SupplierId); err != nil {
			return errInput("supplier not found")
		}
	}
	for i := range input.Details {
		if err := input.Details[i].validate(ctx, restaurantId); err != nil {
			return err
		}
	}
	return nil
}

// CreatePurchase persists the header and applies every line through the
// ledger in one transaction.
func CreatePurchase(ctx context.Context, input *NewPurchase) (*Purchase, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	if err := input.validate(ctx, restaurantId); err != nil {
		return nil, err
	}

	release, err := utils.RestaurantLock(ctx, restaurantId, "stockLock", "purchase.go", "CreatePurchase")
	if err != nil {
		return nil, err
	}
	defer release()

	purchase := Purchase{
		RestaurantId: restaurantId,
		SupplierId:   input.SupplierId,
		Notes:        input.Notes,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Create(&purchase).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range input.Details {
		line := input.Details[i]
		detail := PurchaseItem{
			PurchaseId: purchase.ID,
			ItemId:     line.ItemId,
			Quantity:   line.Quantity,
			UnitCost:   line.UnitCost,
			LineTotal:  line.Quantity.Mul(line.UnitCost),
		}
		if err := tx.Create(&detail).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := increaseStockQty(tx, restaurantId, line.ItemId, line.Quantity); err != nil {
			return nil, err
		}
		purchase.Details = append(purchase.Details, detail)
	}
	total, err := RecomputePurchaseTotal(tx, purchase.ID)
	if err != nil {
		return nil, err
	}
	purchase.TotalCost = total

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// CreatePurchaseItem adds one line to an existing purchase: persists the line,
// increments the item's stock and recomputes the purchase total, atomically.
func CreatePurchaseItem(ctx context.Context, purchaseId int, input *NewPurchaseLine) (*PurchaseItem, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	if err := utils.ValidateResourceId[Purchase](ctx, restaurantId, purchaseId); err != nil {
		return nil, errInput("purchase not found")
	}
	if err := input.validate(ctx, restaurantId); err != nil {
		return nil, err
	}

	release, err := utils.RestaurantLock(ctx, restaurantId, "stockLock", "purchase.go", "CreatePurchaseItem")
	if err != nil {
		return nil, err
	}
	defer release()

	detail := PurchaseItem{
		PurchaseId: purchaseId,
		ItemId:     input.ItemId,
		Quantity:   input.Quantity,
		UnitCost:   input.UnitCost,
		LineTotal:  input.Quantity.Mul(input.UnitCost),
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Create(&detail).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := increaseStockQty(tx, restaurantId, input.ItemId, input.Quantity); err != nil {
		return nil, err
	}
	if _, err := RecomputePurchaseTotal(tx, purchaseId); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

// DeletePurchaseItem reverses the line's stock increase and removes it.
// The decrement is guarded: when the received stock has already been consumed
// elsewhere the reversal fails instead of driving the quantity negative.
func DeletePurchaseItem(ctx context.Context, id int) (*PurchaseItem, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}

	db := config.GetDB()
	var detail PurchaseItem
	if err := db.WithContext(ctx).
		Joins("JOIN purchases ON purchases.id = purchase_items.purchase_id").
		Where("purchases.restaurant_id = ? AND purchase_items.id = ?", restaurantId, id).
		First(&detail).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	item, err := utils.FetchModel[StockItem](ctx, restaurantId, detail.ItemId)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, ErrorStockItemMissing
	}
	if err != nil {
		return nil, err
	}

	release, err := utils.RestaurantLock(ctx, restaurantId, "stockLock", "purchase.go", "DeletePurchaseItem")
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := decreaseStockQty(tx, restaurantId, detail.ItemId, item.Name, detail.Quantity); err != nil {
		return nil, err
	}
	if err := tx.Delete(&detail).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := RecomputePurchaseTotal(tx, detail.PurchaseId); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

// DeletePurchase reverses every line and removes the header atomically.
func DeletePurchase(ctx context.Context, id int) (*Purchase, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}

	purchase, err := utils.FetchModel[Purchase](ctx, restaurantId, id, "Details")
	if err != nil {
		return nil, err
	}

	// resolve item names before the transaction opens; reads inside the
	// transaction would run on the global handle, outside tx
	itemNames := make(map[int]string, len(purchase.Details))
	for i := range purchase.Details {
		if _, ok := itemNames[purchase.Details[i].ItemId]; ok {
			continue
		}
		item, err := utils.FetchModel[StockItem](ctx, restaurantId, purchase.Details[i].ItemId)
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, ErrorStockItemMissing
		}
		if err != nil {
			return nil, err
		}
		itemNames[item.ID] = item.Name
	}

	release, err := utils.RestaurantLock(ctx, restaurantId, "stockLock", "purchase.go", "DeletePurchase")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	for i := range purchase.Details {
		detail := purchase.Details[i]
		if err := decreaseStockQty(tx, restaurantId, detail.ItemId, itemNames[detail.ItemId], detail.Quantity); err != nil {
			return nil, err
		}
	}
	if err := tx.Where("purchase_id = ?", purchase.ID).Delete(&PurchaseItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(purchase).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return purchase, nil
}

func GetPurchase(ctx context.Context, id int) (*Purchase, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	return utils.FetchModel[Purchase](ctx, restaurantId, id, "Details", "Supplier")
}

func GetPurchases(ctx context.Context) ([]*Purchase, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	return utils.FetchAllModels[Purchase](ctx, restaurantId, "Details", "Supplier")
}

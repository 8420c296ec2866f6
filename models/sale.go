package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/shopspring/decimal"
)

// Sale is a consumption event. Every line decrements its item's quantity,
// guarded by sufficiency, and TotalAmount is recomputed from the line totals
// inside the same transaction as any line change.
type Sale struct {
	ID           int             `gorm:"primary_key" json:"id"`
	RestaurantId string          `gorm:"index;not null" json:"restaurant_id"`
	CustomerName string          `gorm:"size:120" json:"customer_name"`
	Notes        string          `gorm:"size:255" json:"notes"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_amount"`
	Details      []SaleItem      `gorm:"foreignKey:SaleId" json:"details"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type SaleItem struct {
	ID        int             `gorm:"primary_key" json:"id"`
	SaleId    int             `gorm:"index;not null" json:"sale_id"`
	ItemId    int             `gorm:"index;not null" json:"item_id"`
	Item      *StockItem      `gorm:"foreignKey:ItemId" json:"item,omitempty"`
	Quantity  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"line_total"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewSale struct {
	CustomerName string        `json:"customer_name"`
	Notes        string        `json:"notes"`
	Details      []NewSaleLine `json:"details" binding:"dive"`
}

type NewSaleLine struct {
	ItemId    int             `json:"item_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// validation errors here are user-correctable input errors, distinct from the
// stock-sufficiency failure raised later inside the transaction
func (input *NewSaleLine) validate(ctx context.Context, restaurantId string) error {
	if !input.Quantity.IsPositive() {
		return errInput("quantity must be greater than zero")
	}
	if !input.UnitPrice.IsPositive() {
		return errInput("unit price must be greater than zero")
	}
	if err := utils.ValidateResourceId[StockItem](ctx, restaurantId, input.ItemId); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return ErrorStockItemMissing
		}
		return err
	}
	return nil
}

func (input *NewSale) validate(ctx context.Context, restaurantId string) error {
	for i := range input.Details {
		if err := input.Details[i].validate(ctx, restaurantId); err != nil {
			return err
		}
	}
	return nil
}

// CreateSale persists the header and applies every line through the ledger in
// one transaction. Any insufficient line aborts the whole sale.
func CreateSale(ctx context.Context, input *NewSale) (*Sale, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	if err := input.validate(ctx, restaurantId); err != nil {
		return nil, err
	}

	// resolve item names before the transaction opens; reads inside the
	// transaction would run on the global handle, outside tx
	itemNames := make(map[int]string, len(input.Details))
	for i := range input.Details {
		if _, ok := itemNames[input.Details[i].ItemId]; ok {
			continue
		}
		item, err := utils.FetchModel[StockItem](ctx, restaurantId, input.Details[i].ItemId)
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, ErrorStockItemMissing
		}
		if err != nil {
			return nil, err
		}
		itemNames[item.ID] = item.Name
	}

	release, err := utils.RestaurantLock(ctx, restaurantId, "stockLock", "sale.go", "CreateSale")
	if err != nil {
		return nil, err
	}
	defer release()

	sale := Sale{
		RestaurantId: restaurantId,
		CustomerName: input.CustomerName,
		Notes:        input.Notes,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Create(&sale).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range input.Details {
		line := input.Details[i]
		detail := SaleItem{
			SaleId:    sale.ID,
			ItemId:    line.ItemId,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.Quantity.Mul(line.UnitPrice),
		}
		if err := tx.Create(&detail).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := decreaseStockQty(tx, restaurantId, line.ItemId, itemNames[line.ItemId], line.Quantity); err != nil {
			return nil, err
		}
		sale.Details = append(sale.Details, detail)
	}
	total, err := RecomputeSaleTotal(tx, sale.ID)
	if err != nil {
		return nil, err
	}
	sale.TotalAmount = total

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// CreateSaleItem adds one line to an existing sale. The guarded decrement and
// the line row are committed together or not at all; on success the sale's
// total is recomputed in the same transaction.
func CreateSaleItem(ctx context.Context, saleId int, input *NewSaleLine) (*SaleItem, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	if err := utils.ValidateResourceId[Sale](ctx, restaurantId, saleId); err != nil {
		return nil, errInput("sale not found")
	}
	if err := input.validate(ctx, restaurantId); err != nil {
		return nil, err
	}

	item, err := utils.FetchModel[StockItem](ctx, restaurantId, input.ItemId)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, ErrorStockItemMissing
	}
	if err != nil {
		return nil, err
	}

	release, err := utils.RestaurantLock(ctx, restaurantId, "stockLock", "sale.go", "CreateSaleItem")
	if err != nil {
		return nil, err
	}
	defer release()

	detail := SaleItem{
		SaleId:    saleId,
		ItemId:    input.ItemId,
		Quantity:  input.Quantity,
		UnitPrice: input.UnitPrice,
		LineTotal: input.Quantity.Mul(input.UnitPrice),
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
	if err := decreaseStockQty(tx, restaurantId, input.ItemId, item.Name, input.Quantity); err != nil {
		return nil, err
	}
	if _, err := RecomputeSaleTotal(tx, saleId); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

// DeleteSaleItem adds the sold quantity back, removes the line and recomputes
// the sale total, atomically.
func DeleteSaleItem(ctx context.Context, id int) (*SaleItem, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}

	db := config.GetDB()
	var detail SaleItem
	if err := db.WithContext(ctx).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.restaurant_id = ? AND sale_items.id = ?", restaurantId, id).
		First(&detail).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	release, err := utils.RestaurantLock(ctx, restaurantId, "stockLock", "sale.go", "DeleteSaleItem")
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := increaseStockQty(tx, restaurantId, detail.ItemId, detail.Quantity); err != nil {
		return nil, err
	}
	if err := tx.Delete(&detail).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := RecomputeSaleTotal(tx, detail.SaleId); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

// DeleteSale reverses every line and removes the header atomically.
func DeleteSale(ctx context.Context, id int) (*Sale, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}

	sale, err := utils.FetchModel[Sale](ctx, restaurantId, id, "Details")
	if err != nil {
		return nil, err
	}

	release, err := utils.RestaurantLock(ctx, restaurantId, "stockLock", "sale.go", "DeleteSale")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	for i := range sale.Details {
		if err := increaseStockQty(tx, restaurantId, sale.Details[i].ItemId, sale.Details[i].Quantity); err != nil {
			return nil, err
		}
	}
	if err := tx.Where("sale_id = ?", sale.ID).Delete(&SaleItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(sale).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return sale, nil
}

func GetSale(ctx context.Context, id int) (*Sale, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	return utils.FetchModel[Sale](ctx, restaurantId, id, "Details")
}

func GetSales(ctx context.Context) ([]*Sale, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	return utils.FetchAllModels[Sale](ctx, restaurantId, "Details")
}

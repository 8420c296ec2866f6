package models

import (
	"context"
	"time"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/shopspring/decimal"
)

// StockItem is the single source of truth for on-hand quantity.
// Quantity is only mutated through ledger events (movements, purchase lines,
// sale lines); see stockCommands.go.
type StockItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	RestaurantId string          `gorm:"index;not null" json:"restaurant_id"`
	Name         string          `gorm:"index;size:120;not null" json:"name" binding:"required"`
	Unit         string          `gorm:"size:20;default:pcs" json:"unit"`
	Quantity     decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"quantity"`
	MinThreshold decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"min_threshold"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStockItem struct {
	Name         string          `json:"name" binding:"required"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	MinThreshold decimal.Decimal `json:"min_threshold"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewStockItem) validate(ctx context.Context, restaurantId string, id int) error {
	// name
	if err := utils.ValidateUnique[StockItem](ctx, restaurantId, "name", input.Name, id); err != nil {
		return err
	}
	if input.Quantity.IsNegative() {
		return errInput("quantity cannot be negative")
	}
	if input.MinThreshold.IsNegative() {
		return errInput("min threshold cannot be negative")
	}
	return nil
}

func CreateStockItem(ctx context.Context, input *NewStockItem) (*StockItem, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	if err := input.validate(ctx, restaurantId, 0); err != nil {
		return nil, err
	}

	unit := input.Unit
	if unit == "" {
		unit = "pcs"
	}
	item := StockItem{
		RestaurantId: restaurantId,
		Name:         input.Name,
		Unit:         unit,
		Quantity:     input.Quantity,
		MinThreshold: input.MinThreshold,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateStockItem edits the descriptive fields only. Quantity is owned by the
// ledger; a direct administrative quantity edit bypasses its guarantees and is
// deliberately not offered here.
func UpdateStockItem(ctx context.Context, id int, input *NewStockItem) (*StockItem, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	if err := input.validate(ctx, restaurantId, id); err != nil {
		return nil, err
	}

	item, err := utils.FetchModel[StockItem](ctx, restaurantId, id)
	if err != nil {
		return nil, err
	}

	unit := input.Unit
	if unit == "" {
		unit = item.Unit
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(item).Updates(map[string]interface{}{
		"Name":         input.Name,
		"Unit":         unit,
		"MinThreshold": input.MinThreshold,
	}).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func DeleteStockItem(ctx context.Context, id int) (*StockItem, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}

	item, err := utils.FetchModel[StockItem](ctx, restaurantId, id)
	if err != nil {
		return nil, err
	}

	// refuse deletion while ledger events still reference the item
	movementCount, err := utils.ResourceCountWhere[StockMovement](ctx, restaurantId, "item_id = ?", id)
	if err != nil {
		return nil, err
	}
	if movementCount > 0 {
		return nil, errInput("stock item has movements")
	}
	var lineCount int64
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&PurchaseItem{}).Where("item_id = ?", id).Count(&lineCount).Error; err != nil {
		return nil, err
	}
	if lineCount > 0 {
		return nil, errInput("stock item has purchase lines")
	}
	if err := db.WithContext(ctx).Model(&SaleItem{}).Where("item_id = ?", id).Count(&lineCount).Error; err != nil {
		return nil, err
	}
	if lineCount > 0 {
		return nil, errInput("stock item has sale lines")
	}

	if err := db.WithContext(ctx).Delete(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func GetStockItem(ctx context.Context, id int) (*StockItem, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	return utils.FetchModel[StockItem](ctx, restaurantId, id)
}

func GetStockItems(ctx context.Context) ([]*StockItem, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	return utils.FetchAllModels[StockItem](ctx, restaurantId)
}

// SearchStockItems matches item names against a keyword, capped at
// config.SearchLimit rows for typeahead use.
func SearchStockItems(ctx context.Context, keyword string) ([]*StockItem, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}

	var items []*StockItem
	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantId).
		Where("name LIKE ?", "%"+keyword+"%").
		Order("name").
		Limit(config.SearchLimit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetLowStockItems returns items at or below their reorder threshold.
func GetLowStockItems(ctx context.Context) ([]*StockItem, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}

	var items []*StockItem
	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantId).
		Where("quantity <= min_threshold").
		Order("name").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

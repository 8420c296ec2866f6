package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/shopspring/decimal"
)

// StockMovement is a manual IN/OUT adjustment. Creation applies its quantity
// delta to the referenced item; deletion reverses it. Movements are never
// edited in place.
type StockMovement struct {
	ID           int             `gorm:"primary_key" json:"id"`
	RestaurantId string          `gorm:"index;not null" json:"restaurant_id"`
	ItemId       int             `gorm:"index;not null" json:"item_id"`
	Item         *StockItem      `gorm:"foreignKey:ItemId" json:"item,omitempty"`
	MovementType MovementType    `gorm:"size:3;not null" json:"movement_type"`
	Quantity     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"quantity"`
	Note         string          `gorm:"size:255" json:"note"`
	CreatedBy    int             `json:"created_by"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewStockMovement struct {
	ItemId       int             `json:"item_id" binding:"required"`
	MovementType MovementType    `json:"movement_type" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	Note         string          `json:"note"`
}

func (input *NewStockMovement) validate(ctx context.Context, restaurantId string) error {
	if err := input.MovementType.Validate(); err != nil {
		return err
	}
	if !input.Quantity.IsPositive() {
		return errInput("quantity must be greater than zero")
	}
	if err := utils.ValidateResourceId[StockItem](ctx, restaurantId, input.ItemId); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return ErrorStockItemMissing
		}
		return err
	}
	return nil
}

// CreateStockMovement records a manual adjustment and applies its quantity
// effect atomically. OUT movements fail with InsufficientStockError when the
// item holds less than the requested quantity; nothing is persisted then.
func CreateStockMovement(ctx context.Context, input *NewStockMovement) (*StockMovement, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
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

	release, err := utils.RestaurantLock(ctx, restaurantId, "stockLock", "stockMovement.go", "CreateStockMovement")
	if err != nil {
		return nil, err
	}
	defer release()

	userId, _ := utils.GetUserIdFromContext(ctx)
	movement := StockMovement{
		RestaurantId: restaurantId,
		ItemId:       input.ItemId,
		MovementType: input.MovementType,
		Quantity:     input.Quantity,
		Note:         input.Note,
		CreatedBy:    userId,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if err := tx.Create(&movement).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if movement.MovementType == MovementTypeIn {
		if err := increaseStockQty(tx, restaurantId, movement.ItemId, movement.Quantity); err != nil {
			return nil, err
		}
	} else {
		if err := decreaseStockQty(tx, restaurantId, movement.ItemId, item.Name, movement.Quantity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

// DeleteStockMovement reverses the movement's quantity effect and removes the
// row. Reversing an IN movement subtracts stock and is guarded the same way
// as a sale line, so the reversal cannot drive quantity negative.
func DeleteStockMovement(ctx context.Context, id int) (*StockMovement, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}

	movement, err := utils.FetchModel[StockMovement](ctx, restaurantId, id)
	if err != nil {
		return nil, err
	}
	item, err := utils.FetchModel[StockItem](ctx, restaurantId, movement.ItemId)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, ErrorStockItemMissing
	}
	if err != nil {
		return nil, err
	}

	release, err := utils.RestaurantLock(ctx, restaurantId, "stockLock", "stockMovement.go", "DeleteStockMovement")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if movement.MovementType == MovementTypeIn {
		if err := decreaseStockQty(tx, restaurantId, movement.ItemId, item.Name, movement.Quantity); err != nil {
			return nil, err
		}
	} else {
		if err := increaseStockQty(tx, restaurantId, movement.ItemId, movement.Quantity); err != nil {
			return nil, err
		}
	}
	if err := tx.Delete(movement).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return movement, nil
}

func GetStockMovements(ctx context.Context, itemId int) ([]*StockMovement, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}

	var movements []*StockMovement
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Item").Where("restaurant_id = ?", restaurantId)
	if itemId > 0 {
		dbCtx = dbCtx.Where("item_id = ?", itemId)
	}
	if err := dbCtx.Order("created_at DESC").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/utils"
)

type Supplier struct {
	ID           int       `gorm:"primary_key" json:"id"`
	RestaurantId string    `gorm:"index;not null" json:"restaurant_id"`
	Name         string    `gorm:"size:120;not null" json:"name" binding:"required"`
	Email        string    `gorm:"size:255" json:"email"`
	Phone        string    `gorm:"size:20" json:"phone"`
	Address      string    `gorm:"size:255" json:"address"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewSupplier) validate(ctx context.Context, restaurantId string, id int) error {
	// name
	if err := utils.ValidateUnique[Supplier](ctx, restaurantId, "name", input.Name, id); err != nil {
		return err
	}
	// email
	if len(strings.TrimSpace(input.Email)) > 0 && !utils.IsValidEmail(input.Email) {
		return errInput("invalid email")
	}
	// phone
	if len(strings.TrimSpace(input.Phone)) > 0 {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return errInput("invalid phone number")
		}
	}
	return nil
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	if err := input.validate(ctx, restaurantId, 0); err != nil {
		return nil, err
	}

	supplier := Supplier{
		RestaurantId: restaurantId,
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Address:      input.Address,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, id int, input *NewSupplier) (*Supplier, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	if err := input.validate(ctx, restaurantId, id); err != nil {
		return nil, err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, restaurantId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(supplier).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Email":   input.Email,
		"Phone":   input.Phone,
		"Address": input.Address,
	}).Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

func DeleteSupplier(ctx context.Context, id int) (*Supplier, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}

	supplier, err := utils.FetchModel[Supplier](ctx, restaurantId, id)
	if err != nil {
		return nil, err
	}

	// purchases keep their history; the supplier reference is detached
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Model(&Purchase{}).
		Where("restaurant_id = ? AND supplier_id = ?", restaurantId, id).
		Update("supplier_id", nil).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(supplier).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

func GetSuppliers(ctx context.Context) ([]*Supplier, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, errInput("restaurant id is required")
	}
	return utils.FetchAllModels[Supplier](ctx, restaurantId)
}

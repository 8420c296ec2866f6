package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/google/uuid"
)

// Restaurant is the tenant anchor: every ledger row is scoped to one.
// Organization / branch structure beyond the scoping id lives outside this
// service.
type Restaurant struct {
	ID        uuid.UUID `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:120;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRestaurant struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (input *NewRestaurant) validate(ctx context.Context) error {
	if len(strings.TrimSpace(input.Name)) == 0 {
		return errInput("restaurant name is required")
	}
	if len(strings.TrimSpace(input.Email)) > 0 && !utils.IsValidEmail(input.Email) {
		return errInput("invalid email")
	}
	if len(strings.TrimSpace(input.Phone)) > 0 {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return errInput("invalid phone number")
		}
	}
	return nil
}

func CreateRestaurant(ctx context.Context, input *NewRestaurant) (*Restaurant, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	restaurant := Restaurant{
		ID:       uuid.New(),
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Address:  input.Address,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&restaurant).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func GetRestaurantById(ctx context.Context, restaurantId string) (*Restaurant, error) {
	db := config.GetDB()
	var restaurant Restaurant
	if err := db.WithContext(ctx).Where("id = ?", restaurantId).First(&restaurant).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &restaurant, nil
}

package utils

import (
	"context"
	"errors"

	"bitbucket.org/zeatech/resto_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (ctx's restaurant_id is used in query's WHERE, may return RecordNotFound)
func FetchModel[T any](ctx context.Context, restaurantId string, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("restaurant_id = ?", restaurantId)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// fetch all models from db
// (ctx's restaurant_id is used in query's WHERE)
func FetchAllModels[T any](ctx context.Context, restaurantId string, associations ...string) ([]*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("restaurant_id = ?", restaurantId)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var results []*T
	err := dbCtx.Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

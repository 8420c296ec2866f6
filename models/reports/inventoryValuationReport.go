package reports

import (
	"context"
	"time"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/models"
	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/shopspring/decimal"
)

type InventoryValuationResponse struct {
	ItemId       int             `json:"itemId"`
	ItemName     string          `json:"itemName"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	MinThreshold decimal.Decimal `json:"minThreshold"`
	LastUnitCost decimal.Decimal `json:"lastUnitCost"`
	StockValue   decimal.Decimal `json:"stockValue"`
}

// GetInventoryValuationReport values on-hand stock at the most recent
// purchase unit cost per item (zero when the item was never purchased).
// Results are cached briefly; ledger writes between refreshes only move the
// valuation by the affected lines, so a short TTL is acceptable.
func GetInventoryValuationReport(ctx context.Context) ([]*InventoryValuationResponse, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, models.InputError("restaurant id is required")
	}

	var cached []*InventoryValuationResponse
	exists, err := config.GetRedisObject("InventoryValuation:"+restaurantId, &cached)
	if err != nil {
		return nil, err
	}
	if exists {
		return cached, nil
	}

	sql := `
SELECT
    stock_items.id AS item_id,
    stock_items.name AS item_name,
    stock_items.unit,
    stock_items.quantity,
    stock_items.min_threshold,
    COALESCE((SELECT
                    purchase_items.unit_cost
                FROM
                    purchase_items
                        JOIN
                    purchases ON purchases.id = purchase_items.purchase_id
                WHERE
                    purchase_items.item_id = stock_items.id
                        AND purchases.restaurant_id = @restaurantId
                ORDER BY purchase_items.id DESC
                LIMIT 1),
            0) AS last_unit_cost
FROM
    stock_items
WHERE
    stock_items.restaurant_id = @restaurantId
ORDER BY stock_items.name
`

	var records []*InventoryValuationResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"restaurantId": restaurantId,
	}).Scan(&records).Error; err != nil {
		return nil, err
	}

	for _, r := range records {
		r.StockValue = r.Quantity.Mul(r.LastUnitCost)
	}
	if err := config.SetRedisObject("InventoryValuation:"+restaurantId, &records, 2*time.Minute); err != nil {
		return nil, err
	}
	return records, nil
}

package reports

import (
	"context"
	"time"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/models"
	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/shopspring/decimal"
)

type ProfitSummaryResponse struct {
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalCost     decimal.Decimal `json:"totalCost"`
	GrossProfit   decimal.Decimal `json:"grossProfit"`
	SaleCount     int             `json:"saleCount"`
	PurchaseCount int             `json:"purchaseCount"`
}

// GetProfitSummaryReport aggregates revenue (sales) against cost (purchases)
// for the period. Read-only; the ledger tables are the source of truth.
func GetProfitSummaryReport(ctx context.Context, fromDate time.Time, toDate time.Time) (*ProfitSummaryResponse, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, models.InputError("restaurant id is required")
	}

	sql := `
SELECT
    (SELECT COALESCE(SUM(total_amount), 0) FROM sales
        WHERE restaurant_id = @restaurantId AND created_at BETWEEN @fromDate AND @toDate) AS total_revenue,
    (SELECT COALESCE(SUM(total_cost), 0) FROM purchases
        WHERE restaurant_id = @restaurantId AND created_at BETWEEN @fromDate AND @toDate) AS total_cost,
    (SELECT COUNT(id) FROM sales
        WHERE restaurant_id = @restaurantId AND created_at BETWEEN @fromDate AND @toDate) AS sale_count,
    (SELECT COUNT(id) FROM purchases
        WHERE restaurant_id = @restaurantId AND created_at BETWEEN @fromDate AND @toDate) AS purchase_count
`

	var record ProfitSummaryResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"restaurantId": restaurantId,
		"fromDate":     fromDate,
		"toDate":       toDate,
	}).Scan(&record).Error; err != nil {
		return nil, err
	}

	record.GrossProfit = record.TotalRevenue.Sub(record.TotalCost)
	return &record, nil
}

package reports

import (
	"context"
	"time"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/models"
	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/shopspring/decimal"
)

type PurchasesBySupplierResponse struct {
	SupplierId    *int            `json:"supplierId,omitempty"`
	SupplierName  *string         `json:"supplierName,omitempty"`
	PurchaseCount int             `json:"purchaseCount"`
	TotalCost     decimal.Decimal `json:"totalCost"`
}

func GetPurchasesBySupplierReport(ctx context.Context, fromDate time.Time, toDate time.Time) ([]*PurchasesBySupplierResponse, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, models.InputError("restaurant id is required")
	}

	sql := `
SELECT
    pch.supplier_id,
    suppliers.name AS supplier_name,
    pch.purchase_count,
    pch.total_cost
FROM
    (
        SELECT
            supplier_id,
            COUNT(purchases.id) AS purchase_count,
            SUM(total_cost) AS total_cost
        FROM
            purchases
        WHERE
            restaurant_id = @restaurantId
                AND created_at BETWEEN @fromDate AND @toDate
        GROUP BY
            supplier_id
    ) AS pch
    LEFT JOIN suppliers ON suppliers.id = pch.supplier_id
ORDER BY pch.total_cost DESC
`

	var records []*PurchasesBySupplierResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"restaurantId": restaurantId,
		"fromDate":     fromDate,
		"toDate":       toDate,
	}).Scan(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

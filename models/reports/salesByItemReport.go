package reports

import (
	"context"
	"time"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/models"
	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/shopspring/decimal"
)

type SalesByItemResponse struct {
	ItemId       int             `json:"itemId"`
	ItemName     *string         `json:"itemName,omitempty"`
	Unit         *string         `json:"unit,omitempty"`
	SoldQty      decimal.Decimal `json:"soldQty"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}

func GetSalesByItemReport(ctx context.Context, fromDate time.Time, toDate time.Time, itemName *string) ([]*SalesByItemResponse, error) {

	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, models.InputError("restaurant id is required")
	}

	sqlT := `
SELECT
    sale_items.item_id,
    stock_items.name AS item_name,
    stock_items.unit,
    SUM(sale_items.quantity) AS sold_qty,
    SUM(sale_items.line_total) AS total_amount,
    AVG(sale_items.unit_price) AS average_price
FROM
    sales
        JOIN
    sale_items ON sale_items.sale_id = sales.id
        LEFT JOIN
    stock_items ON stock_items.id = sale_items.item_id
WHERE
    sales.restaurant_id = @restaurantId
        AND sales.created_at BETWEEN @fromDate AND @toDate
        {{- if .itemName }} AND stock_items.name LIKE @itemName {{- end }}
GROUP BY sale_items.item_id , stock_items.name , stock_items.unit
ORDER BY total_amount DESC
`

	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"itemName": utils.DereferencePtr(itemName),
	})
	if err != nil {
		return nil, err
	}

	var records []*SalesByItemResponse
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"restaurantId": restaurantId,
		"fromDate":     fromDate,
		"toDate":       toDate,
		"itemName":     "%" + utils.DereferencePtr(itemName) + "%",
	}).Scan(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

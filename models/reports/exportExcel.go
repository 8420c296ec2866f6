package reports

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/xuri/excelize/v2"
)

// ExportSalesByItemExcel renders the sales-by-item report as a workbook.
// The caller streams it with the xlsx content type.
func ExportSalesByItemExcel(ctx context.Context, fromDate time.Time, toDate time.Time) (*excelize.File, error) {

	data, err := GetSalesByItemReport(ctx, fromDate, toDate, nil)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if _, err := f.NewSheet("Sheet1"); err != nil {
		return nil, err
	}

	// Add headers
	f.SetCellValue("Sheet1", "A1", "ItemName")
	f.SetCellValue("Sheet1", "B1", "Unit")
	f.SetCellValue("Sheet1", "C1", "SoldQty")
	f.SetCellValue("Sheet1", "D1", "TotalAmount")
	f.SetCellValue("Sheet1", "E1", "AveragePrice")

	// Add data
	for i, d := range data {
		f.SetCellValue("Sheet1", "A"+fmt.Sprint(i+2), utils.DereferencePtr(d.ItemName, ""))
		f.SetCellValue("Sheet1", "B"+fmt.Sprint(i+2), utils.DereferencePtr(d.Unit, ""))
		f.SetCellValue("Sheet1", "C"+fmt.Sprint(i+2), d.SoldQty.String())
		f.SetCellValue("Sheet1", "D"+fmt.Sprint(i+2), d.TotalAmount.String())
		f.SetCellValue("Sheet1", "E"+fmt.Sprint(i+2), d.AveragePrice.String())
	}

	return f, nil
}

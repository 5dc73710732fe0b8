package reports

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
	"github.com/xuri/excelize/v2"
)

type ValuationRow struct {
	Pcode       string          `json:"pcode"`
	ProductName string          `json:"product_name"`
	Category    string          `json:"category"`
	Unit        string          `json:"unit"`
	OnHand      decimal.Decimal `json:"on_hand"`
	AvgCost     decimal.Decimal `json:"avg_cost"`
	Value       decimal.Decimal `json:"value"`
}

func getValuationReport(ctx context.Context, storeCode string) ([]*ValuationRow, error) {

	sql := `
SELECT
    cb.pcode,
    products.name AS product_name,
    products.category,
    products.unit,
    cb.on_hand,
    cb.avg_cost,
    cb.on_hand * cb.avg_cost AS value
FROM
    cost_bases AS cb
    LEFT JOIN products ON products.code = cb.pcode
WHERE
    cb.store_code = ?
ORDER BY
    cb.pcode
`

	var records []*ValuationRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, storeCode).Scan(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

// ExportValuationExcel streams the per-product valuation of one store as
// an xlsx workbook.
func ExportValuationExcel(ctx context.Context, w http.ResponseWriter, storeCode string) {

	f := excelize.NewFile()
	_, err := f.NewSheet("Sheet1")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := getValuationReport(ctx, storeCode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Add headers
	f.SetCellValue("Sheet1", "A1", "Pcode")
	f.SetCellValue("Sheet1", "B1", "ProductName")
	f.SetCellValue("Sheet1", "C1", "Category")
	f.SetCellValue("Sheet1", "D1", "Unit")
	f.SetCellValue("Sheet1", "E1", "OnHand")
	f.SetCellValue("Sheet1", "F1", "AvgCost")
	f.SetCellValue("Sheet1", "G1", "Value")

	total := decimal.Zero
	for i, row := range data {
		rowNo := i + 2
		f.SetCellValue("Sheet1", fmt.Sprintf("A%d", rowNo), row.Pcode)
		f.SetCellValue("Sheet1", fmt.Sprintf("B%d", rowNo), row.ProductName)
		f.SetCellValue("Sheet1", fmt.Sprintf("C%d", rowNo), row.Category)
		f.SetCellValue("Sheet1", fmt.Sprintf("D%d", rowNo), row.Unit)
		f.SetCellValue("Sheet1", fmt.Sprintf("E%d", rowNo), row.OnHand.InexactFloat64())
		f.SetCellValue("Sheet1", fmt.Sprintf("F%d", rowNo), row.AvgCost.InexactFloat64())
		f.SetCellValue("Sheet1", fmt.Sprintf("G%d", rowNo), row.Value.InexactFloat64())
		total = total.Add(row.Value)
	}
	totalRow := len(data) + 2
	f.SetCellValue("Sheet1", fmt.Sprintf("F%d", totalRow), "Total")
	f.SetCellValue("Sheet1", fmt.Sprintf("G%d", totalRow), total.InexactFloat64())

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=valuation_%s.xlsx", storeCode))
	if err := f.Write(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetValuationReport is the JSON-facing variant of the export.
func GetValuationReport(ctx context.Context, storeCode string) ([]*ValuationRow, error) {
	return getValuationReport(ctx, storeCode)
}

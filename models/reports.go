package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/akkupratap323/warehouse-inventory/utils"
	"github.com/xuri/excelize/v2"
)

const (
	InventorySheetName = "Inventory"
	SummarySheetName   = "Summary"
)

var inventoryHeadings = []string{
	"Code", "Name", "Category", "UnitPrice", "MinStockLevel", "CurrentStock", "StockValue", "LowStock",
}

func setRow(f *excelize.File, sheet string, rowNo int, values ...interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNo)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// WriteSnapshotXlsx writes the snapshot rows and their summary as a two-sheet workbook.
func WriteSnapshotXlsx(w io.Writer, rows []InventorySnapshotRow, summary SummaryData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", InventorySheetName); err != nil {
		return err
	}
	headings := make([]interface{}, len(inventoryHeadings))
	for i, h := range inventoryHeadings {
		headings[i] = h
	}
	if err := setRow(f, InventorySheetName, 1, headings...); err != nil {
		return err
	}
	for i, r := range rows {
		err := setRow(f, InventorySheetName, i+2,
			r.Product.Code,
			r.Product.Name,
			string(r.Product.Category),
			r.Product.UnitPrice.InexactFloat64(),
			r.Product.MinStockLevel,
			r.CurrentStock,
			r.StockValue.InexactFloat64(),
			r.IsLowStock,
		)
		if err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SummarySheetName); err != nil {
		return err
	}
	summaryRows := [][]interface{}{
		{"TotalProducts", summary.TotalProducts},
		{"TotalStockValue", summary.TotalStockValue.InexactFloat64()},
		{"LowStockItems", summary.LowStockItems},
		{"TotalTransactions", summary.TotalTransactions},
	}
	for i, values := range summaryRows {
		if err := setRow(f, SummarySheetName, i+1, values...); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// ProductImportRow is one data row of an import sheet. Err is set when the row
// could not be parsed; Input is then incomplete.
type ProductImportRow struct {
	Row   int
	Input ProductInput
	Err   error
}

var importColumns = map[string]string{
	"code":            "code",
	"prod_code":       "code",
	"name":            "name",
	"prod_name":       "name",
	"category":        "category",
	"unit_price":      "unit_price",
	"unitprice":       "unit_price",
	"price":           "unit_price",
	"min_stock_level": "min_stock_level",
	"minstocklevel":   "min_stock_level",
}

var errMissingImportColumns = errors.New("sheet must have code, name, category and unit_price columns")

// ReadProductsXlsx reads products from the first sheet. The first row is the
// header; column order is free and blank rows are skipped.
func ReadProductsXlsx(r io.Reader) ([]ProductImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet: %v", err)
	}
	if len(rows) == 0 {
		return nil, errMissingImportColumns
	}

	columns := map[string]int{}
	for i, h := range rows[0] {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(h), " ", "_"))
		if field, ok := importColumns[key]; ok {
			if _, dup := columns[field]; !dup {
				columns[field] = i
			}
		}
	}
	for _, required := range []string{"code", "name", "category", "unit_price"} {
		if _, ok := columns[required]; !ok {
			return nil, errMissingImportColumns
		}
	}

	cell := func(row []string, field string) string {
		i, ok := columns[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []ProductImportRow
	for n, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		item := ProductImportRow{
			Row: n + 2,
			Input: ProductInput{
				Code:     cell(row, "code"),
				Name:     cell(row, "name"),
				Category: Category(cell(row, "category")),
			},
		}
		price, err := utils.ParseLenientDecimal(cell(row, "unit_price"))
		if err != nil {
			item.Err = &ValidationError{Code: CodeInvalidProduct, Message: "unit_price is not a number", Field: "unit_price"}
			out = append(out, item)
			continue
		}
		item.Input.UnitPrice = price
		if raw := cell(row, "min_stock_level"); raw != "" {
			level, err := strconv.Atoi(raw)
			if err != nil {
				item.Err = &ValidationError{Code: CodeInvalidProduct, Message: "min_stock_level is not a whole number", Field: "min_stock_level"}
				out = append(out, item)
				continue
			}
			item.Input.MinStockLevel = level
		}
		out = append(out, item)
	}
	return out, nil
}

type ImportFailure struct {
	Row     int       `json:"row"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type ImportResult struct {
	Created []Product       `json:"created"`
	Failed  []ImportFailure `json:"failed"`
}

// ImportProducts creates each parsed row independently. A failing row does not
// stop the rows after it.
func (e *InventoryEngine) ImportProducts(ctx context.Context, rows []ProductImportRow) (ImportResult, error) {
	ctx, span := e.tracer.Start(ctx, "InventoryEngine.ImportProducts")
	defer span.End()

	result := ImportResult{Created: []Product{}, Failed: []ImportFailure{}}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			recordSpanError(span, err)
			return result, err
		}
		err := row.Err
		if err == nil {
			var p *Product
			p, err = e.CreateProduct(ctx, row.Input)
			if err == nil {
				result.Created = append(result.Created, *p)
				continue
			}
		}
		ve, ok := AsValidationError(err)
		if !ok {
			recordSpanError(span, err)
			return result, err
		}
		result.Failed = append(result.Failed, ImportFailure{Row: row.Row, Code: ve.Code, Message: ve.Message})
	}
	return result, nil
}

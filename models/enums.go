package models

import (
	"errors"
	"strings"
)

type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryFood        Category = "food"
	CategoryBooks       Category = "books"
	CategoryOther       Category = "other"
)

// AllCategories is the closed category set in display order.
var AllCategories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryFood,
	CategoryBooks,
	CategoryOther,
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryFood, CategoryBooks, CategoryOther:
		return true
	}
	return false
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", errors.New("invalid category")
	}
	return c, nil
}

type TransactionType string

const (
	TransactionTypeIn         TransactionType = "IN"
	TransactionTypeOut        TransactionType = "OUT"
	TransactionTypeAdjustment TransactionType = "ADJ"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IN":
		return TransactionTypeIn, nil
	case "OUT":
		return TransactionTypeOut, nil
	case "ADJ":
		return TransactionTypeAdjustment, nil
	default:
		return "", errors.New("invalid transaction type")
	}
}

// AdjustmentDirection gives an ADJ line its sign. IN lines are stored as
// increase and OUT lines as decrease.
type AdjustmentDirection string

const (
	AdjustmentIncrease AdjustmentDirection = "increase"
	AdjustmentDecrease AdjustmentDirection = "decrease"
)

func ParseAdjustmentDirection(s string) (AdjustmentDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "increase", "+", "in":
		return AdjustmentIncrease, nil
	case "decrease", "-", "out":
		return AdjustmentDecrease, nil
	default:
		return "", errors.New("invalid adjustment direction")
	}
}

type SortField string

const (
	SortFieldNone         SortField = ""
	SortFieldName         SortField = "name"
	SortFieldCode         SortField = "code"
	SortFieldCurrentStock SortField = "current_stock"
	SortFieldUnitPrice    SortField = "unit_price"
	SortFieldStockValue   SortField = "stock_value"
)

// ParseSortField also accepts the prod_name / prod_code column names.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SortFieldNone, nil
	case "name", "prod_name":
		return SortFieldName, nil
	case "code", "prod_code":
		return SortFieldCode, nil
	case "current_stock", "stock":
		return SortFieldCurrentStock, nil
	case "unit_price", "price":
		return SortFieldUnitPrice, nil
	case "stock_value", "value":
		return SortFieldStockValue, nil
	default:
		return "", errors.New("invalid sort field")
	}
}

type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return SortOrderAsc, nil
	case "desc", "descending":
		return SortOrderDesc, nil
	default:
		return "", errors.New("invalid sort order")
	}
}

type EventKind string

const (
	EventKindTransactionRecorded EventKind = "inventory.transaction.recorded"
	EventKindProductCreated      EventKind = "inventory.product.created"
	EventKindProductUpdated      EventKind = "inventory.product.updated"
	EventKindProductDeleted      EventKind = "inventory.product.deleted"
)

package models

import (
	"sort"
	"strings"
)

type QueryCriteria struct {
	Search    string `form:"search" json:"search"`
	Category  string `form:"category" json:"category"`
	SortField string `form:"sort" json:"sort"`
	SortOrder string `form:"order" json:"order"`
}

type parsedCriteria struct {
	search   string
	category Category
	// noMatch is set for a category outside the known set.
	noMatch bool
	field   SortField
	order   SortOrder
}

func (c QueryCriteria) parse() (parsedCriteria, error) {
	pc := parsedCriteria{search: strings.ToLower(strings.TrimSpace(c.Search))}

	if cat := strings.TrimSpace(c.Category); cat != "" && !strings.EqualFold(cat, "all") {
		if parsed, err := ParseCategory(cat); err == nil {
			pc.category = parsed
		} else {
			pc.noMatch = true
		}
	}

	field, err := ParseSortField(c.SortField)
	if err != nil {
		return pc, &ValidationError{Code: CodeInvalidQuery, Message: "unknown sort field " + c.SortField, Field: "sort"}
	}
	pc.field = field

	order, err := ParseSortOrder(c.SortOrder)
	if err != nil {
		return pc, &ValidationError{Code: CodeInvalidQuery, Message: "unknown sort order " + c.SortOrder, Field: "order"}
	}
	pc.order = order
	return pc, nil
}

func (pc parsedCriteria) matches(r InventorySnapshotRow) bool {
	if pc.noMatch {
		return false
	}
	if pc.category != "" && r.Product.Category != pc.category {
		return false
	}
	if pc.search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Product.Name), pc.search) ||
		strings.Contains(strings.ToLower(r.Product.Code), pc.search)
}

// compare orders two rows on the sort field: negative, zero or positive.
func (pc parsedCriteria) compare(a, b InventorySnapshotRow) int {
	switch pc.field {
	case SortFieldName:
		return strings.Compare(strings.ToLower(a.Product.Name), strings.ToLower(b.Product.Name))
	case SortFieldCode:
		return strings.Compare(strings.ToLower(a.Product.Code), strings.ToLower(b.Product.Code))
	case SortFieldCurrentStock:
		return a.CurrentStock - b.CurrentStock
	case SortFieldUnitPrice:
		return a.Product.UnitPrice.Cmp(b.Product.UnitPrice)
	case SortFieldStockValue:
		return a.StockValue.Cmp(b.StockValue)
	}
	return 0
}

// QueryInventory filters and sorts a snapshot into a new slice. The input is
// never modified. Rows with equal sort keys keep their snapshot order in both
// directions.
func QueryInventory(rows []InventorySnapshotRow, criteria QueryCriteria) ([]InventorySnapshotRow, error) {
	pc, err := criteria.parse()
	if err != nil {
		return nil, err
	}

	out := make([]InventorySnapshotRow, 0, len(rows))
	for _, r := range rows {
		if pc.matches(r) {
			out = append(out, r)
		}
	}

	if pc.field == SortFieldNone {
		return out, nil
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := pc.compare(out[i], out[j])
		if pc.order == SortOrderDesc {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}

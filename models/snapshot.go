package models

import (
	"github.com/shopspring/decimal"
)

type InventorySnapshotRow struct {
	Product      Product         `json:"product"`
	CurrentStock int             `json:"current_stock"`
	StockValue   decimal.Decimal `json:"stock_value"`
	IsLowStock   bool            `json:"is_low_stock"`
}

// BuildSnapshot returns one row per catalog product, in catalog order.
func BuildSnapshot(catalog []Product, stock map[int]int) []InventorySnapshotRow {
	rows := make([]InventorySnapshotRow, 0, len(catalog))
	for _, p := range catalog {
		current := stock[p.ID]
		rows = append(rows, InventorySnapshotRow{
			Product:      p,
			CurrentStock: current,
			StockValue:   p.UnitPrice.Mul(decimal.NewFromInt(int64(current))),
			IsLowStock:   current <= p.MinStockLevel,
		})
	}
	return rows
}

type SummaryData struct {
	TotalProducts     int             `json:"total_products"`
	TotalStockValue   decimal.Decimal `json:"total_stock_value"`
	LowStockItems     int             `json:"low_stock_items"`
	TotalTransactions int             `json:"total_transactions"`
}

// Summarize aggregates a snapshot. ledgerLength is the number of ledger
// entries the snapshot was built from.
func Summarize(rows []InventorySnapshotRow, ledgerLength int) SummaryData {
	summary := SummaryData{
		TotalProducts:     len(rows),
		TotalStockValue:   decimal.Zero,
		TotalTransactions: ledgerLength,
	}
	for _, r := range rows {
		summary.TotalStockValue = summary.TotalStockValue.Add(r.StockValue)
		if r.IsLowStock {
			summary.LowStockItems++
		}
	}
	return summary
}

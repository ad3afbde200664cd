package models

import "math"

// MaxStockQuantity caps both a single line quantity and the on-hand stock of
// any product.
const MaxStockQuantity = math.MaxInt32

// StockState is the projected on-hand quantity of one product.
type StockState struct {
	ProductId    int `json:"product_id"`
	CurrentStock int `json:"current_stock"`
}

// ProjectStock folds the ledger, in ledger order, into current stock per
// product. Every catalog product is present, starting at 0. The fold is pure:
// the same ledger prefix always yields the same result.
func ProjectStock(ledger []Transaction, catalog []Product) map[int]int {
	stock := make(map[int]int, len(catalog))
	for _, p := range catalog {
		stock[p.ID] = 0
	}
	for _, t := range ledger {
		for _, l := range t.Lines {
			stock[l.ProductId] += l.Delta(t.Type)
		}
	}
	return stock
}

// ProjectStockStates is ProjectStock in catalog order.
func ProjectStockStates(ledger []Transaction, catalog []Product) []StockState {
	stock := ProjectStock(ledger, catalog)
	states := make([]StockState, 0, len(catalog))
	for _, p := range catalog {
		states = append(states, StockState{ProductId: p.ID, CurrentStock: stock[p.ID]})
	}
	return states
}

// addQuantity adds two quantities and reports false when the sum overflows int.
func addQuantity(a, b int) (int, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

// netDeltas sums the signed movement of a transaction per product. The second
// result is the index of the first line whose addition overflowed, or -1.
func netDeltas(t TransactionType, lines []TransactionLine) (map[int]int, int) {
	deltas := make(map[int]int, len(lines))
	for i, l := range lines {
		sum, ok := addQuantity(deltas[l.ProductId], l.Delta(t))
		if !ok {
			return deltas, i
		}
		deltas[l.ProductId] = sum
	}
	return deltas, -1
}

// NegativeStockViolation records the first ledger entry that drove a product below zero.
type NegativeStockViolation struct {
	ProductId     int `json:"product_id"`
	TransactionId int `json:"transaction_id"`
	Stock         int `json:"stock"`
}

// FindNegativeStock replays the ledger and reports each product whose running
// stock ever dropped below zero, at the first transaction where it happened.
func FindNegativeStock(ledger []Transaction) []NegativeStockViolation {
	running := make(map[int]int)
	reported := make(map[int]bool)
	var out []NegativeStockViolation
	for _, t := range ledger {
		deltas, _ := netDeltas(t.Type, t.Lines)
		for pid, d := range deltas {
			running[pid] += d
		}
		for _, pid := range t.ProductIds() {
			if running[pid] < 0 && !reported[pid] {
				reported[pid] = true
				out = append(out, NegativeStockViolation{ProductId: pid, TransactionId: t.ID, Stock: running[pid]})
			}
		}
	}
	return out
}

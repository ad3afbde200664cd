package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable ledger entry. TotalAmount is derived from the lines.
type Transaction struct {
	ID          int               `gorm:"primary_key" json:"id"`
	Timestamp   time.Time         `gorm:"not null;index" json:"timestamp"`
	Type        TransactionType   `gorm:"type:enum('IN','OUT','ADJ');not null" json:"type"`
	Reference   string            `gorm:"size:100" json:"reference"`
	Remarks     string            `gorm:"size:1000" json:"remarks"`
	CreatedBy   string            `gorm:"size:100;not null" json:"created_by"`
	Lines       []TransactionLine `gorm:"foreignKey:TransactionId" json:"lines"`
	TotalAmount decimal.Decimal   `gorm:"-" json:"total_amount"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (Transaction) TableName() string {
	return "inventory_transactions"
}

type TransactionLine struct {
	ID            int                 `gorm:"primary_key" json:"-"`
	TransactionId int                 `gorm:"index;not null" json:"transaction_id"`
	LineNo        int                 `gorm:"not null" json:"line_no"`
	ProductId     int                 `gorm:"index;not null" json:"product_id"`
	Quantity      int                 `gorm:"not null" json:"quantity"`
	UnitCost      decimal.Decimal     `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	Direction     AdjustmentDirection `gorm:"type:enum('increase','decrease');not null;default:increase" json:"direction"`
}

func (TransactionLine) TableName() string {
	return "inventory_transaction_lines"
}

// Delta is the signed stock movement this line applies under the given transaction type.
func (l TransactionLine) Delta(t TransactionType) int {
	switch t {
	case TransactionTypeIn:
		return l.Quantity
	case TransactionTypeOut:
		return -l.Quantity
	case TransactionTypeAdjustment:
		if l.Direction == AdjustmentDecrease {
			return -l.Quantity
		}
		return l.Quantity
	}
	return 0
}

func (l TransactionLine) TotalCost() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func computeTotalAmount(lines []TransactionLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.TotalCost())
	}
	return total
}

// clone copies the line slice so stored ledger entries are never aliased by callers.
func (t Transaction) clone() Transaction {
	c := t
	c.Lines = append([]TransactionLine(nil), t.Lines...)
	return c
}

// TransactionInput is the command submitted to the ledger. The engine never
// sees partially entered transactions.
type TransactionInput struct {
	Timestamp *time.Time             `json:"timestamp"`
	Type      TransactionType        `json:"type"`
	Reference string                 `json:"reference" validate:"max=100"`
	Remarks   string                 `json:"remarks" validate:"max=1000"`
	CreatedBy string                 `json:"created_by" validate:"max=100"`
	Lines     []TransactionLineInput `json:"lines"`
}

type TransactionLineInput struct {
	ProductId int                 `json:"product_id"`
	Quantity  int                 `json:"quantity"`
	UnitCost  decimal.Decimal     `json:"unit_cost"`
	Direction AdjustmentDirection `json:"direction"`
}

type TransactionLineView struct {
	TransactionLine
	ProductName string          `json:"product_name"`
	ProductCode string          `json:"product_code"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

// TransactionView is a ledger entry with its lines enriched for display.
type TransactionView struct {
	Transaction
	Lines []TransactionLineView `json:"lines"`
}

// NewTransactionView enriches lines with product names and codes. Products
// missing from the lookup keep empty name and code.
func NewTransactionView(t Transaction, products map[int]*Product) TransactionView {
	view := TransactionView{Transaction: t}
	view.Lines = make([]TransactionLineView, 0, len(t.Lines))
	for _, l := range t.Lines {
		lv := TransactionLineView{TransactionLine: l, TotalCost: l.TotalCost()}
		if p := products[l.ProductId]; p != nil {
			lv.ProductName = p.Name
			lv.ProductCode = p.Code
		}
		view.Lines = append(view.Lines, lv)
	}
	view.TotalAmount = computeTotalAmount(t.Lines)
	return view
}

// ProductIds returns the distinct product ids of the lines in first-appearance order.
func (t Transaction) ProductIds() []int {
	seen := make(map[int]bool, len(t.Lines))
	ids := make([]int, 0, len(t.Lines))
	for _, l := range t.Lines {
		if !seen[l.ProductId] {
			seen[l.ProductId] = true
			ids = append(ids, l.ProductId)
		}
	}
	return ids
}

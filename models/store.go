package models

import "context"

// CatalogStore holds products. Lookups that miss return utils.ErrorRecordNotFound;
// a code collision on create or update returns ErrDuplicateProductCode.
type CatalogStore interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int) (*Product, error)
	GetProductsByIds(ctx context.Context, ids []int) ([]Product, error)
	GetProductByCode(ctx context.Context, code string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id int) error
}

// LedgerStore is the append-only transaction log, ordered by ascending id.
type LedgerStore interface {
	// AppendTransaction assigns the next id and returns only once the entry is durable.
	AppendTransaction(ctx context.Context, t *Transaction) error
	ListTransactions(ctx context.Context) ([]Transaction, error)
	GetTransaction(ctx context.Context, id int) (*Transaction, error)
	CountProductReferences(ctx context.Context, productId int) (int64, error)
	CountTransactions(ctx context.Context) (int64, error)
}

// ReadViewFunc receives a catalog and ledger prefix read at one instant.
// Implementations must not retain or modify either slice.
type ReadViewFunc func(catalog []Product, ledger []Transaction) error

type Store interface {
	CatalogStore
	LedgerStore
	ReadView(ctx context.Context, fn ReadViewFunc) error
}

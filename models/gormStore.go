package models

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/akkupratap323/warehouse-inventory/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists the catalog and ledger in MySQL.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var ErrDBNotInitialized = errors.New("db not initialized")

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrorRecordNotFound
	}
	return err
}

func (s *GormStore) conn(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrDBNotInitialized
	}
	return s.db.WithContext(ctx), nil
}

func (s *GormStore) ListProducts(ctx context.Context) ([]Product, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var products []Product
	if err := db.Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) GetProduct(ctx context.Context, id int) (*Product, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var p Product
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *GormStore) GetProductsByIds(ctx context.Context, ids []int) ([]Product, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var products []Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := db.Where("id IN ?", utils.UniqueSlice(ids)).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) GetProductByCode(ctx context.Context, code string) (*Product, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var p Product
	if err := db.Where("code = ?", strings.TrimSpace(code)).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *GormStore) CreateProduct(ctx context.Context, p *Product) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(p).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return ErrDuplicateProductCode
		}
		return err
	}
	return nil
}

func (s *GormStore) UpdateProduct(ctx context.Context, p *Product) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	result := db.Model(&Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"code":            p.Code,
		"name":            p.Name,
		"category":        p.Category,
		"unit_price":      p.UnitPrice,
		"min_stock_level": p.MinStockLevel,
	})
	if result.Error != nil {
		if isDuplicateKeyErr(result.Error) {
			return ErrDuplicateProductCode
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		// MySQL reports 0 affected rows for a no-op update, so confirm the row exists.
		if _, err := s.GetProduct(ctx, p.ID); err != nil {
			return err
		}
	}
	fresh, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

func (s *GormStore) DeleteProduct(ctx context.Context, id int) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		// FOR UPDATE blocks a concurrent append that holds the row FOR SHARE.
		var p Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&p).Error; err != nil {
			return notFound(err)
		}
		var refs int64
		if err := tx.Model(&TransactionLine{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrProductInUse
		}
		return tx.Delete(&Product{}, id).Error
	})
}

func (s *GormStore) AppendTransaction(ctx context.Context, t *Transaction) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	ids := t.ProductIds()
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Product{}).
			Clauses(clause.Locking{Strength: "SHARE"}).
			Where("id IN ?", ids).
			Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(ids)) {
			return utils.ErrorRecordNotFound
		}
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		t.TotalAmount = computeTotalAmount(t.Lines)
		return nil
	})
}

func (s *GormStore) ListTransactions(ctx context.Context) ([]Transaction, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return listTransactions(db)
}

func listTransactions(db *gorm.DB) ([]Transaction, error) {
	var txns []Transaction
	err := db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Order("id ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	for i := range txns {
		txns[i].TotalAmount = computeTotalAmount(txns[i].Lines)
	}
	return txns, nil
}

func (s *GormStore) GetTransaction(ctx context.Context, id int) (*Transaction, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var t Transaction
	err = db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	t.TotalAmount = computeTotalAmount(t.Lines)
	return &t, nil
}

func (s *GormStore) CountProductReferences(ctx context.Context, productId int) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.Model(&TransactionLine{}).Where("product_id = ?", productId).Count(&n).Error
	return n, err
}

func (s *GormStore) CountTransactions(ctx context.Context) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.Model(&Transaction{}).Count(&n).Error
	return n, err
}

// ReadView reads catalog and ledger inside one REPEATABLE READ snapshot.
func (s *GormStore) ReadView(ctx context.Context, fn ReadViewFunc) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var catalog []Product
		if err := tx.Order("id ASC").Find(&catalog).Error; err != nil {
			return err
		}
		ledger, err := listTransactions(tx)
		if err != nil {
			return err
		}
		return fn(catalog, ledger)
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
}

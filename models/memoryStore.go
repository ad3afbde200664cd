package models

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/akkupratap323/warehouse-inventory/utils"
)

// MemoryStore keeps the catalog and ledger in process. The ledger slice is
// only ever appended to, so a prefix captured under the read lock stays valid
// after the lock is released.
type MemoryStore struct {
	mu            sync.RWMutex
	products      []Product
	codes         map[string]int
	ledger        []Transaction
	nextProductId int
	nextTxnId     int
	nextLineId    int
	now           func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		codes:         map[string]int{},
		nextProductId: 1,
		nextTxnId:     1,
		nextLineId:    1,
		now:           time.Now,
	}
}

func codeKey(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func (s *MemoryStore) indexOf(id int) int {
	i := sort.Search(len(s.products), func(i int) bool { return s.products[i].ID >= id })
	if i < len(s.products) && s.products[i].ID == id {
		return i
	}
	return -1
}

func (s *MemoryStore) ListProducts(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Product(nil), s.products...), nil
}

func (s *MemoryStore) GetProduct(ctx context.Context, id int) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, utils.ErrorRecordNotFound
	}
	p := s.products[i]
	return &p, nil
}

func (s *MemoryStore) GetProductsByIds(ctx context.Context, ids []int) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(ids))
	for _, id := range utils.UniqueSlice(ids) {
		if i := s.indexOf(id); i >= 0 {
			out = append(out, s.products[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetProductByCode(ctx context.Context, code string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[codeKey(code)]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	p := s.products[s.indexOf(id)]
	return &p, nil
}

func (s *MemoryStore) CreateProduct(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := codeKey(p.Code)
	if _, exists := s.codes[key]; exists {
		return ErrDuplicateProductCode
	}
	now := s.now().UTC()
	p.ID = s.nextProductId
	p.CreatedAt = now
	p.UpdatedAt = now
	s.nextProductId++
	s.products = append(s.products, *p)
	s.codes[key] = p.ID
	return nil
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(p.ID)
	if i < 0 {
		return utils.ErrorRecordNotFound
	}
	oldKey := codeKey(s.products[i].Code)
	newKey := codeKey(p.Code)
	if oldKey != newKey {
		if _, exists := s.codes[newKey]; exists {
			return ErrDuplicateProductCode
		}
		delete(s.codes, oldKey)
		s.codes[newKey] = p.ID
	}
	p.CreatedAt = s.products[i].CreatedAt
	p.UpdatedAt = s.now().UTC()
	s.products[i] = *p
	return nil
}

func (s *MemoryStore) DeleteProduct(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return utils.ErrorRecordNotFound
	}
	delete(s.codes, codeKey(s.products[i].Code))
	s.products = append(s.products[:i:i], s.products[i+1:]...)
	return nil
}

func (s *MemoryStore) AppendTransaction(ctx context.Context, t *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pid := range t.ProductIds() {
		if s.indexOf(pid) < 0 {
			return utils.ErrorRecordNotFound
		}
	}
	t.ID = s.nextTxnId
	t.CreatedAt = s.now().UTC()
	s.nextTxnId++
	for i := range t.Lines {
		t.Lines[i].ID = s.nextLineId
		t.Lines[i].TransactionId = t.ID
		s.nextLineId++
	}
	t.TotalAmount = computeTotalAmount(t.Lines)
	s.ledger = append(s.ledger, t.clone())
	return nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context) ([]Transaction, error) {
	s.mu.RLock()
	ledger := s.ledger[:len(s.ledger):len(s.ledger)]
	s.mu.RUnlock()
	out := make([]Transaction, 0, len(ledger))
	for _, t := range ledger {
		out = append(out, t.clone())
	}
	return out, nil
}

func (s *MemoryStore) GetTransaction(ctx context.Context, id int) (*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// ids are dense and start at 1
	if id < 1 || id > len(s.ledger) {
		return nil, utils.ErrorRecordNotFound
	}
	t := s.ledger[id-1].clone()
	return &t, nil
}

func (s *MemoryStore) CountProductReferences(ctx context.Context, productId int) (int64, error) {
	s.mu.RLock()
	ledger := s.ledger[:len(s.ledger):len(s.ledger)]
	s.mu.RUnlock()
	var n int64
	for _, t := range ledger {
		for _, l := range t.Lines {
			if l.ProductId == productId {
				n++
			}
		}
	}
	return n, nil
}

func (s *MemoryStore) CountTransactions(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.ledger)), nil
}

func (s *MemoryStore) ReadView(ctx context.Context, fn ReadViewFunc) error {
	s.mu.RLock()
	catalog := append([]Product(nil), s.products...)
	ledger := s.ledger[:len(s.ledger):len(s.ledger)]
	s.mu.RUnlock()
	return fn(catalog, ledger)
}

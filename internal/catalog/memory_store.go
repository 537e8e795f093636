package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/ceylonmart/checkout-service/internal/domain"
)

// MemoryStore is an in-memory Store used by unit tests and local
// development. Decrement mirrors the conditional SQL update the
// Postgres ledger issues: the check and the mutation happen under one
// lock so concurrent callers can never drive stock negative.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[int64]*domain.Product)}
}

// Seed inserts or replaces a product together with its stock count.
func (s *MemoryStore) Seed(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.products[p.ID] = &cp
}

func (s *MemoryStore) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ListProducts(_ context.Context) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Product, 0, len(s.products))
	for _, p := range s.products {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) GetStock(_ context.Context, id int64) (int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	return p.Stock, nil
}

// Decrement atomically deducts quantity from stock and returns the
// remaining count. It fails with domain.ErrProductNotFound for unknown
// products and with domain.InsufficientStockError when the deduction
// would go below zero, leaving stock untouched.
func (s *MemoryStore) Decrement(_ context.Context, id int64, quantity int32) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	if p.Stock < quantity {
		return 0, &domain.InsufficientStockError{
			ProductID: id,
			Title:     p.Title,
			Available: p.Stock,
			Requested: quantity,
		}
	}
	p.Stock -= quantity
	return p.Stock, nil
}

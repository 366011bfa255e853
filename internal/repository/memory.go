package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FaizanFazal12/shop-backend/internal/domain"
)

// MemoryStore implements StockStore, CartStore and OrderStore in memory
// with the same concurrency semantics as the MongoDB stores: conditional
// stock decrements and versioned cart writes. Used in tests and for
// running the service without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	carts    map[string]*domain.Cart // keyed by user id
	orders   map[string]*domain.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]*domain.Product),
		carts:    make(map[string]*domain.Cart),
		orders:   make(map[string]*domain.Order),
	}
}

// SetProduct seeds or replaces a product document.
func (s *MemoryStore) SetProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.products[p.ID] = &cp
}

func (s *MemoryStore) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) AdjustStock(_ context.Context, productID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	if p.Stock+delta < 0 {
		return ErrInsufficientStock
	}
	p.Stock += delta
	p.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[userID]
	if !ok {
		return nil, ErrCartNotFound
	}
	cp := *c
	cp.Lines = append([]domain.CartLine(nil), c.Lines...)
	return &cp, nil
}

func (s *MemoryStore) SaveCart(_ context.Context, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stored, exists := s.carts[cart.UserID]

	if cart.Version == 0 {
		if exists {
			return ErrConflict
		}
		if cart.ID == "" {
			cart.ID = uuid.NewString()
		}
		cart.CreatedAt = now
		cart.UpdatedAt = now
		cart.Version = 1
	} else {
		if !exists || stored.Version != cart.Version {
			return ErrConflict
		}
		cart.Version++
		cart.UpdatedAt = now
	}

	cp := *cart
	cp.Lines = append([]domain.CartLine(nil), cart.Lines...)
	s.carts[cart.UserID] = &cp
	return nil
}

func (s *MemoryStore) DeleteCart(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[userID]; !ok {
		return ErrCartNotFound
	}
	delete(s.carts, userID)
	return nil
}

func (s *MemoryStore) DeleteCartVersioned(_ context.Context, userID string, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		return ErrCartNotFound
	}
	if c.Version != version {
		return ErrConflict
	}
	delete(s.carts, userID)
	return nil
}

func (s *MemoryStore) InsertOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	cp := *order
	cp.Lines = append([]domain.OrderLine(nil), order.Lines...)
	s.orders[order.ID] = &cp
	return nil
}

func (s *MemoryStore) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	cp.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return &cp, nil
}

func (s *MemoryStore) ListUserOrders(_ context.Context, userID string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			cp := *o
			cp.Lines = append([]domain.OrderLine(nil), o.Lines...)
			out = append(out, cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) SetStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) MarkCancelled(_ context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return false, ErrOrderNotFound
	}
	if o.Status == domain.StatusCancelled {
		return false, nil
	}
	o.Status = domain.StatusCancelled
	o.UpdatedAt = time.Now()
	return true, nil
}

// Package inventory owns the per-product stock counter. All stock
// movement goes through the Ledger; cart and order code never write the
// counter directly.
package inventory

import (
	"context"

	"github.com/FaizanFazal12/shop-backend/internal/repository"
)

// Ledger exposes the stock operations the cart and order services need.
type Ledger interface {
	// CheckAvailable reports whether current stock covers quantity.
	// Side-effect free.
	CheckAvailable(ctx context.Context, productID string, quantity int) (bool, error)

	// Reserve decrements stock by quantity. Fails with
	// repository.ErrInsufficientStock when the decrement would go negative.
	Reserve(ctx context.Context, productID string, quantity int) error

	// Release returns quantity units to stock. Never fails on availability.
	Release(ctx context.Context, productID string, quantity int) error
}

type stockLedger struct {
	store repository.StockStore
}

func NewLedger(store repository.StockStore) Ledger {
	return &stockLedger{store: store}
}

func (l *stockLedger) CheckAvailable(ctx context.Context, productID string, quantity int) (bool, error) {
	p, err := l.store.GetProduct(ctx, productID)
	if err != nil {
		return false, err
	}
	return p.Stock >= quantity, nil
}

func (l *stockLedger) Reserve(ctx context.Context, productID string, quantity int) error {
	return l.store.AdjustStock(ctx, productID, -quantity)
}

func (l *stockLedger) Release(ctx context.Context, productID string, quantity int) error {
	return l.store.AdjustStock(ctx, productID, quantity)
}

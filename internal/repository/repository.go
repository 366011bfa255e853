package repository

import (
	"context"
	"errors"

	"github.com/FaizanFazal12/shop-backend/internal/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrLineNotFound    = errors.New("line not found in cart")
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a stock adjustment would drive
	// the counter negative. The adjustment is rejected, never clamped.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConflict signals a compare-on-write miss: the document changed
	// between read and write. Callers retry from a fresh read.
	ErrConflict = errors.New("concurrent modification conflict")
)

// Catalog supplies product metadata for pricing and order snapshots.
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

// StockStore owns the per-product stock counter. AdjustStock applies
// stock += delta as a single atomic read-modify-write on the product
// document; there is no lost-update window between concurrent callers.
type StockStore interface {
	Catalog
	AdjustStock(ctx context.Context, productID string, delta int) error
}

// CartStore persists cart documents keyed by user. SaveCart is
// compare-on-write: the cart's Version must match the stored one, and is
// bumped on success. A miss returns ErrConflict. DeleteCartVersioned is
// the delete half of the same protocol: it removes the cart only while it
// is still at the given version, so a delete cannot swallow lines written
// after the caller's read.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
	DeleteCartVersioned(ctx context.Context, userID string, version int64) error
}

// OrderStore persists order documents. MarkCancelled flips the status to
// Cancelled only if it is not Cancelled already, and reports whether this
// call performed the flip — the caller that observes true owns the
// one-time stock release.
type OrderStore interface {
	InsertOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error)
	SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	MarkCancelled(ctx context.Context, orderID string) (bool, error)
}

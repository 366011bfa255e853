// Package cart implements the mutable per-user cart with stock
// reservation. Every quantity change moves stock through the inventory
// ledger before the cart document is written, so a cart line and its
// reservation never diverge.
package cart

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/FaizanFazal12/shop-backend/internal/cache"
	"github.com/FaizanFazal12/shop-backend/internal/consistency"
	"github.com/FaizanFazal12/shop-backend/internal/domain"
	"github.com/FaizanFazal12/shop-backend/internal/inventory"
	"github.com/FaizanFazal12/shop-backend/internal/repository"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

// releaseAttempts bounds the retries of a stock release owed after a cart
// write already landed.
const releaseAttempts = 3

type Service struct {
	carts   repository.CartStore
	catalog repository.Catalog
	ledger  inventory.Ledger
	cache   cache.CartCache
	retrier consistency.Retrier
	logger  *zap.Logger
	sfg     singleflight.Group // prevents cache stampede on GetCart
}

func NewService(
	carts repository.CartStore,
	catalog repository.Catalog,
	ledger inventory.Ledger,
	cartCache cache.CartCache,
	retrier consistency.Retrier,
	logger *zap.Logger,
) *Service {
	return &Service{
		carts:   carts,
		catalog: catalog,
		ledger:  ledger,
		cache:   cartCache,
		retrier: retrier,
		logger:  logger,
	}
}

// AddItem reserves quantity units of the product and merges them into the
// user's cart, creating the cart on first add. An existing line for the
// same product absorbs the quantity; the line total is recomputed from the
// current unit price. The reservation precedes and gates the cart write:
// on insufficient stock the cart is untouched, and if the cart write fails
// the reservation is released again.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var saved *domain.Cart
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		c, err := s.carts.GetCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			c = &domain.Cart{UserID: userID}
		} else if err != nil {
			return err
		}

		product, err := s.catalog.GetProduct(ctx, productID)
		if err != nil {
			return err
		}

		if err := s.ledger.Reserve(ctx, productID, quantity); err != nil {
			return err
		}

		if line := c.Line(productID); line != nil {
			line.Quantity += quantity
			line.LineTotal = float64(line.Quantity) * product.Price
		} else {
			c.Lines = append(c.Lines, domain.CartLine{
				ProductID: productID,
				Quantity:  quantity,
				LineTotal: float64(quantity) * product.Price,
			})
		}
		c.RecomputeTotal()

		if err := s.carts.SaveCart(ctx, c); err != nil {
			s.compensateRelease(productID, quantity)
			return err
		}
		saved = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return saved, nil
}

// UpdateItem sets the line's quantity to newQuantity. Zero removes the
// line. A growing line reserves the delta first (failing without touching
// the cart on insufficient stock); a shrinking line releases the delta
// after the cart write sticks.
func (s *Service) UpdateItem(ctx context.Context, userID, productID string, newQuantity int) (*domain.Cart, error) {
	if newQuantity < 0 {
		return nil, ErrInvalidQuantity
	}

	var saved *domain.Cart
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		c, err := s.carts.GetCart(ctx, userID)
		if err != nil {
			return err
		}

		line := c.Line(productID)
		if line == nil {
			return repository.ErrLineNotFound
		}
		oldQuantity := line.Quantity

		if newQuantity == 0 {
			c.RemoveLine(productID)
			c.RecomputeTotal()
			if err := s.carts.SaveCart(ctx, c); err != nil {
				return err
			}
			saved = c
			s.releaseAfterSave(ctx, productID, oldQuantity)
			return nil
		}

		product, err := s.catalog.GetProduct(ctx, productID)
		if err != nil {
			return err
		}

		delta := newQuantity - oldQuantity
		if delta > 0 {
			if err := s.ledger.Reserve(ctx, productID, delta); err != nil {
				return err
			}
		}

		line.Quantity = newQuantity
		line.LineTotal = float64(newQuantity) * product.Price
		c.RecomputeTotal()

		if err := s.carts.SaveCart(ctx, c); err != nil {
			if delta > 0 {
				s.compensateRelease(productID, delta)
			}
			return err
		}
		saved = c

		if delta < 0 {
			s.releaseAfterSave(ctx, productID, -delta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return saved, nil
}

// RemoveItem drops the line and returns its full quantity to stock.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	var saved *domain.Cart
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		c, err := s.carts.GetCart(ctx, userID)
		if err != nil {
			return err
		}

		line := c.Line(productID)
		if line == nil {
			return repository.ErrLineNotFound
		}
		quantity := line.Quantity

		c.RemoveLine(productID)
		c.RecomputeTotal()

		if err := s.carts.SaveCart(ctx, c); err != nil {
			return err
		}
		saved = c
		s.releaseAfterSave(ctx, productID, quantity)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(userID)
	return saved, nil
}

// Clear deletes the cart without releasing stock, whatever its current
// version. A user-facing empty-cart action must release stock line by
// line instead. A missing cart counts as already cleared.
func (s *Service) Clear(ctx context.Context, userID string) error {
	err := s.carts.DeleteCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// Snapshot reads the cart straight from storage, bypassing the cache.
// Cached copies do not carry the write version, so callers that go on to
// clear or compare against the cart must use this instead of GetCart.
func (s *Service) Snapshot(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.carts.GetCart(ctx, userID)
}

// ClearVersioned deletes the cart only while it is still at the given
// version, so lines written after the caller's read are never swallowed.
// Returns repository.ErrConflict when the cart has moved on. Like Clear
// it releases nothing.
func (s *Service) ClearVersioned(ctx context.Context, userID string, version int64) error {
	if err := s.carts.DeleteCartVersioned(ctx, userID, version); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// GetCart returns a read-only snapshot of the user's cart, cache-aside
// with singleflight so concurrent misses hit storage once.
func (s *Service) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		c, err := s.cache.Get(ctx, userID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", zap.Error(err))
		}

		c, err = s.carts.GetCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(setCtx, userID, c); err != nil {
				s.logger.Warn("cart cache set failed", zap.Error(err))
			}
		}()

		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// releaseAfterSave returns units to stock once the cart write is durable.
// The write is never undone: a persistent release failure strands the
// units and is logged for reconciliation, while the caller still gets the
// cart it actually has.
func (s *Service) releaseAfterSave(ctx context.Context, productID string, quantity int) {
	var err error
	for i := 0; i < releaseAttempts; i++ {
		if err = s.ledger.Release(ctx, productID, quantity); err == nil {
			return
		}
	}
	s.logger.Error("stock release failed after cart write",
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Error(err))
}

// compensateRelease undoes a reservation whose cart write did not stick.
// Runs on a fresh context so a cancelled request cannot leak stock.
func (s *Service) compensateRelease(productID string, quantity int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.ledger.Release(ctx, productID, quantity); err != nil {
		s.logger.Error("failed to release reservation after cart write failure",
			zap.String("product_id", productID),
			zap.Int("quantity", quantity),
			zap.Error(err))
	}
}

func (s *Service) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cart cache invalidate failed", zap.Error(err))
	}
}

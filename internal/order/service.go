// Package order converts carts into immutable orders and manages the
// order lifecycle. Placement is forward-only: once the order document is
// written it is the source of truth, and the cart clear is retried rather
// than the order rolled back.
package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FaizanFazal12/shop-backend/internal/domain"
	"github.com/FaizanFazal12/shop-backend/internal/events"
	"github.com/FaizanFazal12/shop-backend/internal/inventory"
	"github.com/FaizanFazal12/shop-backend/internal/repository"
)

var (
	ErrEmptyCart     = errors.New("cart is empty, nothing to order")
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrStockInconsistency means the defensive re-check at order time
	// found state that the ledger cannot produce on its own: a cart line
	// whose product vanished or whose stock went negative. It indicates an
	// out-of-band stock edit and is never swallowed.
	ErrStockInconsistency = errors.New("stock inconsistent with cart reservation")
)

// clearAttempts bounds the forward-fix retries of the cart clear after an
// order is persisted; releaseAttempts does the same for stock releases
// owed once a cancellation or clear has committed.
const (
	clearAttempts   = 3
	releaseAttempts = 3
)

// CartAggregate is the slice of the cart service order placement needs.
// Snapshot must return the cart with its write version; ClearVersioned
// deletes it only while it is still at that version.
type CartAggregate interface {
	Snapshot(ctx context.Context, userID string) (*domain.Cart, error)
	ClearVersioned(ctx context.Context, userID string, version int64) error
}

type Service struct {
	orders  repository.OrderStore
	carts   CartAggregate
	catalog repository.Catalog
	ledger  inventory.Ledger
	events  events.Publisher
	logger  *zap.Logger
}

func NewService(
	orders repository.OrderStore,
	carts CartAggregate,
	catalog repository.Catalog,
	ledger inventory.Ledger,
	publisher events.Publisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		orders:  orders,
		carts:   carts,
		catalog: catalog,
		ledger:  ledger,
		events:  publisher,
		logger:  logger,
	}
}

// PlaceOrder snapshots the user's cart into an immutable order. Stock was
// already decremented when lines entered the cart, so no stock moves here;
// the per-line lookup is a consistency assertion plus the snapshot read
// for name, price and image. If persisting the order fails the cart stays
// intact; once the order is written the cart clear is only retried, never
// rolled back.
func (s *Service) PlaceOrder(ctx context.Context, userID string, addr domain.ShippingAddress, paymentMethod string) (*domain.Order, error) {
	c, err := s.carts.Snapshot(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, ErrEmptyCart
	}

	lines := make([]domain.OrderLine, 0, len(c.Lines))
	var total float64
	for _, line := range c.Lines {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				s.logger.Error("order re-check failed: cart line references missing product",
					zap.String("user_id", userID),
					zap.String("product_id", line.ProductID))
				return nil, ErrStockInconsistency
			}
			return nil, err
		}
		if product.Stock < 0 {
			s.logger.Error("order re-check failed: negative stock",
				zap.String("user_id", userID),
				zap.String("product_id", line.ProductID),
				zap.Int("stock", product.Stock))
			return nil, ErrStockInconsistency
		}

		lines = append(lines, domain.OrderLine{
			ProductID: line.ProductID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			Image:     product.Image,
		})
		total += float64(line.Quantity) * product.Price
	}

	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Lines:           lines,
		ShippingAddress: addr,
		PaymentMethod:   paymentMethod,
		Total:           total,
		Status:          domain.StatusPending,
	}

	if err := s.orders.InsertOrder(ctx, order); err != nil {
		return nil, err
	}

	s.clearCartForwardFix(ctx, c, order.ID)
	s.publish(ctx, events.TypeOrderPlaced, order)

	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.GetOrder(ctx, orderID)
}

func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListUserOrders(ctx, userID)
}

// UpdateStatus moves the order to newStatus. Cancellation is special: the
// conditional flip in the store guarantees a single winner, and only that
// winner releases the order's stock, so repeated cancellations cannot
// double-release.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus) (*domain.Order, error) {
	if !domain.ValidOrderStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	if newStatus == domain.StatusCancelled {
		return s.cancel(ctx, orderID)
	}

	if err := s.orders.SetStatus(ctx, orderID, newStatus); err != nil {
		return nil, err
	}
	return s.orders.GetOrder(ctx, orderID)
}

func (s *Service) cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	flipped, err := s.orders.MarkCancelled(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !flipped {
		// Already cancelled; stock was released by the first cancellation.
		return order, nil
	}

	// The flip has committed: the release is owed no matter what, so
	// failures are retried and then logged rather than failing the
	// cancellation that already happened.
	for _, line := range order.Lines {
		if err := s.releaseWithRetry(ctx, line.ProductID, line.Quantity); err != nil {
			s.logger.Error("failed to release stock for cancelled order",
				zap.String("order_id", orderID),
				zap.String("product_id", line.ProductID),
				zap.Int("quantity", line.Quantity),
				zap.Error(err))
		}
	}

	order.Status = domain.StatusCancelled
	s.publish(ctx, events.TypeOrderCancelled, order)
	return order, nil
}

// clearCartForwardFix deletes the cart after the order is durably
// written. The clear is conditional on the snapshot's version: a cart
// mutation that committed after the snapshot read bumps the version, and
// an unconditional delete would destroy that mutation's line together
// with its reservation. On a version conflict the cart is re-read, the
// delete re-aimed at the fresh version, and any quantities the order did
// not capture are returned to stock. The order is kept regardless of the
// outcome; a clear that keeps failing is logged for operator attention
// instead of failing the placement.
func (s *Service) clearCartForwardFix(ctx context.Context, snapshot *domain.Cart, orderID string) {
	ordered := make(map[string]int, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		ordered[line.ProductID] = line.Quantity
	}

	cur := snapshot
	var err error
	for i := 0; i < clearAttempts; i++ {
		err = s.carts.ClearVersioned(ctx, cur.UserID, cur.Version)
		if err == nil {
			s.releaseUnordered(ctx, cur, ordered, orderID)
			return
		}
		if errors.Is(err, repository.ErrCartNotFound) {
			// Someone else already cleared it.
			return
		}
		if errors.Is(err, repository.ErrConflict) {
			fresh, rerr := s.carts.Snapshot(ctx, cur.UserID)
			if errors.Is(rerr, repository.ErrCartNotFound) {
				return
			}
			if rerr == nil {
				cur = fresh
			}
		}
	}
	s.logger.Error("cart clear failed after order was persisted",
		zap.String("user_id", snapshot.UserID),
		zap.String("order_id", orderID),
		zap.Error(err))
}

// releaseUnordered returns stock for cleared cart quantities the order
// snapshot did not capture, so a mutation that raced the placement cannot
// strand its reservation.
func (s *Service) releaseUnordered(ctx context.Context, cleared *domain.Cart, ordered map[string]int, orderID string) {
	for _, line := range cleared.Lines {
		extra := line.Quantity - ordered[line.ProductID]
		if extra <= 0 {
			continue
		}
		if err := s.releaseWithRetry(ctx, line.ProductID, extra); err != nil {
			s.logger.Error("failed to release stock not captured by order",
				zap.String("order_id", orderID),
				zap.String("product_id", line.ProductID),
				zap.Int("quantity", extra),
				zap.Error(err))
		}
	}
}

// releaseWithRetry returns units to stock, retrying transient failures.
func (s *Service) releaseWithRetry(ctx context.Context, productID string, quantity int) error {
	var err error
	for i := 0; i < releaseAttempts; i++ {
		if err = s.ledger.Release(ctx, productID, quantity); err == nil {
			return nil
		}
	}
	return err
}

func (s *Service) publish(ctx context.Context, eventType string, order *domain.Order) {
	if err := s.events.Publish(ctx, eventType, order); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("event_type", eventType),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
}

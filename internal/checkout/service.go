// Package checkout implements the pricing and stock reservation engine:
// it turns a cart into a durable order, or rejects the attempt whole.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ceylonmart/checkout-service/internal/catalog"
	"github.com/ceylonmart/checkout-service/internal/domain"
	"github.com/ceylonmart/checkout-service/pkg/metrics"
	"go.uber.org/zap"
)

// CartReader is the slice of the cart aggregate the engine consumes.
type CartReader interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	InvalidateCache(userID int64)
}

// AddressBook resolves stored shipping addresses, ownership-checked.
type AddressBook interface {
	GetAddress(ctx context.Context, addressID, userID int64) (*domain.Address, error)
}

// OrderLedger persists a placement transactionally and is the only
// component allowed to mutate stock.
type OrderLedger interface {
	PlaceOrder(ctx context.Context, placement *domain.OrderPlacement) (*domain.Order, error)
}

// Request describes one commit attempt. An authenticated request
// carries the user id and a stored address reference; a guest request
// carries the client-held cart and a free-text destination city.
type Request struct {
	UserID          int64
	AddressID       int64
	GuestItems      domain.GuestCart
	DestinationCity string
	PaymentMethod   string
	DeliveryMethod  string
}

// Guest reports whether this is an anonymous checkout.
func (r *Request) Guest() bool {
	return r.UserID == domain.GuestUserID
}

type Service struct {
	cart    CartReader
	catalog catalog.Store
	addrs   AddressBook
	ledger  OrderLedger
	logger  *zap.Logger
	metrics *metrics.CheckoutMetrics
}

func NewService(
	cartReader CartReader,
	store catalog.Store,
	addrs AddressBook,
	ledger OrderLedger,
	logger *zap.Logger,
	m *metrics.CheckoutMetrics,
) *Service {
	return &Service{
		cart:    cartReader,
		catalog: store,
		addrs:   addrs,
		ledger:  ledger,
		logger:  logger,
		metrics: m,
	}
}

// CommitCheckout converts the caller's cart into a durable order.
//
// Prices are always re-read from the catalog at commit time, never
// taken from the cart. Cart lines whose product has been deleted are
// skipped silently; a line whose quantity exceeds current stock aborts
// the whole attempt. All stock decrements, the order insert, the cart
// clear and the outbox event land in one ledger transaction, so a
// failure anywhere leaves no partial state on either path.
func (s *Service) CommitCheckout(ctx context.Context, req *Request) (*domain.Order, error) {
	start := time.Now()
	order, err := s.commit(ctx, req)
	s.observe(start, err)
	return order, err
}

func (s *Service) commit(ctx context.Context, req *Request) (*domain.Order, error) {
	destination := req.DestinationCity

	if !req.Guest() {
		addr, err := s.addrs.GetAddress(ctx, req.AddressID, req.UserID)
		if err != nil {
			return nil, err
		}
		destination = addr.City
	}

	items, err := s.requestedItems(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	placement := &domain.OrderPlacement{
		UserID:          req.UserID,
		DestinationCity: destination,
		DeliveryMethod:  req.DeliveryMethod,
		PaymentMethod:   req.PaymentMethod,
		ClearCart:       !req.Guest(),
	}

	for _, item := range items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if errors.Is(err, domain.ErrProductNotFound) {
			// Deleted mid-checkout: drop the line, matching the
			// storefront's documented skip policy.
			s.logger.Warn("skipping cart line for missing product",
				zap.Int64("product_id", item.ProductID),
				zap.Int64("user_id", req.UserID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve product %d: %w", item.ProductID, err)
		}

		if item.Quantity > product.Stock {
			return nil, &domain.InsufficientStockError{
				ProductID: product.ID,
				Title:     product.Title,
				Available: product.Stock,
				Requested: item.Quantity,
			}
		}

		unitPrice := product.UnitPrice()
		placement.Lines = append(placement.Lines, domain.PlacementLine{
			ProductID: product.ID,
			Title:     product.Title,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
		})
		placement.TotalAmount += unitPrice * float64(item.Quantity)
	}

	// Every surviving line referenced a deleted product.
	if len(placement.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	order, err := s.ledger.PlaceOrder(ctx, placement)
	if err != nil {
		return nil, err
	}

	if !req.Guest() {
		s.cart.InvalidateCache(req.UserID)
	}

	s.logger.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.Float64("total_amount", order.TotalAmount),
		zap.Int("lines", len(order.Items)))

	return order, nil
}

// requestedItems normalizes both paths to (product id, quantity) pairs.
func (s *Service) requestedItems(ctx context.Context, req *Request) ([]domain.CartItem, error) {
	if req.Guest() {
		items := make([]domain.CartItem, 0, len(req.GuestItems))
		for productID, quantity := range req.GuestItems {
			if quantity <= 0 {
				continue
			}
			items = append(items, domain.CartItem{ProductID: productID, Quantity: quantity})
		}
		// Map iteration order is random; keep line order stable.
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
		return items, nil
	}

	c, err := s.cart.GetCart(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return c.Items, nil
}

func (s *Service) observe(start time.Time, err error) {
	if s.metrics == nil {
		return
	}

	result := "success"
	var stockErr *domain.InsufficientStockError
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrEmptyCart):
		result = "empty_cart"
	case errors.As(err, &stockErr):
		result = "insufficient_stock"
	case errors.Is(err, domain.ErrAddressNotFound):
		result = "address_not_found"
	default:
		result = "persistence_error"
	}

	s.metrics.Commits.WithLabelValues(result).Inc()
	s.metrics.Duration.Observe(time.Since(start).Seconds())
}

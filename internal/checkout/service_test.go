package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/ceylonmart/checkout-service/internal/catalog"
	"github.com/ceylonmart/checkout-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ceylonmart/checkout-service/pkg/metrics"
)

func discounted(v float64) *float64 { return &v }

type fixture struct {
	svc    *Service
	store  *catalog.MemoryStore
	cart   *MockCartReader
	ledger *FakeLedger
	addrs  *MockAddressBook
}

func setup(t *testing.T) *fixture {
	t.Helper()

	store := catalog.NewMemoryStore()
	ledger := NewFakeLedger(store)
	cartReader := &MockCartReader{Cart: &domain.Cart{UserID: 1}}
	addrs := &MockAddressBook{Addresses: map[int64]*domain.Address{
		10: {ID: 10, UserID: 1, Line1: "12 Lake Rd", City: "Colombo"},
	}}

	m := metrics.NewCheckoutMetrics(prometheus.NewRegistry())
	svc := NewService(cartReader, store, addrs, ledger, zap.NewNop(), m)
	return &fixture{svc: svc, store: store, cart: cartReader, ledger: ledger, addrs: addrs}
}

func (f *fixture) withCartItems(items ...domain.CartItem) {
	f.cart.Cart = &domain.Cart{UserID: 1, Items: items}
}

func authRequest() *Request {
	return &Request{
		UserID:         1,
		AddressID:      10,
		PaymentMethod:  "visa",
		DeliveryMethod: "express",
	}
}

func TestCommitCheckout_Success_DiscountedPrice(t *testing.T) {
	f := setup(t)
	f.store.Seed(domain.Product{
		ID: 1, Title: "Trail Shoes", Price: 10.00, DiscountedPrice: discounted(8.00), Stock: 5,
	})
	f.withCartItems(domain.CartItem{ProductID: 1, Quantity: 3})

	order, err := f.svc.CommitCheckout(context.Background(), authRequest())
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, 8.00, order.Items[0].UnitPrice)
	assert.Equal(t, 24.00, order.Items[0].LineTotal())
	assert.Equal(t, 24.00, order.TotalAmount)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	// Stock 5 - 3 = 2; Colombo is a main city and stock remains positive.
	stock, _ := f.store.GetStock(context.Background(), 1)
	assert.Equal(t, int32(2), stock)
	assert.Equal(t, 5, order.Items[0].EstimatedDays)

	// Cart is cleared inside the transaction and the cache invalidated.
	assert.Equal(t, []int64{1}, f.ledger.ClearedUsers)
	assert.Equal(t, []int64{1}, f.cart.Invalidations)
}

func TestCommitCheckout_TotalReconcilesAcrossLines(t *testing.T) {
	f := setup(t)
	f.store.Seed(domain.Product{ID: 1, Title: "Shoes", Price: 10.00, Stock: 10})
	f.store.Seed(domain.Product{ID: 2, Title: "Socks", Price: 2.50, DiscountedPrice: discounted(2.00), Stock: 10})
	f.withCartItems(
		domain.CartItem{ProductID: 1, Quantity: 2},
		domain.CartItem{ProductID: 2, Quantity: 4},
	)

	order, err := f.svc.CommitCheckout(context.Background(), authRequest())
	require.NoError(t, err)

	var sum float64
	for _, item := range order.Items {
		sum += item.LineTotal()
	}
	assert.Equal(t, sum, order.TotalAmount)
	assert.Equal(t, 28.00, order.TotalAmount)
}

func TestCommitCheckout_InsufficientStock_NothingMutated(t *testing.T) {
	f := setup(t)
	f.store.Seed(domain.Product{ID: 1, Title: "Trail Shoes", Price: 10.00, Stock: 2})
	f.store.Seed(domain.Product{ID: 2, Title: "Socks", Price: 2.00, Stock: 10})
	f.withCartItems(
		domain.CartItem{ProductID: 2, Quantity: 1},
		domain.CartItem{ProductID: 1, Quantity: 3},
	)

	_, err := f.svc.CommitCheckout(context.Background(), authRequest())

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Trail Shoes", stockErr.Title)
	assert.Equal(t, int32(2), stockErr.Available)
	assert.Equal(t, int32(3), stockErr.Requested)

	// All-or-nothing: no stock changed, no order placed, cart intact.
	stock1, _ := f.store.GetStock(context.Background(), 1)
	stock2, _ := f.store.GetStock(context.Background(), 2)
	assert.Equal(t, int32(2), stock1)
	assert.Equal(t, int32(10), stock2)
	assert.Empty(t, f.ledger.Placed)
	assert.Empty(t, f.ledger.ClearedUsers)
}

func TestCommitCheckout_EmptyCart(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CommitCheckout(context.Background(), authRequest())
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Empty(t, f.ledger.Placed)
}

func TestCommitCheckout_MissingProductSkipped(t *testing.T) {
	f := setup(t)
	f.store.Seed(domain.Product{ID: 1, Title: "Shoes", Price: 10.00, Stock: 5})
	f.withCartItems(
		domain.CartItem{ProductID: 1, Quantity: 1},
		domain.CartItem{ProductID: 999, Quantity: 2}, // deleted mid-checkout
	)

	order, err := f.svc.CommitCheckout(context.Background(), authRequest())
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(1), order.Items[0].ProductID)
	assert.Equal(t, 10.00, order.TotalAmount)
}

func TestCommitCheckout_AllProductsMissing_IsEmptyCart(t *testing.T) {
	f := setup(t)
	f.withCartItems(domain.CartItem{ProductID: 999, Quantity: 2})

	_, err := f.svc.CommitCheckout(context.Background(), authRequest())
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCommitCheckout_PriceReadAtCommitTime(t *testing.T) {
	f := setup(t)
	// The cart never stores a price; whatever the catalog says now wins.
	f.store.Seed(domain.Product{ID: 1, Title: "Shoes", Price: 15.00, Stock: 5})
	f.withCartItems(domain.CartItem{ProductID: 1, Quantity: 1})

	order, err := f.svc.CommitCheckout(context.Background(), authRequest())
	require.NoError(t, err)
	assert.Equal(t, 15.00, order.Items[0].UnitPrice)
}

func TestCommitCheckout_AddressNotFound(t *testing.T) {
	f := setup(t)
	f.store.Seed(domain.Product{ID: 1, Title: "Shoes", Price: 10.00, Stock: 5})
	f.withCartItems(domain.CartItem{ProductID: 1, Quantity: 1})

	req := authRequest()
	req.AddressID = 777

	_, err := f.svc.CommitCheckout(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrAddressNotFound)
	assert.Empty(t, f.ledger.Placed)
}

func TestCommitCheckout_ForeignAddressRejected(t *testing.T) {
	f := setup(t)
	f.addrs.Addresses[20] = &domain.Address{ID: 20, UserID: 2, City: "Galle"}
	f.store.Seed(domain.Product{ID: 1, Title: "Shoes", Price: 10.00, Stock: 5})
	f.withCartItems(domain.CartItem{ProductID: 1, Quantity: 1})

	req := authRequest()
	req.AddressID = 20

	_, err := f.svc.CommitCheckout(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrAddressNotFound)
}

func TestCommitCheckout_LedgerFailure_NoStockChange(t *testing.T) {
	f := setup(t)
	f.store.Seed(domain.Product{ID: 1, Title: "Shoes", Price: 10.00, Stock: 5})
	f.withCartItems(domain.CartItem{ProductID: 1, Quantity: 3})
	f.ledger.Err = errors.New("connection reset")

	_, err := f.svc.CommitCheckout(context.Background(), authRequest())
	require.Error(t, err)

	stock, _ := f.store.GetStock(context.Background(), 1)
	assert.Equal(t, int32(5), stock)
	assert.Empty(t, f.cart.Invalidations)
}

func TestCommitCheckout_GuestPath(t *testing.T) {
	f := setup(t)
	f.store.Seed(domain.Product{ID: 1, Title: "Trail Shoes", Price: 10.00, DiscountedPrice: discounted(8.00), Stock: 5})

	req := &Request{
		UserID:          domain.GuestUserID,
		GuestItems:      domain.GuestCart{1: 3},
		DestinationCity: "Matara",
		PaymentMethod:   "visa",
		DeliveryMethod:  "express",
	}

	order, err := f.svc.CommitCheckout(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.GuestUserID, order.UserID)
	assert.Equal(t, 24.00, order.TotalAmount)
	// Matara is not a main city; stock 5-3=2 remains positive.
	assert.Equal(t, 7, order.Items[0].EstimatedDays)

	// Guest carts are client-held: nothing to clear, no cache touched.
	assert.Empty(t, f.ledger.ClearedUsers)
	assert.Empty(t, f.cart.Invalidations)

	stock, _ := f.store.GetStock(context.Background(), 1)
	assert.Equal(t, int32(2), stock)
}

func TestCommitCheckout_GuestEmptyCart(t *testing.T) {
	f := setup(t)

	req := &Request{
		UserID:          domain.GuestUserID,
		GuestItems:      domain.GuestCart{},
		DestinationCity: "Colombo",
		PaymentMethod:   "visa",
	}

	_, err := f.svc.CommitCheckout(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCommitCheckout_GuestZeroQuantityDropped(t *testing.T) {
	f := setup(t)
	f.store.Seed(domain.Product{ID: 1, Title: "Shoes", Price: 10.00, Stock: 5})

	req := &Request{
		UserID:          domain.GuestUserID,
		GuestItems:      domain.GuestCart{1: 0},
		DestinationCity: "Colombo",
		PaymentMethod:   "visa",
	}

	_, err := f.svc.CommitCheckout(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCommitCheckout_GuestStockGuardApplies(t *testing.T) {
	f := setup(t)
	f.store.Seed(domain.Product{ID: 1, Title: "Trail Shoes", Price: 10.00, Stock: 2})

	req := &Request{
		UserID:          domain.GuestUserID,
		GuestItems:      domain.GuestCart{1: 3},
		DestinationCity: "Colombo",
		PaymentMethod:   "visa",
	}

	_, err := f.svc.CommitCheckout(context.Background(), req)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	stock, _ := f.store.GetStock(context.Background(), 1)
	assert.Equal(t, int32(2), stock)
}

func TestCommitCheckout_BackorderEstimate(t *testing.T) {
	f := setup(t)
	// Buying out the remaining stock: post-decrement stock is 0.
	f.store.Seed(domain.Product{ID: 1, Title: "Shoes", Price: 10.00, Stock: 3})
	f.withCartItems(domain.CartItem{ProductID: 1, Quantity: 3})

	order, err := f.svc.CommitCheckout(context.Background(), authRequest())
	require.NoError(t, err)
	assert.Equal(t, 8, order.Items[0].EstimatedDays)
}

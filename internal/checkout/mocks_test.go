package checkout

import (
	"context"
	"time"

	"github.com/ceylonmart/checkout-service/internal/catalog"
	"github.com/ceylonmart/checkout-service/internal/delivery"
	"github.com/ceylonmart/checkout-service/internal/domain"
)

// MockCartReader implements CartReader for testing
type MockCartReader struct {
	Cart          *domain.Cart
	Err           error
	Invalidations []int64
}

func (m *MockCartReader) GetCart(_ context.Context, _ int64) (*domain.Cart, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Cart, nil
}

func (m *MockCartReader) InvalidateCache(userID int64) {
	m.Invalidations = append(m.Invalidations, userID)
}

// MockAddressBook implements AddressBook for testing
type MockAddressBook struct {
	Addresses map[int64]*domain.Address
}

func (m *MockAddressBook) GetAddress(_ context.Context, addressID, userID int64) (*domain.Address, error) {
	addr, ok := m.Addresses[addressID]
	if !ok || addr.UserID != userID {
		return nil, domain.ErrAddressNotFound
	}
	return addr, nil
}

// FakeLedger implements OrderLedger on top of the in-memory catalog
// store, mirroring the transactional behavior of the Postgres ledger:
// on any induced failure nothing is decremented.
type FakeLedger struct {
	Store        *catalog.MemoryStore
	Err          error
	nextOrderID  int64
	nextItemID   int64
	Placed       []*domain.Order
	ClearedUsers []int64
}

func NewFakeLedger(store *catalog.MemoryStore) *FakeLedger {
	return &FakeLedger{Store: store}
}

func (f *FakeLedger) PlaceOrder(ctx context.Context, placement *domain.OrderPlacement) (*domain.Order, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	postStock := make([]int32, len(placement.Lines))
	for i, line := range placement.Lines {
		remaining, err := f.Store.Decrement(ctx, line.ProductID, line.Quantity)
		if err != nil {
			// Undo decrements already applied in this attempt, the way
			// a rolled-back transaction would.
			for j := 0; j < i; j++ {
				undo, _ := f.Store.GetProduct(ctx, placement.Lines[j].ProductID)
				undo.Stock += placement.Lines[j].Quantity
				f.Store.Seed(*undo)
			}
			return nil, err
		}
		postStock[i] = remaining
	}

	f.nextOrderID++
	order := &domain.Order{
		ID:             f.nextOrderID,
		UserID:         placement.UserID,
		TotalAmount:    placement.TotalAmount,
		DeliveryMethod: placement.DeliveryMethod,
		PaymentMethod:  placement.PaymentMethod,
		Status:         domain.OrderStatusPending,
		CreatedAt:      time.Now(),
	}
	for i, line := range placement.Lines {
		f.nextItemID++
		order.Items = append(order.Items, domain.OrderItem{
			ID:              f.nextItemID,
			OrderID:         order.ID,
			ProductID:       line.ProductID,
			Title:           line.Title,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			DestinationCity: placement.DestinationCity,
			EstimatedDays:   delivery.EstimateDays(postStock[i], placement.DestinationCity),
		})
	}

	if placement.ClearCart {
		f.ClearedUsers = append(f.ClearedUsers, placement.UserID)
	}

	f.Placed = append(f.Placed, order)
	return order, nil
}

package orders

import (
	"context"
	"time"

	"github.com/ceylonmart/checkout-service/internal/domain"
	"github.com/google/uuid"
)

// OutboxEvent is one row of the order_outbox table, published
// at-least-once to Kafka by the outbox poller.
type OutboxEvent struct {
	ID        uuid.UUID
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

type Repository interface {
	// PlaceOrder commits a validated placement as one transaction:
	// conditional stock decrements, order header, order lines with
	// delivery estimates, cart clear and outbox event. Either all of
	// it lands or none of it does.
	PlaceOrder(ctx context.Context, placement *domain.OrderPlacement) (*domain.Order, error)

	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	ListOrdersForUser(ctx context.Context, userID int64) ([]*domain.Order, error)

	GetUnprocessedEvents(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error
}

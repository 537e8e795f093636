package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ceylonmart/checkout-service/internal/delivery"
	"github.com/ceylonmart/checkout-service/internal/domain"
	"github.com/google/uuid"
)

const orderPlacedEventType = "order_placed"

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// PlaceOrder runs the whole commit inside one transaction. Stock is
// taken with a conditional decrement: two concurrent orders for the
// last unit cannot both pass, and stock never goes negative. A failure
// anywhere rolls the entire attempt back.
func (r *PostgresRepository) PlaceOrder(ctx context.Context, placement *domain.OrderPlacement) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Decrement first; RETURNING gives the post-decrement stock the
	// delivery estimate needs.
	postStock := make([]int32, len(placement.Lines))
	for i, line := range placement.Lines {
		var remaining int32
		err := tx.QueryRowContext(ctx,
			`UPDATE inventory SET stock_count = stock_count - $1
			 WHERE product_id = $2 AND stock_count >= $1
			 RETURNING stock_count`,
			line.Quantity, line.ProductID).Scan(&remaining)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.stockConflict(ctx, tx, line)
		}
		if err != nil {
			return nil, fmt.Errorf("decrement stock for product %d: %w", line.ProductID, err)
		}
		postStock[i] = remaining
	}

	order := &domain.Order{
		UserID:         placement.UserID,
		TotalAmount:    placement.TotalAmount,
		DeliveryMethod: placement.DeliveryMethod,
		PaymentMethod:  placement.PaymentMethod,
		Status:         domain.OrderStatusPending,
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, total_amount, delivery_method, payment_method, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING order_id, created_at`,
		order.UserID, order.TotalAmount, order.DeliveryMethod, order.PaymentMethod, order.Status,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	order.Items = make([]domain.OrderItem, len(placement.Lines))
	for i, line := range placement.Lines {
		item := domain.OrderItem{
			OrderID:         order.ID,
			ProductID:       line.ProductID,
			Title:           line.Title,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			DestinationCity: placement.DestinationCity,
			EstimatedDays:   delivery.EstimateDays(postStock[i], placement.DestinationCity),
		}

		err := tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, title, quantity, unit_price, destination_city, estimated_days)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING order_item_id`,
			item.OrderID, item.ProductID, item.Title, item.Quantity,
			item.UnitPrice, item.DestinationCity, item.EstimatedDays,
		).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		order.Items[i] = item
	}

	if placement.ClearCart {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE user_id = $1`, placement.UserID); err != nil {
			return nil, fmt.Errorf("clear cart: %w", err)
		}
	}

	if err := r.insertOutboxEvent(ctx, tx, order); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order transaction: %w", err)
	}

	return order, nil
}

// stockConflict turns a failed conditional decrement into an
// InsufficientStockError carrying the stock actually available.
func (r *PostgresRepository) stockConflict(ctx context.Context, tx *sql.Tx, line domain.PlacementLine) error {
	var available int32
	err := tx.QueryRowContext(ctx,
		`SELECT stock_count FROM inventory WHERE product_id = $1`, line.ProductID).Scan(&available)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read stock after conflict for product %d: %w", line.ProductID, err)
	}

	return &domain.InsufficientStockError{
		ProductID: line.ProductID,
		Title:     line.Title,
		Available: available,
		Requested: line.Quantity,
	}
}

type orderPlacedPayload struct {
	EventID     string        `json:"event_id"`
	OrderID     int64         `json:"order_id"`
	UserID      int64         `json:"user_id"`
	TotalAmount float64       `json:"total_amount"`
	Items       []payloadItem `json:"items"`
	PlacedAt    time.Time     `json:"placed_at"`
}

type payloadItem struct {
	ProductID     int64   `json:"product_id"`
	Title         string  `json:"title"`
	Quantity      int32   `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	EstimatedDays int     `json:"estimated_days"`
}

func (r *PostgresRepository) insertOutboxEvent(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	eventID := uuid.New()
	payload := orderPlacedPayload{
		EventID:     eventID.String(),
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		PlacedAt:    order.CreatedAt,
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, payloadItem{
			ProductID:     item.ProductID,
			Title:         item.Title,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			EstimatedDays: item.EstimatedDays,
		})
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO order_outbox (id, event_type, payload) VALUES ($1, $2, $3)`,
		eventID, orderPlacedEventType, payloadJSON); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx,
		`SELECT order_id, user_id, total_amount, delivery_method, payment_method, status, created_at
		 FROM orders WHERE order_id = $1`, orderID,
	).Scan(
		&order.ID,
		&order.UserID,
		&order.TotalAmount,
		&order.DeliveryMethod,
		&order.PaymentMethod,
		&order.Status,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *PostgresRepository) ListOrdersForUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, user_id, total_amount, delivery_method, payment_method, status, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC, order_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var result []*domain.Order
	for rows.Next() {
		order := &domain.Order{}
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.TotalAmount,
			&order.DeliveryMethod,
			&order.PaymentMethod,
			&order.Status,
			&order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		result = append(result, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range result {
		items, err := r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return result, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_item_id, order_id, product_id, title, quantity, unit_price, destination_city, estimated_days
		 FROM order_items WHERE order_id = $1 ORDER BY order_item_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Title,
			&item.Quantity,
			&item.UnitPrice,
			&item.DestinationCity,
			&item.EstimatedDays,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_type, payload, created_at
		 FROM order_outbox
		 WHERE processed_at IS NULL
		 ORDER BY created_at
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var event OutboxEvent
		if err := rows.Scan(&event.ID, &event.EventType, &event.Payload, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *PostgresRepository) MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE order_outbox SET processed_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}

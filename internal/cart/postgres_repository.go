package cart

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ceylonmart/checkout-service/internal/domain"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	query := `SELECT product_id, quantity, added_at
	          FROM cart_items
	          WHERE user_id = $1
	          ORDER BY added_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	cart := &domain.Cart{UserID: userID}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(cart.Items) == 0 {
		return nil, domain.ErrCartNotFound
	}

	cart.CreatedAt = cart.Items[0].AddedAt
	cart.UpdatedAt = cart.Items[len(cart.Items)-1].AddedAt
	return cart, nil
}

// AddItem upserts a cart line. Adding a product that is already in the
// cart increments the stored quantity.
func (r *postgresRepository) AddItem(ctx context.Context, userID int64, item domain.CartItem) error {
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}

	query := `INSERT INTO cart_items (user_id, product_id, quantity, added_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (user_id, product_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity,
	                        added_at = EXCLUDED.added_at`

	if _, err := r.db.ExecContext(ctx, query, userID, item.ProductID, item.Quantity, item.AddedAt); err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateItemQuantity(ctx context.Context, userID int64, productID int64, quantity int32) error {
	query := `UPDATE cart_items SET quantity = $3
	          WHERE user_id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("update cart item quantity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) RemoveItem(ctx context.Context, userID int64, productID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) DeleteCart(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

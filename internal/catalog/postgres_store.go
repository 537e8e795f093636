package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ceylonmart/checkout-service/internal/domain"
)

// PostgresStore reads products and stock from the shared service
// database. The inventory row lives in the same database as orders so
// the ledger can decrement it inside the order transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const productColumns = `
	p.product_id, p.title, p.description, p.price, p.discounted_price,
	p.image_url, p.created_at, COALESCE(i.stock_count, 0)`

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + `
	          FROM products p
	          LEFT JOIN inventory i ON i.product_id = p.product_id
	          WHERE p.product_id = $1`

	product, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return product, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + `
	          FROM products p
	          LEFT JOIN inventory i ON i.product_id = p.product_id
	          ORDER BY p.product_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (s *PostgresStore) GetStock(ctx context.Context, id int64) (int32, error) {
	var stock int32
	err := s.db.QueryRowContext(ctx,
		`SELECT stock_count FROM inventory WHERE product_id = $1`, id).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query stock: %w", err)
	}
	return stock, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	var discounted sql.NullFloat64
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Price,
		&discounted,
		&p.ImageURL,
		&p.CreatedAt,
		&p.Stock,
	)
	if err != nil {
		return nil, err
	}
	if discounted.Valid {
		p.DiscountedPrice = &discounted.Float64
	}
	return p, nil
}

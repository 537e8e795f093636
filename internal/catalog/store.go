package catalog

import (
	"context"

	"github.com/ceylonmart/checkout-service/internal/domain"
)

// Store is the catalog surface the checkout workflow consumes: product
// identity, pricing and stock. Stock is mutated only through the order
// ledger's transactional decrement, never here.
type Store interface {
	// GetProduct returns the product joined with its current stock
	// count, or domain.ErrProductNotFound.
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	// ListProducts returns the whole catalog ordered by id.
	ListProducts(ctx context.Context) ([]*domain.Product, error)

	// GetStock returns the current stock count for a product, or
	// domain.ErrProductNotFound.
	GetStock(ctx context.Context, id int64) (int32, error)
}

package cart

import (
	"context"

	"github.com/ceylonmart/checkout-service/internal/domain"
)

// Repository defines the persisted-cart operations for authenticated
// users. Guest carts are client-held and never reach this layer.
type Repository interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, userID int64, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, userID int64, productID int64, quantity int32) error
	RemoveItem(ctx context.Context, userID int64, productID int64) error
	DeleteCart(ctx context.Context, userID int64) error
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart       = errors.New("cart is empty, nothing to checkout")
	ErrProductNotFound = errors.New("product not found")
	ErrAddressNotFound = errors.New("shipping address not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not found in cart")
)

// InsufficientStockError rejects a checkout whose requested quantity
// exceeds the available stock. It carries enough detail for the caller
// to adjust the quantity and retry.
type InsufficientStockError struct {
	ProductID int64
	Title     string
	Available int32
	Requested int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: available %d, requested %d",
		e.Title, e.Available, e.Requested)
}

package domain

import "time"

// GuestUserID is the sentinel identity used for anonymous purchases.
// Guest carts are never persisted server-side; the client submits the
// product_id -> quantity map with the checkout request.
const GuestUserID int64 = 0

type Cart struct {
	UserID    int64
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	ProductID int64     `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// CartLine is a cart item joined with current product data, ready for
// display or for pricing at commit time.
type CartLine struct {
	ProductID int64   `json:"product_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	ImageURL  string  `json:"image_url"`
	Quantity  int32   `json:"quantity"`
}

// GuestCart is the client-held cart state for anonymous sessions:
// product id -> requested quantity.
type GuestCart map[int64]int32

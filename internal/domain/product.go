package domain

import "time"

type Product struct {
	ID              int64
	Title           string
	Description     string
	Price           float64
	DiscountedPrice *float64
	ImageURL        string
	Stock           int32
	CreatedAt       time.Time
}

// UnitPrice returns the price a buyer actually pays: the discounted
// price when one is set, the list price otherwise.
func (p *Product) UnitPrice() float64 {
	if p.DiscountedPrice != nil {
		return *p.DiscountedPrice
	}
	return p.Price
}

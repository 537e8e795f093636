// Package delivery assigns an estimated delivery window to an order
// line based on the destination city and the stock level left after
// the order's decrement.
package delivery

// mainCities is the fixed allow-list of destinations with a shorter
// delivery window. Unknown cities are always treated as non-main.
var mainCities = map[string]struct{}{
	"Colombo":  {},
	"Panadura": {},
	"Galle":    {},
	"Kandy":    {},
}

const (
	daysMainInStock    = 5
	daysOtherInStock   = 7
	daysMainBackorder  = 8
	daysOtherBackorder = 10
)

// EstimateDays returns the estimated delivery time in days for one
// order line. postDecrementStock is the stock count remaining after
// the line's quantity has been deducted.
func EstimateDays(postDecrementStock int32, destinationCity string) int {
	_, main := mainCities[destinationCity]
	inStock := postDecrementStock > 0

	switch {
	case main && inStock:
		return daysMainInStock
	case main:
		return daysMainBackorder
	case inStock:
		return daysOtherInStock
	default:
		return daysOtherBackorder
	}
}

// IsMainCity reports whether the destination is on the allow-list.
func IsMainCity(city string) bool {
	_, ok := mainCities[city]
	return ok
}

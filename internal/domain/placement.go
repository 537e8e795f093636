package domain

// OrderPlacement is the validated, priced input handed to the order
// ledger. The ledger persists it in a single transaction together with
// the stock decrements and the cart clear.
type OrderPlacement struct {
	UserID          int64
	DestinationCity string
	DeliveryMethod  string
	PaymentMethod   string
	Lines           []PlacementLine
	TotalAmount     float64

	// ClearCart deletes the user's persisted cart rows inside the same
	// transaction. Guest checkouts leave it false: their cart is
	// client-held and there is nothing to clear server-side.
	ClearCart bool
}

type PlacementLine struct {
	ProductID int64
	Title     string
	Quantity  int32
	UnitPrice float64
}

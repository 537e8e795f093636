package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type Order struct {
	ID             int64
	UserID         int64 // GuestUserID for anonymous purchases
	TotalAmount    float64
	DeliveryMethod string
	PaymentMethod  string
	Status         OrderStatus
	Items          []OrderItem
	CreatedAt      time.Time
}

type OrderItem struct {
	ID              int64
	OrderID         int64
	ProductID       int64
	Title           string
	Quantity        int32
	UnitPrice       float64
	DestinationCity string
	EstimatedDays   int
}

// LineTotal is the amount charged for this line.
func (i OrderItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

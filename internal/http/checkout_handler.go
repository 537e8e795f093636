package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ceylonmart/checkout-service/internal/checkout"
	"github.com/ceylonmart/checkout-service/internal/domain"
)

// CheckoutService commits carts into orders.
type CheckoutService interface {
	CommitCheckout(ctx context.Context, req *checkout.Request) (*domain.Order, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(svc CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: svc,
		timeout:  timeout,
	}
}

type CheckoutRequestDTO struct {
	ShippingAddressID int64  `json:"shipping_address_id"`
	PaymentMethod     string `json:"payment_method"`
	DeliveryMethod    string `json:"delivery_method"`
}

type GuestCheckoutItemDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type GuestCheckoutRequestDTO struct {
	DestinationCity string                 `json:"destination_city"`
	PaymentMethod   string                 `json:"payment_method"`
	DeliveryMethod  string                 `json:"delivery_method"`
	Items           []GuestCheckoutItemDTO `json:"items"`
}

type OrderItemDTO struct {
	ID              int64   `json:"id"`
	ProductID       int64   `json:"product_id"`
	Title           string  `json:"title"`
	Quantity        int32   `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	LineTotal       float64 `json:"line_total"`
	DestinationCity string  `json:"destination_city"`
	EstimatedDays   int     `json:"estimated_days"`
}

type OrderResponseDTO struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"user_id"`
	TotalAmount    float64        `json:"total_amount"`
	DeliveryMethod string         `json:"delivery_method"`
	PaymentMethod  string         `json:"payment_method"`
	Status         string         `json:"status"`
	Items          []OrderItemDTO `json:"items"`
	CreatedAt      string         `json:"created_at"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == domain.GuestUserID {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ShippingAddressID <= 0 {
		respondError(w, http.StatusBadRequest, "missing_shipping_address", "shipping_address_id is required")
		return
	}
	if req.PaymentMethod == "" {
		respondError(w, http.StatusBadRequest, "missing_payment_method", "payment_method is required")
		return
	}

	order, err := h.checkout.CommitCheckout(ctx, &checkout.Request{
		UserID:         userID,
		AddressID:      req.ShippingAddressID,
		PaymentMethod:  req.PaymentMethod,
		DeliveryMethod: defaultDeliveryMethod(req.DeliveryMethod),
	})
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertOrder(order))
}

// POST /api/v1/checkout/guest
func (h *CheckoutHandler) GuestCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req GuestCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.DestinationCity == "" {
		respondError(w, http.StatusBadRequest, "missing_destination_city", "destination_city is required")
		return
	}
	if req.PaymentMethod == "" {
		respondError(w, http.StatusBadRequest, "missing_payment_method", "payment_method is required")
		return
	}

	items := make(domain.GuestCart, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_item",
				"items must carry a positive product_id and quantity")
			return
		}
		items[item.ProductID] += item.Quantity
	}

	order, err := h.checkout.CommitCheckout(ctx, &checkout.Request{
		UserID:          domain.GuestUserID,
		GuestItems:      items,
		DestinationCity: req.DestinationCity,
		PaymentMethod:   req.PaymentMethod,
		DeliveryMethod:  defaultDeliveryMethod(req.DeliveryMethod),
	})
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertOrder(order))
}

func defaultDeliveryMethod(method string) string {
	if method == "" {
		return "express"
	}
	return method
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Title:           item.Title,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			LineTotal:       item.LineTotal(),
			DestinationCity: item.DestinationCity,
			EstimatedDays:   item.EstimatedDays,
		})
	}

	return OrderResponseDTO{
		ID:             o.ID,
		UserID:         o.UserID,
		TotalAmount:    o.TotalAmount,
		DeliveryMethod: o.DeliveryMethod,
		PaymentMethod:  o.PaymentMethod,
		Status:         string(o.Status),
		Items:          items,
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
	}
}

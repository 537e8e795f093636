package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ceylonmart/checkout-service/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Details: details,
	})
}

// handleCheckoutError maps the commit error taxonomy onto HTTP statuses:
// client-caused validation and business-rule rejections are 4xx,
// everything else is a generic 500.
func handleCheckoutError(w http.ResponseWriter, err error) {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusBadRequest, struct {
			ErrorResponse
			ProductID int64  `json:"product_id"`
			Title     string `json:"title"`
			Available int32  `json:"available"`
			Requested int32  `json:"requested"`
		}{
			ErrorResponse: ErrorResponse{
				Error:   http.StatusText(http.StatusBadRequest),
				Code:    "insufficient_stock",
				Details: stockErr.Error(),
			},
			ProductID: stockErr.ProductID,
			Title:     stockErr.Title,
			Available: stockErr.Available,
			Requested: stockErr.Requested,
		})
	case errors.Is(err, domain.ErrAddressNotFound):
		respondError(w, http.StatusNotFound, "address_not_found", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
	}
}

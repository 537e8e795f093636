package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ceylonmart/checkout-service/internal/catalog"
	"github.com/ceylonmart/checkout-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ProductsHandler struct {
	catalog catalog.Store
	timeout time.Duration
}

func NewProductsHandler(store catalog.Store, timeout time.Duration) *ProductsHandler {
	return &ProductsHandler{
		catalog: store,
		timeout: timeout,
	}
}

type ProductDTO struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Price           float64  `json:"price"`
	DiscountedPrice *float64 `json:"discounted_price,omitempty"`
	ImageURL        string   `json:"image_url,omitempty"`
	Stock           int32    `json:"stock"`
	InStock         bool     `json:"in_stock"`
}

// GET /api/v1/products
func (h *ProductsHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list products")
		return
	}

	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, convertProduct(p))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"products": out,
		"count":    len(out),
	})
}

// GET /api/v1/products/{product_id}
func (h *ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "product_not_found", "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load product")
		return
	}

	respondJSON(w, http.StatusOK, convertProduct(product))
}

func convertProduct(p *domain.Product) ProductDTO {
	return ProductDTO{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		ImageURL:        p.ImageURL,
		Stock:           p.Stock,
		InStock:         p.Stock > 0,
	}
}

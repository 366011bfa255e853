package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/FaizanFazal12/shop-backend/internal/cart"
	"github.com/FaizanFazal12/shop-backend/internal/order"
	"github.com/FaizanFazal12/shop-backend/internal/repository"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondDomainError maps core error kinds to stable machine-readable
// codes and HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient_stock", "requested quantity exceeds available stock")
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", "cart not found")
	case errors.Is(err, repository.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "line_not_found", "product not found in cart")
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, repository.ErrConflict):
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusConflict, "conflict", "concurrent modification, retry the request")
	case errors.Is(err, order.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty, cannot place an order")
	case errors.Is(err, order.ErrStockInconsistency):
		respondError(w, http.StatusInternalServerError, "stock_inconsistency", "stock state is inconsistent")
	case errors.Is(err, order.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "invalid_status", "invalid order status")
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity out of range")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

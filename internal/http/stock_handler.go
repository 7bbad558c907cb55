package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmateus/vendhub/internal/stock"
)

type StockService interface {
	Decrement(ctx context.Context, productID string, quantityPurchased int) (stock.Result, error)
}

type StockHandler struct {
	svc     StockService
	timeout time.Duration
}

func NewStockHandler(svc StockService, timeout time.Duration) *StockHandler {
	return &StockHandler{svc: svc, timeout: timeout}
}

type reconcileStockRequestDTO struct {
	ProductID         string `json:"productId"`
	QuantityPurchased int    `json:"quantityPurchased"`
}

type reconcileStockResponseDTO struct {
	Success bool `json:"success"`
	stock.Result
}

// POST /reconcile-stock
func (h *StockHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req reconcileStockRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" || req.QuantityPurchased <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "invalid product ID or quantity")
		return
	}

	res, err := h.svc.Decrement(ctx, req.ProductID, req.QuantityPurchased)
	if err != nil {
		switch {
		case errors.Is(err, stock.ErrInvalidQuantity):
			respondError(w, http.StatusBadRequest, "invalid_quantity", "invalid product ID or quantity")
		case errors.Is(err, stock.ErrProductNotFound):
			respondError(w, http.StatusNotFound, "not_found", "product not found")
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to update stock")
		}
		return
	}

	respondJSON(w, http.StatusOK, reconcileStockResponseDTO{Success: true, Result: res})
}

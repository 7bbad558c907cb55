package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmateus/vendhub/internal/catalog"
)

type CatalogService interface {
	ListSellable(ctx context.Context) (*catalog.Snapshot, error)
}

type CatalogHandler struct {
	svc     CatalogService
	timeout time.Duration
}

func NewCatalogHandler(svc CatalogService, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{svc: svc, timeout: timeout}
}

// GET /catalog
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.svc.ListSellable(ctx)
	if err != nil {
		if errors.Is(err, catalog.ErrCatalogUnavailable) {
			respondError(w, http.StatusInternalServerError, "catalog_unavailable", "failed to fetch products")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to fetch products")
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

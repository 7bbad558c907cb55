package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmateus/vendhub/internal/domain"
	"github.com/dmateus/vendhub/internal/order"
	"github.com/dmateus/vendhub/internal/pricing"
)

type IntentService interface {
	CreateIntent(ctx context.Context, items []domain.CartItem, data domain.OrderData) (*order.Intent, error)
}

type IntentHandler struct {
	svc     IntentService
	timeout time.Duration
}

func NewIntentHandler(svc IntentService, timeout time.Duration) *IntentHandler {
	return &IntentHandler{svc: svc, timeout: timeout}
}

type basketLineDTO struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	PriceID   string  `json:"priceId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type createIntentRequestDTO struct {
	Basket         []basketLineDTO  `json:"basket"`
	CustomerRecord domain.OrderData `json:"customerRecord"`
}

// POST /intent
func (h *IntentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req createIntentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	items := make([]domain.CartItem, len(req.Basket))
	for i, l := range req.Basket {
		items[i] = domain.CartItem{
			Product: domain.Product{
				ID:        l.ID,
				ProductID: l.ProductID,
				PriceID:   l.PriceID,
				Name:      l.Name,
				Price:     l.Price,
			},
			Quantity: l.Quantity,
		}
	}

	intent, err := h.svc.CreateIntent(ctx, items, req.CustomerRecord)
	if err != nil {
		handleIntentError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, intent)
}

func handleIntentError(w http.ResponseWriter, err error) {
	var invalid *order.InvalidInputError
	var processor *order.ProcessorError
	switch {
	case errors.Is(err, order.ErrNotConfigured):
		respondError(w, http.StatusInternalServerError, "not_configured", "payment system not configured")
	case errors.As(err, &invalid):
		respondError(w, http.StatusBadRequest, "invalid_input", invalid.Error())
	case errors.Is(err, pricing.ErrEmptyBasket), errors.Is(err, pricing.ErrInvalidLine):
		respondError(w, http.StatusBadRequest, "invalid_basket", "invalid cart data")
	case errors.Is(err, pricing.ErrAmountTooLow):
		respondError(w, http.StatusBadRequest, "amount_too_low", "order total too low")
	case errors.As(err, &processor):
		// Surface the processor's message verbatim; the customer may retry.
		respondError(w, http.StatusBadRequest, "processor_error", processor.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create payment intent")
	}
}

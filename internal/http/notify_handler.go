package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/dmateus/vendhub/internal/domain"
	"github.com/dmateus/vendhub/internal/events"
	"github.com/dmateus/vendhub/internal/order"
)

type NotifyService interface {
	Send(ctx context.Context, data domain.OrderData, items []domain.CartItem, total float64) []error
	Recipients() int
}

type SettlementPublisher interface {
	Publish(ctx context.Context, s events.Settlement) error
}

type NotifyHandler struct {
	svc     NotifyService
	events  SettlementPublisher
	timeout time.Duration
}

func NewNotifyHandler(svc NotifyService, publisher SettlementPublisher, timeout time.Duration) *NotifyHandler {
	return &NotifyHandler{svc: svc, events: publisher, timeout: timeout}
}

type notifyRequestDTO struct {
	CustomerRecord domain.OrderData `json:"customerRecord"`
	Basket         []basketLineDTO  `json:"basket"`
	TotalCharged   float64          `json:"totalCharged"`
	IntentID       string           `json:"intentId"`
}

type notifyResponseDTO struct {
	Success bool `json:"success"`
}

// POST /notify
func (h *NotifyHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req notifyRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	items := make([]domain.CartItem, len(req.Basket))
	lines := make([]domain.OrderLine, len(req.Basket))
	for i, l := range req.Basket {
		items[i] = domain.CartItem{
			Product:  domain.Product{ID: l.ID, Name: l.Name, Price: l.Price},
			Quantity: l.Quantity,
		}
		lines[i] = domain.OrderLine{
			ID:        l.ID,
			ProductID: l.ProductID,
			PriceID:   l.PriceID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.Price,
		}
	}

	warnings := h.svc.Send(ctx, req.CustomerRecord, items, req.TotalCharged)
	for _, warn := range warnings {
		log.Printf("confirmation send warning: %v", warn)
	}
	if len(warnings) >= h.svc.Recipients() {
		respondError(w, http.StatusInternalServerError, "send_failed", "failed to send confirmation email")
		return
	}

	// One confirmation call marks one completed order; the event is
	// best effort and never affects the response.
	if h.events != nil {
		err := h.events.Publish(ctx, events.Settlement{
			OrderID:     req.IntentID,
			Items:       lines,
			TotalAmount: req.TotalCharged,
			Currency:    order.Currency,
			SettledAt:   time.Now(),
		})
		if err != nil {
			log.Printf("settlement event publish failed: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, notifyResponseDTO{Success: true})
}

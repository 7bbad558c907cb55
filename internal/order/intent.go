// Package order creates payment authorizations from validated baskets. The
// authorization's metadata bundle is the only durable record of the order, so
// it must be sufficient to reconstruct the order on its own.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/dmateus/vendhub/internal/domain"
	"github.com/dmateus/vendhub/internal/pricing"
	"github.com/dmateus/vendhub/internal/registry"
)

// Currency is the fixed charge currency; the kiosk sells in one market only.
const Currency = "usd"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IntentCreator is the slice of the registry client this service needs.
type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string, idempotencyKey string) (*registry.PaymentIntent, error)
}

// Intent is a created payment authorization, ready for the hosted
// payment-collection step.
type Intent struct {
	IntentID     string `json:"intentId"`
	ClientSecret string `json:"clientSecret"`
	AmountMinor  int64  `json:"-"`
}

type Service struct {
	processor IntentCreator
	newKey    func() string
}

func NewService(processor IntentCreator) *Service {
	return &Service{processor: processor, newKey: uuid.NewString}
}

// CreateIntent validates the basket and customer record, computes the
// authoritative charge, and creates a payment authorization carrying the full
// order snapshot as metadata. All validation happens before any external call.
func (s *Service) CreateIntent(ctx context.Context, items []domain.CartItem, data domain.OrderData) (*Intent, error) {
	if len(items) == 0 {
		return nil, &InvalidInputError{Field: "basket", Reason: "basket is empty"}
	}
	if err := validateOrderData(data); err != nil {
		return nil, err
	}

	amount, err := pricing.ChargeAmount(items)
	if err != nil {
		return nil, err
	}

	metadata, err := buildMetadata(items, data)
	if err != nil {
		return nil, fmt.Errorf("build order metadata: %w", err)
	}

	intent, err := s.processor.CreatePaymentIntent(ctx, amount, Currency, metadata, s.newKey())
	if err != nil {
		return nil, translateProcessorError(err)
	}

	return &Intent{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountMinor:  amount,
	}, nil
}

func validateOrderData(data domain.OrderData) error {
	if strings.TrimSpace(data.Name) == "" {
		return &InvalidInputError{Field: "name", Reason: "name is required"}
	}
	if strings.TrimSpace(data.Apartment) == "" {
		return &InvalidInputError{Field: "apartment", Reason: "apartment is required"}
	}
	if !emailPattern.MatchString(data.Email) {
		return &InvalidInputError{Field: "email", Reason: "email address is not valid"}
	}
	return nil
}

// buildMetadata assembles the string-keyed bundle attached to the
// authorization: customer fields plus the serialized basket snapshot.
func buildMetadata(items []domain.CartItem, data domain.OrderData) (map[string]string, error) {
	lines := make([]domain.OrderLine, len(items))
	for i, it := range items {
		lines[i] = domain.OrderLine{
			ID:        it.ID,
			ProductID: it.ProductID,
			PriceID:   it.PriceID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		}
	}
	cart, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"customer_name":    data.Name,
		"apartment_number": data.Apartment,
		"customer_email":   data.Email,
		"cart":             string(cart),
	}, nil
}

func translateProcessorError(err error) error {
	if errors.Is(err, registry.ErrNotConfigured) {
		return ErrNotConfigured
	}
	var apiErr *registry.APIError
	if errors.As(err, &apiErr) {
		return &ProcessorError{Code: apiErr.Code, Message: apiErr.Message}
	}
	// Anything else is unknown; the caller treats it as retryable.
	return fmt.Errorf("create payment authorization: %w", err)
}

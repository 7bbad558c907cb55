package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmateus/vendhub/internal/domain"
	"github.com/dmateus/vendhub/internal/pricing"
	"github.com/dmateus/vendhub/internal/registry"
)

// processorMock captures the create call so tests can assert on call counts
// and the metadata bundle.
type processorMock struct {
	calls    int
	amount   int64
	currency string
	metadata map[string]string
	idemKeys []string
	intent   *registry.PaymentIntent
	err      error
}

func (m *processorMock) CreatePaymentIntent(_ context.Context, amount int64, currency string, metadata map[string]string, idempotencyKey string) (*registry.PaymentIntent, error) {
	m.calls++
	m.amount = amount
	m.currency = currency
	m.metadata = metadata
	m.idemKeys = append(m.idemKeys, idempotencyKey)
	if m.err != nil {
		return nil, m.err
	}
	return m.intent, nil
}

func item(id string, price float64, qty int) domain.CartItem {
	return domain.CartItem{
		Product:  domain.Product{ID: id, ProductID: id, PriceID: "price_" + id, Name: "Item " + id, Price: price},
		Quantity: qty,
	}
}

func validOrderData() domain.OrderData {
	return domain.OrderData{Name: "Ada Lovelace", Apartment: "12B", Email: "ada@example.com"}
}

func TestCreateIntent_Success(t *testing.T) {
	mock := &processorMock{intent: &registry.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}}
	svc := NewService(mock)

	basket := []domain.CartItem{item("prod_a", 2.50, 2), item("prod_b", 1.75, 1)}
	intent, err := svc.CreateIntent(context.Background(), basket, validOrderData())
	require.NoError(t, err)

	assert.Equal(t, "pi_1", intent.IntentID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.Equal(t, int64(675), intent.AmountMinor)
	assert.Equal(t, int64(675), mock.amount)
	assert.Equal(t, "usd", mock.currency)
}

func TestCreateIntent_MetadataReconstructsOrder(t *testing.T) {
	mock := &processorMock{intent: &registry.PaymentIntent{ID: "pi_1", ClientSecret: "cs"}}
	svc := NewService(mock)

	basket := []domain.CartItem{item("prod_a", 2.50, 2), item("prod_b", 1.75, 1)}
	_, err := svc.CreateIntent(context.Background(), basket, validOrderData())
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", mock.metadata["customer_name"])
	assert.Equal(t, "12B", mock.metadata["apartment_number"])
	assert.Equal(t, "ada@example.com", mock.metadata["customer_email"])

	var lines []domain.OrderLine
	require.NoError(t, json.Unmarshal([]byte(mock.metadata["cart"]), &lines))
	require.Len(t, lines, 2)
	assert.Equal(t, "prod_a", lines[0].ProductID)
	assert.Equal(t, "price_prod_a", lines[0].PriceID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 2.50, lines[0].Price)
}

func TestCreateIntent_ValidationBeforeProcessorCall(t *testing.T) {
	tests := []struct {
		name   string
		items  []domain.CartItem
		data   domain.OrderData
		field  string
	}{
		{"empty basket", nil, validOrderData(), "basket"},
		{"missing name", []domain.CartItem{item("a", 1, 1)}, domain.OrderData{Apartment: "1", Email: "a@b.co"}, "name"},
		{"missing apartment", []domain.CartItem{item("a", 1, 1)}, domain.OrderData{Name: "A", Email: "a@b.co"}, "apartment"},
		{"bad email", []domain.CartItem{item("a", 1, 1)}, domain.OrderData{Name: "A", Apartment: "1", Email: "not-an-email"}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &processorMock{}
			svc := NewService(mock)

			_, err := svc.CreateIntent(context.Background(), tt.items, tt.data)
			var invalid *InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
			assert.Equal(t, 0, mock.calls, "no external call for invalid input")
		})
	}
}

func TestCreateIntent_AmountTooLowBeforeProcessorCall(t *testing.T) {
	mock := &processorMock{}
	svc := NewService(mock)

	_, err := svc.CreateIntent(context.Background(), []domain.CartItem{item("a", 0.30, 1)}, validOrderData())
	assert.ErrorIs(t, err, pricing.ErrAmountTooLow)
	assert.Equal(t, 0, mock.calls)
}

func TestCreateIntent_TranslatesProcessorErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		mock := &processorMock{err: registry.ErrNotConfigured}
		svc := NewService(mock)

		_, err := svc.CreateIntent(context.Background(), []domain.CartItem{item("a", 1, 1)}, validOrderData())
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("processor-reported failure", func(t *testing.T) {
		mock := &processorMock{err: &registry.APIError{Code: "card_declined", Message: "Your card was declined"}}
		svc := NewService(mock)

		_, err := svc.CreateIntent(context.Background(), []domain.CartItem{item("a", 1, 1)}, validOrderData())
		var pe *ProcessorError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "card_declined", pe.Code)
		assert.Contains(t, pe.Message, "declined")
	})

	t.Run("unknown error wrapped", func(t *testing.T) {
		cause := errors.New("connection reset")
		mock := &processorMock{err: cause}
		svc := NewService(mock)

		_, err := svc.CreateIntent(context.Background(), []domain.CartItem{item("a", 1, 1)}, validOrderData())
		assert.ErrorIs(t, err, cause)
	})
}

func TestCreateIntent_FreshIdempotencyKeyPerCreate(t *testing.T) {
	mock := &processorMock{intent: &registry.PaymentIntent{ID: "pi", ClientSecret: "cs"}}
	svc := NewService(mock)

	basket := []domain.CartItem{item("a", 1, 1)}
	_, err := svc.CreateIntent(context.Background(), basket, validOrderData())
	require.NoError(t, err)
	_, err = svc.CreateIntent(context.Background(), basket, validOrderData())
	require.NoError(t, err)

	require.Len(t, mock.idemKeys, 2)
	assert.NotEmpty(t, mock.idemKeys[0])
	assert.NotEqual(t, mock.idemKeys[0], mock.idemKeys[1])
}

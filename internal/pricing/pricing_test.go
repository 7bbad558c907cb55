package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmateus/vendhub/internal/domain"
)

func line(price float64, qty int) domain.CartItem {
	return domain.CartItem{Product: domain.Product{Price: price}, Quantity: qty}
}

func TestChargeAmount(t *testing.T) {
	tests := []struct {
		name  string
		items []domain.CartItem
		want  int64
	}{
		{"single line", []domain.CartItem{line(1.50, 2)}, 300},
		{"mixed basket", []domain.CartItem{line(2.50, 2), line(1.75, 1)}, 675},
		{"rounds fractional cents", []domain.CartItem{line(1.999, 1)}, 200},
		{"exactly at floor", []domain.CartItem{line(0.50, 1)}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ChargeAmount(tt.items)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChargeAmount_EmptyBasket(t *testing.T) {
	_, err := ChargeAmount(nil)
	assert.ErrorIs(t, err, ErrEmptyBasket)
}

func TestChargeAmount_BelowMinimum(t *testing.T) {
	_, err := ChargeAmount([]domain.CartItem{line(0.30, 1)})
	assert.ErrorIs(t, err, ErrAmountTooLow)
}

func TestChargeAmount_InvalidLines(t *testing.T) {
	tests := []struct {
		name string
		item domain.CartItem
	}{
		{"zero quantity", line(1.00, 0)},
		{"negative quantity", line(1.00, -2)},
		{"negative price", line(-1.00, 1)},
		{"nan price", line(math.NaN(), 1)},
		{"inf price", line(math.Inf(1), 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ChargeAmount([]domain.CartItem{tt.item})
			assert.ErrorIs(t, err, ErrInvalidLine)
		})
	}
}

func TestChargeAmount_Idempotent(t *testing.T) {
	items := []domain.CartItem{line(2.50, 2), line(1.75, 1)}
	first, err := ChargeAmount(items)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := ChargeAmount(items)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

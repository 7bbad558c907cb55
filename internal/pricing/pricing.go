// Package pricing derives the authoritative charge amount from a basket.
// The amount is always recomputed server-side; client-submitted totals are
// never trusted.
package pricing

import (
	"errors"
	"math"

	"github.com/dmateus/vendhub/internal/domain"
)

// MinimumCharge is the smallest amount (in minor units) the external payment
// processor accepts. Baskets below it are rejected before any network call.
const MinimumCharge = 50

var (
	ErrEmptyBasket  = errors.New("basket is empty")
	ErrInvalidLine  = errors.New("basket line has invalid price or quantity")
	ErrAmountTooLow = errors.New("order total is below the minimum charge")
)

// ChargeAmount returns round(sum(price*quantity)*100) as integer minor
// currency units. Every line must carry a finite non-negative price and a
// positive quantity.
func ChargeAmount(items []domain.CartItem) (int64, error) {
	if len(items) == 0 {
		return 0, ErrEmptyBasket
	}
	var sum float64
	for _, it := range items {
		if it.Quantity <= 0 {
			return 0, ErrInvalidLine
		}
		if it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0) {
			return 0, ErrInvalidLine
		}
		sum += it.Price * float64(it.Quantity)
	}
	amount := int64(math.Round(sum * 100))
	if amount < MinimumCharge {
		return 0, ErrAmountTooLow
	}
	return amount, nil
}

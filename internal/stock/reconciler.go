// Package stock adjusts the per-item stock counters stored in the external
// registry after a completed purchase. The registry offers no transaction, so
// the decrement is a read-modify-write; callers within this process are
// serialized per product to keep concurrent settlements from losing updates.
package stock

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/dmateus/vendhub/internal/registry"
)

var (
	ErrInvalidQuantity = errors.New("quantity purchased must be positive")
	ErrProductNotFound = errors.New("product not found")
)

// Registry is the slice of the registry client the reconciler needs.
type Registry interface {
	GetProduct(ctx context.Context, id string) (*registry.Product, error)
	UpdateProductMetadata(ctx context.Context, id string, metadata map[string]string) (*registry.Product, error)
}

// Result reports one decrement. NewStock is never negative.
type Result struct {
	ProductID     string `json:"productId"`
	PreviousStock int    `json:"previousStock"`
	Purchased     int    `json:"quantityPurchased"`
	NewStock      int    `json:"newStock"`
}

type Reconciler struct {
	registry Registry

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewReconciler(reg Registry) *Reconciler {
	return &Reconciler{
		registry: reg,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Decrement re-reads the product's current stock, subtracts the purchased
// quantity clamped at zero, and writes the merged metadata back. Each call is
// independent; a failure here must never be surfaced to a customer whose
// charge already succeeded.
func (r *Reconciler) Decrement(ctx context.Context, productID string, quantityPurchased int) (Result, error) {
	if quantityPurchased <= 0 {
		return Result{}, ErrInvalidQuantity
	}
	if productID == "" {
		return Result{}, ErrProductNotFound
	}

	lock := r.lockFor(productID)
	lock.Lock()
	defer lock.Unlock()

	product, err := r.registry.GetProduct(ctx, productID)
	if err != nil {
		var apiErr *registry.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusNotFound {
			return Result{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return Result{}, fmt.Errorf("read current stock: %w", err)
	}

	current := 0
	if raw, ok := product.Metadata["stock"]; ok {
		if n, parseErr := strconv.Atoi(raw); parseErr == nil {
			current = n
		}
	}

	newStock := current - quantityPurchased
	if newStock < 0 {
		newStock = 0
	}

	merged := make(map[string]string, len(product.Metadata)+1)
	for k, v := range product.Metadata {
		merged[k] = v
	}
	merged["stock"] = strconv.Itoa(newStock)

	if _, err := r.registry.UpdateProductMetadata(ctx, productID, merged); err != nil {
		return Result{}, fmt.Errorf("write updated stock: %w", err)
	}

	return Result{
		ProductID:     productID,
		PreviousStock: current,
		Purchased:     quantityPurchased,
		NewStock:      newStock,
	}, nil
}

func (r *Reconciler) lockFor(productID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[productID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[productID] = lock
	}
	return lock
}

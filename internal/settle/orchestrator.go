// Package settle owns the per-customer settlement session: the state machine
// from catalog browsing through confirmed payment to the refreshed catalog.
// A session is never shared between customers and holds no durable state; the
// payment authorization's metadata is the only record that outlives it.
package settle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dmateus/vendhub/internal/catalog"
	"github.com/dmateus/vendhub/internal/domain"
	"github.com/dmateus/vendhub/internal/events"
	"github.com/dmateus/vendhub/internal/hours"
	"github.com/dmateus/vendhub/internal/order"
	"github.com/dmateus/vendhub/internal/stock"
)

// Presentation pacing after a confirmed payment: the processing screen holds
// for SuccessDelay, and the catalog re-read waits RefreshDelay more so
// background reconciliation has typically finished.
const (
	DefaultSuccessDelay = 3 * time.Second
	DefaultRefreshDelay = 2 * time.Second
)

var (
	ErrClosed            = errors.New("kiosk is closed for delivery")
	ErrEmptyBasket       = errors.New("basket is empty")
	ErrUnknownProduct    = errors.New("unknown product")
	ErrInvalidTransition = errors.New("invalid settlement state transition")
)

type IntentCreator interface {
	CreateIntent(ctx context.Context, items []domain.CartItem, data domain.OrderData) (*order.Intent, error)
}

type StockReconciler interface {
	Decrement(ctx context.Context, productID string, quantityPurchased int) (stock.Result, error)
}

type ConfirmationSender interface {
	Send(ctx context.Context, data domain.OrderData, items []domain.CartItem, total float64) []error
}

type SettlementPublisher interface {
	Publish(ctx context.Context, s Settlement) error
}

// Settlement aliases the event payload so callers wire the publisher directly.
type Settlement = events.Settlement

type CatalogSource interface {
	ListSellable(ctx context.Context) (*catalog.Snapshot, error)
	Invalidate(ctx context.Context)
}

// Deps carries the session's collaborators. Events may be nil. Zero delays
// fall back to the defaults; tests inject short ones.
type Deps struct {
	Intents  IntentCreator
	Stock    StockReconciler
	Notifier ConfirmationSender
	Events   SettlementPublisher
	Catalog  CatalogSource

	OpenNow func(time.Time) bool
	Now     func() time.Time

	SuccessDelay time.Duration
	RefreshDelay time.Duration
}

// Session is one customer interaction. All exported methods are safe for the
// single UI goroutine plus the session's own background tasks.
type Session struct {
	deps Deps

	mu        sync.Mutex
	products  []domain.Product
	cart      *domain.Cart
	orderData domain.OrderData
	intent    *order.Intent
	status    Status
	view      View
	lastError string

	bg sync.WaitGroup
}

func NewSession(deps Deps, products []domain.Product) *Session {
	if deps.OpenNow == nil {
		deps.OpenNow = hours.Open
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.SuccessDelay == 0 {
		deps.SuccessDelay = DefaultSuccessDelay
	}
	if deps.RefreshDelay == 0 {
		deps.RefreshDelay = DefaultRefreshDelay
	}
	return &Session{
		deps:     deps,
		products: products,
		cart:     domain.NewCart(),
		status:   StatusIdle,
		view:     ViewProducts,
	}
}

// AddToCart puts one unit of the product in the basket. Selection is disabled
// while the kiosk is closed, but a closed kiosk never clears an open basket.
func (s *Session) AddToCart(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.deps.OpenNow(s.deps.Now()) {
		return ErrClosed
	}
	for _, p := range s.products {
		if p.ID == productID {
			s.cart.Add(p)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
}

func (s *Session) ChangeQuantity(productID string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.ChangeQuantity(productID, delta)
}

func (s *Session) RemoveFromCart(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Remove(productID)
}

// BeginCheckout opens the customer-information step for a non-empty basket.
func (s *Session) BeginCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !CanTransition(s.status, StatusAwaitingCustomerInfo) {
		return ErrInvalidTransition
	}
	if s.cart.Len() == 0 {
		return ErrEmptyBasket
	}
	if !s.deps.OpenNow(s.deps.Now()) {
		return ErrClosed
	}
	s.status = StatusAwaitingCustomerInfo
	return nil
}

// SubmitCustomerInfo validates the customer record and creates the payment
// authorization. On failure the session shows the error without losing the
// entered fields.
func (s *Session) SubmitCustomerInfo(ctx context.Context, data domain.OrderData) (*order.Intent, error) {
	s.mu.Lock()
	if !CanTransition(s.status, StatusIntentCreated) {
		s.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	s.orderData = data
	items := s.cart.Lines()
	s.mu.Unlock()

	intent, err := s.deps.Intents.CreateIntent(ctx, items, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = StatusError
		s.lastError = err.Error()
		return nil, err
	}
	s.intent = intent
	s.status = StatusIntentCreated
	s.view = ViewPayment
	return intent, nil
}

// ConfirmPayment is called once the processor reports the authorization as
// settled. The success screen is paced out while stock reconciliation, the
// confirmation messages and the settlement event run as unawaited background
// tasks whose failures are logged only: the charge has already succeeded.
func (s *Session) ConfirmPayment() error {
	s.mu.Lock()
	if !CanTransition(s.status, StatusProcessing) {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.status = StatusProcessing
	lines := s.cart.Lines()
	data := s.orderData
	intent := s.intent
	s.mu.Unlock()

	s.bg.Add(1)
	go s.settle(lines, data, intent)
	return nil
}

// PaymentFailed records a processor-reported failure during confirmation.
// The processor guarantees no funds were captured in this case.
func (s *Session) PaymentFailed(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !CanTransition(s.status, StatusError) {
		return ErrInvalidTransition
	}
	s.status = StatusError
	s.lastError = message
	return nil
}

// Retry returns an errored session to the customer-information step. The
// basket and the entered customer fields are preserved.
func (s *Session) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusError {
		return ErrInvalidTransition
	}
	s.status = StatusAwaitingCustomerInfo
	s.lastError = ""
	s.view = ViewProducts
	return nil
}

// Dismiss closes the success screen and resets the session for the next
// customer.
func (s *Session) Dismiss() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusSuccess {
		return ErrInvalidTransition
	}
	s.status = StatusIdle
	s.orderData = domain.OrderData{}
	s.view = ViewProducts
	return nil
}

// ReturnToCatalog abandons an unconfirmed checkout. The authorization is left
// to expire unused on the processor's side; no funds were captured. The
// basket is kept.
func (s *Session) ReturnToCatalog() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.status {
	case StatusIntentCreated, StatusError, StatusAwaitingCustomerInfo:
	default:
		return ErrInvalidTransition
	}
	s.status = StatusIdle
	s.intent = nil
	s.orderData = domain.OrderData{}
	s.lastError = ""
	s.view = ViewProducts
	return nil
}

func (s *Session) settle(lines []domain.CartItem, data domain.OrderData, intent *order.Intent) {
	defer s.bg.Done()
	ctx := context.Background()

	var total float64
	for _, it := range lines {
		total += it.Price * float64(it.Quantity)
	}

	// One independent decrement per distinct line item; a failure in one
	// must not block the others.
	for _, line := range lines {
		s.bg.Add(1)
		go func(line domain.CartItem) {
			defer s.bg.Done()
			res, err := s.deps.Stock.Decrement(ctx, line.ProductID, line.Quantity)
			if err != nil {
				log.Printf("stock reconciliation failed for %s: %v", line.ProductID, err)
				return
			}
			log.Printf("stock reconciled for %s: %d -> %d", res.ProductID, res.PreviousStock, res.NewStock)
		}(line)
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		for _, warn := range s.deps.Notifier.Send(ctx, data, lines, total) {
			log.Printf("confirmation send warning: %v", warn)
		}
	}()

	if s.deps.Events != nil {
		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			orderID := ""
			if intent != nil {
				orderID = intent.IntentID
			}
			err := s.deps.Events.Publish(ctx, Settlement{
				OrderID:     orderID,
				Items:       cartLinesToOrderLines(lines),
				TotalAmount: total,
				Currency:    order.Currency,
				SettledAt:   s.deps.Now(),
			})
			if err != nil {
				log.Printf("settlement event publish failed: %v", err)
			}
		}()
	}

	// Optimistic decrement for immediate display; the authoritative values
	// arrive with the delayed catalog re-read below.
	s.mu.Lock()
	for i := range s.products {
		for _, line := range lines {
			if s.products[i].ID == line.ID {
				s.products[i].Stock -= line.Quantity
				if s.products[i].Stock < 0 {
					s.products[i].Stock = 0
				}
			}
		}
	}
	s.mu.Unlock()

	time.Sleep(s.deps.SuccessDelay)
	s.mu.Lock()
	s.status = StatusSuccess
	s.cart.Clear()
	s.mu.Unlock()

	time.Sleep(s.deps.RefreshDelay)
	s.deps.Catalog.Invalidate(ctx)
	snap, err := s.deps.Catalog.ListSellable(ctx)
	if err != nil {
		log.Printf("catalog refresh failed: %v", err)
		return
	}
	s.mu.Lock()
	s.products = snap.Products
	s.mu.Unlock()
}

func cartLinesToOrderLines(lines []domain.CartItem) []domain.OrderLine {
	out := make([]domain.OrderLine, len(lines))
	for i, it := range lines {
		out[i] = domain.OrderLine{
			ID:        it.ID,
			ProductID: it.ProductID,
			PriceID:   it.PriceID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		}
	}
	return out
}

// Wait blocks until all background settlement work has finished. Tests and
// graceful shutdown use it; the customer flow never does.
func (s *Session) Wait() { s.bg.Wait() }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *Session) OrderData() domain.OrderData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderData
}

func (s *Session) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Session) CartLines() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

// Package catalog reads the sellable product list from the external registry,
// normalizing registry records into domain products with deterministic
// fallback rules.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/dmateus/vendhub/internal/domain"
	"github.com/dmateus/vendhub/internal/registry"
)

// Fallback rules applied during normalization. Each one is deliberate and
// tested on its own; see the snapshot tests.
const (
	// DefaultStock applies when the stock metadata is absent or unparseable.
	DefaultStock = 10
	// DefaultPriceCents applies when no price record can be resolved.
	DefaultPriceCents = 200
	// DefaultCurrency applies when there is no price record to take it from.
	DefaultCurrency = "usd"
	// DefaultImage is the shopping-bags glyph shown when no image is set.
	DefaultImage = "\U0001F6CD️"
	// positionSentinel makes non-numeric or missing positions sort last.
	positionSentinel = 999
)

// ErrCatalogUnavailable wraps any registry failure during a catalog read.
// An empty catalog is a valid result and is never reported through this.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Lister is the slice of the registry client the reader needs.
type Lister interface {
	ListProducts(ctx context.Context, startingAfter string) (*registry.ProductPage, error)
	ListPrices(ctx context.Context, startingAfter string) (*registry.PricePage, error)
}

// Snapshot is one complete catalog read. TotalFetched counts every registry
// entry seen before filtering.
type Snapshot struct {
	Products     []domain.Product `json:"products"`
	Count        int              `json:"count"`
	TotalFetched int              `json:"totalFetched"`
}

type Service struct {
	registry Lister
	cache    *Cache
	sfg      singleflight.Group
}

// NewService builds the catalog reader. cache may be nil to disable caching.
func NewService(reg Lister, cache *Cache) *Service {
	return &Service{registry: reg, cache: cache}
}

// ListSellable returns every active, in-stock product sorted by shelf
// position. Reads go through the cache and are collapsed per key so a burst
// of kiosk refreshes costs one registry round trip.
func (s *Service) ListSellable(ctx context.Context) (*Snapshot, error) {
	v, err, _ := s.sfg.Do("sellable", func() (interface{}, error) {
		snap, err := s.cache.Get(ctx)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("catalog cache get error: %v", err)
		}

		snap, err = s.fetch(ctx)
		if err != nil {
			return nil, err
		}

		go func() {
			if err := s.cache.Set(context.Background(), snap); err != nil {
				log.Printf("catalog cache set error: %v", err)
			}
		}()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate drops the cached snapshot, forcing the next read to hit the
// registry. Called after settlement so displayed stock converges.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx); err != nil {
		log.Printf("catalog cache invalidate error: %v", err)
	}
}

func (s *Service) fetch(ctx context.Context) (*Snapshot, error) {
	products, err := s.allProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	prices, err := s.allPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	sellable := make([]domain.Product, 0, len(products))
	for i, rp := range products {
		p := normalize(rp, prices, i)
		if p.Active && p.Stock > 0 {
			sellable = append(sellable, p)
		}
	}
	sort.SliceStable(sellable, func(i, j int) bool {
		return positionRank(sellable[i].Position) < positionRank(sellable[j].Position)
	})

	return &Snapshot{
		Products:     sellable,
		Count:        len(sellable),
		TotalFetched: len(products),
	}, nil
}

// allProducts pages through the product listing until no continuation marker
// remains; partial pages are never exposed.
func (s *Service) allProducts(ctx context.Context) ([]registry.Product, error) {
	var all []registry.Product
	after := ""
	for {
		page, err := s.registry.ListProducts(ctx, after)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasMore || len(page.Data) == 0 {
			return all, nil
		}
		after = page.Data[len(page.Data)-1].ID
	}
}

func (s *Service) allPrices(ctx context.Context) ([]registry.Price, error) {
	var all []registry.Price
	after := ""
	for {
		page, err := s.registry.ListPrices(ctx, after)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasMore || len(page.Data) == 0 {
			return all, nil
		}
		after = page.Data[len(page.Data)-1].ID
	}
}

// normalize resolves one registry product into a domain product.
// Price preference: the entry's expanded default price, then an active price
// matching the product, then the fixed fallback.
func normalize(rp registry.Product, prices []registry.Price, index int) domain.Product {
	price := resolvePrice(rp, prices)

	unitCents := int64(DefaultPriceCents)
	priceID := ""
	currency := DefaultCurrency
	if price != nil {
		unitCents = price.UnitAmount
		priceID = price.ID
		if price.Currency != "" {
			currency = price.Currency
		}
	}

	stock := DefaultStock
	if raw, ok := rp.Metadata["stock"]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			stock = n
		}
	}

	position := rp.Metadata["position"]
	if position == "" {
		position = fmt.Sprintf("A%d", index+1)
	}

	image := DefaultImage
	if len(rp.Images) > 0 {
		image = rp.Images[0]
	} else if meta := rp.Metadata["image"]; meta != "" {
		image = meta
	}

	return domain.Product{
		ID:          rp.ID,
		ProductID:   rp.ID,
		PriceID:     priceID,
		Name:        rp.Name,
		Description: rp.Description,
		Price:       float64(unitCents) / 100,
		Stock:       stock,
		Image:       image,
		Position:    position,
		Currency:    currency,
		Active:      rp.Active,
	}
}

func resolvePrice(rp registry.Product, prices []registry.Price) *registry.Price {
	if rp.DefaultPrice != nil && rp.DefaultPrice.UnitAmount > 0 {
		return &rp.DefaultPrice.Price
	}
	for i := range prices {
		if prices[i].Product == rp.ID && prices[i].Active {
			return &prices[i]
		}
	}
	return nil
}

var positionDigits = regexp.MustCompile(`(\d+)`)

func positionRank(position string) int {
	m := positionDigits.FindString(position)
	if m == "" {
		return positionSentinel
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return positionSentinel
	}
	return n
}

// Package registry is the typed client for the external payment processor's
// product/price registry and payment-authorization API. The registry is the
// single durable record for catalog identity, price and stock; this client is
// the only place in the system that talks to it.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// PageLimit is the page size requested from the listing endpoints.
const PageLimit = 100

// ErrNotConfigured means the processor secret key is absent. It is checked
// before any network call and is fatal at request time.
var ErrNotConfigured = errors.New("registry: secret key not configured")

type Client struct {
	baseURL string
	key     string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewClient builds a registry client. An empty key is allowed here; every
// call then fails fast with ErrNotConfigured.
func NewClient(baseURL, key string) *Client {
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "registry",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		breaker: breaker,
	}
}

// ListProducts fetches one page of products, expanded with their default
// price. Pass the last seen product ID as startingAfter to continue.
func (c *Client) ListProducts(ctx context.Context, startingAfter string) (*ProductPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(PageLimit))
	q.Add("expand[]", "data.default_price")
	if startingAfter != "" {
		q.Set("starting_after", startingAfter)
	}
	var page ProductPage
	if err := c.do(ctx, http.MethodGet, "/v1/products?"+q.Encode(), nil, "", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListPrices fetches one page of prices.
func (c *Client) ListPrices(ctx context.Context, startingAfter string) (*PricePage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(PageLimit))
	if startingAfter != "" {
		q.Set("starting_after", startingAfter)
	}
	var page PricePage
	if err := c.do(ctx, http.MethodGet, "/v1/prices?"+q.Encode(), nil, "", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct retrieves a single product, metadata included.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodGet, "/v1/products/"+url.PathEscape(id), nil, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProductMetadata writes the given metadata map onto a product. Callers
// are expected to pass the full merged map; the registry keeps whatever keys
// are submitted.
func (c *Client) UpdateProductMetadata(ctx context.Context, id string, metadata map[string]string) (*Product, error) {
	form := url.Values{}
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}
	var p Product
	if err := c.do(ctx, http.MethodPost, "/v1/products/"+url.PathEscape(id), form, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePaymentIntent creates a payment authorization for amount minor units,
// attaching the metadata bundle that makes the order reconstructable from the
// authorization alone. The idempotency key guards against a retried create
// minting a second authorization.
func (c *Client) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string, idempotencyKey string) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}
	var intent PaymentIntent
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, idempotencyKey, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, idempotencyKey string, out any) error {
	if c.key == "" {
		return ErrNotConfigured
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("registry: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	// Transport failures and 5xx responses count against the breaker;
	// client-level API errors (4xx) do not.
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			apiErr := decodeAPIError(resp)
			resp.Body.Close()
			return nil, apiErr
		}
		return resp, nil
	})
	if err != nil {
		return fmt.Errorf("registry: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("registry: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var env errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Error == nil {
		return &APIError{Message: resp.Status, HTTPStatus: resp.StatusCode}
	}
	env.Error.HTTPStatus = resp.StatusCode
	return env.Error
}

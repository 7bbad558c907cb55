package registry

import (
	"encoding/json"
	"fmt"
)

// Product is a catalog entry as stored by the external registry. Stock and
// shelf position live in the free-form Metadata map.
type Product struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Active       bool              `json:"active"`
	Images       []string          `json:"images"`
	Metadata     map[string]string `json:"metadata"`
	DefaultPrice *PriceRef         `json:"default_price"`
}

// Price is a registry price record. Product holds the owning product's ID.
type Price struct {
	ID         string `json:"id"`
	Product    string `json:"product"`
	Active     bool   `json:"active"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
}

// PriceRef is a price reference that the registry returns either expanded
// into a full object or collapsed to a bare ID string.
type PriceRef struct {
	Price
}

func (r *PriceRef) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		r.Price = Price{ID: id}
		return nil
	}
	return json.Unmarshal(b, &r.Price)
}

// ProductPage is one bounded page of the product listing.
type ProductPage struct {
	Data    []Product `json:"data"`
	HasMore bool      `json:"has_more"`
}

// PricePage is one bounded page of the price listing.
type PricePage struct {
	Data    []Price `json:"data"`
	HasMore bool    `json:"has_more"`
}

// PaymentIntent is a freshly created payment authorization. ClientSecret is
// the opaque token the hosted payment widget confirms against.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// APIError is a processor-reported failure, carrying the machine code and
// human message from the registry's error envelope.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("registry: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("registry: %s", e.Message)
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

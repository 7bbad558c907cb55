package domain

// Product is a sellable catalog entry. Price and stock come from the external
// registry's metadata on every read; nothing here is persisted locally.
type Product struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"productId"` // external registry product identifier
	PriceID     string  `json:"priceId"`   // external registry price identifier
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"` // unit price in major currency units
	Stock       int     `json:"stock"`
	Image       string  `json:"image"`
	Position    string  `json:"position"` // shelf position label, e.g. "A3"
	Currency    string  `json:"currency"`
	Active      bool    `json:"active"`
}

// OrderData is the customer record captured at checkout time.
type OrderData struct {
	Name      string `json:"name"`
	Apartment string `json:"apartment"`
	Email     string `json:"email"`
}

// OrderLine is one basket line as serialized into the payment authorization
// metadata. Together the lines are the only durable record of order contents.
type OrderLine struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	PriceID   string  `json:"price_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

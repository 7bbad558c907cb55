package domain

// CartItem is a product plus the quantity selected for it.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Cart is the customer's in-progress selection, keyed by product ID and
// ordered by insertion. Quantities are clamped to the stock observed when the
// product was added. The cart is cleared only on successful settlement.
type Cart struct {
	items []CartItem
	index map[string]int
}

func NewCart() *Cart {
	return &Cart{index: make(map[string]int)}
}

// Add puts one unit of the product into the cart. If the product is already
// present the quantity is incremented, capped at the product's stock.
func (c *Cart) Add(p Product) {
	if p.Stock == 0 {
		return
	}
	if i, ok := c.index[p.ID]; ok {
		if c.items[i].Quantity < c.items[i].Stock {
			c.items[i].Quantity++
		}
		return
	}
	c.index[p.ID] = len(c.items)
	c.items = append(c.items, CartItem{Product: p, Quantity: 1})
}

// ChangeQuantity adjusts an entry's quantity by a signed delta. The entry is
// removed when the resulting quantity drops to zero or below, and the increase
// is ignored when it would exceed the product's stock.
func (c *Cart) ChangeQuantity(productID string, delta int) {
	i, ok := c.index[productID]
	if !ok {
		return
	}
	q := c.items[i].Quantity + delta
	if q <= 0 {
		c.Remove(productID)
		return
	}
	if q > c.items[i].Stock {
		return
	}
	c.items[i].Quantity = q
}

// Remove drops an entry regardless of quantity.
func (c *Cart) Remove(productID string) {
	i, ok := c.index[productID]
	if !ok {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].ID] = j
	}
}

func (c *Cart) Clear() {
	c.items = nil
	c.index = make(map[string]int)
}

func (c *Cart) Len() int { return len(c.items) }

// Lines returns a copy of the cart entries in insertion order.
func (c *Cart) Lines() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Total is the cart's sum of line subtotals in major currency units.
func (c *Cart) Total() float64 {
	var sum float64
	for _, it := range c.items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}

// OrderLines converts the cart entries into the metadata snapshot shape.
func (c *Cart) OrderLines() []OrderLine {
	out := make([]OrderLine, len(c.items))
	for i, it := range c.items {
		out[i] = OrderLine{
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

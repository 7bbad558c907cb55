package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soda(stock int) Product {
	return Product{ID: "prod_soda", ProductID: "prod_soda", PriceID: "price_soda", Name: "Soda", Price: 1.50, Stock: stock}
}

func chips(stock int) Product {
	return Product{ID: "prod_chips", ProductID: "prod_chips", PriceID: "price_chips", Name: "Chips", Price: 2.25, Stock: stock}
}

func TestCart_AddIncrementsExisting(t *testing.T) {
	c := NewCart()
	c.Add(soda(3))
	c.Add(soda(3))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestCart_AddCappedAtStock(t *testing.T) {
	c := NewCart()
	p := soda(2)
	c.Add(p)
	c.Add(p)
	c.Add(p)

	assert.Equal(t, 2, c.Lines()[0].Quantity)
}

func TestCart_AddIgnoresOutOfStock(t *testing.T) {
	c := NewCart()
	c.Add(soda(0))
	assert.Equal(t, 0, c.Len())
}

func TestCart_ChangeQuantityRemovesAtZero(t *testing.T) {
	c := NewCart()
	c.Add(soda(3))
	c.ChangeQuantity("prod_soda", -1)
	assert.Equal(t, 0, c.Len())
}

func TestCart_ChangeQuantityClampsAtStock(t *testing.T) {
	c := NewCart()
	c.Add(soda(2))
	c.ChangeQuantity("prod_soda", +1)
	c.ChangeQuantity("prod_soda", +1) // would exceed stock, ignored

	assert.Equal(t, 2, c.Lines()[0].Quantity)
}

func TestCart_RemoveKeepsInsertionOrder(t *testing.T) {
	c := NewCart()
	c.Add(soda(3))
	c.Add(chips(3))
	c.Add(Product{ID: "prod_gum", Name: "Gum", Price: 0.75, Stock: 5})

	c.Remove("prod_chips")

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "prod_soda", lines[0].ID)
	assert.Equal(t, "prod_gum", lines[1].ID)

	// index stays consistent after compaction
	c.ChangeQuantity("prod_gum", +2)
	assert.Equal(t, 3, c.Lines()[1].Quantity)
}

func TestCart_Total(t *testing.T) {
	c := NewCart()
	c.Add(soda(5))
	c.ChangeQuantity("prod_soda", +1)
	c.Add(chips(5))

	assert.InDelta(t, 1.50*2+2.25, c.Total(), 1e-9)
}

func TestCart_OrderLines(t *testing.T) {
	c := NewCart()
	c.Add(soda(5))
	lines := c.OrderLines()
	require.Len(t, lines, 1)
	assert.Equal(t, "price_soda", lines[0].PriceID)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Equal(t, 1.50, lines[0].Price)
}

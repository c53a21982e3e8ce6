package domain

import "fmt"

const DefaultStock = 10

// DefaultUnitPrice is the price of every flavor unless configured otherwise.
var DefaultUnitPrice = MustMoney("0.80")

// Item is one flavor of the catalog with its mutable inventory counters.
// It is the single place that enforces "never sell more than is in stock".
type Item struct {
	Name      string `json:"sabor"`
	Stock     int    `json:"stock"`
	UnitPrice Money  `json:"precio"`
	UnitsSold int    `json:"cantidad_vendida"`
}

// NewItem creates an item with zero units sold. A negative stock is clamped to zero.
func NewItem(name string, stock int, unitPrice Money) *Item {
	if stock < 0 {
		stock = 0
	}
	return &Item{Name: name, Stock: stock, UnitPrice: unitPrice}
}

// NewDefaultItem creates an item with 10 units at 0.80.
func NewDefaultItem(name string) *Item {
	return NewItem(name, DefaultStock, DefaultUnitPrice)
}

// Sell takes quantity units out of stock and returns the sale amount plus a
// message for the seller. On failure the item is left untouched.
func (i *Item) Sell(quantity int) (Money, string, error) {
	if quantity <= 0 {
		msg := fmt.Sprintf("quantity must be positive, got %d", quantity)
		return Zero, msg, &SaleError{Kind: ErrInvalidQuantity, Message: msg}
	}
	if quantity > i.Stock {
		msg := fmt.Sprintf("not enough stock of %s. Current stock: %d", i.Name, i.Stock)
		return Zero, msg, &SaleError{Kind: ErrInsufficientStock, Message: msg}
	}

	i.Stock -= quantity
	i.UnitsSold += quantity

	msg := fmt.Sprintf("Sale recorded: %d ice cream(s) of flavor %s. Remaining stock: %d", quantity, i.Name, i.Stock)
	return i.UnitPrice.Times(quantity), msg, nil
}

// ResetStock sets the stock to stock and forgets the units sold.
func (i *Item) ResetStock(stock int) {
	if stock < 0 {
		stock = 0
	}
	i.Stock = stock
	i.UnitsSold = 0
}

// Revenue is always recomputed from the counters.
func (i *Item) Revenue() Money {
	return i.UnitPrice.Times(i.UnitsSold)
}

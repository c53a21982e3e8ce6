package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money holds a non-negative amount in the store's single currency.
// Amounts are exact decimals, so 3 x 0.80 is 2.40 and not 2.4000000000000004.
type Money struct {
	Amount decimal.Decimal
}

// Zero is the empty amount.
var Zero = Money{}

// NewMoney parses a decimal string such as "0.80".
func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return Money{}, fmt.Errorf("invalid amount %q: must not be negative", s)
	}
	return Money{Amount: d}, nil
}

// MustMoney is NewMoney for constants; it panics on bad input.
func MustMoney(s string) Money {
	m, err := NewMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Add adds two amounts
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount)}
}

// Times multiplies the amount by a quantity of units.
func (m Money) Times(quantity int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(quantity)))}
}

func (m Money) Equal(other Money) bool {
	return m.Amount.Equal(other.Amount)
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Float64 rounds to cents for presentation layers that want a plain number.
func (m Money) Float64() float64 {
	return m.Amount.Round(2).InexactFloat64()
}

// String renders the amount with two decimals, e.g. "2.40".
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Amount.StringFixed(2)), nil
}

// UnmarshalJSON accepts both numbers and quoted strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Amount.UnmarshalJSON(data)
}

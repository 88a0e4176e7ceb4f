package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest quantity a cart line can hold; quantity columns
// are 32-bit on every supported engine.
const MaxQuantity = math.MaxInt32

// ValidateQuantity rejects quantities below least or above MaxQuantity.
func ValidateQuantity(quantity, least int) error {
	if quantity < least {
		if least == 1 {
			return Errorf(ErrInvalidArgument, "quantity must be a positive integer, got %d", quantity)
		}
		return Errorf(ErrInvalidArgument, "quantity must not be negative, got %d", quantity)
	}
	if quantity > MaxQuantity {
		return Errorf(ErrInvalidArgument, "quantity must not exceed %d, got %d", MaxQuantity, quantity)
	}
	return nil
}

type Cart struct {
	ID         string
	CustomerID string
	CreatedAt  time.Time
}

type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal // captured when the item was last added
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine is a cart item joined with live catalog data for display.
type CartLine struct {
	CartItem
	ProductName  string
	ImageURL     string
	CurrentPrice decimal.Decimal
}

type CartView struct {
	CartID   string
	Items    []CartLine
	Subtotal decimal.Decimal
}

// Subtotal sums quantity × captured price. Live catalog prices are ignored.
func Subtotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// CheckoutLine is a cart item joined with the product's stock at the moment
// the checkout transaction read it.
type CheckoutLine struct {
	CartItem
	Stock int
}

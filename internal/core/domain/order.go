package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus rejects anything outside the known status set.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return st, nil
	}
	return "", Errorf(ErrInvalidArgument, "unknown order status %q", s)
}

type Order struct {
	ID            string
	CustomerID    string
	TotalAmount   decimal.Decimal
	ShippingCost  decimal.Decimal
	PaymentMethod string
	AddressID     string
	Status        OrderStatus
	Items         []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem carries the price captured when the order was placed. It is never
// updated after checkout.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal

	// Display fields joined from the catalog on read.
	ProductName string
	ImageURL    string
}

// OrderSummary is the list projection used by history and admin listings.
type OrderSummary struct {
	ID            string
	CustomerID    string
	CustomerEmail string
	TotalAmount   decimal.Decimal
	Status        OrderStatus
	CreatedAt     time.Time
}

// CheckoutRequest is what the caller declares at checkout time.
type CheckoutRequest struct {
	AddressID      string
	PaymentMethod  string
	ShippingCost   decimal.Decimal
	TotalAmount    decimal.Decimal
	IdempotencyKey string
}

func (r CheckoutRequest) Validate() error {
	if r.AddressID == "" {
		return Errorf(ErrInvalidArgument, "address_id is required")
	}
	if r.PaymentMethod == "" {
		return Errorf(ErrInvalidArgument, "payment_method is required")
	}
	if err := ValidateAmount("shipping_cost", r.ShippingCost); err != nil {
		return err
	}
	return ValidateAmount("total_amount", r.TotalAmount)
}

// Money columns are DECIMAL(12,2).
const (
	amountScale         = 2
	amountIntegerDigits = 10
)

var maxAmount = decimal.New(1, amountIntegerDigits)

// ValidateAmount rejects negative amounts and amounts that do not fit the
// money columns: more than ten integer digits or more than two decimals.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return Errorf(ErrInvalidArgument, "%s must not be negative", field)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return Errorf(ErrInvalidArgument, "%s must have at most %d integer digits", field, amountIntegerDigits)
	}
	if !amount.Equal(amount.Truncate(amountScale)) {
		return Errorf(ErrInvalidArgument, "%s must have at most %d decimal places", field, amountScale)
	}
	return nil
}

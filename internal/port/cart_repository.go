package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CartRepository interface {
	// GetOrCreateActiveCart returns the customer's active cart id, creating the
	// cart when none exists
	GetOrCreateActiveCart(ctx context.Context, customerID string) (string, error)

	// UpsertItem adds quantity to the (cart, product) line, creating it if needed,
	// and overwrites its captured price
	UpsertItem(ctx context.Context, cartID, productID string, quantity int, price decimal.Decimal) (domain.CartItem, error)

	// SetItemQuantity overwrites the quantity of an item owned by cartID
	SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (domain.CartItem, error)

	// RemoveItem deletes an item owned by cartID
	RemoveItem(ctx context.Context, cartID, itemID string) error

	// Clear deletes every item of cartID
	Clear(ctx context.Context, cartID string) error

	Items(ctx context.Context, cartID string) ([]domain.CartItem, error)
}

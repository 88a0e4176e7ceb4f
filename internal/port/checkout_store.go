package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CheckoutStore interface {
	// WithinTx runs fn inside one storage transaction. The transaction commits
	// only if fn returns nil; any error rolls back every write made through tx.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx CheckoutTx) error) error
}

// CheckoutTx is the set of writes the checkout engine performs atomically.
type CheckoutTx interface {
	// ActiveCartLines returns the customer's active cart id and its items joined
	// with current product stock. An absent cart yields an empty id and no lines.
	ActiveCartLines(ctx context.Context, customerID string) (string, []domain.CheckoutLine, error)

	InsertOrder(ctx context.Context, order domain.Order) error

	// InsertOrderItem stores item at the given position within its order
	InsertOrderItem(ctx context.Context, position int, item domain.OrderItem) error

	// DecrementStock applies stock = stock - quantity only while stock >= quantity,
	// returns false when the guard rejected the write
	DecrementStock(ctx context.Context, productID string, quantity int) (bool, error)

	// ProductStock reads the stock currently visible to the transaction
	ProductStock(ctx context.Context, productID string) (int, error)

	// DeleteCartLine removes a cart item only if it still has the given quantity,
	// returns false when the item is gone or was changed
	DeleteCartLine(ctx context.Context, cartID, itemID string, quantity int) (bool, error)
}

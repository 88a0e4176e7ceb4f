package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Catalog is the read side of the product catalog. Stock decrements are not
// part of it; they happen only inside CheckoutTx.
type Catalog interface {
	// GetPriceAndStock returns domain.ErrNotFound for unknown products
	GetPriceAndStock(ctx context.Context, productID string) (domain.PriceStock, error)

	// Products returns the known products among ids, keyed by id
	Products(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

type seedProduct struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	ImageURL string          `json:"image_url"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

// Seed loads a JSON array of products from path into the catalog and returns
// how many were written.
func Seed(ctx context.Context, catalog *CatalogStore, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var products []seedProduct
	if err := json.Unmarshal(raw, &products); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}

	for _, p := range products {
		if p.ID == "" {
			return 0, fmt.Errorf("seed product without id")
		}
		err := catalog.UpsertProduct(ctx, domain.Product{
			ID:       p.ID,
			Name:     p.Name,
			ImageURL: p.ImageURL,
			Price:    p.Price,
			Stock:    p.Stock,
		})
		if err != nil {
			return 0, fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	return len(products), nil
}

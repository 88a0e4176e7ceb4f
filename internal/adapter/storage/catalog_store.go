package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
)

// CatalogStore reads products straight from the database on every call.
type CatalogStore struct {
	db *DB
}

func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

func (c *CatalogStore) GetPriceAndStock(ctx context.Context, productID string) (domain.PriceStock, error) {
	var ps domain.PriceStock
	err := c.db.sql.QueryRowContext(ctx, c.db.q(`
		SELECT price, stock FROM products WHERE id = ?`), productID,
	).Scan(&ps.Price, &ps.Stock)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.PriceStock{}, domain.Errorf(domain.ErrNotFound, "product %s not found", productID)
	}
	if err != nil {
		return domain.PriceStock{}, fmt.Errorf("query product: %w", err)
	}
	return ps, nil
}

func (c *CatalogStore) Products(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := c.db.sql.QueryContext(ctx, c.db.q(`
		SELECT id, name, image_url, price, stock
		FROM products WHERE id IN (`+placeholders(len(ids))+`)`), args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.ImageURL, &p.Price, &p.Stock); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

// UpsertProduct creates p or overwrites every field of an existing product.
// Only seeding and tests write the catalog.
func (c *CatalogStore) UpsertProduct(ctx context.Context, p domain.Product) error {
	if p.Stock < 0 {
		return domain.Errorf(domain.ErrInvalidArgument, "stock of %s must not be negative", p.ID)
	}
	if err := domain.ValidateAmount("price", p.Price); err != nil {
		return err
	}
	d := c.db.dialect
	now := c.db.now()
	_, err := c.db.sql.ExecContext(ctx, c.db.q(`
		INSERT INTO products (id, name, image_url, price, stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`+d.onConflictUpdate("id")+`
			name = `+d.excluded("name")+`,
			image_url = `+d.excluded("image_url")+`,
			price = `+d.excluded("price")+`,
			stock = `+d.excluded("stock")+`,
			updated_at = `+d.excluded("updated_at")),
		p.ID, p.Name, p.ImageURL, p.Price, p.Stock, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

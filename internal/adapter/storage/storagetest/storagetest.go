// Package storagetest builds throwaway SQLite databases for tests.
package storagetest

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
)

// NewDB returns a migrated in-memory database private to the test.
func NewDB(t testing.TB) *storage.DB {
	t.Helper()

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	dsn := "file:" + name + "?mode=memory&cache=shared"

	db, err := storage.Open(context.Background(), storage.DriverSQLite, dsn, storage.PoolOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, storage.Migrate(db))
	return db
}

// Product is a shorthand for a catalog entry priced from a string.
func Product(id, price string, stock int) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     "Product " + id,
		ImageURL: "https://img.example.com/" + id + ".png",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	}
}

func SeedProducts(t testing.TB, db *storage.DB, products ...domain.Product) {
	t.Helper()
	catalog := storage.NewCatalogStore(db)
	for _, p := range products {
		require.NoError(t, catalog.UpsertProduct(context.Background(), p))
	}
}

// Stock reads a product's stock directly.
func Stock(t testing.TB, db *storage.DB, productID string) int {
	t.Helper()
	ps, err := storage.NewCatalogStore(db).GetPriceAndStock(context.Background(), productID)
	require.NoError(t, err)
	return ps.Stock
}

// Count returns the number of rows in table.
func Count(t testing.TB, db *storage.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.SQL().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

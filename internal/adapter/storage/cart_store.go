package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

const cartItemColumns = `id, cart_id, product_id, quantity, unit_price, created_at, updated_at`

type CartStore struct {
	db *DB
}

func NewCartStore(db *DB) *CartStore {
	return &CartStore{db: db}
}

// GetOrCreateActiveCart relies on the unique active_owner column: concurrent
// callers all insert-if-absent and then read back the single surviving row.
func (c *CartStore) GetOrCreateActiveCart(ctx context.Context, customerID string) (string, error) {
	d := c.db.dialect
	_, err := c.db.sql.ExecContext(ctx, c.db.q(`
		INSERT INTO carts (id, customer_id, active, active_owner, created_at)
		VALUES (?, ?, ?, ?, ?)
		`+d.onConflictIgnore("active_owner", "id")),
		uuid.NewString(), customerID, true, customerID, c.db.now(),
	)
	if err != nil {
		return "", fmt.Errorf("insert cart: %w", err)
	}

	var cartID string
	err = c.db.sql.QueryRowContext(ctx, c.db.q(`
		SELECT id FROM carts WHERE active_owner = ?`), customerID,
	).Scan(&cartID)
	if err != nil {
		return "", fmt.Errorf("select active cart: %w", err)
	}
	return cartID, nil
}

// UpsertItem never stores more than domain.MaxQuantity on a merged line; the
// service rejects such adds up front, the cap only catches concurrent ones.
func (c *CartStore) UpsertItem(ctx context.Context, cartID, productID string, quantity int, price decimal.Decimal) (domain.CartItem, error) {
	d := c.db.dialect
	now := c.db.now()
	_, err := c.db.sql.ExecContext(ctx, c.db.q(`
		INSERT INTO cart_items (`+cartItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`+d.onConflictUpdate("cart_id, product_id")+`
			quantity = CASE
				WHEN cart_items.quantity > ? - `+d.excluded("quantity")+` THEN ?
				ELSE cart_items.quantity + `+d.excluded("quantity")+`
			END,
			unit_price = `+d.excluded("unit_price")+`,
			updated_at = `+d.excluded("updated_at")),
		uuid.NewString(), cartID, productID, quantity, price, now, now,
		domain.MaxQuantity, domain.MaxQuantity,
	)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("upsert cart item: %w", err)
	}

	item, err := scanCartItem(c.db.sql.QueryRowContext(ctx, c.db.q(`
		SELECT `+cartItemColumns+` FROM cart_items
		WHERE cart_id = ? AND product_id = ?`), cartID, productID))
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("select cart item: %w", err)
	}
	return item, nil
}

// SetItemQuantity re-reads the row after the update; MySQL reports zero
// affected rows when the quantity did not change.
func (c *CartStore) SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (domain.CartItem, error) {
	_, err := c.db.sql.ExecContext(ctx, c.db.q(`
		UPDATE cart_items SET quantity = ?, updated_at = ?
		WHERE id = ? AND cart_id = ?`),
		quantity, c.db.now(), itemID, cartID,
	)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("update cart item: %w", err)
	}

	item, err := scanCartItem(c.db.sql.QueryRowContext(ctx, c.db.q(`
		SELECT `+cartItemColumns+` FROM cart_items
		WHERE id = ? AND cart_id = ?`), itemID, cartID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CartItem{}, domain.Errorf(domain.ErrNotFound, "cart item %s not found", itemID)
	}
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("select cart item: %w", err)
	}
	return item, nil
}

func (c *CartStore) RemoveItem(ctx context.Context, cartID, itemID string) error {
	result, err := c.db.sql.ExecContext(ctx, c.db.q(`
		DELETE FROM cart_items WHERE id = ? AND cart_id = ?`), itemID, cartID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if rows == 0 {
		return domain.Errorf(domain.ErrNotFound, "cart item %s not found", itemID)
	}
	return nil
}

func (c *CartStore) Clear(ctx context.Context, cartID string) error {
	_, err := c.db.sql.ExecContext(ctx, c.db.q(`
		DELETE FROM cart_items WHERE cart_id = ?`), cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (c *CartStore) Items(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	rows, err := c.db.sql.QueryContext(ctx, c.db.q(`
		SELECT `+cartItemColumns+` FROM cart_items
		WHERE cart_id = ?
		ORDER BY created_at, id`), cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCartItem(row rowScanner) (domain.CartItem, error) {
	var it domain.CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type CheckoutStore struct {
	db *DB
}

func NewCheckoutStore(db *DB) *CheckoutStore {
	return &CheckoutStore{db: db}
}

func (s *CheckoutStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.CheckoutTx) error) error {
	tx, err := s.db.sql.BeginTx(ctx, s.db.dialect.txOptions())
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &checkoutTx{tx: tx, db: s.db}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type checkoutTx struct {
	tx *sql.Tx
	db *DB
}

func (t *checkoutTx) ActiveCartLines(ctx context.Context, customerID string) (string, []domain.CheckoutLine, error) {
	var cartID string
	err := t.tx.QueryRowContext(ctx, t.db.q(`
		SELECT id FROM carts WHERE active_owner = ?`), customerID,
	).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("select active cart: %w", err)
	}

	rows, err := t.tx.QueryContext(ctx, t.db.q(`
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.unit_price,
			ci.created_at, ci.updated_at, p.stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ?
		ORDER BY ci.created_at, ci.id`), cartID)
	if err != nil {
		return "", nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CheckoutLine
	for rows.Next() {
		var l domain.CheckoutLine
		if err := rows.Scan(&l.ID, &l.CartID, &l.ProductID, &l.Quantity, &l.UnitPrice,
			&l.CreatedAt, &l.UpdatedAt, &l.Stock); err != nil {
			return "", nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	return cartID, lines, nil
}

func (t *checkoutTx) InsertOrder(ctx context.Context, order domain.Order) error {
	_, err := t.tx.ExecContext(ctx, t.db.q(`
		INSERT INTO orders (id, customer_id, total_amount, shipping_cost, payment_method,
			address_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		order.ID, order.CustomerID, order.TotalAmount, order.ShippingCost, order.PaymentMethod,
		order.AddressID, string(order.Status), order.CreatedAt.UTC(), order.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (t *checkoutTx) InsertOrderItem(ctx context.Context, position int, item domain.OrderItem) error {
	_, err := t.tx.ExecContext(ctx, t.db.q(`
		INSERT INTO order_items (id, order_id, position, product_id, quantity, unit_price)
		VALUES (?, ?, ?, ?, ?, ?)`),
		item.ID, item.OrderID, position, item.ProductID, item.Quantity, item.UnitPrice,
	)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (t *checkoutTx) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	result, err := t.tx.ExecContext(ctx, t.db.q(`
		UPDATE products
		SET stock = stock - ?
		WHERE id = ? AND stock >= ?`),
		quantity, productID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return rows == 1, nil
}

func (t *checkoutTx) ProductStock(ctx context.Context, productID string) (int, error) {
	var stock int
	err := t.tx.QueryRowContext(ctx, t.db.q(`
		SELECT stock FROM products WHERE id = ?`), productID,
	).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.Errorf(domain.ErrNotFound, "product %s not found", productID)
	}
	if err != nil {
		return 0, fmt.Errorf("select stock: %w", err)
	}
	return stock, nil
}

func (t *checkoutTx) DeleteCartLine(ctx context.Context, cartID, itemID string, quantity int) (bool, error) {
	result, err := t.tx.ExecContext(ctx, t.db.q(`
		DELETE FROM cart_items
		WHERE id = ? AND cart_id = ? AND quantity = ?`),
		itemID, cartID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("delete cart line: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete cart line: %w", err)
	}
	return rows == 1, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

const orderColumns = `id, customer_id, total_amount, shipping_cost, payment_method,
	address_id, status, created_at, updated_at`

// OrderStore is the read and status-update side of orders. Orders are only
// created by CheckoutStore.
type OrderStore struct {
	db *DB
}

func NewOrderStore(db *DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) History(ctx context.Context, customerID string) ([]domain.OrderSummary, error) {
	return s.summaries(ctx, `WHERE o.customer_id = ?`, customerID)
}

func (s *OrderStore) ListAll(ctx context.Context) ([]domain.OrderSummary, error) {
	return s.summaries(ctx, ``)
}

func (s *OrderStore) summaries(ctx context.Context, where string, args ...any) ([]domain.OrderSummary, error) {
	rows, err := s.db.sql.QueryContext(ctx, s.db.q(`
		SELECT o.id, o.customer_id, COALESCE(c.email, ''), o.total_amount, o.status, o.created_at
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		`+where+`
		ORDER BY o.created_at DESC, o.id DESC`), args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []domain.OrderSummary
	for rows.Next() {
		var (
			o      domain.OrderSummary
			status string
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.CustomerEmail, &o.TotalAmount, &status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = domain.OrderStatus(status)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}

// Details folds ownership into the lookup, so a foreign order is
// indistinguishable from a missing one.
func (s *OrderStore) Details(ctx context.Context, customerID, orderID string) (domain.Order, error) {
	order, err := scanOrder(s.db.sql.QueryRowContext(ctx, s.db.q(`
		SELECT `+orderColumns+` FROM orders
		WHERE id = ? AND customer_id = ?`), orderID, customerID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.Errorf(domain.ErrNotFound, "order %s not found", orderID)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	return s.withItems(ctx, order)
}

// UpdateStatus reads the order back instead of trusting RowsAffected, which
// MySQL reports as zero when the status is unchanged.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, at time.Time) (domain.Order, error) {
	_, err := s.db.sql.ExecContext(ctx, s.db.q(`
		UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`),
		string(status), at.UTC(), orderID,
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}

	order, err := scanOrder(s.db.sql.QueryRowContext(ctx, s.db.q(`
		SELECT `+orderColumns+` FROM orders WHERE id = ?`), orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.Errorf(domain.ErrNotFound, "order %s not found", orderID)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	return s.withItems(ctx, order)
}

func (s *OrderStore) withItems(ctx context.Context, order domain.Order) (domain.Order, error) {
	rows, err := s.db.sql.QueryContext(ctx, s.db.q(`
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price,
			COALESCE(p.name, ''), COALESCE(p.image_url, '')
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY oi.position`), order.ID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice,
			&it.ProductName, &it.ImageURL); err != nil {
			return domain.Order{}, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, it)
	}
	if err := rows.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("iterate order items: %w", err)
	}
	return order, nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.TotalAmount, &o.ShippingCost, &o.PaymentMethod,
		&o.AddressID, &status, &o.CreatedAt, &o.UpdatedAt)
	o.Status = domain.OrderStatus(status)
	return o, err
}

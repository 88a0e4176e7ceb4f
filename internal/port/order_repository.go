package port

import (
	"context"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

type OrderRepository interface {
	// History lists a customer's orders, newest first
	History(ctx context.Context, customerID string) ([]domain.OrderSummary, error)

	// Details loads an order with its items. Orders of other customers are
	// reported as domain.ErrNotFound.
	Details(ctx context.Context, customerID, orderID string) (domain.Order, error)

	// ListAll lists every order, newest first
	ListAll(ctx context.Context) ([]domain.OrderSummary, error)

	// UpdateStatus sets status and updated_at, returns the updated order
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, at time.Time) (domain.Order, error)
}

type CustomerRepository interface {
	// EnsureCustomer finds the customer linked to ext.Subject or creates it.
	// Existing customers are promoted to admin when role is admin.
	EnsureCustomer(ctx context.Context, ext domain.ExternalIdentity, role domain.Role) (domain.Customer, error)
}

type EventPublisher interface {
	// Publish hands off an event without blocking the caller
	Publish(ctx context.Context, event domain.OrderEvent)
}

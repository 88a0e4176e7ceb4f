package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/adapter/storage/storagetest"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type fixture struct {
	db       *storage.DB
	catalog  *storage.CatalogStore
	carts    *CartService
	checkout *CheckoutService
	orders   *OrderService
	idem     *mockIdempotency
	events   *recordingPublisher
}

func newFixture(t *testing.T, products ...domain.Product) *fixture {
	t.Helper()
	db := storagetest.NewDB(t)
	storagetest.SeedProducts(t, db, products...)

	logger := zap.NewNop()
	catalog := storage.NewCatalogStore(db)
	idem := newMockIdempotency()
	events := &recordingPublisher{}

	return &fixture{
		db:       db,
		catalog:  catalog,
		carts:    NewCartService(storage.NewCartStore(db), catalog, logger),
		checkout: NewCheckoutService(storage.NewCheckoutStore(db), idem, events, logger),
		orders:   NewOrderService(storage.NewOrderStore(db), events, logger),
		idem:     idem,
		events:   events,
	}
}

func customer(id string) domain.Caller {
	return domain.Caller{CustomerID: id, Role: domain.RoleCustomer}
}

func admin(id string) domain.Caller {
	return domain.Caller{CustomerID: id, Role: domain.RoleAdmin}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func checkoutRequest(shipping, total string) domain.CheckoutRequest {
	return domain.CheckoutRequest{
		AddressID:     "addr-1",
		PaymentMethod: "card",
		ShippingCost:  dec(shipping),
		TotalAmount:   dec(total),
	}
}

// Mock IdempotencyStore
type mockIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMockIdempotency() *mockIdempotency {
	return &mockIdempotency{keys: make(map[string]bool)}
}

func (m *mockIdempotency) Acquire(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *mockIdempotency) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *mockIdempotency) held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) all() []domain.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.OrderEvent(nil), p.events...)
}

// racingStore makes the stock guard reject the n-th decrement, as if a
// concurrent checkout had taken the stock after the advisory check.
type racingStore struct {
	port.CheckoutStore
	failAt int
}

func (r racingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.CheckoutTx) error) error {
	return r.CheckoutStore.WithinTx(ctx, func(ctx context.Context, tx port.CheckoutTx) error {
		return fn(ctx, &racingTx{CheckoutTx: tx, failAt: r.failAt})
	})
}

type racingTx struct {
	port.CheckoutTx
	failAt int
	calls  int
}

func (r *racingTx) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	r.calls++
	if r.calls == r.failAt {
		return false, nil
	}
	return r.CheckoutTx.DecrementStock(ctx, productID, quantity)
}

// mutatingStore changes the cart underneath the transaction before the cart
// lines are deleted.
type mutatingStore struct {
	port.CheckoutStore
}

func (m mutatingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.CheckoutTx) error) error {
	return m.CheckoutStore.WithinTx(ctx, func(ctx context.Context, tx port.CheckoutTx) error {
		return fn(ctx, &mutatingTx{CheckoutTx: tx})
	})
}

type mutatingTx struct {
	port.CheckoutTx
}

func (m *mutatingTx) DeleteCartLine(ctx context.Context, cartID, itemID string, quantity int) (bool, error) {
	return m.CheckoutTx.DeleteCartLine(ctx, cartID, itemID, quantity+1)
}

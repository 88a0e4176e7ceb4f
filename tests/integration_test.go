package tests

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type testEnv struct {
	redis     *redis.Client
	db        *storage.DB
	catalog   *storage.CatalogStore
	customers *storage.CustomerStore
	carts     *service.CartService
	checkout  *service.CheckoutService
	orders    *service.OrderService
	cleanup   func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/storefront"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := storage.Open(ctx, storage.DriverMySQL, mysqlDSN, storage.PoolOptions{MaxOpenConns: 20, MaxIdleConns: 10})
	if err != nil {
		rdb.Close()
		t.Skipf("MySQL not available: %v", err)
	}
	require.NoError(t, storage.Migrate(db))

	logger := zap.NewNop()
	catalog := storage.NewCatalogStore(db)
	cache := storage.NewRedisAdapter(rdb, time.Minute)

	return &testEnv{
		redis:     rdb,
		db:        db,
		catalog:   catalog,
		customers: storage.NewCustomerStore(db),
		carts:     service.NewCartService(storage.NewCartStore(db), catalog, logger),
		checkout:  service.NewCheckoutService(storage.NewCheckoutStore(db), cache, nil, logger),
		orders:    service.NewOrderService(storage.NewOrderStore(db), nil, logger),
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

func (e *testEnv) newCustomer(t *testing.T) domain.Caller {
	t.Helper()
	c, err := e.customers.EnsureCustomer(context.Background(), domain.ExternalIdentity{
		Subject: "integration-" + uuid.NewString(),
	}, domain.RoleCustomer)
	require.NoError(t, err)
	return domain.Caller{CustomerID: c.ID, Role: c.Role}
}

func (e *testEnv) newProduct(t *testing.T, price string, stock int) string {
	t.Helper()
	id := "integration-" + uuid.NewString()
	require.NoError(t, e.catalog.UpsertProduct(context.Background(), domain.Product{
		ID:    id,
		Name:  "Integration product",
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}))
	return id
}

func checkoutRequest(total string) domain.CheckoutRequest {
	return domain.CheckoutRequest{
		AddressID:     "addr-integration",
		PaymentMethod: "card",
		ShippingCost:  decimal.Zero,
		TotalAmount:   decimal.RequireFromString(total),
	}
}

func TestIntegration_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	initialStock := 10
	totalCustomers := 25
	productID := env.newProduct(t, "19.99", initialStock)

	callers := make([]domain.Caller, totalCustomers)
	for i := range callers {
		callers[i] = env.newCustomer(t)
		_, err := env.carts.AddToCart(ctx, callers[i], productID, 1)
		require.NoError(t, err)
	}

	var successCount, soldOutCount atomic.Int32
	var wg sync.WaitGroup
	for _, caller := range callers {
		caller := caller
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.checkout.Checkout(ctx, caller, checkoutRequest("19.99"))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				soldOutCount.Add(1)
			default:
				t.Errorf("unexpected checkout error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(initialStock), successCount.Load())
	assert.Equal(t, int32(totalCustomers-initialStock), soldOutCount.Load())

	ps, err := env.catalog.GetPriceAndStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 0, ps.Stock)

	var orderItems int
	require.NoError(t, env.db.SQL().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_items WHERE product_id = ?`, productID).Scan(&orderItems))
	assert.Equal(t, initialStock, orderItems)
}

func TestIntegration_CheckoutFlow(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	caller := env.newCustomer(t)
	first := env.newProduct(t, "10.00", 5)
	second := env.newProduct(t, "2.50", 10)

	_, err := env.carts.AddToCart(ctx, caller, first, 2)
	require.NoError(t, err)
	_, err = env.carts.AddToCart(ctx, caller, second, 4)
	require.NoError(t, err)

	order, err := env.checkout.Checkout(ctx, caller, checkoutRequest("30.00"))
	require.NoError(t, err)
	require.Len(t, order.Items, 2)

	// the captured price survives later catalog changes
	require.NoError(t, env.catalog.UpsertProduct(ctx, domain.Product{
		ID: first, Name: "Integration product", Price: decimal.RequireFromString("99.00"), Stock: 3,
	}))

	details, err := env.orders.GetOrderDetails(ctx, caller, order.ID)
	require.NoError(t, err)
	assert.True(t, details.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, domain.OrderStatusPending, details.Status)

	view, err := env.carts.GetCart(ctx, caller)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = env.checkout.Checkout(ctx, caller, checkoutRequest("0"))
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestIntegration_IdempotencyKey(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	caller := env.newCustomer(t)
	productID := env.newProduct(t, "5.00", 10)

	_, err := env.carts.AddToCart(ctx, caller, productID, 1)
	require.NoError(t, err)

	req := checkoutRequest("5.00")
	req.IdempotencyKey = fmt.Sprintf("key-%d", time.Now().UnixNano())

	_, err = env.checkout.Checkout(ctx, caller, req)
	require.NoError(t, err)

	_, err = env.carts.AddToCart(ctx, caller, productID, 1)
	require.NoError(t, err)

	_, err = env.checkout.Checkout(ctx, caller, req)
	assert.ErrorIs(t, err, domain.ErrConflict)

	ps, err := env.catalog.GetPriceAndStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 9, ps.Stock)
}

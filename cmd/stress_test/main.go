package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

const (
	productID      = "stress-test-product"
	initialStock   = 20
	totalCustomers = 50
)

func main() {
	ctx := context.Background()

	driver := os.Getenv("DB_DRIVER")
	dsn := os.Getenv("DB_DSN")
	if driver == "" {
		driver, dsn = storage.DriverSQLite, "file:stress?mode=memory&cache=shared"
	}

	db, err := storage.Open(ctx, driver, dsn, storage.PoolOptions{MaxOpenConns: 50, MaxIdleConns: 25})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	catalog := storage.NewCatalogStore(db)
	err = catalog.UpsertProduct(ctx, domain.Product{
		ID:    productID,
		Name:  "Stress test product",
		Price: decimal.RequireFromString("9.99"),
		Stock: initialStock,
	})
	if err != nil {
		log.Fatalf("failed to set stock: %v", err)
	}

	logger := zap.NewNop()
	customers := storage.NewCustomerStore(db)
	carts := service.NewCartService(storage.NewCartStore(db), catalog, logger)
	checkout := service.NewCheckoutService(storage.NewCheckoutStore(db), nil, nil, logger)

	// Every customer puts one unit in the cart before the race starts
	callers := make([]domain.Caller, totalCustomers)
	for i := range callers {
		c, err := customers.EnsureCustomer(ctx, domain.ExternalIdentity{
			Subject: fmt.Sprintf("stress-user-%d-%d", time.Now().UnixNano(), i),
		}, domain.RoleCustomer)
		if err != nil {
			log.Fatalf("failed to create customer: %v", err)
		}
		callers[i] = domain.Caller{CustomerID: c.ID, Role: c.Role}
		if _, err := carts.AddToCart(ctx, callers[i], productID, 1); err != nil {
			log.Fatalf("failed to fill cart: %v", err)
		}
	}

	// Counters
	var successCount, soldOutCount, errorCount atomic.Int32

	req := domain.CheckoutRequest{
		AddressID:     "stress-address",
		PaymentMethod: "card",
		ShippingCost:  decimal.Zero,
		TotalAmount:   decimal.RequireFromString("9.99"),
	}

	var g errgroup.Group
	start := time.Now()
	for _, caller := range callers {
		caller := caller
		g.Go(func() error {
			_, err := checkout.Checkout(ctx, caller, req)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				soldOutCount.Add(1)
			default:
				errorCount.Add(1)
				log.Printf("unexpected checkout error: %v", err)
			}
			return nil
		})
	}
	g.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	soldOut := soldOutCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Driver:           %s\n", driver)
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Checkouts:  %d\n", totalCustomers)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Sold Out:         %d\n", soldOut)
	fmt.Printf("Errors:           %d\n", errorCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == initialStock && soldOut == totalCustomers-initialStock {
		fmt.Printf("PASS: Exactly %d orders succeeded, %d sold out\n", initialStock, totalCustomers-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d sold out, got %d/%d\n",
			initialStock, totalCustomers-initialStock, success, soldOut)
	}

	ps, err := catalog.GetPriceAndStock(ctx, productID)
	if err != nil {
		log.Fatalf("failed to read stock: %v", err)
	}
	fmt.Printf("Final Stock:      %d\n", ps.Stock)
	if ps.Stock == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", ps.Stock)
	}
}

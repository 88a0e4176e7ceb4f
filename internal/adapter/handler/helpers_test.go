package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/identity"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/adapter/storage/storagetest"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/observability"
)

const adminSubject = "admin-sub"

type testServer struct {
	db       *storage.DB
	resolver *identity.JWTResolver
	metrics  *observability.Metrics
	http     *HTTPHandler
	grpc     *GRPCHandler
	router   http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := storagetest.NewDB(t)
	storagetest.SeedProducts(t, db,
		storagetest.Product("p1", "10.00", 5),
		storagetest.Product("p2", "2.50", 10),
	)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	catalog := storage.NewCatalogStore(db)
	carts := service.NewCartService(storage.NewCartStore(db), catalog, logger)
	checkout := service.NewCheckoutService(storage.NewCheckoutStore(db), nil, nil, logger)
	orders := service.NewOrderService(storage.NewOrderStore(db), nil, logger)
	resolver := identity.NewJWTResolver([]byte("test-secret"), "", []string{adminSubject}, storage.NewCustomerStore(db))

	h := NewHTTPHandler(carts, checkout, orders, metrics, logger, map[string]HealthCheck{"database": db.Ping})
	return &testServer{
		db:       db,
		resolver: resolver,
		metrics:  metrics,
		http:     h,
		grpc:     NewGRPCHandler(checkout, orders, metrics),
		router:   h.Router(resolver, 5*time.Second),
	}
}

func (s *testServer) token(t *testing.T, subject string) string {
	t.Helper()
	token, err := s.resolver.Issue(subject, subject+"@example.com", subject, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type testEnvelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *ErrorResponse `json:"error"`
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func (s *testServer) addToCart(t *testing.T, token, productID string, quantity int) CartResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/cart/items", token, AddItemRequest{ProductID: productID, Quantity: quantity})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[CartResponse](t, rec).Data
}

func (s *testServer) stock(t *testing.T, productID string) int {
	t.Helper()
	return storagetest.Stock(t, s.db, productID)
}

func checkoutBody(shipping, total string) map[string]any {
	return map[string]any{
		"address_id":     "addr-1",
		"payment_method": "card",
		"shipping_cost":  shipping,
		"total_amount":   total,
	}
}

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	return testutil.ToFloat64(c)
}

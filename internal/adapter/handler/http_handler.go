package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/observability"
	"github.com/rl1809/storefront/internal/port"
)

const maxBodyBytes = 1 << 20

// HealthCheck is one dependency probe reported by /health.
type HealthCheck func(ctx context.Context) error

type HTTPHandler struct {
	carts    *service.CartService
	checkout *service.CheckoutService
	orders   *service.OrderService
	metrics  *observability.Metrics
	logger   *zap.Logger
	checks   map[string]HealthCheck
}

func NewHTTPHandler(carts *service.CartService, checkout *service.CheckoutService, orders *service.OrderService,
	metrics *observability.Metrics, logger *zap.Logger, checks map[string]HealthCheck) *HTTPHandler {
	return &HTTPHandler{
		carts:    carts,
		checkout: checkout,
		orders:   orders,
		metrics:  metrics,
		logger:   logger,
		checks:   checks,
	}
}

// Router mounts the public API under /api behind bearer authentication.
func (h *HTTPHandler) Router(resolver port.IdentityResolver, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(h.logger, h.metrics))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		if timeout > 0 {
			r.Use(middleware.Timeout(timeout))
		}
		r.Use(AuthMiddleware(resolver))

		r.Get("/me", h.Me)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddToCart)
			r.Put("/items/{itemID}", h.SetCartItemQuantity)
			r.Delete("/items/{itemID}", h.RemoveCartItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.Checkout)
			r.Get("/", h.GetOrderHistory)
			r.Get("/{orderID}", h.GetOrderDetails)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminOnly)
			r.Get("/orders", h.ListAllOrders)
			r.Put("/orders/{orderID}/status", h.UpdateOrderStatus)
		})
	})
	return r
}

// Me returns the profile the auth middleware resolved for the bearer token.
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newMeResponse(CallerFrom(r.Context()), identityFrom(r.Context())))
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.GetCart(r.Context(), CallerFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(view))
}

func (h *HTTPHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.carts.AddToCart(r.Context(), CallerFrom(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(view))
}

func (h *HTTPHandler) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		h.fail(w, r, domain.Errorf(domain.ErrInvalidArgument, "quantity is required"))
		return
	}
	view, err := h.carts.SetCartItemQuantity(r.Context(), CallerFrom(r.Context()), chi.URLParam(r, "itemID"), *req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(view))
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.RemoveCartItem(r.Context(), CallerFrom(r.Context()), chi.URLParam(r, "itemID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(view))
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.ClearCart(r.Context(), CallerFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(view))
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !h.decode(w, r, &req) {
		return
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	order, err := h.placeOrder(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newOrderResponse(order))
}

func (h *HTTPHandler) placeOrder(ctx context.Context, req CheckoutRequest) (domain.Order, error) {
	in, err := req.toDomain()
	if err == nil {
		var order domain.Order
		order, err = h.checkout.Checkout(ctx, CallerFrom(ctx), in)
		if err == nil {
			h.metrics.ObserveCheckout("ok")
			return order, nil
		}
	}
	h.metrics.ObserveCheckout(string(domain.KindOf(err)))
	return domain.Order{}, err
}

func (h *HTTPHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.GetOrderHistory(r.Context(), CallerFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderListResponse(orders))
}

func (h *HTTPHandler) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrderDetails(r.Context(), CallerFrom(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *HTTPHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAllOrders(r.Context(), CallerFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderListResponse(orders))
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	order, err := h.orders.UpdateOrderStatus(r.Context(), CallerFrom(r.Context()), chi.URLParam(r, "orderID"), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	result := map[string]string{"status": "ok"}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			result["status"] = "degraded"
			result[name] = err.Error()
			continue
		}
		result[name] = "ok"
	}
	writeJSON(w, status, result)
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, r, domain.Errorf(domain.ErrInvalidArgument, "invalid request body: %v", err))
		return false
	}
	return true
}

func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if domain.KindOf(err) == domain.KindStorageFailure {
		h.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	respondError(w, err)
}

type envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, err error) {
	resp := newErrorResponse(err)
	writeJSON(w, httpStatus(domain.Kind(resp.Kind)), envelope{Success: false, Error: &resp})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

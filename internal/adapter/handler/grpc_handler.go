package handler

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/observability"
)

type GRPCHandler struct {
	checkout *service.CheckoutService
	orders   *service.OrderService
	metrics  *observability.Metrics
}

func NewGRPCHandler(checkout *service.CheckoutService, orders *service.OrderService, metrics *observability.Metrics) *GRPCHandler {
	return &GRPCHandler{checkout: checkout, orders: orders, metrics: metrics}
}

var _ OrderServiceServer = (*GRPCHandler)(nil)

func (h *GRPCHandler) Checkout(ctx context.Context, req *CheckoutRequest) (*OrderResponse, error) {
	in, err := req.toDomain()
	if err == nil {
		var order domain.Order
		order, err = h.checkout.Checkout(ctx, CallerFrom(ctx), in)
		if err == nil {
			h.metrics.ObserveCheckout("ok")
			resp := newOrderResponse(order)
			return &resp, nil
		}
	}
	h.metrics.ObserveCheckout(string(domain.KindOf(err)))
	return nil, toStatus(err)
}

func (h *GRPCHandler) GetOrderHistory(ctx context.Context, _ *ListOrdersRequest) (*OrderListResponse, error) {
	orders, err := h.orders.GetOrderHistory(ctx, CallerFrom(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	resp := newOrderListResponse(orders)
	return &resp, nil
}

func (h *GRPCHandler) GetOrderDetails(ctx context.Context, req *OrderDetailsRequest) (*OrderResponse, error) {
	order, err := h.orders.GetOrderDetails(ctx, CallerFrom(ctx), req.OrderID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := newOrderResponse(order)
	return &resp, nil
}

func (h *GRPCHandler) ListAllOrders(ctx context.Context, _ *ListOrdersRequest) (*OrderListResponse, error) {
	orders, err := h.orders.ListAllOrders(ctx, CallerFrom(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	resp := newOrderListResponse(orders)
	return &resp, nil
}

func (h *GRPCHandler) UpdateOrderStatus(ctx context.Context, req *UpdateStatusRequest) (*OrderResponse, error) {
	order, err := h.orders.UpdateOrderStatus(ctx, CallerFrom(ctx), req.OrderID, req.Status)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := newOrderResponse(order)
	return &resp, nil
}

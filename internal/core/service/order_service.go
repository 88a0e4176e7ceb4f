package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type OrderService struct {
	orders port.OrderRepository
	events port.EventPublisher
	logger *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewOrderService(orders port.OrderRepository, events port.EventPublisher, logger *zap.Logger) *OrderService {
	if events == nil {
		events = noopPublisher{}
	}
	return &OrderService{
		orders: orders,
		events: events,
		logger: logger,
		now:    utcNow,
		newID:  newID,
	}
}

// GetOrderHistory lists the caller's own orders, newest first.
func (s *OrderService) GetOrderHistory(ctx context.Context, caller domain.Caller) (orders []domain.OrderSummary, err error) {
	ctx, span := tracer.Start(ctx, "orders.history")
	defer func() { endSpan(span, err) }()

	if err := caller.Validate(); err != nil {
		return nil, err
	}
	orders, err = s.orders.History(ctx, caller.CustomerID)
	if err != nil {
		return nil, domain.Storage("order history", err)
	}
	return orders, nil
}

// GetOrderDetails only returns orders owned by the caller; anything else is
// NotFound.
func (s *OrderService) GetOrderDetails(ctx context.Context, caller domain.Caller, orderID string) (order domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "orders.details")
	span.SetAttributes(attribute.String("order_id", orderID))
	defer func() { endSpan(span, err) }()

	if err := caller.Validate(); err != nil {
		return domain.Order{}, err
	}
	order, err = s.orders.Details(ctx, caller.CustomerID, orderID)
	if err != nil {
		return domain.Order{}, domain.Storage("order details", err)
	}
	return order, nil
}

func (s *OrderService) ListAllOrders(ctx context.Context, caller domain.Caller) (orders []domain.OrderSummary, err error) {
	ctx, span := tracer.Start(ctx, "orders.list_all")
	defer func() { endSpan(span, err) }()

	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	orders, err = s.orders.ListAll(ctx)
	if err != nil {
		return nil, domain.Storage("list orders", err)
	}
	return orders, nil
}

// UpdateOrderStatus accepts any known status; transitions are not policed.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, caller domain.Caller, orderID, status string) (order domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "orders.update_status")
	span.SetAttributes(attribute.String("order_id", orderID), attribute.String("status", status))
	defer func() { endSpan(span, err) }()

	if err := caller.RequireAdmin(); err != nil {
		return domain.Order{}, err
	}
	st, err := domain.ParseOrderStatus(status)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.now()
	order, err = s.orders.UpdateStatus(ctx, orderID, st, now)
	if err != nil {
		return domain.Order{}, domain.Storage("update order status", err)
	}

	s.logger.Info("order status updated",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
		zap.String("by", caller.CustomerID),
	)
	s.events.Publish(ctx, domain.NewOrderEvent(s.newID(), domain.EventOrderStatusChanged, order, now))
	return order, nil
}

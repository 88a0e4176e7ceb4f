package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// CheckoutService turns the caller's active cart into a pending order in a
// single storage transaction.
type CheckoutService struct {
	store       port.CheckoutStore
	idempotency port.IdempotencyStore
	events      port.EventPublisher
	logger      *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewCheckoutService accepts nil idempotency and events; duplicate guarding
// and event publishing are then skipped.
func NewCheckoutService(store port.CheckoutStore, idempotency port.IdempotencyStore, events port.EventPublisher, logger *zap.Logger) *CheckoutService {
	if events == nil {
		events = noopPublisher{}
	}
	return &CheckoutService{
		store:       store,
		idempotency: idempotency,
		events:      events,
		logger:      logger,
		now:         utcNow,
		newID:       newID,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, caller domain.Caller, req domain.CheckoutRequest) (order domain.Order, err error) {
	ctx, span := tracer.Start(ctx, "checkout")
	span.SetAttributes(attribute.String("customer_id", caller.CustomerID))
	defer func() { endSpan(span, err) }()

	if err := caller.Validate(); err != nil {
		return domain.Order{}, err
	}
	if err := req.Validate(); err != nil {
		return domain.Order{}, err
	}

	release, err := s.acquire(ctx, caller.CustomerID, req.IdempotencyKey)
	if err != nil {
		return domain.Order{}, err
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx port.CheckoutTx) error {
		placed, err := s.place(ctx, tx, caller.CustomerID, req)
		if err != nil {
			return err
		}
		order = placed
		return nil
	})
	if err != nil {
		release()
		s.logger.Info("checkout rejected",
			zap.String("customer_id", caller.CustomerID),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err),
		)
		return domain.Order{}, domain.Storage("checkout", err)
	}

	span.SetAttributes(attribute.String("order_id", order.ID), attribute.Int("items", len(order.Items)))
	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.CustomerID),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(order.Items)),
	)
	s.events.Publish(ctx, domain.NewOrderEvent(s.newID(), domain.EventOrderPlaced, order, order.CreatedAt))
	return order, nil
}

// place runs inside the transaction. Any error it returns rolls back the
// order, its items, the stock decrements and the cart deletions together.
func (s *CheckoutService) place(ctx context.Context, tx port.CheckoutTx, customerID string, req domain.CheckoutRequest) (domain.Order, error) {
	cartID, lines, err := tx.ActiveCartLines(ctx, customerID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(lines) == 0 {
		return domain.Order{}, domain.Errorf(domain.ErrEmptyCart, "no items in cart")
	}

	// Advisory: the decrement below is what actually guards stock.
	for _, l := range lines {
		if l.Quantity > l.Stock {
			return domain.Order{}, &domain.InsufficientStockError{
				ProductID: l.ProductID,
				Available: l.Stock,
				Requested: l.Quantity,
			}
		}
	}

	now := s.now()
	order := domain.Order{
		ID:            s.newID(),
		CustomerID:    customerID,
		TotalAmount:   req.TotalAmount,
		ShippingCost:  req.ShippingCost,
		PaymentMethod: req.PaymentMethod,
		AddressID:     req.AddressID,
		Status:        domain.OrderStatusPending,
		Items:         make([]domain.OrderItem, 0, len(lines)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.InsertOrder(ctx, order); err != nil {
		return domain.Order{}, err
	}

	for i, l := range lines {
		item := domain.OrderItem{
			ID:        s.newID(),
			OrderID:   order.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
		if err := tx.InsertOrderItem(ctx, i, item); err != nil {
			return domain.Order{}, err
		}

		ok, err := tx.DecrementStock(ctx, l.ProductID, l.Quantity)
		if err != nil {
			return domain.Order{}, err
		}
		if !ok {
			available, err := tx.ProductStock(ctx, l.ProductID)
			if err != nil {
				return domain.Order{}, err
			}
			s.logger.Warn("stock decrement lost a race",
				zap.String("product_id", l.ProductID),
				zap.Int("available", available),
				zap.Int("requested", l.Quantity),
			)
			return domain.Order{}, &domain.InsufficientStockError{
				ProductID: l.ProductID,
				Available: available,
				Requested: l.Quantity,
			}
		}
		order.Items = append(order.Items, item)
	}

	for _, l := range lines {
		ok, err := tx.DeleteCartLine(ctx, cartID, l.ID, l.Quantity)
		if err != nil {
			return domain.Order{}, err
		}
		if !ok {
			return domain.Order{}, domain.Errorf(domain.ErrConflict, "cart item %s changed during checkout", l.ID)
		}
	}
	return order, nil
}

// acquire claims the idempotency key when one was supplied. The returned
// release func frees it again and is safe to call when nothing was claimed.
func (s *CheckoutService) acquire(ctx context.Context, customerID, key string) (func(), error) {
	if s.idempotency == nil || key == "" {
		return func() {}, nil
	}

	full := "checkout:" + customerID + ":" + key
	ok, err := s.idempotency.Acquire(ctx, full)
	if err != nil {
		return nil, domain.Storage("idempotency check", err)
	}
	if !ok {
		return nil, domain.Errorf(domain.ErrConflict, "checkout with idempotency key %q already submitted", key)
	}

	return func() {
		// the request context may already be done
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.idempotency.Release(relCtx, full); err != nil {
			s.logger.Warn("failed to release idempotency key", zap.String("key", full), zap.Error(err))
		}
	}, nil
}

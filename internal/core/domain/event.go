package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventOrderPlaced        EventType = "order.placed"
	EventOrderStatusChanged EventType = "order.status_changed"
)

type OrderEvent struct {
	ID          string
	Type        EventType
	OrderID     string
	CustomerID  string
	Status      OrderStatus
	TotalAmount decimal.Decimal
	ItemCount   int
	OccurredAt  time.Time
}

func NewOrderEvent(id string, typ EventType, o Order, at time.Time) OrderEvent {
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	return OrderEvent{
		ID:          id,
		Type:        typ,
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		ItemCount:   count,
		OccurredAt:  at,
	}
}

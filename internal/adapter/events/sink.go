package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Sink delivers one event somewhere outside the process.
type Sink interface {
	Send(ctx context.Context, event domain.OrderEvent) error
	Close() error
}

// message is the wire form of an order event.
type message struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	CustomerID  string    `json:"customer_id"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	ItemCount   int       `json:"item_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func encode(event domain.OrderEvent) ([]byte, error) {
	return json.Marshal(message{
		ID:          event.ID,
		Type:        string(event.Type),
		OrderID:     event.OrderID,
		CustomerID:  event.CustomerID,
		Status:      string(event.Status),
		TotalAmount: event.TotalAmount.StringFixed(2),
		ItemCount:   event.ItemCount,
		OccurredAt:  event.OccurredAt.UTC(),
	})
}

// LogSink writes events to the log. Used when no broker is configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(ctx context.Context, event domain.OrderEvent) error {
	s.logger.Info("order event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("order_id", event.OrderID),
		zap.String("status", string(event.Status)),
	)
	return nil
}

func (s *LogSink) Close() error { return nil }

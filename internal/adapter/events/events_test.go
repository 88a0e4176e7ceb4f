package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
)

type mockSink struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
	closed atomic.Bool
}

func (m *mockSink) Send(ctx context.Context, event domain.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockSink) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type countingRecorder struct {
	delivered, failed, dropped atomic.Int32
}

func (c *countingRecorder) EventDelivered(string) { c.delivered.Add(1) }
func (c *countingRecorder) EventFailed(string)    { c.failed.Add(1) }
func (c *countingRecorder) EventDropped(string)   { c.dropped.Add(1) }

func testEvent(id string) domain.OrderEvent {
	return domain.OrderEvent{
		ID:          id,
		Type:        domain.EventOrderPlaced,
		OrderID:     "order-" + id,
		CustomerID:  "cust-1",
		Status:      domain.OrderStatusPending,
		TotalAmount: decimal.RequireFromString("35"),
		ItemCount:   3,
		OccurredAt:  time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestDispatcher_DeliversAndDrains(t *testing.T) {
	sink := &mockSink{}
	rec := &countingRecorder{}
	d := NewDispatcher(sink, 4, 100, zap.NewNop(), rec)
	d.Start()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.Publish(context.Background(), testEvent(string(rune('a'+i%26))))
		}(i)
	}
	wg.Wait()

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 50, sink.count())
	assert.Equal(t, int32(50), rec.delivered.Load())
	assert.True(t, sink.closed.Load())
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sink := &mockSink{}
	rec := &countingRecorder{}
	// workers not started, so nothing drains the queue
	d := NewDispatcher(sink, 1, 1, zap.NewNop(), rec)

	d.Publish(context.Background(), testEvent("1"))
	d.Publish(context.Background(), testEvent("2"))
	assert.Equal(t, int32(1), rec.dropped.Load())

	d.Start()
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 1, sink.count())
}

func TestDispatcher_PublishAfterClose(t *testing.T) {
	rec := &countingRecorder{}
	d := NewDispatcher(&mockSink{}, 1, 10, zap.NewNop(), rec)
	d.Start()
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	assert.NotPanics(t, func() { d.Publish(context.Background(), testEvent("late")) })
	assert.Equal(t, int32(1), rec.dropped.Load())
}

func TestDispatcher_SinkFailureIsCounted(t *testing.T) {
	sink := &mockSink{err: errors.New("broker down")}
	rec := &countingRecorder{}
	d := NewDispatcher(sink, 2, 10, zap.NewNop(), rec)
	d.Start()

	d.Publish(context.Background(), testEvent("1"))
	d.Publish(context.Background(), testEvent("2"))
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, int32(2), rec.failed.Load())
	assert.Equal(t, int32(0), rec.delivered.Load())
}

type mockWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error { return nil }

func TestKafkaSink_Send(t *testing.T) {
	w := &mockWriter{}
	sink := newKafkaSink(w, BreakerSettings{}, zap.NewNop())

	require.NoError(t, sink.Send(context.Background(), testEvent("e1")))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "order-e1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "order.placed", string(msg.Headers[0].Value))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "e1", body["id"])
	assert.Equal(t, "35.00", body["total_amount"])
	assert.Equal(t, "pending", body["status"])
}

func TestKafkaSink_BreakerOpens(t *testing.T) {
	w := &mockWriter{err: errors.New("connection refused")}
	sink := newKafkaSink(w, BreakerSettings{MaxFailures: 3, OpenTimeout: time.Minute}, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := sink.Send(ctx, testEvent("e"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	assert.Equal(t, gobreaker.StateOpen, sink.State())

	err := sink.Send(ctx, testEvent("e"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestLogSink(t *testing.T) {
	sink := NewLogSink(zap.NewNop())
	assert.NoError(t, sink.Send(context.Background(), testEvent("e")))
	assert.NoError(t, sink.Close())
}

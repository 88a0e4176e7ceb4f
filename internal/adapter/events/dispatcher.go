package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Recorder observes delivery outcomes.
type Recorder interface {
	EventDelivered(eventType string)
	EventFailed(eventType string)
	EventDropped(eventType string)
}

type nopRecorder struct{}

func (nopRecorder) EventDelivered(string) {}
func (nopRecorder) EventFailed(string)    {}
func (nopRecorder) EventDropped(string)   {}

// Dispatcher fans events out to a Sink from a fixed worker pool. Publish
// never blocks: when the queue is full the event is dropped and counted.
type Dispatcher struct {
	queue       chan domain.OrderEvent
	sink        Sink
	workers     int
	sendTimeout time.Duration
	logger      *zap.Logger
	recorder    Recorder

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sink Sink, workers, queueSize int, logger *zap.Logger, recorder Recorder) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Dispatcher{
		queue:       make(chan domain.OrderEvent, queueSize),
		sink:        sink,
		workers:     workers,
		sendTimeout: 5 * time.Second,
		logger:      logger,
		recorder:    recorder,
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.workerLoop(id)
		}(i)
	}
	d.logger.Info("event dispatcher started", zap.Int("workers", d.workers))
}

func (d *Dispatcher) Publish(ctx context.Context, event domain.OrderEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "dispatcher closed")
		return
	}
	select {
	case d.queue <- event:
	default:
		d.drop(event, "queue full")
	}
}

// Close stops accepting events and waits for queued ones to be delivered or
// for ctx to expire, then closes the sink.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("event dispatcher drained")
	case <-ctx.Done():
		d.logger.Warn("event dispatcher stopped before draining", zap.Int("pending", len(d.queue)))
	}
	return d.sink.Close()
}

func (d *Dispatcher) workerLoop(id int) {
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)

		if err := d.sink.Send(ctx, event); err != nil {
			d.recorder.EventFailed(string(event.Type))
			d.logger.Error("failed to deliver order event",
				zap.Int("worker", id),
				zap.String("event_id", event.ID),
				zap.String("order_id", event.OrderID),
				zap.Error(err),
			)
		} else {
			d.recorder.EventDelivered(string(event.Type))
		}

		cancel()
	}
}

func (d *Dispatcher) drop(event domain.OrderEvent, reason string) {
	d.recorder.EventDropped(string(event.Type))
	d.logger.Warn("order event dropped",
		zap.String("reason", reason),
		zap.String("event_id", event.ID),
		zap.String("order_id", event.OrderID),
	)
}

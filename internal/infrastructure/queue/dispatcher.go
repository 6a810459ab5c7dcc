package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/pureline/storefront-api/internal/core/domain"
	"github.com/pureline/storefront-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrStopped is returned when an order is published after Stop.
var ErrStopped = errors.New("dispatcher stopped")

type job struct {
	order *domain.Order
	span  trace.SpanContext
}

// Dispatcher publishes order-confirmed events off the request path. Orders
// are sharded by user id so one customer's events leave in commit order.
type Dispatcher struct {
	workers []chan job
	next    ports.OrderEventPublisher
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

var _ ports.OrderEventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers in front
// of next. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, next ports.OrderEventPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan job, numWorkers),
		next:    next,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, channelBuffer)
	}
	return d
}

// Start launches the worker goroutines. They run until Stop drains them.
func (d *Dispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// PublishOrderConfirmed enqueues the order for its shard. It blocks only while
// the shard buffer is full, and gives up when ctx ends.
func (d *Dispatcher) PublishOrderConfirmed(ctx context.Context, order *domain.Order) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrStopped
	}

	j := job{order: order, span: trace.SpanContextFromContext(ctx)}
	select {
	case d.workers[d.shardIndex(order.UserID)] <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop refuses new orders and waits for queued ones to be published or for
// ctx to end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(id int, ch <-chan job) {
	defer d.wg.Done()
	for j := range ch {
		// The request context is gone by now; keep only its trace.
		ctx := context.Background()
		if j.span.IsValid() {
			ctx = trace.ContextWithRemoteSpanContext(ctx, j.span)
		}
		if err := d.next.PublishOrderConfirmed(ctx, j.order); err != nil {
			d.log.Error().Err(err).
				Str("order_id", j.order.ID).
				Int("worker_id", id).
				Msg("order event publish failed")
		}
	}
}

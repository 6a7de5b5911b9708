package filter

import (
	"context"
	"log/slog"
	"sync"

	"firestige.xyz/faultline/internal/core"
	"firestige.xyz/faultline/internal/metrics"
)

// Queue is the FIFO event queue shared by a proxy's chains: any number of
// event filters publish, one dispatcher consumes. Publish blocks when the
// queue is full so that events are never dropped or reordered.
type Queue struct {
	ch   chan core.Event
	done chan struct{}
	once sync.Once
}

// NewQueue creates a queue holding up to size buffered events.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1024
	}
	return &Queue{
		ch:   make(chan core.Event, size),
		done: make(chan struct{}),
	}
}

// Publish appends an event, blocking while the queue is full. It returns
// ErrQueueClosed once the queue has been closed.
func (q *Queue) Publish(event core.Event) error {
	select {
	case <-q.done:
		return core.ErrQueueClosed
	default:
	}
	select {
	case q.ch <- event:
		metrics.EventsPublishedTotal.WithLabelValues(event.Type.String()).Inc()
		return nil
	case <-q.done:
		return core.ErrQueueClosed
	}
}

// Close unblocks publishers and stops the dispatcher after the events
// already queued have been delivered.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
}

// Dispatcher drains the queue and delivers each event to every registered
// filter in registration order, fully processing one event before
// dequeuing the next.
type Dispatcher struct {
	queue *Queue

	mu      sync.Mutex
	filters []Filter
}

// NewDispatcher creates a dispatcher draining queue.
func NewDispatcher(queue *Queue) *Dispatcher {
	return &Dispatcher{queue: queue}
}

// Register appends a filter to the delivery list. Registration order is
// delivery order.
func (d *Dispatcher) Register(f Filter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.filters = append(d.filters, f)
}

// Run consumes events until ctx is cancelled or the queue is closed and
// drained. It is intended to run on its own goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.queue.ch:
			d.dispatch(event)
		case <-d.queue.done:
			// Drain what was queued before the close.
			for {
				select {
				case event := <-d.queue.ch:
					d.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) dispatch(event core.Event) {
	d.mu.Lock()
	filters := make([]Filter, len(d.filters))
	copy(filters, d.filters)
	d.mu.Unlock()

	slog.Debug("dispatching event", "event", event.Type.String(), "filters", len(filters))
	for _, f := range filters {
		f.HandleEvent(event)
	}
	metrics.EventsDispatchedTotal.WithLabelValues(event.Type.String()).Inc()
}

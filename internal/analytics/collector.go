package analytics

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/webpage-search/pkg/kafka"
)

// Publisher writes events to the analytics topic in one call.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// maxBatch caps how many buffered events go into one publish.
const maxBatch = 100

// Collector buffers events and publishes them from a single background
// goroutine so that Track never blocks the search path. Events already
// waiting in the buffer are sent together. The goroutine runs until Close,
// so events tracked while a server drains are still published.
type Collector struct {
	producer  Publisher
	eventCh   chan kafka.Event
	logger    *slog.Logger
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
	dropped   int64
}

func NewCollector(producer Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan kafka.Event, bufferSize),
		logger:   slog.Default().With("component", "analytics-collector"),
		done:     make(chan struct{}),
	}
}

// Start launches the publishing goroutine. Values of ctx reach the
// producer but its cancellation does not stop publishing; Close does.
func (c *Collector) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		go c.run(context.WithoutCancel(ctx))
		c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
	})
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	for event := range c.eventCh {
		c.publish(ctx, c.gather(event))
	}
}

// Track queues a search event keyed by its query.
func (c *Collector) Track(event SearchEvent) {
	c.enqueue(kafka.Event{Key: event.Query, Type: string(event.Type), Value: event})
}

// TrackCorpus queues a corpus load event.
func (c *Collector) TrackCorpus(event CorpusEvent) {
	c.enqueue(kafka.Event{Key: string(EventCorpus), Type: string(EventCorpus), Value: event})
}

// enqueue drops the event when the buffer is full or the collector is
// closed.
func (c *Collector) enqueue(event kafka.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.dropped++
		c.logger.Debug("analytics event dropped (collector closed)", "key", event.Key)
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.dropped++
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Dropped returns how many events were discarded because the buffer was
// full or the collector was closed.
func (c *Collector) Dropped() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Close stops accepting events, publishes what is buffered and waits for
// the background goroutine. Track calls after Close are dropped.
func (c *Collector) Close() {
	c.closeOnce.Do(func() {
		c.Start(context.Background())
		c.mu.Lock()
		c.closed = true
		close(c.eventCh)
		c.mu.Unlock()
		<-c.done
	})
}

// gather appends whatever is already buffered to first, up to maxBatch.
func (c *Collector) gather(first kafka.Event) []kafka.Event {
	batch := []kafka.Event{first}
	for len(batch) < maxBatch {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return batch
			}
			batch = append(batch, event)
		default:
			return batch
		}
	}
	return batch
}

func (c *Collector) publish(ctx context.Context, batch []kafka.Event) {
	if err := c.producer.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("failed to publish analytics events", "count", len(batch), "error", err)
	}
}

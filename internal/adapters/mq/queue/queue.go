// Package queue holds messages that arrive outside the OSC socket until the listener drains them.
//
// Producers never block: a full inbox rejects the message. The listener is
// the only consumer and polls with TryDequeue between socket reads, so
// queued queries run through the same serial pipeline as OSC ones.
package queue

import (
	"context"
	"sync"

	"github.com/okian/audioquery/internal/domain/model"
	"github.com/okian/audioquery/pkg/metrics"
)

const defaultCapacity = 64

// Queue provides non-blocking enqueue and dequeue.
type Queue interface {
	// Enqueue adds a message, failing with ErrFull or ErrClosed instead of blocking.
	Enqueue(ctx context.Context, m model.Message) error

	// TryDequeue returns the oldest message, or false when the inbox is empty.
	TryDequeue() (model.Message, bool)

	// Len returns the current number of queued messages.
	Len() int

	// Close rejects further messages. Queued ones can still be dequeued.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	messages chan model.Message
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}

	for _, opt := range opts {
		opt(q)
	}

	q.messages = make(chan model.Message, q.capacity)

	metrics.UpdateInboxCapacity(q.capacity)
	metrics.UpdateInboxSize(0)

	return q
}

// Enqueue adds a message to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, m model.Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordInboxReject("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordInboxReject("context_cancelled")
		return ErrCanceled
	}

	select {
	case q.messages <- m:
		metrics.UpdateInboxSize(len(q.messages))
		return nil
	default:
		metrics.RecordInboxReject("full")
		metrics.RecordErrorByComponent("inbox", "full")
		return ErrFull
	}
}

// TryDequeue returns the oldest queued message without blocking.
func (q *InMemoryQueue) TryDequeue() (model.Message, bool) {
	select {
	case m := <-q.messages:
		metrics.UpdateInboxSize(len(q.messages))
		return m, true
	default:
		return model.Message{}, false
	}
}

// Len returns the current number of queued messages.
func (q *InMemoryQueue) Len() int {
	return len(q.messages)
}

// Close stops accepting messages.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

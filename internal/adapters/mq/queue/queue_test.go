package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/audioquery/internal/domain/model"
)

func queryMessage(keyword string) model.Message {
	return model.Message{Path: "/query", Args: []any{keyword}, Source: "ws"}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if _, ok := q.TryDequeue(); ok {
		t.Error("expected empty queue to yield nothing")
	}

	if err := q.Enqueue(ctx, queryMessage("rain")); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	m, ok := q.TryDequeue()
	if !ok || m.Args[0] != "rain" {
		t.Errorf("expected rain, got %v (ok=%v)", m.Args, ok)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for _, kw := range []string{"rain", "wind"} {
		if err := q.Enqueue(ctx, queryMessage(kw)); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}

	if err := q.Enqueue(ctx, queryMessage("fire")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := q.Enqueue(ctx, queryMessage(fmt.Sprintf("kw%d", i))); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	for i := 0; i < 5; i++ {
		m, ok := q.TryDequeue()
		if !ok {
			t.Fatalf("dequeue %d: empty", i)
		}
		if want := fmt.Sprintf("kw%d", i); m.Args[0] != want {
			t.Errorf("dequeue %d: got %v, want %s", i, m.Args[0], want)
		}
	}
}

func TestInMemoryQueue_ConcurrentProducers(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx := context.Background()
	const producers, perProducer = 10, 100

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				if err := q.Enqueue(ctx, queryMessage(fmt.Sprintf("p%d_%d", id, j))); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	seen := 0
	for {
		if _, ok := q.TryDequeue(); !ok {
			break
		}
		seen++
	}
	if seen != producers*perProducer {
		t.Errorf("expected %d messages, got %d", producers*perProducer, seen)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if err := q.Enqueue(ctx, queryMessage("rain")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	if err := q.Enqueue(ctx, queryMessage("wind")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// queued messages survive Close
	if m, ok := q.TryDequeue(); !ok || m.Args[0] != "rain" {
		t.Errorf("expected queued message after close, got %v (ok=%v)", m.Args, ok)
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}

func TestInMemoryQueue_CanceledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, queryMessage("rain")); !errors.Is(err, ErrCanceled) {
		t.Errorf("expected ErrCanceled, got %v", err)
	}
}

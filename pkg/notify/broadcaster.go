package notify

import (
	"context"
	"sync"
)

// Subscription receives published values until it is closed.
type Subscription[T any] struct {
	ch     chan T
	closed bool
	mu     sync.RWMutex
}

func newSubscription[T any](bufferSize int) *Subscription[T] {
	return &Subscription[T]{ch: make(chan T, bufferSize)}
}

// C returns the receive channel. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close ends the subscription. It is idempotent.
func (s *Subscription[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
}

func (s *Subscription[T]) send(v T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- v:
		return true
	default:
		return false
	}
}

// Broadcaster fans values out to subscribers without blocking the
// publisher. A subscriber whose buffer is full misses the value and is
// dropped. All methods are safe for concurrent use.
type Broadcaster[T any] struct {
	subscribers map[*Subscription[T]]struct{}
	bufferSize  int
	closed      bool
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
}

// NewBroadcaster creates a broadcaster with per-subscriber buffers of
// bufferSize (at least 1).
func NewBroadcaster[T any](bufferSize int) *Broadcaster[T] {
	return &Broadcaster[T]{
		subscribers: make(map[*Subscription[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
	}
}

// Subscribe registers a subscription that ends when ctx is cancelled or the
// broadcaster is closed.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscription[T](b.bufferSize)
	if b.closed {
		sub.Close()
		return sub
	}
	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			<-ctx.Done()
			b.unsubscribe(sub)
		}()
	}
	return sub
}

// Publish delivers v to every subscriber with room in its buffer and
// reports how many received it. A nil broadcaster publishes nothing.
func (b *Broadcaster[T]) Publish(v T) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0
	}

	delivered := 0
	for sub := range b.subscribers {
		if sub.send(v) {
			delivered++
			continue
		}
		go b.unsubscribe(sub)
	}
	return delivered
}

// Len returns the number of active subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close ends every subscription. Later subscriptions are returned closed.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for sub := range b.subscribers {
		sub.Close()
	}
	clear(b.subscribers)
	b.mu.Unlock()

	b.cleanupWg.Wait()
}

func (b *Broadcaster[T]) unsubscribe(sub *Subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, sub)
	sub.Close()
}

package dog

import (
	"sync"
	"sync/atomic"
)

// DefaultStreamBuffer is the channel capacity of a new subscription.
const DefaultStreamBuffer = 16

// Stream delivers samples of one subscribed topic. The transport's read pump
// never blocks on a slow consumer: when the buffer is full the newest sample
// is dropped and counted. C is closed on unsubscribe or shutdown.
type Stream[T any] struct {
	topic   string
	c       chan T
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

func newStream[T any](topic string, buf int) *Stream[T] {
	if buf <= 0 {
		buf = DefaultStreamBuffer
	}
	return &Stream[T]{topic: topic, c: make(chan T, buf)}
}

// C returns the receive channel.
func (s *Stream[T]) C() <-chan T { return s.c }

// Topic returns the subscribed topic name.
func (s *Stream[T]) Topic() string { return s.topic }

// Dropped returns how many samples were discarded because the buffer was full.
func (s *Stream[T]) Dropped() uint64 { return s.dropped.Load() }

func (s *Stream[T]) push(v T) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.c <- v:
	default:
		s.dropped.Add(1)
	}
}

func (s *Stream[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.c)
	}
}

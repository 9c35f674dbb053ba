// Package mailbox provides a single-slot, latest-wins hand-off between one
// producer goroutine and one consumer goroutine.
package mailbox

import "sync"

// Slot holds at most one unconsumed value. Send overwrites it and
// TryReceive takes it. The freshness check and the clear happen in the
// same critical section, so a value is delivered at most once and a value
// published after a receive is never lost.
//
// The zero value is an empty slot ready for use.
type Slot[T any] struct {
	mu    sync.Mutex
	value T
	fresh bool

	sent    uint64
	dropped uint64
}

// Send publishes v, replacing any value not yet received.
func (s *Slot[T]) Send(v T) {
	s.mu.Lock()
	if s.fresh {
		s.dropped++
	}
	s.value = v
	s.fresh = true
	s.sent++
	s.mu.Unlock()
}

// TryReceive returns the pending value and marks the slot consumed.
// It reports false when nothing was published since the last receive.
func (s *Slot[T]) TryReceive() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fresh {
		var zero T
		return zero, false
	}
	v := s.value
	var zero T
	s.value = zero
	s.fresh = false
	return v, true
}

// Pending reports whether a published value is still waiting for a
// receiver. Producers use it to skip work that would only be overwritten.
func (s *Slot[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fresh
}

// Stats returns the number of values sent and the number overwritten
// before being received.
func (s *Slot[T]) Stats() (sent, dropped uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent, s.dropped
}

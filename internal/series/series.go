// Package series holds the bounded buffers the simulation records into.
//
// Every buffer is safe for one writer and any number of readers; reads
// return copies so callers never observe later writes.
package series

import "sync"

// Point is one time-stamped scalar sample.
type Point struct {
	T float64
	V float64
}

// Vec2 is a planar point, used for bob traces and phase-space samples.
type Vec2 struct {
	X float64
	Y float64
}

// Bounded is a fixed-capacity FIFO. Pushing onto a full buffer evicts the
// oldest element.
type Bounded[T any] struct {
	mu    sync.RWMutex
	buf   []T
	head  int
	size  int
	limit int
}

// NewBounded panics if capacity is not positive.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity <= 0 {
		panic("series: capacity must be positive")
	}
	return &Bounded[T]{limit: capacity}
}

// Push appends v, evicting the oldest element when full. The backing
// array grows on demand up to capacity.
func (b *Bounded[T]) Push(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.buf) < b.limit {
		b.buf = append(b.buf, v)
		b.size++
		return
	}
	b.buf[b.head] = v
	b.head = (b.head + 1) % b.limit
}

// Snapshot returns the contents oldest first.
func (b *Bounded[T]) Snapshot() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]T, b.size)
	n := copy(out, b.buf[b.head:b.size])
	copy(out[n:], b.buf[:b.head])
	return out
}

// Last returns the newest element.
func (b *Bounded[T]) Last() (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var zero T
	if b.size == 0 {
		return zero, false
	}
	return b.buf[(b.head-1+b.size)%b.size], true
}

func (b *Bounded[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

func (b *Bounded[T]) Cap() int { return b.limit }

// Clear drops every element but keeps the capacity.
func (b *Bounded[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = b.buf[:0]
	b.head = 0
	b.size = 0
}

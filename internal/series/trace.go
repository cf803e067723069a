package series

import "sync"

// TraceBuffer collects points for an incremental consumer. Drain hands each
// point out at most once. A buffer with a positive limit drops its oldest
// points once full; the zero value is unbounded.
type TraceBuffer struct {
	mu      sync.Mutex
	limit   int
	pending []Vec2
}

// NewTraceBuffer returns a buffer holding at most limit undrained points.
func NewTraceBuffer(limit int) *TraceBuffer {
	return &TraceBuffer{limit: limit}
}

func (t *TraceBuffer) Push(p Vec2) {
	t.mu.Lock()
	if t.limit > 0 && len(t.pending) >= t.limit {
		t.pending = append(t.pending[len(t.pending)-t.limit+1:], p)
	} else {
		t.pending = append(t.pending, p)
	}
	t.mu.Unlock()
}

// Drain returns the pending points and empties the buffer.
func (t *TraceBuffer) Drain() []Vec2 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.pending
	t.pending = nil
	return out
}

func (t *TraceBuffer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *TraceBuffer) Clear() {
	t.mu.Lock()
	t.pending = nil
	t.mu.Unlock()
}

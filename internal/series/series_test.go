package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedEvictsOldest(t *testing.T) {
	b := NewBounded[Point](3)

	for i := 0; i < 5; i++ {
		b.Push(Point{T: float64(i), V: float64(i * 10)})
		assert.LessOrEqual(t, b.Len(), b.Cap())
	}

	assert.Equal(t, []Point{{2, 20}, {3, 30}, {4, 40}}, b.Snapshot())

	last, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, Point{4, 40}, last)
}

func TestBoundedSnapshotIsCopy(t *testing.T) {
	b := NewBounded[Vec2](4)
	b.Push(Vec2{1, 1})

	snap := b.Snapshot()
	snap[0].X = 99
	b.Push(Vec2{2, 2})

	assert.Equal(t, []Vec2{{1, 1}, {2, 2}}, b.Snapshot())
	assert.Len(t, snap, 1)
}

func TestBoundedClear(t *testing.T) {
	b := NewBounded[float64](2)
	b.Push(1)
	b.Push(2)
	b.Push(3)

	b.Clear()
	_, ok := b.Last()
	assert.False(t, ok)
	assert.Empty(t, b.Snapshot())

	b.Push(4)
	assert.Equal(t, []float64{4}, b.Snapshot())
	assert.Equal(t, 2, b.Cap())
}

func TestBoundedRejectsZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { NewBounded[int](0) })
}

func TestTraceBufferDrainsOnce(t *testing.T) {
	var tb TraceBuffer
	tb.Push(Vec2{0, 1})
	tb.Push(Vec2{0, 2})

	assert.Equal(t, 2, tb.Len())
	assert.Equal(t, []Vec2{{0, 1}, {0, 2}}, tb.Drain())
	assert.Empty(t, tb.Drain())

	tb.Push(Vec2{3, 3})
	tb.Clear()
	assert.Empty(t, tb.Drain())
}

func TestTraceBufferDropsOldestAtLimit(t *testing.T) {
	tb := NewTraceBuffer(3)
	for i := 0; i < 10; i++ {
		tb.Push(Vec2{float64(i), 0})
		assert.LessOrEqual(t, tb.Len(), 3)
	}

	assert.Equal(t, []Vec2{{7, 0}, {8, 0}, {9, 0}}, tb.Drain())
	tb.Push(Vec2{10, 0})
	assert.Equal(t, []Vec2{{10, 0}}, tb.Drain())
}

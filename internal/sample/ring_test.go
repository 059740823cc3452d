package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingPushWithinCapacity(t *testing.T) {
	r := NewRing(5)

	r.Push(10)
	r.Push(20)
	r.Push(30)

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 5, r.Cap())
	assert.Equal(t, []uint16{10, 20, 30}, r.Snapshot())
}

func TestRingEvictsOldestOnOverflow(t *testing.T) {
	r := NewRing(3)

	for v := uint16(1); v <= 7; v++ {
		r.Push(v)
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []uint16{5, 6, 7}, r.Snapshot(), "retained samples are the most recent, in arrival order")
}

func TestRingNeverExceedsCapacity(t *testing.T) {
	// Capacity invariant holds across any push sequence, including ones
	// that wrap the ring several times over.
	r := NewRing(10)
	for v := 0; v < 1000; v++ {
		r.Push(uint16(v))
		require.LessOrEqual(t, r.Len(), r.Cap())
	}

	want := make([]uint16, 0, 10)
	for v := 990; v < 1000; v++ {
		want = append(want, uint16(v))
	}
	assert.Equal(t, want, r.Snapshot())
}

func TestRingSnapshotIsACopy(t *testing.T) {
	r := NewRing(4)
	r.Push(1)
	r.Push(2)

	snap := r.Snapshot()
	snap[0] = 99

	assert.Equal(t, []uint16{1, 2}, r.Snapshot())
}

func TestRingReset(t *testing.T) {
	r := NewRing(4)
	r.Push(1)
	r.Push(2)

	r.Reset()

	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Snapshot())

	r.Push(3)
	assert.Equal(t, []uint16{3}, r.Snapshot())
}

func TestNewRingRejectsNonPositiveCapacity(t *testing.T) {
	assert.Panics(t, func() { NewRing(0) })
	assert.Panics(t, func() { NewRing(-1) })
}

package sample

import "sync"

// DefaultCapacity is the per-channel rolling window size used when a
// Buffer is created without an explicit capacity.
const DefaultCapacity = 100

// Buffer is the shared store between the ingest domain (BLE notification
// callbacks, bursty, up to ~200 Hz) and the publish domain (fixed-period
// snapshot ticks). Channels are created lazily on first push. Every
// operation runs under a single mutex so a drain observes either all
// samples of a concurrent push or none of them.
//
// Push holds the lock only for a ring append, drains only for a copy of
// at most capacity samples per channel, so neither domain can stall the
// other for longer than the ~5 ms between samples at full rate.
type Buffer struct {
	mu       sync.Mutex
	channels map[int]*Ring
	capacity int
}

// NewBuffer creates a Buffer whose channels each retain at most capacity
// samples between publisher ticks. capacity <= 0 selects DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		// Reserve room for the three known biosignal channels.
		channels: make(map[int]*Ring, 3),
		capacity: capacity,
	}
}

// Push appends v to the channel's rolling window, creating the channel on
// first use. Never blocks beyond the mutex hold of a concurrent drain.
func (b *Buffer) Push(channel int, v uint16) {
	b.mu.Lock()
	r, ok := b.channels[channel]
	if !ok {
		r = NewRing(b.capacity)
		b.channels[channel] = r
	}
	r.Push(v)
	b.mu.Unlock()
}

// DrainAll returns a copy of every non-empty channel's current contents,
// oldest first. It is a read-only inspection: nothing is cleared.
func (b *Buffer) DrainAll() map[int][]uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[int][]uint16, len(b.channels))
	for id, r := range b.channels {
		if r.Len() > 0 {
			out[id] = r.Snapshot()
		}
	}
	return out
}

// DrainAndClearAll snapshots and resets every non-empty channel under a
// single lock hold. A concurrent push lands either in the returned
// snapshot or in the ring for the next drain, never in a reset ring, so
// no sample is ever discarded unobserved. Channels that are empty this
// round are left untouched. This is the publisher's tick primitive.
func (b *Buffer) DrainAndClearAll() map[int][]uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[int][]uint16, len(b.channels))
	for id, r := range b.channels {
		if r.Len() > 0 {
			out[id] = r.Snapshot()
			r.Reset()
		}
	}
	return out
}

// Clear resets the given channels, keeping their rings allocated.
func (b *Buffer) Clear(channels ...int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range channels {
		if r, ok := b.channels[id]; ok {
			r.Reset()
		}
	}
}

// ClearAll removes every channel. Used on session teardown.
func (b *Buffer) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels = make(map[int]*Ring, 3)
}

// Len returns the number of samples currently buffered for a channel.
func (b *Buffer) Len(channel int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.channels[channel]; ok {
		return r.Len()
	}
	return 0
}

// Package sample holds the per-channel rolling windows that decouple the
// sensor's notification rate from the consumer's refresh rate, and the
// demultiplexer that routes one decoded telemetry frame into them.
package sample

// Ring is a fixed-capacity rolling window of uint16 samples. Appending to
// a full ring evicts the oldest sample; relative order of retained
// samples is preserved. Ring is not safe for concurrent use on its own;
// Buffer provides the locking discipline for the ingest path.
type Ring struct {
	buf   []uint16
	head  int // index of oldest sample
	count int
}

// NewRing creates a ring holding at most capacity samples.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic("sample: ring capacity must be > 0")
	}
	return &Ring{buf: make([]uint16, capacity)}
}

// Push appends v, evicting the oldest sample when the ring is full.
func (r *Ring) Push(v uint16) {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = v
		r.count++
		return
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}

// Len returns the number of samples currently held.
func (r *Ring) Len() int {
	return r.count
}

// Cap returns the maximum number of samples the ring can hold.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Snapshot returns the retained samples, oldest first, as a fresh slice.
func (r *Ring) Snapshot() []uint16 {
	if r.count == 0 {
		return nil
	}
	out := make([]uint16, r.count)
	n := copy(out, r.buf[r.head:min(r.head+r.count, len(r.buf))])
	copy(out[n:], r.buf[:r.count-n])
	return out
}

// Reset drops all retained samples.
func (r *Ring) Reset() {
	r.head = 0
	r.count = 0
}

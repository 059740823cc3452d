package stream

// RingChannel is a bounded channel with drop-oldest overflow semantics.
// The publisher must never block on a slow consumer: when the buffer is
// full the oldest undelivered snapshot is discarded so the consumer
// always catches up to recent data instead of draining a backlog.
type RingChannel[T any] struct {
	ch chan T
}

// NewRingChannel creates a RingChannel with the given capacity.
func NewRingChannel[T any](capacity int) *RingChannel[T] {
	if capacity <= 0 {
		panic("stream: ring channel capacity must be > 0")
	}
	return &RingChannel[T]{ch: make(chan T, capacity)}
}

// C returns the receive side. Consumers range over it until closed.
func (rc *RingChannel[T]) C() <-chan T {
	return rc.ch
}

// Send delivers v, discarding the oldest buffered element if the channel
// is full. It never blocks indefinitely.
func (rc *RingChannel[T]) Send(v T) {
	select {
	case rc.ch <- v:
	default:
		select {
		case <-rc.ch: // drop oldest
		default:
		}
		rc.ch <- v
	}
}

// TryReceive attempts a non-blocking receive.
func (rc *RingChannel[T]) TryReceive() (v T, ok bool) {
	select {
	case v, ok = <-rc.ch:
		return v, ok
	default:
		var zero T
		return zero, false
	}
}

// Len returns the number of buffered elements.
func (rc *RingChannel[T]) Len() int {
	return len(rc.ch)
}

// Cap returns the channel capacity.
func (rc *RingChannel[T]) Cap() int {
	return cap(rc.ch)
}

// Close closes the channel. Send panics after Close; the publisher only
// closes once its loop has exited.
func (rc *RingChannel[T]) Close() {
	close(rc.ch)
}

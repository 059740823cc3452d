// Package stream publishes periodic snapshots of the buffered biosignal
// channels, decoupling the sensor's ~200 Hz ingest rate from the
// consumer's ~40 Hz refresh rate.
package stream

import (
	"context"
	"sort"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"

	"github.com/biotel/biotel/internal/sample"
)

// Snapshot is the consumer-visible state: for every channel that has
// ever produced data, its rolling window of recent samples, oldest
// first. Slices in a Snapshot are private copies and safe to retain.
type Snapshot map[int][]uint16

// Options configures a Publisher.
type Options struct {
	// Period is the publish interval. Zero selects 25 ms (~40 Hz).
	Period time.Duration
	// WindowSize bounds each published channel window. This is
	// independent of the ingest buffer's own capacity: the buffer bound
	// protects memory between ticks, the window bound protects
	// rendering cost. Zero selects 100.
	WindowSize int
	// QueueDepth is the snapshot channel capacity. Zero selects 8.
	QueueDepth int
}

// DefaultOptions returns the publisher defaults.
func DefaultOptions() *Options {
	return &Options{
		Period:     25 * time.Millisecond,
		WindowSize: 100,
		QueueDepth: 8,
	}
}

// Publisher drains the shared sample buffer on a fixed period, merges
// fresh samples onto the previously published windows and emits the
// result as an immutable Snapshot. Ticks with no new data publish
// nothing.
type Publisher struct {
	source  *sample.Buffer
	period  time.Duration
	maxSize int
	logger  *logrus.Logger

	// published holds the latest visible window per channel. Lock-free
	// reads let consumers poll Window without touching the publish loop.
	published *hashmap.Map[int, []uint16]
	out       *RingChannel[Snapshot]
}

// NewPublisher creates a Publisher over the given sample buffer.
func NewPublisher(source *sample.Buffer, opts *Options, logger *logrus.Logger) *Publisher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = logrus.New()
	}
	period := opts.Period
	if period <= 0 {
		period = 25 * time.Millisecond
	}
	maxSize := opts.WindowSize
	if maxSize <= 0 {
		maxSize = 100
	}
	depth := opts.QueueDepth
	if depth <= 0 {
		depth = 8
	}
	return &Publisher{
		source:    source,
		period:    period,
		maxSize:   maxSize,
		logger:    logger,
		published: hashmap.New[int, []uint16](),
		out:       NewRingChannel[Snapshot](depth),
	}
}

// Snapshots returns the snapshot stream. The channel is closed when Run
// returns; a slow consumer loses old snapshots, never blocks the
// publisher.
func (p *Publisher) Snapshots() <-chan Snapshot {
	return p.out.C()
}

// Window returns a copy of the latest published window for a channel,
// or nil if the channel has never produced data.
func (p *Publisher) Window(channel int) []uint16 {
	w, ok := p.published.Get(channel)
	if !ok {
		return nil
	}
	out := make([]uint16, len(w))
	copy(out, w)
	return out
}

// Channels returns the ids of all channels published so far, ascending.
func (p *Publisher) Channels() []int {
	ids := make([]int, 0, 3)
	p.published.Range(func(id int, _ []uint16) bool {
		ids = append(ids, id)
		return true
	})
	sort.Ints(ids)
	return ids
}

// Run drives the publish loop until ctx is cancelled, then closes the
// snapshot channel. Intended to run on its own goroutine.
func (p *Publisher) Run(ctx context.Context) {
	p.logger.WithField("period", p.period).Debug("Snapshot publisher started")
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	defer p.out.Close()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Snapshot publisher stopped")
			return
		case <-ticker.C:
			p.Tick()
		}
	}
}

// Tick performs one drain-merge-publish cycle. Exposed so tests and
// callers with their own scheduling can drive the publisher directly.
//
// Draining and clearing happen under a single buffer lock hold, so a
// sample pushed concurrently with a tick is either in this tick's
// snapshot or still buffered for the next one; it is never lost.
func (p *Publisher) Tick() {
	fresh := p.source.DrainAndClearAll()
	if len(fresh) == 0 {
		return
	}

	for id, values := range fresh {
		prev, _ := p.published.Get(id)
		merged := make([]uint16, 0, len(prev)+len(values))
		merged = append(merged, prev...)
		merged = append(merged, values...)
		if len(merged) > p.maxSize {
			merged = merged[len(merged)-p.maxSize:]
		}
		p.published.Set(id, merged)
	}

	snapshot := make(Snapshot, p.published.Len())
	p.published.Range(func(id int, w []uint16) bool {
		out := make([]uint16, len(w))
		copy(out, w)
		snapshot[id] = out
		return true
	})
	p.out.Send(snapshot)
}

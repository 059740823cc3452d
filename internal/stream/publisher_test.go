package stream

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biotel/biotel/internal/sample"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPublisherTickMergesAndTruncates(t *testing.T) {
	// Previously published window of 80 samples plus 150 freshly
	// buffered samples (buffer capacity 100) must collapse to the last
	// 100 samples in arrival order.
	buf := sample.NewBuffer(100)
	p := NewPublisher(buf, &Options{WindowSize: 100}, newTestLogger())

	for v := uint16(0); v < 80; v++ {
		buf.Push(0, v)
	}
	p.Tick()
	require.Len(t, p.Window(0), 80)

	for v := uint16(1000); v < 1150; v++ {
		buf.Push(0, v)
	}
	p.Tick()

	window := p.Window(0)
	require.Len(t, window, 100)
	// Buffer capacity 100 retained samples 1050..1149; merged with the
	// previous 80 and truncated, the window is exactly those 100.
	want := make([]uint16, 0, 100)
	for v := uint16(1050); v < 1150; v++ {
		want = append(want, v)
	}
	assert.Equal(t, want, window)
}

func TestPublisherSkipsTickWithoutData(t *testing.T) {
	buf := sample.NewBuffer(100)
	p := NewPublisher(buf, nil, newTestLogger())

	p.Tick()

	_, ok := p.out.TryReceive()
	assert.False(t, ok, "empty tick must not publish")
	assert.Empty(t, p.Channels())
}

func TestPublisherClearsOnlyDrainedChannels(t *testing.T) {
	buf := sample.NewBuffer(100)
	p := NewPublisher(buf, nil, newTestLogger())

	buf.Push(0, 1)
	p.Tick()

	// Channel 1 produces data only on the second tick; channel 0 stays
	// quiet but its published window must survive unchanged.
	buf.Push(1, 2)
	p.Tick()

	snap, ok := p.out.TryReceive()
	require.True(t, ok)
	snap, ok = p.out.TryReceive() // second snapshot
	require.True(t, ok)
	assert.Equal(t, []uint16{1}, snap[0])
	assert.Equal(t, []uint16{2}, snap[1])

	assert.Equal(t, 0, buf.Len(0))
	assert.Equal(t, 0, buf.Len(1))
}

func TestPublisherTickNeverDropsConcurrentPushes(t *testing.T) {
	// Ingest keeps pushing while ticks run. Buffer capacity and window
	// size admit every sample, so any shortfall in the final window is
	// a sample lost between draining and clearing.
	const total = 20000
	buf := sample.NewBuffer(total)
	p := NewPublisher(buf, &Options{WindowSize: total}, newTestLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for v := 0; v < total; v++ {
			buf.Push(0, uint16(v))
		}
	}()

	ticking := true
	for ticking {
		p.Tick()
		select {
		case <-done:
			ticking = false
		default:
			time.Sleep(200 * time.Microsecond)
		}
	}
	p.Tick() // collect anything pushed after the last mid-run tick

	want := make([]uint16, total)
	for i := range want {
		want[i] = uint16(i)
	}
	assert.Equal(t, want, p.Window(0))
}

func TestPublisherSnapshotIsImmutable(t *testing.T) {
	buf := sample.NewBuffer(100)
	p := NewPublisher(buf, nil, newTestLogger())

	buf.Push(0, 7)
	p.Tick()

	snap, ok := p.out.TryReceive()
	require.True(t, ok)
	snap[0][0] = 99

	assert.Equal(t, []uint16{7}, p.Window(0), "mutating a snapshot must not affect published state")
}

func TestPublisherChannelsSorted(t *testing.T) {
	buf := sample.NewBuffer(100)
	p := NewPublisher(buf, nil, newTestLogger())

	buf.Push(2, 1)
	buf.Push(0, 1)
	buf.Push(1, 1)
	p.Tick()

	assert.Equal(t, []int{0, 1, 2}, p.Channels())
}

func TestPublisherRunPublishesPeriodically(t *testing.T) {
	buf := sample.NewBuffer(100)
	p := NewPublisher(buf, &Options{Period: 5 * time.Millisecond}, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	buf.Push(sample.ChannelECG, 123)

	select {
	case snap := <-p.Snapshots():
		assert.Equal(t, []uint16{123}, snap[sample.ChannelECG])
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published")
	}

	cancel()

	// Channel closes once the loop exits.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-p.Snapshots():
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("snapshot channel not closed after cancel")
		}
	}
}

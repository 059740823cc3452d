package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// ProgressPrinter shows a single-line phase indicator with elapsed time
// while the connection handshake runs. Single-use: Start at most once,
// Stop exactly once.
type ProgressPrinter struct {
	prefix    string
	phase     atomic.Value // string
	startTime time.Time
	stopChan  chan struct{}
	done      chan struct{}
	started   atomic.Bool
}

// NewProgressPrinter creates a progress printer with an initial phase.
func NewProgressPrinter(prefix, phase string) *ProgressPrinter {
	p := &ProgressPrinter{
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		prefix:   prefix,
	}
	p.phase.Store(phase)
	return p
}

// SetPhase updates the displayed phase name.
func (p *ProgressPrinter) SetPhase(phase string) {
	p.phase.Store(phase)
}

// Start begins printing. Repeated calls are no-ops.
func (p *ProgressPrinter) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.startTime = time.Now()

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(progressUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopChan:
				fmt.Fprint(os.Stderr, clearLineSequence)
				return
			case <-ticker.C:
				elapsed := time.Since(p.startTime).Round(100 * time.Millisecond)
				fmt.Fprintf(os.Stderr, "%s%s: %s (%s)", clearLineSequence, p.prefix, p.phase.Load(), elapsed)
			}
		}
	}()
}

// Stop clears the progress line and releases the goroutine.
func (p *ProgressPrinter) Stop() {
	if !p.started.Load() {
		return
	}
	select {
	case <-p.stopChan:
		// already stopped
	default:
		close(p.stopChan)
		<-p.done
	}
}

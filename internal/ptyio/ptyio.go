// Package ptyio exposes the sample stream as a serial-like text device.
// A pseudo-terminal pair is allocated; the bridge writes CSV lines to
// the master side and any terminal-aware tool can read them from the
// slave tty. Writes are decoupled from the tty reader through a ring
// buffer: a stalled or absent reader drops old bytes, it never blocks
// the publisher's consumer.
package ptyio

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/sirupsen/logrus"
	"github.com/smallnest/ringbuffer"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/biotel/biotel/internal/groutine"
)

const (
	// DefaultWriteCap is the default ring buffer capacity in bytes.
	DefaultWriteCap = 64 * 1024
	// DefaultPollTimeoutMs bounds how long the write loop waits for the
	// tty to become writable before rechecking for shutdown.
	DefaultPollTimeoutMs = 50
)

// Options configures PTY creation. Zero values use the defaults above.
type Options struct {
	WriteCap      int
	PollTimeoutMs int
	Logger        *logrus.Logger
}

// Stats are runtime counters of the PTY writer.
type Stats struct {
	WrittenBytes uint64
	DroppedBytes uint64 // bytes discarded because the ring was full
	QueuedBytes  int
}

// PTY is a non-blocking writer onto a pseudo-terminal.
type PTY struct {
	master *os.File
	slave  *os.File
	ring   *ringbuffer.RingBuffer
	logger *logrus.Logger

	cancel  context.CancelFunc
	done    chan struct{}
	written atomic.Uint64
	dropped atomic.Uint64

	pollTimeoutMs int
}

// New allocates a pseudo-terminal pair and starts the write loop.
func New(opts *Options) (*PTY, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	writeCap := opts.WriteCap
	if writeCap <= 0 {
		writeCap = DefaultWriteCap
	}
	pollTimeoutMs := opts.PollTimeoutMs
	if pollTimeoutMs <= 0 {
		pollTimeoutMs = DefaultPollTimeoutMs
	}

	master, slave, err := pty.Open()
	if err != nil {
		return nil, err
	}

	// Raw mode keeps the line discipline from echoing sample lines back
	// at the master.
	if _, err := term.MakeRaw(int(slave.Fd())); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}
	if err := unix.SetNonblock(int(master.Fd()), true); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &PTY{
		master:        master,
		slave:         slave,
		ring:          ringbuffer.New(writeCap),
		logger:        logger,
		cancel:        cancel,
		done:          make(chan struct{}),
		pollTimeoutMs: pollTimeoutMs,
	}

	groutine.Go(ctx, "pty-writer", p.writeLoop)

	logger.WithField("tty", slave.Name()).Info("PTY bridge ready")
	return p, nil
}

// TTYName returns the path of the readable tty device.
func (p *PTY) TTYName() string {
	return p.slave.Name()
}

// Write queues data for the tty. It never blocks: when the ring lacks
// space the excess bytes are dropped and counted.
func (p *PTY) Write(data []byte) (int, error) {
	free := p.ring.Free()
	if free < len(data) {
		p.dropped.Add(uint64(len(data) - free))
		data = data[:free]
	}
	if len(data) == 0 {
		return 0, nil
	}
	n, err := p.ring.Write(data)
	if err != nil && !errors.Is(err, ringbuffer.ErrTooMuchDataToWrite) {
		return n, err
	}
	return n, nil
}

// Stats returns the writer counters.
func (p *PTY) Stats() Stats {
	return Stats{
		WrittenBytes: p.written.Load(),
		DroppedBytes: p.dropped.Load(),
		QueuedBytes:  p.ring.Length(),
	}
}

// Close stops the write loop and releases both ends of the terminal.
func (p *PTY) Close() error {
	p.cancel()
	<-p.done

	err1 := p.master.Close()
	err2 := p.slave.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// writeLoop drains the ring onto the master side. The fd is
// non-blocking; POLLOUT waits are bounded so shutdown is detected
// within one poll timeout.
func (p *PTY) writeLoop(ctx context.Context) {
	defer close(p.done)

	fd := int32(p.master.Fd())
	pollFd := []unix.PollFd{{Fd: fd, Events: unix.POLLOUT}}
	buf := make([]byte, 4096)

	for {
		if ctx.Err() != nil {
			return
		}

		n, err := p.ring.Read(buf)
		if n == 0 {
			if err != nil && !errors.Is(err, ringbuffer.ErrIsEmpty) {
				p.logger.WithError(err).Warn("PTY ring read failed")
				return
			}
			// Nothing queued; idle for one poll interval.
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(p.pollTimeoutMs) * time.Millisecond):
			}
			continue
		}

		chunk := buf[:n]
		for len(chunk) > 0 {
			if ctx.Err() != nil {
				return
			}
			written, werr := p.master.Write(chunk)
			if written > 0 {
				p.written.Add(uint64(written))
				chunk = chunk[written:]
			}
			if werr == nil {
				continue
			}
			if errors.Is(werr, syscall.EAGAIN) {
				if _, perr := unix.Poll(pollFd, p.pollTimeoutMs); perr != nil && !errors.Is(perr, syscall.EINTR) {
					p.logger.WithError(perr).Warn("PTY poll failed")
					return
				}
				continue
			}
			p.logger.WithError(werr).Warn("PTY write failed")
			return
		}
	}
}

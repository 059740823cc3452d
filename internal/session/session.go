// Package session orchestrates the sensor lifecycle: connect, configure,
// verify, subscribe, start streaming, stop. It owns the handshake
// command sequence and feeds inbound telemetry through the codec and
// demultiplexer into the shared sample buffer.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/biotel/biotel/internal/protocol"
	"github.com/biotel/biotel/internal/sample"
	"github.com/biotel/biotel/internal/transport"
)

// Options configures a streaming session.
type Options struct {
	// DeviceID is the transport address of the sensor.
	DeviceID string
	// Mode selects the acquisition mode written in the system-setting
	// frame. Zero selects protocol.ModeBoth.
	Mode byte
	// Simulated asks the device for its built-in simulated signal.
	Simulated bool
}

// Stats are diagnostic counters for the steady-state ingest path.
// Malformed frames are invisible in the sample stream by design; the
// counter is the only place they surface.
type Stats struct {
	Frames          uint64 // notifications received
	Samples         uint64 // values demultiplexed into channels
	MalformedFrames uint64 // non-empty frames that decoded to nothing
}

// Session is the state machine bridging one sensor to the sample
// buffer. Exactly one handshake runs at a time; the transport handle is
// injected at construction, never shared globally.
type Session struct {
	transport transport.Transport
	buffers   *sample.Buffer
	logger    *logrus.Logger

	mu    sync.Mutex // serializes Start and Stop
	state atomic.Int32

	frames    atomic.Uint64
	samples   atomic.Uint64
	malformed atomic.Uint64
}

// New creates a session over the given transport. The sample buffer is
// shared with the snapshot publisher.
func New(t transport.Transport, buffers *sample.Buffer, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Session{
		transport: t,
		buffers:   buffers,
		logger:    logger,
	}
	s.state.Store(int32(StateDisconnected))
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Buffers returns the sample buffer the session demultiplexes into.
func (s *Session) Buffers() *sample.Buffer {
	return s.buffers
}

// Stats returns a snapshot of the ingest counters.
func (s *Session) Stats() Stats {
	return Stats{
		Frames:          s.frames.Load(),
		Samples:         s.samples.Load(),
		MalformedFrames: s.malformed.Load(),
	}
}

func (s *Session) setState(st State) {
	prev := State(s.state.Swap(int32(st)))
	if prev != st {
		s.logger.WithFields(logrus.Fields{
			"from": prev.String(),
			"to":   st.String(),
		}).Debug("Session state changed")
	}
}

// Start runs the connection handshake:
//
//	connect -> discover -> system setting -> param read -> subscribe -> scan start
//
// Steps execute strictly in order; the first failure sets StateError,
// skips the remaining steps and is returned. ctx cancellation is
// checked between steps and aborts the same way. The telemetry
// subscription is established before the scan-start command so no
// initial samples are lost.
func (s *Session) Start(ctx context.Context, opts *Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.State(); st != StateDisconnected && st != StateError {
		return fmt.Errorf("session is %s; stop it before starting again", st)
	}
	if opts == nil {
		opts = &Options{}
	}
	mode := opts.Mode
	if mode == 0 {
		mode = protocol.ModeBoth
	}

	steps := []struct {
		state State
		run   func() error
	}{
		{StateConnecting, func() error {
			return s.transport.Connect(ctx, opts.DeviceID)
		}},
		{StateConfiguring, func() error {
			return s.transport.DiscoverServices(ctx)
		}},
		{StateVerifying, func() error {
			return s.writeCommand(protocol.EncodeSystemSetting(mode, opts.Simulated))
		}},
		{StateSubscribing, func() error {
			return s.writeCommand(protocol.EncodeCommand(protocol.CmdParamRead))
		}},
		{StateStarting, func() error {
			return s.transport.Subscribe(
				protocol.ControlServiceUUID,
				protocol.TelemetryCharUUID,
				s.handleNotification,
				s.handleTransportError,
			)
		}},
		{StateStreaming, func() error {
			return s.writeCommand(protocol.EncodeCommand(protocol.CmdScanStart))
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			s.setState(StateError)
			return fmt.Errorf("handshake aborted before %s: %w", step.state, err)
		}
		if err := step.run(); err != nil {
			s.setState(StateError)
			return fmt.Errorf("handshake failed entering %s: %w", step.state, err)
		}
		s.setState(step.state)
	}

	s.logger.WithFields(logrus.Fields{
		"device":    opts.DeviceID,
		"mode":      fmt.Sprintf("0x%02X", mode),
		"simulated": opts.Simulated,
	}).Info("Sensor streaming started")
	return nil
}

// Stop tears the session down from any state: best-effort scan-stop,
// transport disconnect, buffers cleared, state Disconnected. A failing
// scan-stop or disconnect never blocks the local teardown; failures are
// logged and the disconnect error is returned after cleanup completed.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateDisconnected {
		return nil
	}

	if err := s.writeCommand(protocol.EncodeCommand(protocol.CmdScanStop)); err != nil {
		s.logger.WithError(err).Warn("Scan-stop command failed; disconnecting anyway")
	}

	err := s.transport.Disconnect()
	if err != nil {
		s.logger.WithError(err).Warn("Transport disconnect reported an error")
	}

	s.buffers.ClearAll()
	s.setState(StateDisconnected)
	s.logger.Info("Session stopped")
	return err
}

func (s *Session) writeCommand(frame []byte) error {
	return s.transport.Write(protocol.ControlServiceUUID, protocol.CommandCharUUID, frame)
}

// handleNotification runs in the transport's delivery context. It must
// never block on the publisher or a consumer: decode and demux are
// synchronous and the buffer push is bounded by a short mutex hold.
func (s *Session) handleNotification(data []byte) {
	s.frames.Add(1)

	values := protocol.DecodeTelemetry(data)
	if len(values) == 0 {
		if len(data) > 0 {
			// Too short to carry a sample. Degrade silently, count for
			// observability.
			s.malformed.Add(1)
		}
		return
	}

	s.samples.Add(uint64(len(values)))
	sample.Demux(values, s.buffers)
}

// handleTransportError receives asynchronous link failures. A lost link
// during streaming is user-visible as StateError; the buffers keep
// their contents until Stop.
func (s *Session) handleTransportError(err error) {
	s.logger.WithError(err).Warn("Transport reported asynchronous error")
	if s.State() == StateStreaming {
		s.setState(StateError)
	}
}

// Package transport defines the wireless transport capability the
// session consumes: write an opaque byte buffer to a named endpoint and
// receive opaque byte buffers asynchronously via a subscription. The
// real implementation lives in the goble subpackage; tests substitute a
// fake.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// Op identifies which transport operation failed.
type Op string

const (
	OpConnect    Op = "connect"
	OpDiscover   Op = "discover"
	OpWrite      Op = "write"
	OpSubscribe  Op = "subscribe"
	OpDisconnect Op = "disconnect"
)

// Error is a transport-level failure. During the handshake any Error is
// terminal for the connection attempt; during teardown it is logged and
// swallowed.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("transport %s failed", e.Op)
	}
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match transport errors by operation.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" || e.Op == t.Op
}

// ErrTransport matches any transport error regardless of operation.
var ErrTransport = &Error{}

// WrapError attaches the failed operation to err, or returns nil if err
// is nil. An err that is already a transport Error is returned as-is.
func WrapError(op Op, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// DataHandler receives one inbound notification payload. The slice is
// only valid for the duration of the call; handlers must copy it if they
// retain it.
type DataHandler func(data []byte)

// ErrorHandler receives asynchronous subscription failures.
type ErrorHandler func(err error)

// Transport is the abstract wireless capability consumed by the session
// state machine. Implementations must be safe for the sequential
// blocking-await call pattern used during the handshake: each call
// completes or fails before the next is issued.
type Transport interface {
	// Connect establishes a link to the device. ctx bounds the attempt.
	Connect(ctx context.Context, deviceID string) error
	// DiscoverServices enumerates the device's services; must be called
	// after Connect and before Write or Subscribe.
	DiscoverServices(ctx context.Context) error
	// Write sends data to a characteristic of a service.
	Write(serviceUUID, charUUID string, data []byte) error
	// Subscribe registers for notifications on a characteristic. onData
	// is invoked from the transport's delivery context and must not
	// block.
	Subscribe(serviceUUID, charUUID string, onData DataHandler, onError ErrorHandler) error
	// Disconnect tears the link down. Safe to call when not connected.
	Disconnect() error
}

// Package goble implements the transport capability on top of the
// go-ble BLE stack.
package goble

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/biotel/biotel/internal/groutine"
	"github.com/biotel/biotel/internal/transport"
)

// DeviceFactory creates ble.Device instances (overridable in tests). The
// default is platform-specific, see device_darwin.go and device_linux.go.
var DeviceFactory = newDefaultDevice

// normalizeUUID converts a UUID string to the go-ble internal format
// (lowercase, no dashes).
func normalizeUUID(uuid string) string {
	return strings.ToLower(strings.ReplaceAll(uuid, "-", ""))
}

// Transport is a go-ble backed transport.Transport. It is owned by a
// single session and follows the session's sequential call pattern:
// Connect, DiscoverServices, then writes and subscriptions.
type Transport struct {
	logger         *logrus.Logger
	connectTimeout time.Duration

	writeMu sync.Mutex
	mu      sync.RWMutex
	client  ble.Client
	// chars indexes discovered characteristics by "service/char" in
	// normalized form.
	chars map[string]*ble.Characteristic
	subs  []*ble.Characteristic
}

// New creates an unconnected transport. connectTimeout bounds Connect in
// addition to the caller's context; zero selects 30 s.
func New(logger *logrus.Logger, connectTimeout time.Duration) *Transport {
	if logger == nil {
		logger = logrus.New()
	}
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}
	return &Transport{
		logger:         logger,
		connectTimeout: connectTimeout,
		chars:          make(map[string]*ble.Characteristic),
	}
}

// Connect dials the device by address.
func (t *Transport) Connect(ctx context.Context, deviceID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if strings.TrimSpace(deviceID) == "" {
		return transport.WrapError(transport.OpConnect, fmt.Errorf("device address is not set"))
	}
	if t.client != nil {
		return transport.WrapError(transport.OpConnect, fmt.Errorf("already connected"))
	}

	t.logger.WithField("address", deviceID).Info("Connecting to BLE device...")

	dev, err := DeviceFactory()
	if err != nil {
		return transport.WrapError(transport.OpConnect, fmt.Errorf("failed to create BLE device: %w", err))
	}
	ble.SetDefaultDevice(dev)

	connCtx, cancel := context.WithTimeout(ctx, t.connectTimeout)
	defer cancel()

	client, err := ble.Dial(connCtx, ble.NewAddr(deviceID))
	if err != nil {
		return transport.WrapError(transport.OpConnect, fmt.Errorf("failed to connect to %q: %w", deviceID, err))
	}

	t.client = client
	t.logger.Info("BLE device connected")
	return nil
}

// DiscoverServices enumerates the GATT profile and indexes every
// characteristic for later writes and subscriptions.
func (t *Transport) DiscoverServices(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return transport.WrapError(transport.OpDiscover, fmt.Errorf("not connected"))
	}
	if err := ctx.Err(); err != nil {
		return transport.WrapError(transport.OpDiscover, err)
	}

	profile, err := t.client.DiscoverProfile(true)
	if err != nil {
		return transport.WrapError(transport.OpDiscover, fmt.Errorf("failed to discover profile: %w", err))
	}

	for _, svc := range profile.Services {
		svcUUID := normalizeUUID(svc.UUID.String())
		for _, char := range svc.Characteristics {
			key := svcUUID + "/" + normalizeUUID(char.UUID.String())
			t.chars[key] = char
			t.logger.WithFields(logrus.Fields{
				"service_uuid": svcUUID,
				"char_uuid":    char.UUID.String(),
			}).Debug("Found characteristic")
		}
	}

	t.logger.WithField("services", len(profile.Services)).Info("Service discovery completed")
	return nil
}

// findCharacteristic looks up a discovered characteristic. Caller must
// hold at least a read lock.
func (t *Transport) findCharacteristic(serviceUUID, charUUID string) (*ble.Characteristic, error) {
	key := normalizeUUID(serviceUUID) + "/" + normalizeUUID(charUUID)
	char, ok := t.chars[key]
	if !ok {
		return nil, fmt.Errorf("characteristic %q not found in service %q", charUUID, serviceUUID)
	}
	return char, nil
}

// Write sends data to a characteristic with response. Writes are
// serialized: the handshake issues them one at a time and the write
// mutex keeps any stragglers from overlapping.
func (t *Transport) Write(serviceUUID, charUUID string, data []byte) error {
	t.mu.RLock()
	client := t.client
	char, err := t.findCharacteristic(serviceUUID, charUUID)
	t.mu.RUnlock()

	if client == nil {
		return transport.WrapError(transport.OpWrite, fmt.Errorf("not connected"))
	}
	if err != nil {
		return transport.WrapError(transport.OpWrite, err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := client.WriteCharacteristic(char, data, false); err != nil {
		return transport.WrapError(transport.OpWrite, fmt.Errorf("failed to write characteristic %s: %w", charUUID, err))
	}
	t.logger.WithFields(logrus.Fields{
		"char_uuid": charUUID,
		"bytes":     len(data),
	}).Debug("Wrote command frame")
	return nil
}

// Subscribe registers onData for notifications on a characteristic and
// watches the link for asynchronous loss, reported via onError.
func (t *Transport) Subscribe(serviceUUID, charUUID string, onData transport.DataHandler, onError transport.ErrorHandler) error {
	t.mu.RLock()
	client := t.client
	char, err := t.findCharacteristic(serviceUUID, charUUID)
	t.mu.RUnlock()

	if client == nil {
		return transport.WrapError(transport.OpSubscribe, fmt.Errorf("not connected"))
	}
	if err != nil {
		return transport.WrapError(transport.OpSubscribe, err)
	}

	if err := client.Subscribe(char, false, func(data []byte) {
		onData(data)
	}); err != nil {
		return transport.WrapError(transport.OpSubscribe, fmt.Errorf("failed to subscribe to %s: %w", charUUID, err))
	}

	// Recorded only after the subscribe took effect, so Disconnect never
	// unsubscribes a characteristic that was never subscribed.
	t.mu.Lock()
	t.subs = append(t.subs, char)
	t.mu.Unlock()

	if onError != nil {
		groutine.Go(context.Background(), "ble-link-watch", func(ctx context.Context) {
			<-client.Disconnected()
			onError(transport.WrapError(transport.OpSubscribe, fmt.Errorf("connection lost")))
		})
	}

	t.logger.WithFields(logrus.Fields{
		"service_uuid": serviceUUID,
		"char_uuid":    charUUID,
	}).Info("Subscribed to telemetry notifications")
	return nil
}

// Disconnect unsubscribes best-effort and cancels the connection. Safe
// to call repeatedly.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	client := t.client
	subs := t.subs
	t.client = nil
	t.subs = nil
	t.chars = make(map[string]*ble.Characteristic)
	t.mu.Unlock()

	if client == nil {
		t.logger.Info("Already disconnected")
		return nil
	}

	for _, char := range subs {
		// Try both notify and indicate; a failure here must not block
		// the local disconnect.
		err1 := client.Unsubscribe(char, false)
		err2 := client.Unsubscribe(char, true)
		if err1 != nil && err2 != nil {
			t.logger.WithFields(logrus.Fields{
				"char_uuid":   char.UUID.String(),
				"notifyErr":   err1,
				"indicateErr": err2,
			}).Warn("Failed to unsubscribe from characteristic")
		}
	}

	if err := client.CancelConnection(); err != nil {
		t.logger.WithError(err).Warn("BLE device disconnected with errors")
		return transport.WrapError(transport.OpDisconnect, err)
	}
	t.logger.Info("BLE device disconnected")
	return nil
}

var _ transport.Transport = (*Transport)(nil)

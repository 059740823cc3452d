package goble

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient fakes the parts of ble.Client the transport exercises.
// Unimplemented methods panic via the embedded nil interface.
type stubClient struct {
	ble.Client

	subscribeErr error
	subscribed   []*ble.Characteristic
	unsubscribed []*ble.Characteristic
}

func (c *stubClient) Subscribe(char *ble.Characteristic, _ bool, _ ble.NotificationHandler) error {
	if c.subscribeErr != nil {
		return c.subscribeErr
	}
	c.subscribed = append(c.subscribed, char)
	return nil
}

func (c *stubClient) Unsubscribe(char *ble.Characteristic, _ bool) error {
	c.unsubscribed = append(c.unsubscribed, char)
	return nil
}

func (c *stubClient) CancelConnection() error { return nil }

func newStubTransport(client ble.Client) *Transport {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tr := New(logger, time.Second)
	tr.client = client
	tr.chars["svc/char"] = &ble.Characteristic{}
	return tr
}

func TestSubscribeFailureLeavesNoSubscriptionRecord(t *testing.T) {
	stub := &stubClient{subscribeErr: fmt.Errorf("att timeout")}
	tr := newStubTransport(stub)

	err := tr.Subscribe("svc", "char", func([]byte) {}, nil)

	require.Error(t, err)
	require.NoError(t, tr.Disconnect())
	assert.Empty(t, stub.unsubscribed, "a characteristic that never subscribed must not be unsubscribed")
}

func TestSubscribeThenDisconnectUnsubscribes(t *testing.T) {
	stub := &stubClient{}
	tr := newStubTransport(stub)

	require.NoError(t, tr.Subscribe("svc", "char", func([]byte) {}, nil))
	require.NoError(t, tr.Disconnect())

	require.Len(t, stub.subscribed, 1)
	assert.Len(t, stub.unsubscribed, 2, "notify and indicate are both unsubscribed best-effort")
}

func TestSubscribeWithoutConnection(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	tr := New(logger, time.Second)

	err := tr.Subscribe("svc", "char", func([]byte) {}, nil)

	assert.Error(t, err)
}

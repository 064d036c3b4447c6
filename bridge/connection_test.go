package bridge

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manageplaces/Stompex/frame"
	"github.com/manageplaces/Stompex/protocol"
	"github.com/manageplaces/Stompex/receiver"
	"github.com/manageplaces/Stompex/stomperr"
	"github.com/manageplaces/Stompex/transport"
)

// fakeBroker is a minimal STOMP broker good enough to drive the connection
// manager's tests, grounded in the teacher's net.Listener-based
// runStompBroker helper but speaking this module's own frame/transport/
// receiver stack instead of go-stomp/stomp.
type fakeBroker struct {
	ln          net.Listener
	version     string // empty means omit the version header (implies 1.0)
	onSubscribe func(tr transport.Transport, destination string)
}

func newFakeBroker(t *testing.T, version string) *fakeBroker {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	fb := &fakeBroker{ln: ln, version: version}
	go fb.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return fb
}

func (fb *fakeBroker) hostPort(t *testing.T) (string, int) {
	host, portStr, err := net.SplitHostPort(fb.ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func (fb *fakeBroker) serve() {
	conn, err := fb.ln.Accept()
	if err != nil {
		return
	}
	tr := transport.Wrap(conn)
	if _, err := receiver.ReadSync(tr, protocol.V1_0); err != nil {
		return
	}

	connected := frame.NewBuilder(frame.CONNECTED)
	if fb.version != "" {
		connected.Header(frame.HdrVersion, fb.version)
	}
	if err := tr.Send(frame.Encode(connected.Build())); err != nil {
		return
	}

	negotiated := protocol.NormalizeVersion(fb.version)
	for {
		f, err := receiver.ReadSync(tr, negotiated)
		if err != nil {
			return
		}
		switch f.Command {
		case frame.SUBSCRIBE:
			dest, _ := f.Get(frame.HdrDestination)
			if fb.onSubscribe != nil {
				fb.onSubscribe(tr, dest)
			}
		case frame.DISCONNECT:
			return
		}
	}
}

func dial(t *testing.T, fb *fakeBroker) *Connection {
	host, port := fb.hostPort(t)
	c, err := Connect(host, port, "guest", "guest", nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Disconnect() })
	return c
}

func TestConnectNegotiatesVersionFromHeader(t *testing.T) {
	fb := newFakeBroker(t, "1.2")
	c := dial(t, fb)
	assert.Equal(t, protocol.V1_2, c.version)
}

func TestConnectDefaultsToV10WhenVersionHeaderAbsent(t *testing.T) {
	fb := newFakeBroker(t, "")
	c := dial(t, fb)
	assert.Equal(t, protocol.V1_0, c.version)
}

func TestSubscriptionUniqueness(t *testing.T) {
	fb := newFakeBroker(t, "1.2")
	c := dial(t, fb)

	_, err := c.Subscribe("/queue/a", nil, SubscribeOptions{})
	require.NoError(t, err)

	_, err = c.Subscribe("/queue/a", nil, SubscribeOptions{})
	var already *stomperr.AlreadySubscribed
	require.ErrorAs(t, err, &already)
	assert.Equal(t, "/queue/a", already.Destination)
}

func TestUnsubscribeWithoutSubscriptionFails(t *testing.T) {
	fb := newFakeBroker(t, "1.2")
	c := dial(t, fb)

	err := c.Unsubscribe("/queue/never")
	var notSub *stomperr.NotSubscribed
	require.ErrorAs(t, err, &notSub)
}

func TestCallbackOrdering(t *testing.T) {
	fb := newFakeBroker(t, "1.2")
	fb.onSubscribe = func(tr transport.Transport, destination string) {
		msg := frame.NewBuilder(frame.MESSAGE).
			Header(frame.HdrDestination, destination).
			Header(frame.HdrMessageId, "m-1").
			Body([]byte("hello")).
			Build()
		_ = tr.Send(frame.Encode(msg))
	}
	c := dial(t, fb)

	var order []int
	done := make(chan struct{}, 1)

	c.RegisterCallback("/queue/a", func(f *frame.Frame) { order = append(order, 1) })
	c.RegisterCallback("/queue/a", func(f *frame.Frame) {
		order = append(order, 2)
		done <- struct{}{}
	})

	_, err := c.Subscribe("/queue/a", nil, SubscribeOptions{})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callbacks")
	}
	assert.Equal(t, []int{1, 2}, order)
}

func TestSendToCallerForwardsInsteadOfCallbacks(t *testing.T) {
	fb := newFakeBroker(t, "1.2")
	fb.onSubscribe = func(tr transport.Transport, destination string) {
		msg := frame.NewBuilder(frame.MESSAGE).
			Header(frame.HdrDestination, destination).
			Header(frame.HdrMessageId, "m-1").
			Body([]byte("owner bound")).
			Build()
		_ = tr.Send(frame.Encode(msg))
	}
	c := dial(t, fb)
	c.SetSendToCaller(true)

	called := false
	c.RegisterCallback("/queue/a", func(f *frame.Frame) { called = true })

	_, err := c.Subscribe("/queue/a", nil, SubscribeOptions{})
	require.NoError(t, err)

	select {
	case m := <-c.Owner():
		assert.Equal(t, "/queue/a", m.Destination)
		assert.Equal(t, "owner bound", string(m.Frame.Body))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for owner message")
	}
	assert.False(t, called)
}

func TestNackUnderV10IsRejectedWithoutWritingToWire(t *testing.T) {
	fb := newFakeBroker(t, "") // no version header => negotiated 1.0
	c := dial(t, fb)

	inbound := frame.NewBuilder(frame.MESSAGE).
		Header(frame.HdrMessageId, "m-1").
		Build()

	err := c.Nack(inbound)
	var unsupported *stomperr.VersionUnsupported
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "NACK", unsupported.Operation)
}

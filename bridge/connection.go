// Package bridge is the connection manager (C6): it owns the transport and
// receiver, drives the CONNECT/CONNECTED handshake and version negotiation,
// and maintains the subscription registry and callback tables described in
// §3–§4.6. Grounded on the teacher's bridge.Connection and
// bridge.BrokerConnector, generalized from a go-stomp-backed wrapper into
// the owner of this module's own frame/transport/receiver stack.
package bridge

import (
	"crypto/tls"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/manageplaces/Stompex/frame"
	"github.com/manageplaces/Stompex/logx"
	"github.com/manageplaces/Stompex/metrics"
	"github.com/manageplaces/Stompex/monitor"
	"github.com/manageplaces/Stompex/protocol"
	"github.com/manageplaces/Stompex/receiver"
	"github.com/manageplaces/Stompex/stomperr"
	"github.com/manageplaces/Stompex/transport"
)

// OwnerMessage is what "send to caller" mode forwards instead of running
// callbacks, mirroring §6's `{stompex, destination, frame}`.
type OwnerMessage struct {
	Destination string
	Frame       *frame.Frame
}

// Connection is a single STOMP session: the transport, the receiver task
// pulling frames off it, and every piece of state spec'd as belonging to
// the manager task (§3's "Connection state", §5's single-threaded dispatch
// discipline).
type Connection struct {
	ID      string
	version protocol.Version

	t    transport.Transport
	recv *receiver.Receiver

	Monitor *monitor.Stream
	Metrics *metrics.Metrics

	// owner is drained by the caller in "send to caller" mode. Sized the
	// way the teacher's wsConn subscription channels are: a handful of
	// frames of slack before backpressure reaches the manager loop.
	owner chan OwnerMessage

	commands chan command
	stopped  chan struct{}
	stopOnce sync.Once

	// compressedMu guards compressed, which is read concurrently from the
	// receiver's own goroutine (the parser's IsCompressed lookup) and
	// written only by the manager loop. The fields below are touched
	// exclusively by the manager loop and need no lock, per §5.
	compressedMu sync.RWMutex
	compressed   map[string]bool

	subs         map[string]*Subscription
	callbacks    map[string][]registeredCallback
	nextSubID    uint64
	nextCbSeq    uint64
	sendToCaller bool
}

// Connect performs the TCP/TLS establishment and CONNECT/STOMP handshake
// described in §4.6, blocking until CONNECTED or failure. On success the
// receiver task is already running and pulling frames.
//
// port defaults to 61613 (the STOMP default) when 0.
func Connect(host string, port int, login, passcode string, headers map[string]string, rawOpts map[string]interface{}) (*Connection, error) {
	opts, err := decodeOptions(rawOpts)
	if err != nil {
		return nil, err
	}
	if port == 0 {
		port = 61613
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	var t transport.Transport
	if opts.Secure {
		var tlsCfg *tls.Config
		tlsCfg, err = opts.SSLOpts.Config()
		if err != nil {
			return nil, err
		}
		t, err = transport.DialTLS(addr, opts.Timeout, tlsCfg)
	} else {
		t, err = transport.Dial(addr, opts.Timeout)
	}
	if err != nil {
		return nil, err
	}

	useStomp := opts.AcceptVersion != "1.0"
	extra := map[string]string{}
	for k, v := range headers {
		extra[k] = v
	}
	if opts.HeartBeat != "" {
		extra[frame.HdrHeartBeat] = opts.HeartBeat
	}

	connectFrame := frame.Connect(useStomp, opts.AcceptVersion, host, login, passcode, extra)
	if err := t.Send(frame.Encode(connectFrame)); err != nil {
		_ = t.Close()
		return nil, err
	}

	// The negotiated version isn't known until this reply is parsed, so read
	// it tolerant of a trailing CR (protocol.V1_1 trims one; protocol.V1_0
	// never emits one, so this is safe for any actual server version).
	reply, err := receiver.ReadSync(t, protocol.V1_1)
	if err != nil {
		_ = t.Close()
		return nil, err
	}

	if reply.Command != frame.CONNECTED {
		_ = t.Close()
		msg := reply.GetDefault(frame.HdrMessage, fmt.Sprintf("unexpected frame %s in reply to handshake", reply.Command))
		return nil, &stomperr.ServerRejected{Message: msg}
	}

	version := protocol.V1_0
	if v, ok := reply.Get(frame.HdrVersion); ok {
		version = protocol.NormalizeVersion(v)
	}

	id := uuid.New().String()
	c := &Connection{
		ID:         id,
		version:    version,
		t:          t,
		recv:       receiver.New(t, version),
		Monitor:    monitor.New(16),
		Metrics:    metrics.Noop(),
		owner:      make(chan OwnerMessage, 32),
		commands:   make(chan command),
		stopped:    make(chan struct{}),
		compressed: make(map[string]bool),
		subs:       make(map[string]*Subscription),
		callbacks:  make(map[string][]registeredCallback),
	}
	c.recv.SetCompressionLookup(c.isCompressed)
	c.recv.OnDropped = c.onDropped
	c.recv.Start()

	go c.run()
	c.recv.RequestNext()

	c.Monitor.SendEvent(monitor.Connected, "")
	logx.Conn(c.ID).WithField("version", version.String()).Info("bridge: connected")
	return c, nil
}

// UseMetrics swaps in a caller-provided Metrics instance (e.g. one
// registered against a non-default prometheus.Registerer). Call this
// immediately after Connect, before any traffic flows.
func (c *Connection) UseMetrics(m *metrics.Metrics) {
	c.Metrics = m
}

// Owner returns the channel that receives forwarded frames while
// send-to-caller mode is enabled. Frames delivered while it is disabled go
// to registered callbacks instead and are never placed here.
func (c *Connection) Owner() <-chan OwnerMessage {
	return c.owner
}

func (c *Connection) isCompressed(destination string) bool {
	c.compressedMu.RLock()
	defer c.compressedMu.RUnlock()
	return c.compressed[destination]
}

func (c *Connection) setCompressed(destination string, v bool) {
	c.compressedMu.Lock()
	defer c.compressedMu.Unlock()
	c.compressed[destination] = v
}

func (c *Connection) clearCompressed(destination string) {
	c.compressedMu.Lock()
	defer c.compressedMu.Unlock()
	delete(c.compressed, destination)
}

func (c *Connection) onDropped(d *receiver.BodyDecompressionError) {
	err := &stomperr.BodyDecompression{Destination: d.Destination, Err: d.Err}
	logx.Frame("MESSAGE", d.Destination).WithError(err).Warn("bridge: dropping frame, body decompression failed")
	c.Monitor.SendError(monitor.FrameDropped, d.Destination, err)
}

// run is the manager task: the single goroutine that owns every field
// below the compressedMu line, per §5's "no locks needed" discipline. It
// multiplexes inbound frames from the receiver with outbound requests from
// the public API below.
func (c *Connection) run() {
	for {
		select {
		case <-c.stopped:
			return
		case res := <-c.recv.Out():
			if res.Err != nil {
				c.handleFatal(res.Err)
				return
			}
			c.dispatch(res.Frame)
			c.recv.RequestNext()
		case cmd := <-c.commands:
			cmd.resp <- c.handle(cmd)
			if cmd.kind == cmdDisconnect {
				return
			}
		}
	}
}

func (c *Connection) handleFatal(err error) {
	logx.Conn(c.ID).WithError(err).Error("bridge: receiver stopped")
	var pp *stomperr.ProtocolParse
	if errors.As(err, &pp) {
		c.Metrics.ParseErrors.Inc()
		c.Monitor.SendError(monitor.ParseError, "", err)
	} else {
		c.Monitor.SendError(monitor.Disconnected, "", err)
	}
	_ = c.t.Close()
}

func (c *Connection) dispatch(f *frame.Frame) {
	if f.IsHeartbeat() {
		return
	}
	c.Metrics.FramesReceived.WithLabelValues(string(f.Command)).Inc()
	destination := f.GetDefault(frame.HdrDestination, "")

	if c.sendToCaller {
		c.owner <- OwnerMessage{Destination: destination, Frame: f}
		return
	}
	for _, rc := range c.callbacks[destination] {
		rc.fn(f)
	}
}

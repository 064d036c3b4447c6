package bridge

import (
	"fmt"

	"github.com/manageplaces/Stompex/frame"
	"github.com/manageplaces/Stompex/logx"
	"github.com/manageplaces/Stompex/monitor"
	"github.com/manageplaces/Stompex/protocol"
	"github.com/manageplaces/Stompex/stomperr"
)

type cmdKind int

const (
	cmdSubscribe cmdKind = iota
	cmdUnsubscribe
	cmdSend
	cmdAck
	cmdNack
	cmdRegisterCallback
	cmdRemoveCallback
	cmdSetSendToCaller
	cmdDisconnect
)

// command is one request sent from a public API method to the manager
// loop, and blocked on until the loop replies on resp. This is the
// message-passing discipline the design notes call for in place of locks.
type command struct {
	kind cmdKind

	destination string
	headers     map[string]string
	compressed  bool
	body        []byte
	fr          *frame.Frame
	cb          FrameCallback
	handle      CallbackHandle
	enabled     bool

	resp chan cmdResult
}

type cmdResult struct {
	sub    *Subscription
	handle CallbackHandle
	err    error
}

func (c *Connection) do(cmd command) cmdResult {
	cmd.resp = make(chan cmdResult, 1)
	select {
	case c.commands <- cmd:
	case <-c.stopped:
		return cmdResult{err: fmt.Errorf("bridge: connection closed")}
	}
	return <-cmd.resp
}

// handle runs on the manager goroutine only; it is where every mutation of
// subs/callbacks/sendToCaller happens, per §5.
func (c *Connection) handle(cmd command) cmdResult {
	switch cmd.kind {
	case cmdSubscribe:
		return c.handleSubscribe(cmd)
	case cmdUnsubscribe:
		return c.handleUnsubscribe(cmd)
	case cmdSend:
		return cmdResult{err: c.handleSend(cmd)}
	case cmdAck:
		return cmdResult{err: c.handleAck(cmd)}
	case cmdNack:
		return cmdResult{err: c.handleNack(cmd)}
	case cmdRegisterCallback:
		return c.handleRegisterCallback(cmd)
	case cmdRemoveCallback:
		return cmdResult{err: c.handleRemoveCallback(cmd)}
	case cmdSetSendToCaller:
		c.sendToCaller = cmd.enabled
		return cmdResult{}
	case cmdDisconnect:
		return cmdResult{err: c.handleDisconnect()}
	default:
		return cmdResult{err: fmt.Errorf("bridge: unknown command kind %d", cmd.kind)}
	}
}

func (c *Connection) handleSubscribe(cmd command) cmdResult {
	if _, ok := c.subs[cmd.destination]; ok {
		return cmdResult{err: &stomperr.AlreadySubscribed{Destination: cmd.destination}}
	}

	id := cmd.headers["id"]
	if id == "" {
		c.nextSubID++
		id = fmt.Sprintf("sub-%d", c.nextSubID)
	}
	ack := cmd.headers["ack"]
	if ack == "" {
		ack = AckAuto
	}

	extra := map[string]string{}
	for k, v := range cmd.headers {
		if k == "id" || k == "ack" {
			continue
		}
		extra[k] = v
	}

	f := frame.Subscribe(id, cmd.destination, ack, extra)
	if err := c.t.Send(frame.Encode(f)); err != nil {
		return cmdResult{err: err}
	}
	c.Metrics.FramesSent.WithLabelValues(string(frame.SUBSCRIBE)).Inc()

	sub := &Subscription{ID: id, Destination: cmd.destination, Ack: ack, Compressed: cmd.compressed}
	c.subs[cmd.destination] = sub
	if cmd.compressed {
		c.setCompressed(cmd.destination, true)
	}
	c.Metrics.Subscriptions.Inc()
	c.Monitor.SendEvent(monitor.Subscribed, cmd.destination)
	logx.Conn(c.ID).WithField("destination", cmd.destination).Info("bridge: subscribed")
	return cmdResult{sub: sub}
}

func (c *Connection) handleUnsubscribe(cmd command) cmdResult {
	sub, ok := c.subs[cmd.destination]
	if !ok {
		return cmdResult{err: &stomperr.NotSubscribed{Destination: cmd.destination}}
	}

	f := frame.Unsubscribe(sub.ID)
	if err := c.t.Send(frame.Encode(f)); err != nil {
		return cmdResult{err: err}
	}
	c.Metrics.FramesSent.WithLabelValues(string(frame.UNSUBSCRIBE)).Inc()

	delete(c.subs, cmd.destination)
	delete(c.callbacks, cmd.destination)
	c.clearCompressed(cmd.destination)
	c.Metrics.Subscriptions.Dec()
	c.Monitor.SendEvent(monitor.Unsubscribed, cmd.destination)
	logx.Conn(c.ID).WithField("destination", cmd.destination).Info("bridge: unsubscribed")
	return cmdResult{}
}

func (c *Connection) handleSend(cmd command) error {
	extra := cmd.headers
	f := frame.Send(cmd.destination, cmd.body, extra)
	if err := c.t.Send(frame.Encode(f)); err != nil {
		return err
	}
	c.Metrics.FramesSent.WithLabelValues(string(frame.SEND)).Inc()
	return nil
}

func (c *Connection) handleAck(cmd command) error {
	return c.sendAckOrNack(cmd.fr, false)
}

func (c *Connection) handleNack(cmd command) error {
	return c.sendAckOrNack(cmd.fr, true)
}

func (c *Connection) sendAckOrNack(inbound *frame.Frame, nack bool) error {
	if nack && !protocol.SupportsNack(c.version) {
		err := &stomperr.VersionUnsupported{Operation: "NACK", Version: c.version.String()}
		logx.Conn(c.ID).Warn(err.Error())
		return err
	}

	ackHeaderName := protocol.AckHeader(c.version)
	id, ok := inbound.Get(ackHeaderName)
	if !ok {
		return fmt.Errorf("bridge: inbound frame has no %q header to ack/nack", ackHeaderName)
	}
	subscriptionID, _ := inbound.Get(frame.HdrSubscription)

	var f *frame.Frame
	cmdName := frame.ACK
	if nack {
		f = frame.Nack(ackHeaderName, id, subscriptionID)
		cmdName = frame.NACK
	} else {
		f = frame.Ack(ackHeaderName, id, subscriptionID)
	}
	if err := c.t.Send(frame.Encode(f)); err != nil {
		return err
	}
	c.Metrics.FramesSent.WithLabelValues(string(cmdName)).Inc()
	return nil
}

func (c *Connection) handleRegisterCallback(cmd command) cmdResult {
	c.nextCbSeq++
	h := CallbackHandle{destination: cmd.destination, seq: c.nextCbSeq}
	c.callbacks[cmd.destination] = append(c.callbacks[cmd.destination], registeredCallback{handle: h, fn: cmd.cb})
	return cmdResult{handle: h}
}

func (c *Connection) handleRemoveCallback(cmd command) error {
	list := c.callbacks[cmd.handle.destination]
	for i, rc := range list {
		if rc.handle == cmd.handle {
			c.callbacks[cmd.handle.destination] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("bridge: callback handle not found for %q", cmd.handle.destination)
}

func (c *Connection) handleDisconnect() error {
	err := c.t.Send(frame.Encode(frame.Disconnect()))
	c.recv.Stop()
	_ = c.t.Close()
	c.Monitor.SendEvent(monitor.Disconnected, "")
	logx.Conn(c.ID).Info("bridge: disconnected")
	c.stopOnce.Do(func() { close(c.stopped) })
	return err
}

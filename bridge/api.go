package bridge

import "github.com/manageplaces/Stompex/frame"

// SubscribeOptions mirrors §4.6's subscribe(destination, headers, options):
// headers carries protocol-level overrides (id, ack, plus broker extras);
// Compressed controls whether the receiver gzip-decodes inbound bodies for
// this destination (§4.5.5).
type SubscribeOptions struct {
	Compressed bool
}

// Subscribe registers interest in destination. Fails with
// *stomperr.AlreadySubscribed if a subscription already exists for it.
func (c *Connection) Subscribe(destination string, headers map[string]string, opts SubscribeOptions) (*Subscription, error) {
	res := c.do(command{kind: cmdSubscribe, destination: destination, headers: headers, compressed: opts.Compressed})
	return res.sub, res.err
}

// Unsubscribe removes the subscription for destination. Fails with
// *stomperr.NotSubscribed if none exists.
func (c *Connection) Unsubscribe(destination string) error {
	res := c.do(command{kind: cmdUnsubscribe, destination: destination})
	return res.err
}

// Send publishes body to destination as a SEND frame, with extraHeaders
// merged in alongside the mandatory destination/content-length headers.
func (c *Connection) Send(destination string, body []byte, extraHeaders map[string]string) error {
	res := c.do(command{kind: cmdSend, destination: destination, body: body, headers: extraHeaders})
	return res.err
}

// Ack acknowledges a received MESSAGE frame using the version-appropriate
// ack-id header (§4.2's ack_header).
func (c *Connection) Ack(f *frame.Frame) error {
	res := c.do(command{kind: cmdAck, fr: f})
	return res.err
}

// Nack negatively-acknowledges a received MESSAGE frame. Under STOMP 1.0,
// where NACK does not exist, this logs a warning and writes nothing to the
// wire, returning *stomperr.VersionUnsupported.
func (c *Connection) Nack(f *frame.Frame) error {
	res := c.do(command{kind: cmdNack, fr: f})
	return res.err
}

// RegisterCallback appends fn to destination's callback list, in
// registration order. Returns a handle for later removal.
func (c *Connection) RegisterCallback(destination string, fn FrameCallback) CallbackHandle {
	res := c.do(command{kind: cmdRegisterCallback, destination: destination, cb: fn})
	return res.handle
}

// RemoveCallback removes the callback identified by handle.
func (c *Connection) RemoveCallback(handle CallbackHandle) error {
	res := c.do(command{kind: cmdRemoveCallback, handle: handle})
	return res.err
}

// SetSendToCaller toggles between dispatching inbound MESSAGE frames to
// registered callbacks (false, the default) and forwarding them on Owner()
// as an OwnerMessage (true).
func (c *Connection) SetSendToCaller(enabled bool) {
	c.do(command{kind: cmdSetSendToCaller, enabled: enabled})
}

// Disconnect sends DISCONNECT, stops the receiver task, and closes the
// transport. The Connection must not be used afterward.
func (c *Connection) Disconnect() error {
	res := c.do(command{kind: cmdDisconnect})
	return res.err
}

package frame

import (
	"bytes"
	"strconv"

	"github.com/sirupsen/logrus"
)

// knownCommands is the full set of commands the encoder will accept through
// Builder.Command. Anything else is a no-op, per §4.1: the builder logs a
// warning and returns the frame unchanged rather than failing the chain.
var knownCommands = map[Command]bool{
	CONNECT: true, STOMP: true, CONNECTED: true, SEND: true, SUBSCRIBE: true,
	UNSUBSCRIBE: true, BEGIN: true, COMMIT: true, ABORT: true, ACK: true,
	NACK: true, DISCONNECT: true, MESSAGE: true, RECEIPT: true, ERROR: true,
}

// Builder is a fluent frame assembler. Construct one with NewBuilder; the
// zero value has no frame to build into and is not usable.
type Builder struct {
	frame *Frame
}

// NewBuilder starts building a frame with the given command.
func NewBuilder(command Command) *Builder {
	b := &Builder{frame: &Frame{}}
	return b.Command(command)
}

// Command sets the frame's command. An unrecognized command is a silent
// no-op: the builder logs a warning and leaves the frame as it was.
func (b *Builder) Command(command Command) *Builder {
	if !knownCommands[command] {
		logrus.WithField("command", command).Warn("frame: ignoring unknown command")
		return b
	}
	b.frame.Command = command
	return b
}

// Header sets (appends) a header.
func (b *Builder) Header(name, value string) *Builder {
	b.frame.Set(name, value)
	return b
}

// Headers merges a batch of headers in map order — callers that care about
// ordering should call Header repeatedly instead.
func (b *Builder) Headers(h map[string]string) *Builder {
	for k, v := range h {
		b.frame.Set(k, v)
	}
	return b
}

// Body replaces the frame body outright.
func (b *Builder) Body(body []byte) *Builder {
	b.frame.Body = body
	return b
}

// AppendBodyOpts controls AppendBody's line-ending behavior.
type AppendBodyOpts struct {
	// WithNewline appends a trailing LF after s. AppendBody called without
	// opts behaves as if this were true (§4.1's append_body default); the
	// field's own zero value is false.
	WithNewline bool
}

// AppendBody appends s to the body, adding a trailing LF unless opts says
// otherwise.
func (b *Builder) AppendBody(s string, opts ...AppendBodyOpts) *Builder {
	withNewline := true
	if len(opts) > 0 {
		withNewline = opts[0].WithNewline
	}
	b.frame.Body = append(b.frame.Body, []byte(s)...)
	if withNewline {
		b.frame.Body = append(b.frame.Body, '\n')
	}
	return b
}

// WithContentLength sets the content-length header to the current body
// length. Call this last, after the body is final.
func (b *Builder) WithContentLength() *Builder {
	b.frame.Set(HdrContentLength, strconv.Itoa(len(b.frame.Body)))
	return b
}

// Build finalizes and returns the assembled frame.
func (b *Builder) Build() *Frame {
	return b.frame
}

// Encode serializes f to the exact on-wire byte sequence described in
// §4.1: COMMAND LF, headers LF-terminated, a blank LF, the body, a mandatory
// NUL (even for an empty body), and a trailing cosmetic LF.
func Encode(f *Frame) []byte {
	var buf bytes.Buffer
	buf.WriteString(string(f.Command))
	buf.WriteByte('\n')
	for _, h := range f.Headers {
		buf.WriteString(h.Name)
		buf.WriteByte(':')
		buf.WriteString(h.Value)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.Write(f.Body)
	buf.WriteByte(0x00)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// --- command-specific helpers, mirroring §4.1's list of builder helpers ---

// Connect builds a CONNECT (v1.0) or STOMP (v>=1.1) handshake frame.
func Connect(useStompCommand bool, acceptVersion, host, login, passcode string, extra map[string]string) *Frame {
	cmd := CONNECT
	if useStompCommand {
		cmd = STOMP
	}
	b := NewBuilder(cmd).Header(HdrAcceptVersion, acceptVersion)
	if host != "" {
		b.Header(HdrHost, host)
	}
	if login != "" {
		b.Header(HdrLogin, login)
	}
	if passcode != "" {
		b.Header(HdrPasscode, passcode)
	}
	b.Headers(extra)
	return b.Build()
}

// Send builds a SEND frame with destination and content-length headers.
func Send(destination string, body []byte, extra map[string]string) *Frame {
	return NewBuilder(SEND).
		Header(HdrDestination, destination).
		Headers(extra).
		Body(body).
		WithContentLength().
		Build()
}

// Subscribe builds a SUBSCRIBE frame.
func Subscribe(id, destination, ack string, extra map[string]string) *Frame {
	return NewBuilder(SUBSCRIBE).
		Header(HdrId, id).
		Header(HdrDestination, destination).
		Header("ack", ack).
		Headers(extra).
		Build()
}

// Unsubscribe builds an UNSUBSCRIBE frame.
func Unsubscribe(id string) *Frame {
	return NewBuilder(UNSUBSCRIBE).Header(HdrId, id).Build()
}

// Begin, Commit, Abort build transaction-control frames. The connection
// manager never issues these (transactions are a Non-goal, §1) but the
// encoder supports them as primitive building blocks, matching the
// teacher's full per-command helper set.
func Begin(transaction string) *Frame  { return NewBuilder(BEGIN).Header("transaction", transaction).Build() }
func Commit(transaction string) *Frame { return NewBuilder(COMMIT).Header("transaction", transaction).Build() }
func Abort(transaction string) *Frame  { return NewBuilder(ABORT).Header("transaction", transaction).Build() }

// Ack builds an ACK frame using the given ack-id header name (selected by
// protocol version — see protocol.AckHeader).
func Ack(ackHeaderName, ackId, subscriptionId string) *Frame {
	b := NewBuilder(ACK).Header(ackHeaderName, ackId)
	if subscriptionId != "" {
		b.Header(HdrSubscription, subscriptionId)
	}
	return b.Build()
}

// Nack builds a NACK frame. Callers must check protocol.ValidCommand first:
// NACK does not exist under STOMP 1.0.
func Nack(ackHeaderName, ackId, subscriptionId string) *Frame {
	b := NewBuilder(NACK).Header(ackHeaderName, ackId)
	if subscriptionId != "" {
		b.Header(HdrSubscription, subscriptionId)
	}
	return b.Build()
}

// Disconnect builds a DISCONNECT frame.
func Disconnect() *Frame {
	return NewBuilder(DISCONNECT).Build()
}

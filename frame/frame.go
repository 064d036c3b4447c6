// Package frame holds the in-memory representation of a STOMP frame and the
// builder that turns one into wire bytes. It has no knowledge of sockets,
// protocol versions, or subscriptions — those live in protocol, transport,
// receiver and bridge respectively.
package frame

import "strings"

// Command is a short uppercase ASCII token, or the synthetic HEARTBEAT
// token the receiver synthesizes for a bare newline.
type Command string

const (
	CONNECT     Command = "CONNECT"
	STOMP       Command = "STOMP"
	CONNECTED   Command = "CONNECTED"
	SEND        Command = "SEND"
	SUBSCRIBE   Command = "SUBSCRIBE"
	UNSUBSCRIBE Command = "UNSUBSCRIBE"
	BEGIN       Command = "BEGIN"
	COMMIT      Command = "COMMIT"
	ABORT       Command = "ABORT"
	ACK         Command = "ACK"
	NACK        Command = "NACK"
	DISCONNECT  Command = "DISCONNECT"
	MESSAGE     Command = "MESSAGE"
	RECEIPT     Command = "RECEIPT"
	ERROR       Command = "ERROR"

	// HEARTBEAT never appears on the wire; the receiver synthesizes it for
	// a bare LF/CRLF seen while awaiting a command line.
	HEARTBEAT Command = "HEARTBEAT"
)

// Well known header names.
const (
	HdrContentLength = "content-length"
	HdrContentType   = "content-type"
	HdrDestination   = "destination"
	HdrHost          = "host"
	HdrLogin         = "login"
	HdrPasscode      = "passcode"
	HdrAcceptVersion = "accept-version"
	HdrVersion       = "version"
	HdrHeartBeat     = "heart-beat"
	HdrId            = "id"
	HdrAck           = "ack"
	HdrMessageId     = "message-id"
	HdrSubscription  = "subscription"
	HdrMessage       = "message"
)

// Header is a single name/value pair. Frame keeps headers as an ordered
// slice rather than a map so that dispatch order and duplicate-header
// policy (first occurrence wins, per STOMP 1.2 §1.4.2) are preserved and
// enforceable.
type Header struct {
	Name  string
	Value string
}

// Frame is the parsed or outgoing representation of one STOMP frame.
type Frame struct {
	Command Command
	Headers []Header
	Body    []byte
}

// New creates an empty frame for the given command.
func New(command Command) *Frame {
	return &Frame{Command: command}
}

// Get returns the value of the first occurrence of name, and whether it was
// found. Header names are matched case-sensitively, as STOMP requires.
func (f *Frame) Get(name string) (string, bool) {
	for _, h := range f.Headers {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}

// GetDefault is Get but returns def when the header is absent.
func (f *Frame) GetDefault(name, def string) string {
	if v, ok := f.Get(name); ok {
		return v
	}
	return def
}

// Set appends a header. It does not deduplicate — callers that need
// first-wins semantics (the receiver, when parsing inbound frames) call
// AddFirstWins instead.
func (f *Frame) Set(name, value string) *Frame {
	f.Headers = append(f.Headers, Header{Name: name, Value: value})
	return f
}

// AddFirstWins appends name/value only if name is not already present.
// This is how the receiver enforces "first occurrence is authoritative"
// (§4.5.4) while still accumulating headers in arrival order.
func (f *Frame) AddFirstWins(name, value string) {
	if _, ok := f.Get(name); ok {
		return
	}
	f.Headers = append(f.Headers, Header{Name: name, Value: value})
}

// Clean trims trailing whitespace from the command. It is idempotent:
// Clean(Clean(f)) == Clean(f).
//
// It does not touch Body. The mandatory terminator NUL is always consumed
// by whoever reads the body (content-length reads exactly N bytes and then
// the NUL separately; terminator-delimited reads stop at the first NUL), so
// Body never has the terminator attached by the time Clean is called. A
// body whose last legitimate content byte happens to be 0x00 — explicitly
// allowed under content-length framing — must reach callers intact.
func (f *Frame) Clean() *Frame {
	f.Command = Command(strings.TrimRight(string(f.Command), " \t\r\n"))
	return f
}

// IsHeartbeat reports whether this is the synthetic heartbeat pseudo-frame.
func (f *Frame) IsHeartbeat() bool {
	return f.Command == HEARTBEAT
}

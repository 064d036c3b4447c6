// Package stomperr holds the structured error taxonomy described in §7:
// the failures it names are returned as these types, so callers can use
// errors.As instead of matching on strings. Other failures (dialing,
// option decoding, reading the handshake reply, an unknown callback handle,
// a closed connection) are returned as plain wrapped errors.
package stomperr

import "fmt"

// Transport reports that the underlying socket failed. Kind carries the
// OS/TLS cause, via transport.ErrorKind. Receiving this stops the
// connection manager's task.
type Transport struct {
	Kind int
	Err  error
}

func (e *Transport) Error() string { return fmt.Sprintf("stomp: transport error: %v", e.Err) }
func (e *Transport) Unwrap() error { return e.Err }

// ServerRejected reports that the CONNECT/STOMP handshake yielded an ERROR
// frame, or any frame other than CONNECTED.
type ServerRejected struct {
	Message string
}

func (e *ServerRejected) Error() string { return fmt.Sprintf("stomp: server rejected connection: %s", e.Message) }

// ProtocolParse reports a malformed frame: a malformed header line, or a
// content-length body not followed by NUL. This closes the connection. The
// command token is not validated, and a content-length that does not parse
// as a non-negative integer is treated as absent rather than reported here.
type ProtocolParse struct {
	Where string
	Err   error
}

func (e *ProtocolParse) Error() string { return fmt.Sprintf("stomp: protocol parse error at %s: %v", e.Where, e.Err) }
func (e *ProtocolParse) Unwrap() error { return e.Err }

// AlreadySubscribed is a local precondition failure: a destination already
// has a subscription. Non-fatal.
type AlreadySubscribed struct {
	Destination string
}

func (e *AlreadySubscribed) Error() string {
	return fmt.Sprintf("stomp: already subscribed to %q", e.Destination)
}

// NotSubscribed is a local precondition failure: no subscription exists
// for the destination. Non-fatal.
type NotSubscribed struct {
	Destination string
}

func (e *NotSubscribed) Error() string {
	return fmt.Sprintf("stomp: not subscribed to %q", e.Destination)
}

// BodyDecompression reports a gzip decode failure for a compressed
// subscription. The offending frame is dropped; the manager continues.
type BodyDecompression struct {
	Destination string
	Err         error
}

func (e *BodyDecompression) Error() string {
	return fmt.Sprintf("stomp: body decompression failed for %q: %v", e.Destination, e.Err)
}
func (e *BodyDecompression) Unwrap() error { return e.Err }

// VersionUnsupported reports an operation that the negotiated protocol
// version does not support (e.g. NACK under 1.0). Logged as a warning;
// the operation is skipped rather than failing the connection.
type VersionUnsupported struct {
	Operation string
	Version   string
}

func (e *VersionUnsupported) Error() string {
	return fmt.Sprintf("stomp: %s unsupported under STOMP %s", e.Operation, e.Version)
}

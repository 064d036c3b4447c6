// Package transport is the single place STOMP-over-plain-TCP and
// STOMP-over-TLS diverge (§4.3). Everything above a Transport — the
// receiver, the connection manager — only ever sees the Transport
// interface and is oblivious to which one it got.
package transport

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// ErrorKind classifies why a Transport operation failed, carried inside a
// stomperr.Transport error by callers above this package.
type ErrorKind int

const (
	ErrKindIO ErrorKind = iota
	ErrKindEOF
	ErrKindClosed
)

// Transport is a thin, mode-switching wrapper over a byte-oriented socket,
// per §4.3. Exactly one goroutine reads from it (the receiver) and exactly
// one writes to it (the connection manager) — see spec §5 "Shared
// resources" — so Transport itself needs no internal locking.
type Transport interface {
	// ReadLine reads bytes up to and including the first occurrence of
	// delim and returns the line including the delimiter.
	ReadLine(delim byte) ([]byte, error)

	// FastForward repeatedly calls ReadLine(delim) while the line equals
	// the delimiter alone, and returns the first non-empty line. Used to
	// skip leading blank lines before a command (§4.3.2).
	FastForward(delim byte) ([]byte, error)

	// ReadBytes reads exactly n bytes, regardless of embedded LF/NUL.
	ReadBytes(n int) ([]byte, error)

	// ReadSome reads whatever is immediately available into buf and
	// returns how much it read, blocking only until at least one byte
	// arrives. Used by the async receiver, which feeds arbitrarily sized
	// chunks into its Parser rather than pulling line-by-line.
	ReadSome(buf []byte) (int, error)

	// Send writes b in full.
	Send(b []byte) error

	// Close performs an orderly shutdown. Any in-flight Read/ReadBytes
	// call is unblocked and returns an error.
	Close() error

	// SetReadDeadline forwards to the underlying connection; the receiver
	// has no read timeout of its own beyond what the caller configures.
	SetReadDeadline(t time.Time) error
}

// connTransport implements Transport over any net.Conn (plain TCP or TLS —
// tls.Conn satisfies net.Conn, so the divergence is entirely in how the
// conn gets dialed, in Dial/DialTLS below).
type connTransport struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial opens a plain TCP connection to addr with the given connect timeout.
func Dial(addr string, timeout time.Duration) (Transport, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return wrap(conn), nil
}

// DialTLS opens a TLS connection to addr. cfg may be nil, in which case a
// zero-value tls.Config is used (default certificate verification). The
// connect timeout bounds the TCP dial and the TLS handshake together.
func DialTLS(addr string, timeout time.Duration, cfg *tls.Config) (Transport, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(&d, "tcp", addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("transport: tls dial %s: %w", addr, err)
	}
	return wrap(conn), nil
}

// Wrap adapts an already-established net.Conn (e.g. one accepted by a test
// listener, or a *tls.Conn dialed elsewhere) into a Transport.
func Wrap(conn net.Conn) Transport {
	return wrap(conn)
}

func wrap(conn net.Conn) Transport {
	return &connTransport{conn: conn, r: bufio.NewReader(conn)}
}

func (t *connTransport) ReadLine(delim byte) ([]byte, error) {
	line, err := t.r.ReadBytes(delim)
	if err != nil {
		return nil, classifyReadErr(err)
	}
	return line, nil
}

func (t *connTransport) FastForward(delim byte) ([]byte, error) {
	blank := []byte{delim}
	for {
		line, err := t.ReadLine(delim)
		if err != nil {
			return nil, err
		}
		if !bytesEqual(line, blank) {
			return line, nil
		}
	}
}

func (t *connTransport) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("transport: negative read length %d", n)
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := readFull(t.r, buf); err != nil {
		return nil, classifyReadErr(err)
	}
	return buf, nil
}

func (t *connTransport) ReadSome(buf []byte) (int, error) {
	n, err := t.r.Read(buf)
	if err != nil {
		return n, classifyReadErr(err)
	}
	return n, nil
}

func (t *connTransport) Send(b []byte) error {
	_, err := t.conn.Write(b)
	if err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	return nil
}

func (t *connTransport) Close() error {
	return t.conn.Close()
}

func (t *connTransport) SetReadDeadline(tm time.Time) error {
	return t.conn.SetReadDeadline(tm)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

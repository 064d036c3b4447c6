// Package receiver is the core of this library: an incremental reader that
// assembles one complete STOMP frame at a time out of a byte stream whose
// arrival boundaries are arbitrary (§1, §4.5). Parser is the pure state
// machine (§4.5.3); Receiver wraps it as an async task pulling chunks off a
// transport.Transport and surrendering completed frames to its owner.
package receiver

import (
	"bytes"
	"fmt"

	"github.com/manageplaces/Stompex/frame"
	"github.com/manageplaces/Stompex/protocol"
)

// State names the parser's current position in §4.5.3's state machine.
type State int

const (
	AwaitingCommand State = iota
	ReadingHeaders
	ReadingBodyByLength
	ReadingBodyByTerminator
)

// PartialState snapshots a Parser's progress mid-frame, for introspection
// (mirrors the scenario-3 vocabulary in §8: headers_complete, last_header).
type PartialState struct {
	State           State
	HeadersComplete bool
	LastHeader      string
}

// Parser is §4.5.3's state machine plus the internal byte buffer the
// design notes (§9) call for: feeding it bytes returns zero or more
// completed frames, and resumes correctly no matter where a read boundary
// falls — including inside a body that itself contains NUL bytes, as long
// as content-length governs that body.
//
// A Parser is not safe for concurrent use; each connection's receiver owns
// exactly one (§5 "Shared resources").
type Parser struct {
	version protocol.Version

	buf    []byte
	state  State
	cur    *frame.Frame
	lastHdr string

	remaining int // ReadingBodyByLength: bytes of body still to consume

	// IsCompressed reports whether the receiver should gzip-decode the
	// body of a completed MESSAGE frame before handing it back, based on
	// the frame's destination header. Wired by the connection manager
	// (§4.5.5); nil means "never compressed".
	IsCompressed func(destination string) bool
}

// NewParser creates a parser for the given protocol version. SetVersion
// can change the version later.
func NewParser(version protocol.Version) *Parser {
	return &Parser{version: version, state: AwaitingCommand}
}

// SetVersion updates the protocol version the parser uses for CR/LF
// handling (§4.5.2). Receiver applies it between frames, never mid-parse.
func (p *Parser) SetVersion(v protocol.Version) {
	p.version = v
}

// Partial reports the parser's current progress, for tests and diagnostics.
func (p *Parser) Partial() PartialState {
	return PartialState{
		State:           p.state,
		HeadersComplete: p.state != AwaitingCommand && p.state != ReadingHeaders,
		LastHeader:      p.lastHdr,
	}
}

// Feed appends chunk to the internal buffer and extracts as many complete
// frames as the buffer now contains. It never blocks and never does I/O;
// Receiver is responsible for supplying bytes as they arrive on the wire.
//
// dropped carries any BodyDecompressionError encountered along the way:
// per §4.5.5/§7 a decompression failure drops that one frame and logs, but
// does not stop the parser from assembling the frames around it. err is
// fatal — a malformed frame per §7's ProtocolParse — and the caller must
// stop the connection.
func (p *Parser) Feed(chunk []byte) (out []*frame.Frame, dropped []*BodyDecompressionError, err error) {
	p.buf = append(p.buf, chunk...)

	for {
		f, decompErr, progressed, stepErr := p.step()
		if stepErr != nil {
			return out, dropped, stepErr
		}
		if decompErr != nil {
			dropped = append(dropped, decompErr)
			continue
		}
		if f != nil {
			out = append(out, f)
			continue
		}
		if !progressed {
			break
		}
	}
	return out, dropped, nil
}

// BodyDecompressionError reports a gzip decode failure for a compressed
// subscription's MESSAGE body (§4.5.5, §7). The frame is dropped; the
// connection keeps running.
type BodyDecompressionError struct {
	Destination string
	Err         error
}

func (e *BodyDecompressionError) Error() string {
	return fmt.Sprintf("receiver: body decompression failed for %q: %v", e.Destination, e.Err)
}
func (e *BodyDecompressionError) Unwrap() error { return e.Err }

// step attempts one state transition. It returns a completed frame when a
// frame just finished, a BodyDecompressionError when a frame just finished
// but had to be dropped, or progressed=false when the buffer does not yet
// hold enough bytes to make further progress.
func (p *Parser) step() (f *frame.Frame, decompErr *BodyDecompressionError, progressed bool, err error) {
	switch p.state {
	case AwaitingCommand:
		return p.stepAwaitingCommand()
	case ReadingHeaders:
		return p.stepReadingHeaders()
	case ReadingBodyByLength:
		return p.stepReadingBodyByLength()
	case ReadingBodyByTerminator:
		return p.stepReadingBodyByTerminator()
	}
	return nil, nil, false, fmt.Errorf("receiver: unknown parser state %d", p.state)
}

func (p *Parser) stepAwaitingCommand() (*frame.Frame, *BodyDecompressionError, bool, error) {
	line, ok := p.takeLine()
	if !ok {
		return nil, nil, false, nil
	}
	trimmed := p.trimLineTerminator(line)
	if len(trimmed) == 0 {
		// Blank line while awaiting a command: a heartbeat (§4.5.1).
		return &frame.Frame{Command: frame.HEARTBEAT}, nil, true, nil
	}
	p.cur = &frame.Frame{Command: frame.Command(trimmed)}
	p.lastHdr = ""
	p.state = ReadingHeaders
	return nil, nil, true, nil
}

func (p *Parser) stepReadingHeaders() (*frame.Frame, *BodyDecompressionError, bool, error) {
	line, ok := p.takeLine()
	if !ok {
		return nil, nil, false, nil
	}
	trimmed := p.trimLineTerminator(line)
	if len(trimmed) == 0 {
		// Blank line: headers are complete (§4.5.3).
		if n, present := contentLengthOf(p.cur); present {
			p.remaining = n
			p.state = ReadingBodyByLength
		} else {
			p.state = ReadingBodyByTerminator
		}
		return nil, nil, true, nil
	}
	name, value, err := parseHeaderLine(trimmed)
	if err != nil {
		return nil, nil, false, &ParseError{Where: "header line", Err: err}
	}
	// First occurrence wins (§4.5.4).
	p.cur.AddFirstWins(name, value)
	p.lastHdr = name
	return nil, nil, true, nil
}

func (p *Parser) stepReadingBodyByLength() (*frame.Frame, *BodyDecompressionError, bool, error) {
	need := p.remaining + 1 // +1 for the mandatory trailing NUL
	if len(p.buf) < need {
		return nil, nil, false, nil
	}
	p.cur.Body = append([]byte(nil), p.buf[:p.remaining]...)
	if p.buf[p.remaining] != 0x00 {
		return nil, nil, false, &ParseError{Where: "body terminator", Err: fmt.Errorf("expected NUL after content-length body, got %#x", p.buf[p.remaining])}
	}
	p.buf = p.buf[need:]
	f, decompErr := p.finishFrame()
	return f, decompErr, true, nil
}

func (p *Parser) stepReadingBodyByTerminator() (*frame.Frame, *BodyDecompressionError, bool, error) {
	idx := bytes.IndexByte(p.buf, 0x00)
	if idx < 0 {
		return nil, nil, false, nil
	}
	p.cur.Body = append([]byte(nil), p.buf[:idx]...)
	p.buf = p.buf[idx+1:]
	f, decompErr := p.finishFrame()
	return f, decompErr, true, nil
}

// finishFrame cleans the just-completed frame and, for a MESSAGE on a
// compressed subscription, gzip-decodes its body. On decode failure the
// frame is dropped and a BodyDecompressionError is returned instead.
func (p *Parser) finishFrame() (*frame.Frame, *BodyDecompressionError) {
	f := p.cur.Clean()
	p.cur = nil
	p.lastHdr = ""
	p.remaining = 0
	p.state = AwaitingCommand

	if f.Command != frame.MESSAGE || p.IsCompressed == nil {
		return f, nil
	}
	dest, ok := f.Get(frame.HdrDestination)
	if !ok || !p.IsCompressed(dest) {
		return f, nil
	}
	decoded, err := gunzip(f.Body)
	if err != nil {
		return nil, &BodyDecompressionError{Destination: dest, Err: err}
	}
	f.Body = decoded
	return f, nil
}

// takeLine pops the next line (up to and including '\n') off the front of
// the buffer, or reports ok=false if the buffer has no '\n' yet.
func (p *Parser) takeLine() ([]byte, bool) {
	idx := bytes.IndexByte(p.buf, '\n')
	if idx < 0 {
		return nil, false
	}
	line := p.buf[:idx+1]
	p.buf = p.buf[idx+1:]
	return line, true
}

// trimLineTerminator strips the trailing LF and, under 1.1/1.2, a
// preceding CR (§4.5.2). Under 1.0 a bare CR is a literal byte of the
// line and is left in place.
func (p *Parser) trimLineTerminator(line []byte) string {
	line = line[:len(line)-1] // drop LF
	if protocol.TrimsCRBeforeLF(p.version) && len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return string(line)
}

func contentLengthOf(f *frame.Frame) (int, bool) {
	return protocol.ContentLength(f)
}

// ParseError reports a malformed frame (§7's ProtocolParse).
type ParseError struct {
	Where string
	Err   error
}

func (e *ParseError) Error() string { return fmt.Sprintf("receiver: parse error at %s: %v", e.Where, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

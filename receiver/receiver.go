package receiver

import (
	"errors"

	"github.com/manageplaces/Stompex/frame"
	"github.com/manageplaces/Stompex/protocol"
	"github.com/manageplaces/Stompex/stomperr"
	"github.com/manageplaces/Stompex/transport"
)

// Result is what the Receiver hands back to its owner for each pulled
// frame: either a Frame, or a terminal Err that means the receiver task
// has stopped and the transport should be considered dead.
type Result struct {
	Frame *frame.Frame
	Err   error
}

// Receiver is the async task described in §4.5 and §5: it blocks inside
// the transport, and on each pull from its owner performs the
// synchronous-mode algorithm once (here: feeds whatever bytes arrive to
// its Parser until that yields a frame) and reports the result on Out().
//
// Exactly one goroutine reads from Receiver's transport (this one); the
// connection manager never touches it directly, matching §5's "strict
// split removes any need for a socket lock".
type Receiver struct {
	t      transport.Transport
	parser *Parser

	next    chan struct{}
	version chan protocol.Version
	stop    chan struct{}
	out     chan Result

	pending []*frame.Frame

	// OnDropped is called (from the receiver's own goroutine — keep it
	// fast and non-blocking) whenever a MESSAGE is dropped for a body
	// decompression failure. May be nil.
	OnDropped func(*BodyDecompressionError)
}

// New creates a Receiver bound to t, starting at version. Call Start to
// launch its goroutine.
func New(t transport.Transport, version protocol.Version) *Receiver {
	return &Receiver{
		t:       t,
		parser:  NewParser(version),
		next:    make(chan struct{}, 1),
		version: make(chan protocol.Version, 1),
		stop:    make(chan struct{}),
		out:     make(chan Result, 1),
	}
}

// SetCompressionLookup wires the per-destination compressed-subscription
// check (§4.5.5) into the parser. The manager calls this once, before
// Start; the lookup is consulted for every MESSAGE, so it must reflect later
// changes to the compression flags itself and be safe to call from the
// receiver goroutine.
func (r *Receiver) SetCompressionLookup(fn func(destination string) bool) {
	r.parser.IsCompressed = fn
}

// Out returns the channel on which the receiver reports each pulled frame.
func (r *Receiver) Out() <-chan Result {
	return r.out
}

// RequestNext asks the receiver to pull and report the next frame. It is
// fire-and-forget: the caller does not block, and must wait on Out() for
// the result before calling RequestNext again (the pull model that gives
// this library its backpressure, §5).
func (r *Receiver) RequestNext() {
	select {
	case r.next <- struct{}{}:
	default:
		// A request is already outstanding; nothing to do.
	}
}

// SetVersion updates the protocol version the receiver parses with. It is
// applied between frames, never mid-parse, per §4.5.2.
func (r *Receiver) SetVersion(v protocol.Version) {
	select {
	case r.version <- v:
	default:
	}
}

// Stop signals the receiver's goroutine to exit. It does not close the
// transport: an in-flight read stays blocked until the caller closes it.
func (r *Receiver) Stop() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}

// Start launches the receiver's goroutine.
func (r *Receiver) Start() {
	go r.run()
}

func (r *Receiver) run() {
	for {
		select {
		case <-r.stop:
			return
		case v := <-r.version:
			r.parser.SetVersion(v)
		case <-r.next:
			f, err := r.produceOne()
			if err != nil {
				r.out <- Result{Err: err}
				return
			}
			r.out <- Result{Frame: f}
		}
	}
}

// produceOne returns the next complete frame, reading more chunks off the
// transport as needed and buffering any extras the parser produced beyond
// the one this call needs to return.
func (r *Receiver) produceOne() (*frame.Frame, error) {
	if len(r.pending) > 0 {
		f := r.pending[0]
		r.pending = r.pending[1:]
		return f, nil
	}

	buf := make([]byte, 4096)
	for {
		n, err := r.t.ReadSome(buf)
		if err != nil {
			return nil, classifyTransportErr(err)
		}
		frames, dropped, perr := r.parser.Feed(buf[:n])
		for _, d := range dropped {
			if r.OnDropped != nil {
				r.OnDropped(d)
			}
		}
		if perr != nil {
			return nil, &stomperr.ProtocolParse{Where: parseErrWhere(perr), Err: perr}
		}
		if len(frames) > 0 {
			r.pending = frames[1:]
			return frames[0], nil
		}
	}
}

func parseErrWhere(err error) string {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Where
	}
	return "frame"
}

func classifyTransportErr(err error) error {
	var re *transport.ReadError
	kind := int(transport.ErrKindIO)
	if errors.As(err, &re) {
		kind = int(re.Kind)
	}
	return &stomperr.Transport{Kind: kind, Err: err}
}

// Package monitor broadcasts connection-lifecycle events for observability.
// It mirrors the teacher's util.MonitorStream: a single channel, sends that
// never block, and no consumer required. Nothing in the connection manager
// or receiver depends on anyone listening.
package monitor

import "sync"

// Event types. Named after the transition they report, not the component
// that caused it.
const (
	Connected int = iota
	Subscribed
	Unsubscribed
	Disconnected
	FrameDropped
	ParseError
	ServerRejected
)

// Event is a single lifecycle notification. Destination is empty for
// connection-level events (Connected, Disconnected). Err is set for
// FrameDropped, ParseError and ServerRejected, and for a Disconnected caused
// by a receiver failure.
type Event struct {
	Type        int
	Destination string
	Err         error
}

// Stream is a broadcaster of lifecycle Events. The zero value is not usable;
// construct one with New.
type Stream struct {
	out  chan Event
	lock sync.Mutex
}

// New creates a Stream with the given channel capacity. A capacity of 0 is
// valid — no observer ever blocks the sender either way, since Send always
// uses a non-blocking select.
func New(capacity int) *Stream {
	return &Stream{out: make(chan Event, capacity)}
}

// Out returns the channel observers drain. There is deliberately no
// unsubscribe: observers just stop reading.
func (s *Stream) Out() <-chan Event {
	return s.out
}

// Send delivers evt to any observer currently draining Out(). If the
// channel is full (or nobody is listening) the event is dropped — this is
// the one channel operation in the whole library that must never block, per
// the connection manager's single-threaded dispatch discipline.
func (s *Stream) Send(evt Event) {
	s.lock.Lock()
	defer s.lock.Unlock()
	select {
	case s.out <- evt:
	default:
	}
}

// SendEvent is a convenience wrapper over Send for the common case of an
// event with no error attached.
func (s *Stream) SendEvent(eventType int, destination string) {
	s.Send(Event{Type: eventType, Destination: destination})
}

// SendError is Send for events that carry a cause.
func (s *Stream) SendError(eventType int, destination string, err error) {
	s.Send(Event{Type: eventType, Destination: destination, Err: err})
}

package bridge

import "github.com/manageplaces/Stompex/frame"

// Ack modes, per §3.
const (
	AckAuto             = "auto"
	AckClient           = "client"
	AckClientIndividual = "client-individual"
)

// Subscription is the client's record of a SUBSCRIBE, keyed by destination
// in the Connection's registry. At most one exists per destination (§3's
// uniqueness invariant).
type Subscription struct {
	ID          string
	Destination string
	Ack         string
	Compressed  bool
}

// FrameCallback receives a completed Frame. It returns nothing observable,
// per §6's callback contract.
type FrameCallback func(f *frame.Frame)

// CallbackHandle identifies one registered callback for removal. The
// teacher's source holds a heterogeneous list of user functions and removes
// by identity; Go function values aren't comparable, so RegisterCallback
// hands back this opaque token instead — the design notes call this out as
// "cleaner in strongly typed targets" than trying to fake identity.
type CallbackHandle struct {
	destination string
	seq         uint64
}

type registeredCallback struct {
	handle CallbackHandle
	fn     FrameCallback
}

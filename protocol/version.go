// Package protocol answers version-sensitive questions about the STOMP
// wire format: which commands are legal under a given version, which
// header carries an ack id, and how to normalize a version string or an
// accept-version offer list. It holds no connection state.
package protocol

import (
	"strconv"
	"strings"

	"github.com/manageplaces/Stompex/frame"
)

// Version is a STOMP protocol version. Only 1.0, 1.1 and 1.2 exist.
type Version float64

const (
	V1_0 Version = 1.0
	V1_1 Version = 1.1
	V1_2 Version = 1.2

	// DefaultVersion is used whenever a caller or server omits the
	// version header altogether, except for the CONNECTED handshake
	// itself, where an absent version header means 1.0 (§6).
	DefaultVersion Version = V1_2
)

// String renders the version the way it appears on the wire, e.g. "1.2".
func (v Version) String() string {
	return strconv.FormatFloat(float64(v), 'f', -1, 64)
}

// NormalizeVersion implements §4.2's normalize_version: nil/empty returns
// the default (1.2); a single dotted decimal returns that version; a
// comma-separated offer list returns the maximum offered version.
func NormalizeVersion(input string) Version {
	input = strings.TrimSpace(input)
	if input == "" {
		return DefaultVersion
	}
	parts := strings.Split(input, ",")
	var max Version
	for _, p := range parts {
		v, err := parseVersion(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return DefaultVersion
	}
	return max
}

func parseVersion(s string) (Version, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return Version(f), nil
}

// v10Commands is the 1.0 baseline command set; v11ExtraCommands holds the
// commands 1.1 and later accept on top of it (§4.2).
var v10Commands = map[frame.Command]bool{
	frame.CONNECTED: true, frame.MESSAGE: true, frame.RECEIPT: true,
	frame.ERROR: true, frame.CONNECT: true, frame.SEND: true,
	frame.SUBSCRIBE: true, frame.UNSUBSCRIBE: true, frame.BEGIN: true,
	frame.COMMIT: true, frame.ABORT: true, frame.ACK: true,
	frame.DISCONNECT: true,
}

var v11ExtraCommands = map[frame.Command]bool{
	frame.STOMP: true, frame.NACK: true,
}

// ValidCommand reports whether command is legal under version, per §4.2.
func ValidCommand(command frame.Command, version Version) bool {
	if v10Commands[command] {
		return true
	}
	if version >= V1_1 && v11ExtraCommands[command] {
		return true
	}
	return false
}

// AckHeader returns the header name that carries the ack id for ACK/NACK
// frames under version: "ack" under 1.2, "message-id" under 1.0/1.1. This
// resolves §9's open question in favor of strict 1.2 adherence.
func AckHeader(version Version) string {
	if version >= V1_2 {
		return frame.HdrAck
	}
	return frame.HdrMessageId
}

// SupportsNack reports whether NACK exists under version (it does not
// under 1.0, §4.5.2).
func SupportsNack(version Version) bool {
	return version >= V1_1
}

// TrimsCRBeforeLF reports whether, under version, a bare CR preceding an LF
// is part of the line terminator and should be trimmed (true for 1.1/1.2)
// rather than left as a literal byte of the value (false for 1.0), per
// §4.5.2.
func TrimsCRBeforeLF(version Version) bool {
	return version >= V1_1
}

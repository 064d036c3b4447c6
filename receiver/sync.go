package receiver

import (
	"fmt"

	"github.com/manageplaces/Stompex/frame"
	"github.com/manageplaces/Stompex/protocol"
	"github.com/manageplaces/Stompex/transport"
)

// ReadSync performs §4.4's synchronous read algorithm once against t,
// returning a single complete frame. It is used exactly once per
// connection, to read the server's CONNECTED/ERROR reply to the initial
// CONNECT/STOMP handshake — before the async Receiver task exists at all,
// so there's no owner to hand a frame to yet.
func ReadSync(t transport.Transport, version protocol.Version) (*frame.Frame, error) {
	cmdLine, err := t.FastForward('\n')
	if err != nil {
		return nil, fmt.Errorf("receiver: reading command line: %w", err)
	}
	f := &frame.Frame{Command: frame.Command(trimLine(cmdLine, version))}

	for {
		line, err := t.ReadLine('\n')
		if err != nil {
			return nil, fmt.Errorf("receiver: reading header line: %w", err)
		}
		trimmed := trimLine(line, version)
		if trimmed == "" {
			break
		}
		name, value, perr := parseHeaderLine(trimmed)
		if perr != nil {
			return nil, &ParseError{Where: "header line", Err: perr}
		}
		f.AddFirstWins(name, value)
	}

	if n, ok := protocol.ContentLength(f); ok {
		body, err := t.ReadBytes(n + 1)
		if err != nil {
			return nil, fmt.Errorf("receiver: reading content-length body: %w", err)
		}
		f.Body = body[:n]
	} else {
		body, err := readUntilNUL(t)
		if err != nil {
			return nil, fmt.Errorf("receiver: reading terminated body: %w", err)
		}
		f.Body = body
	}

	return f.Clean(), nil
}

// readUntilNUL implements §4.4 step 3's else branch: read_line('\x00'),
// and if the chunk returned doesn't contain the NUL (a short read), keep
// reading and appending until it does.
func readUntilNUL(t transport.Transport) ([]byte, error) {
	var body []byte
	for {
		chunk, err := t.ReadLine(0x00)
		if err != nil {
			return nil, err
		}
		body = append(body, chunk...)
		if len(chunk) > 0 && chunk[len(chunk)-1] == 0x00 {
			return body[:len(body)-1], nil
		}
	}
}

func trimLine(line []byte, version protocol.Version) string {
	s := string(line)
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if protocol.TrimsCRBeforeLF(version) && len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}

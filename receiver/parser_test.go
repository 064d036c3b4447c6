package receiver

import (
	"bytes"
	"compress/gzip"
	"strconv"
	"testing"

	"github.com/manageplaces/Stompex/frame"
	"github.com/manageplaces/Stompex/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullFrameNoContentLength(t *testing.T) {
	p := NewParser(protocol.V1_2)
	input := "MESSAGE\nmessage-id:123\nheader-2:header-val\nheader-3:header-val\n\nbody text\n\x00"

	frames, dropped, err := p.Feed([]byte(input))
	require.NoError(t, err)
	require.Empty(t, dropped)
	require.Len(t, frames, 1)

	f := frames[0]
	assert.Equal(t, frame.MESSAGE, f.Command)
	assert.Equal(t, "body text\n", string(f.Body))
	v, _ := f.Get("message-id")
	assert.Equal(t, "123", v)
	v, _ = f.Get("header-2")
	assert.Equal(t, "header-val", v)
	v, _ = f.Get("header-3")
	assert.Equal(t, "header-val", v)
}

func TestContentLengthWithEmbeddedNUL(t *testing.T) {
	p := NewParser(protocol.V1_2)
	body := "body text\n\x00\nbody text\n" // 22 bytes, embeds a NUL
	require.Equal(t, 22, len(body))
	input := "MESSAGE\ndestination:/queue/a\ncontent-length:22\n\n" + body + "\x00"

	frames, dropped, err := p.Feed([]byte(input))
	require.NoError(t, err)
	require.Empty(t, dropped)
	require.Len(t, frames, 1)
	assert.Equal(t, body, string(frames[0].Body))
}

func TestContentLengthBodyEndingInNULIsNotTruncated(t *testing.T) {
	p := NewParser(protocol.V1_2)
	body := "body text\x00" // last legitimate content byte is itself NUL
	require.Equal(t, 10, len(body))
	input := "MESSAGE\ndestination:/queue/a\ncontent-length:10\n\n" + body + "\x00"

	frames, dropped, err := p.Feed([]byte(input))
	require.NoError(t, err)
	require.Empty(t, dropped)
	require.Len(t, frames, 1)
	assert.Equal(t, body, string(frames[0].Body))
}

func TestPartialThenCompletion(t *testing.T) {
	p := NewParser(protocol.V1_2)
	chunkA := "MESSAGE\nmessage-id:123\nheader-2:header-val\n"
	chunkB := "header-3:header-val\n\nbody text\n\x00"

	frames, dropped, err := p.Feed([]byte(chunkA))
	require.NoError(t, err)
	require.Empty(t, dropped)
	assert.Empty(t, frames)

	partial := p.Partial()
	assert.False(t, partial.HeadersComplete)
	assert.Equal(t, "header-2", partial.LastHeader)

	frames, dropped, err = p.Feed([]byte(chunkB))
	require.NoError(t, err)
	require.Empty(t, dropped)
	require.Len(t, frames, 1)
	assert.Equal(t, "body text\n", string(frames[0].Body))
}

func TestTwoFramesBackToBack(t *testing.T) {
	p := NewParser(protocol.V1_2)
	one := "MESSAGE\nmessage-id:123\nheader-2:header-val\nheader-3:header-val\n\nbody text\n\x00"
	frames, _, err := p.Feed([]byte(one + one))
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, frames[0].Headers, frames[1].Headers)
	assert.Equal(t, frames[0].Body, frames[1].Body)
}

func TestHeartbeat(t *testing.T) {
	p := NewParser(protocol.V1_2)
	frames, dropped, err := p.Feed([]byte("\n"))
	require.NoError(t, err)
	require.Empty(t, dropped)
	require.Len(t, frames, 1)
	assert.True(t, frames[0].IsHeartbeat())
	assert.Empty(t, frames[0].Headers)
	assert.Empty(t, frames[0].Body)
}

func TestHeartbeatCRLFUnderV11(t *testing.T) {
	p := NewParser(protocol.V1_1)
	frames, _, err := p.Feed([]byte("\r\n"))
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.True(t, frames[0].IsHeartbeat())
}

func TestBareCRIsLiteralUnderV10(t *testing.T) {
	p := NewParser(protocol.V1_0)
	input := "MESSAGE\nheader:va\rlue\n\nbody\x00"
	frames, _, err := p.Feed([]byte(input))
	require.NoError(t, err)
	require.Len(t, frames, 1)
	v, ok := frames[0].Get("header")
	require.True(t, ok)
	assert.Equal(t, "va\rlue", v)
}

func TestMalformedHeaderLineIsProtocolParseError(t *testing.T) {
	p := NewParser(protocol.V1_2)
	_, _, err := p.Feed([]byte("MESSAGE\nnotavalidheader\n\nbody\x00"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestWrongByteAfterContentLengthBodyIsProtocolParseError(t *testing.T) {
	p := NewParser(protocol.V1_2)
	_, _, err := p.Feed([]byte("MESSAGE\ncontent-length:4\n\nabcdX"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestCompressedSubscriptionDecodesBody(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte("hello compressed"))
	require.NoError(t, gz.Close())
	compressed := buf.Bytes()

	p := NewParser(protocol.V1_2)
	p.IsCompressed = func(dest string) bool { return dest == "/topic/z" }

	input := append([]byte("MESSAGE\ndestination:/topic/z\ncontent-length:"+strconv.Itoa(len(compressed))+"\n\n"), compressed...)
	input = append(input, 0x00)

	frames, dropped, err := p.Feed(input)
	require.NoError(t, err)
	require.Empty(t, dropped)
	require.Len(t, frames, 1)
	assert.Equal(t, "hello compressed", string(frames[0].Body))
}

func TestCompressedSubscriptionBadGzipIsDropped(t *testing.T) {
	p := NewParser(protocol.V1_2)
	p.IsCompressed = func(dest string) bool { return true }

	body := "not actually gzip"
	input := "MESSAGE\ndestination:/topic/z\ncontent-length:" + strconv.Itoa(len(body)) + "\n\n" + body + "\x00"
	frames, dropped, err := p.Feed([]byte(input))
	require.NoError(t, err)
	assert.Empty(t, frames)
	require.Len(t, dropped, 1)
	assert.Equal(t, "/topic/z", dropped[0].Destination)
}

package protocol

import (
	"testing"

	"github.com/manageplaces/Stompex/frame"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeVersion(t *testing.T) {
	assert.Equal(t, DefaultVersion, NormalizeVersion(""))
	assert.Equal(t, V1_0, NormalizeVersion("1.0"))
	assert.Equal(t, V1_2, NormalizeVersion("1.0,1.1,1.2"))
	assert.Equal(t, V1_1, NormalizeVersion("1.0,1.1"))
	assert.Equal(t, DefaultVersion, NormalizeVersion("garbage"))
}

func TestValidCommand(t *testing.T) {
	assert.True(t, ValidCommand(frame.CONNECT, V1_0))
	assert.False(t, ValidCommand(frame.STOMP, V1_0))
	assert.True(t, ValidCommand(frame.STOMP, V1_1))
	assert.False(t, ValidCommand(frame.NACK, V1_0))
	assert.True(t, ValidCommand(frame.NACK, V1_1))
	assert.True(t, ValidCommand(frame.NACK, V1_2))
}

func TestAckHeader(t *testing.T) {
	assert.Equal(t, frame.HdrMessageId, AckHeader(V1_0))
	assert.Equal(t, frame.HdrMessageId, AckHeader(V1_1))
	assert.Equal(t, frame.HdrAck, AckHeader(V1_2))
}

func TestFormatHeader(t *testing.T) {
	h := FormatHeader(frame.HdrContentLength, "42")
	assert.Equal(t, int64(42), h.Value)
	assert.Equal(t, frame.HdrContentLength, h.Name)

	h = FormatHeader(frame.HdrVersion, "1.2")
	assert.Equal(t, V1_2, h.Value)
	assert.Equal(t, frame.HdrVersion, h.Name)

	h = FormatHeader("destination", "/topic/foo")
	assert.Equal(t, "/topic/foo", h.Value)
}

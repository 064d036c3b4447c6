package transport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeTransports(t *testing.T) (Transport, net.Conn) {
	client, server := net.Pipe()
	return Wrap(client), server
}

func TestReadLine(t *testing.T) {
	tr, server := pipeTransports(t)
	defer server.Close()
	go server.Write([]byte("hello\n"))

	line, err := tr.ReadLine('\n')
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(line))
}

func TestFastForwardSkipsBlankLines(t *testing.T) {
	tr, server := pipeTransports(t)
	defer server.Close()
	go server.Write([]byte("\n\n\nMESSAGE\n"))

	line, err := tr.FastForward('\n')
	require.NoError(t, err)
	assert.Equal(t, "MESSAGE\n", string(line))
}

func TestReadBytesExact(t *testing.T) {
	tr, server := pipeTransports(t)
	defer server.Close()
	go server.Write([]byte("hello world\x00"))

	b, err := tr.ReadBytes(11)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(b))

	nul, err := tr.ReadBytes(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, nul)
}

func TestSendWritesAllBytes(t *testing.T) {
	tr, server := pipeTransports(t)
	defer server.Close()

	done := make(chan []byte)
	go func() {
		buf := make([]byte, 5)
		server.Read(buf)
		done <- buf
	}()

	require.NoError(t, tr.Send([]byte("abcde")))
	assert.Equal(t, []byte("abcde"), <-done)
}

func TestCloseUnblocksRead(t *testing.T) {
	tr, server := pipeTransports(t)
	defer server.Close()

	errc := make(chan error, 1)
	go func() {
		_, err := tr.ReadLine('\n')
		errc <- err
	}()

	require.NoError(t, tr.Close())
	err := <-errc
	assert.Error(t, err)
}

package main

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Property 5: half-close propagation. A scripted peer writes N bytes,
// half-closes, and the full N bytes must still arrive at the other side
// through the relay before that side's connection is torn down.
func TestRelayHalfClosePropagation(t *testing.T) {
	clientSrv, clientCli := loopbackPair(t)
	upstreamSrv, upstreamCli := loopbackPair(t)

	payload := []byte("half-close-test-payload")

	done := make(chan struct{})
	go func() {
		relay(clientSrv, upstreamSrv)
		close(done)
	}()

	// The "upstream" peer writes its response then half-closes its write
	// side; the client must still receive every byte before EOF.
	go func() {
		upstreamCli.Write(payload)
		if tc, ok := upstreamCli.(*net.TCPConn); ok {
			tc.CloseWrite()
		}
	}()

	got := make([]byte, len(payload))
	clientCli.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err := io.ReadFull(clientCli, got)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Further reads see EOF, not a reset, confirming graceful half-close.
	clientCli.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := clientCli.Read(make([]byte, 1))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	clientCli.Close()
	upstreamCli.Close()
	<-done
}

// Counters accumulate bytes for the direction they were forwarded in.
func TestRelayCountsBytes(t *testing.T) {
	resetCounters()

	clientSrv, clientCli := loopbackPair(t)
	upstreamSrv, upstreamCli := loopbackPair(t)
	defer clientCli.Close()
	defer upstreamCli.Close()

	done := make(chan struct{})
	go func() {
		relay(clientSrv, upstreamSrv)
		close(done)
	}()

	msg := []byte("ping")
	clientCli.Write(msg)
	got := make([]byte, len(msg))
	upstreamCli.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err := io.ReadFull(upstreamCli, got)
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	clientCli.Close()
	upstreamCli.Close()
	<-done

	in, out := resetCounters()
	assert.Equal(t, int64(0), in)
	assert.Equal(t, int64(len(msg)), out)
}

// shortWriteConn accepts at most 3 bytes per Write call, so writeFull has
// to loop over partial writes to deliver a longer buffer.
type shortWriteConn struct {
	net.Conn
	got []byte
}

func (c *shortWriteConn) Write(p []byte) (int, error) {
	if len(p) > 3 {
		p = p[:3]
	}
	c.got = append(c.got, p...)
	return len(p), nil
}

func TestWriteFullRetriesPartialWrites(t *testing.T) {
	conn := &shortWriteConn{}
	err := writeFull(conn, []byte("short message"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("short message"), conn.got)
}

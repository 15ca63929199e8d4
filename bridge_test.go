package main

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario E: bridge mode pairs two independently-accepted inbound
// connections and relays bytes between them verbatim, with no SOCKS
// framing on either side.
func TestBridgeModeRelaysBetweenTwoAcceptedConnections(t *testing.T) {
	bridgeLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer bridgeLn.Close()

	primarySrv, primaryCli := loopbackPair(t)
	defer primaryCli.Close()

	w := &worker{}
	go runWorker(w, primarySrv, &GlobalConfig{}, nil, bridgeLn)

	secondCli, err := net.Dial("tcp", bridgeLn.Addr().String())
	require.NoError(t, err)
	defer secondCli.Close()

	msg := []byte("bridged-bytes")
	primaryCli.Write(msg)
	got := make([]byte, len(msg))
	secondCli.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err = io.ReadFull(secondCli, got)
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	reply := []byte("reply-bytes")
	secondCli.Write(reply)
	gotReply := make([]byte, len(reply))
	primaryCli.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, err = io.ReadFull(primaryCli, gotReply)
	require.NoError(t, err)
	assert.Equal(t, reply, gotReply)
}

package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"syscall"
)

// listenOn creates a listening socket on host:port with address reuse and
// the standard tuning profile applied. Distinct errors distinguish
// resolution, bind, and listen failures the way server_setup() in the
// original implementation does, though Go's net.Listen collapses bind and
// listen into a single call.
func listenOn(host string, port int) (net.Listener, error) {
	if _, err := resolveOne(host, port); err != nil && host != "" {
		return nil, fmt.Errorf("resolve listen address: %w", err)
	}
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			if err := reuseAddr(c); err != nil {
				return err
			}
			return tune(c)
		},
	}
	ln, err := lc.Listen(context.Background(), "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("listen on %s:%d: %w", host, port, err)
	}
	return ln, nil
}

// acceptOne blocks on accept, returning the connected client socket. The
// caller applies a small back-off on failure (see §4.8 in the spec).
func acceptOne(ln net.Listener) (net.Conn, error) {
	return ln.Accept()
}

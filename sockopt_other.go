//go:build !linux

package main

import "syscall"

// tune is a no-op on non-Linux platforms. The Linux-specific version in
// sockopt_linux.go sets send/receive buffers, TCP_NODELAY, and keepalive
// options.
func tune(c syscall.RawConn) error {
	return nil
}

// reuseAddr is a no-op on non-Linux platforms; Go's net package already
// sets SO_REUSEADDR-equivalent behavior by default on most of them.
func reuseAddr(c syscall.RawConn) error {
	return nil
}

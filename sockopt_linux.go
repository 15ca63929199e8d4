//go:build linux

package main

import (
	"log"
	"syscall"

	"golang.org/x/sys/unix"
)

// tune applies the fixed performance profile from the spec to a raw socket
// fd: 4 MiB send/receive buffers (best-effort), TCP keepalive with 60s
// idle / 30s interval / 3 probes, and TCP_NODELAY. Applied to the
// listening socket and to every accepted or dialed data socket so
// inherited properties stay consistent.
func tune(c syscall.RawConn) error {
	var sysErr error
	err := c.Control(func(fd uintptr) {
		set := func(level, opt, val int, name string) {
			if e := unix.SetsockoptInt(int(fd), level, opt, val); e != nil {
				log.Printf("[sockopt] %s: %v", name, e)
			}
		}
		const bufSize = 4 * 1024 * 1024
		set(unix.SOL_SOCKET, unix.SO_SNDBUF, bufSize, "SO_SNDBUF")
		set(unix.SOL_SOCKET, unix.SO_RCVBUF, bufSize, "SO_RCVBUF")
		set(unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1, "SO_KEEPALIVE")
		set(unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, 60, "TCP_KEEPIDLE")
		set(unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, 30, "TCP_KEEPINTVL")
		set(unix.IPPROTO_TCP, unix.TCP_KEEPCNT, 3, "TCP_KEEPCNT")
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); e != nil {
			sysErr = e
		}
	})
	if err != nil {
		return err
	}
	return sysErr
}

// reuseAddr sets SO_REUSEADDR so the listener can rebind quickly after
// restart. Applied before bind via net.ListenConfig.Control.
func reuseAddr(c syscall.RawConn) error {
	var sysErr error
	err := c.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); e != nil {
			sysErr = e
		}
	})
	if err != nil {
		return err
	}
	return sysErr
}

package main

import (
	"log"
	"net"
	"sync/atomic"
	"syscall"
	"time"
)

// worker is a record tracking one client's lifecycle. done is written
// exactly once by the worker goroutine on exit and read by the reaper;
// a plain atomic int32 gives the false→true, write-once, lock-free read
// semantics spec.md §3 asks for.
type worker struct {
	done int32
}

func (w *worker) markDone()  { atomic.StoreInt32(&w.done, 1) }
func (w *worker) isDone() bool { return atomic.LoadInt32(&w.done) == 1 }

// workerList is an append-and-delete ordered sequence of workers owned by
// the main goroutine exclusively; nothing else reads or writes it, so it
// needs no lock (spec.md §3, §5). There is no explicit join step the way
// there is for OS threads — dropping the last reference lets the
// goroutine's stack be reclaimed once it exits — but the reap discipline
// (scan, drop done entries) is preserved verbatim from the original so
// the pool never grows unbounded.
type workerList struct {
	items []*worker
}

// reap drops every entry whose worker has finished. Order is irrelevant;
// it compacts in place exactly like collect() in the original.
func (l *workerList) reap() {
	i := 0
	for i < len(l.items) {
		if l.items[i].isDone() {
			l.items[i] = l.items[len(l.items)-1]
			l.items = l.items[:len(l.items)-1]
			continue
		}
		i++
	}
}

func (l *workerList) add(w *worker) {
	l.items = append(l.items, w)
}

// failureBackoff is the sleep applied after an accept failure, preventing a tight CPU loop under resource exhaustion
// (spec.md §4.8, §7).
const failureBackoff = 64 * time.Microsecond

// tuneConn applies the socket tuning profile to an already-connected
// net.Conn obtained via Accept, which — unlike a dialed socket — isn't
// covered by a net.Dialer.Control callback.
func tuneConn(conn net.Conn) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return
	}
	if err := tune(raw); err != nil {
		log.Printf("[sockopt] tune accepted socket: %v", err)
	}
}

// waitReadable blocks until conn has data available to read, without
// consuming any of it. It plays the role of poll(&pfd, 1, -1) in the
// original's reverse-mode dispatch loop, using the runtime netpoller via
// SyscallConn instead of a raw poll(2) call.
func waitReadable(conn net.Conn) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return err
	}
	// The first call reports "not done" so the netpoller waits for
	// readability; the second call, made once the fd is readable, ends it.
	waited := false
	return raw.Read(func(fd uintptr) bool {
		if waited {
			return true
		}
		waited = true
		return false
	})
}

// runWorker services one client end-to-end: either the SOCKS5 handshake
// (normal mode) or pairing with a second accepted connection (bridge
// mode, which reverse mode always uses), followed by the relay loop. It always marks w done and
// closes every socket it opened before returning, regardless of path.
func runWorker(w *worker, client net.Conn, cfg *GlobalConfig, auth *authIPSet, bridgeLn net.Listener) {
	defer w.markDone()

	var upstream net.Conn
	var err error

	if bridgeLn != nil {
		upstream, err = acceptOne(bridgeLn)
		if err != nil {
			log.Printf("[worker] bridge accept failed: %v", err)
			client.Close()
			return
		}
		tuneConn(upstream)
	} else {
		upstream, err = socksHandshake(client, cfg, auth)
		if err != nil {
			client.Close()
			return
		}
	}

	if host, _, e := net.SplitHostPort(client.RemoteAddr().String()); e == nil && !cfg.Quiet {
		log.Printf("[worker] client %s relaying to %s", host, upstream.RemoteAddr())
	}

	relay(client, upstream)
}

// runNormal is the listen-mode main loop: reap finished workers, accept a
// client, spawn a worker. On accept failure it backs off instead of
// busy-looping.
func runNormal(ln net.Listener, cfg *GlobalConfig, auth *authIPSet, bridgeLn net.Listener) {
	list := &workerList{}
	for {
		list.reap()
		client, err := acceptOne(ln)
		if err != nil {
			log.Printf("[worker] accept failed: %v", err)
			time.Sleep(failureBackoff)
			continue
		}
		tuneConn(client)
		w := &worker{}
		list.add(w)
		go runWorker(w, client, cfg, auth, bridgeLn)
	}
}

// runReverse is the reverse-mode main loop (-c): instead of listening,
// dial the configured control endpoint with exponential back-off, wait
// for the first byte of a request to arrive, then spawn a worker that
// skips the SOCKS handshake and goes straight to the bridge path (the
// dialed socket is the "client" and the bridge's second accept supplies
// the other side). Per spec.md §9's Open Question resolution, reverse
// mode always pairs with bridge mode here; buildConfig rejects -c without
// -C at startup.
func runReverse(cfg *GlobalConfig, bridgeLn net.Listener) {
	list := &workerList{}
	for {
		list.reap()
		conn := dialWithBackoff(cfg.ReverseHost, cfg.ReversePort)
		tuneConn(conn)
		if err := waitReadable(conn); err != nil {
			conn.Close()
			continue
		}
		w := &worker{}
		list.add(w)
		go runWorker(w, conn, cfg, nil, bridgeLn)
	}
}

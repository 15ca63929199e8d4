package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
)

// resolve performs name resolution for host:port the way getaddrinfo(3)
// does for a stream socket: any address family, passive mode when used
// for a listen address. It returns every candidate so the caller can pick
// one whose family matches a configured outbound bind address. port is
// carried only for diagnostics; it plays no part in address selection.
func resolve(host string, port int) ([]net.IP, error) {
	hostport := net.JoinHostPort(host, strconv.Itoa(port))
	if host == "" {
		return []net.IP{net.IPv4zero}, nil
	}
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}
	ips, err := net.DefaultResolver.LookupIP(context.Background(), "ip", host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", hostport, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("resolve %s: no addresses", hostport)
	}
	return ips, nil
}

// resolveOne resolves host and returns only the first candidate.
func resolveOne(host string, port int) (net.IP, error) {
	ips, err := resolve(host, port)
	if err != nil {
		return nil, err
	}
	return ips[0], nil
}

// chooseAddr returns the first candidate whose family matches bindAddr's
// family. When bindAddr is nil (unspecified — no outbound bind configured)
// or no candidate matches, the head of the list is returned unchanged.
// This keeps the upstream socket's family compatible with the configured
// outbound source address, mirroring addr_choose() in the original C
// implementation.
func chooseAddr(candidates []net.IP, bindAddr net.IP) net.IP {
	if len(candidates) == 0 {
		return nil
	}
	if bindAddr == nil {
		return candidates[0]
	}
	wantV4 := bindAddr.To4() != nil
	for _, c := range candidates {
		if (c.To4() != nil) == wantV4 {
			return c
		}
	}
	return candidates[0]
}

// sameFamily reports whether a and b are both IPv4 or both IPv6.
func sameFamily(a, b net.IP) bool {
	if a == nil || b == nil {
		return false
	}
	return (a.To4() != nil) == (b.To4() != nil)
}

func joinHostPort(ip net.IP, port int) string {
	return net.JoinHostPort(ip.String(), strconv.Itoa(port))
}

// warnIfBindAddrUnassigned scans local interface addresses and logs a
// warning (never fatal) if the configured outbound bind address isn't
// present on any local interface. bind() would otherwise fail lazily on
// the first outbound connection rather than at startup; this surfaces the
// misconfiguration early without changing behavior.
//
// Adapted from the teacher's EnsureIPv6Addresses, which scanned interface
// addresses to decide whether to provision a new IPv6 address for a
// per-port proxy pool — a feature this spec doesn't have (there is one
// outbound bind address, not one per listener). The address-enumeration
// half of that logic is reused here as a startup sanity check instead.
func warnIfBindAddrUnassigned(bindAddr net.IP) {
	if bindAddr == nil {
		return
	}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		log.Printf("[addr] could not enumerate local interfaces: %v", err)
		return
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ipnet.IP.Equal(bindAddr) {
			return
		}
	}
	log.Printf("[addr] warning: bind address %s is not assigned to any local interface", bindAddr)
}

package main

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthIPSetContainsMatchesByAddress(t *testing.T) {
	s := newAuthIPSet()
	s.add(net.ParseIP("203.0.113.9"))

	assert.True(t, s.contains(net.ParseIP("203.0.113.9")))
	assert.False(t, s.contains(net.ParseIP("203.0.113.10")))
}

func TestAuthIPSetAddIsIdempotent(t *testing.T) {
	s := newAuthIPSet()
	ip := net.ParseIP("198.51.100.5")

	for i := 0; i < 5; i++ {
		s.add(ip)
	}
	assert.Equal(t, 1, s.size())
}

func TestAuthIPSetFamilyMismatchDoesNotMatch(t *testing.T) {
	s := newAuthIPSet()
	s.add(net.ParseIP("::1"))

	assert.False(t, s.contains(net.ParseIP("0.0.0.1")))
}

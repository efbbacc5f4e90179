// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"
	"sync"
	"time"
)

// Addr is a synthetic address for a virtual endpoint. It satisfies the
// net.Addr shape (Network/String) without naming a real network.
type Addr struct {
	// Host is the logical host, conventionally "127.0.0.1" for
	// emulated endpoints.
	Host string

	// Port is the virtual port: a plain integer key with no relation
	// to an OS port.
	Port int
}

// Network identifies the virtual transport.
func (a Addr) Network() string { return "virtual" }

func (a Addr) String() string { return fmt.Sprintf("%s:%d", a.Host, a.Port) }

// Socket is an ephemeral identity object for one logical connection.
// It carries address-like metadata for API compatibility and nothing
// else — it never moves bytes, and its timeout exists only to be
// readable by code that expects to set one.
type Socket struct {
	mu      sync.Mutex
	local   Addr
	remote  Addr
	timeout time.Duration
}

// NewSocket returns a Socket with the given synthetic endpoints.
func NewSocket(local, remote Addr) *Socket {
	return &Socket{local: local, remote: remote}
}

// LocalAddr returns the synthetic local endpoint.
func (s *Socket) LocalAddr() Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

// RemoteAddr returns the synthetic remote endpoint.
func (s *Socket) RemoteAddr() Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote
}

// SetTimeout records an idle timeout. No timer runs: there is no
// underlying connection to idle out. The value is retained so callers
// that set-then-read see what they wrote.
func (s *Socket) SetTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
}

// Timeout returns the value recorded by SetTimeout.
func (s *Socket) Timeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

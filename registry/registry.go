// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/tabwire/tabwire/vhttp"
)

// EventKind classifies a registry notification.
type EventKind int

const (
	// Listen fires when a server is registered on a port, including
	// when it replaces a previous registration.
	Listen EventKind = iota

	// Close fires when a port's registration is removed.
	Close
)

// String returns the kind's wire-stable name.
func (k EventKind) String() string {
	switch k {
	case Listen:
		return "listen"
	case Close:
		return "close"
	default:
		return "unknown"
	}
}

// Event describes one registration change. Server is nil for Close
// events.
type Event struct {
	Kind   EventKind
	Port   int
	Server *vhttp.Server
}

// Registry is a port-to-server table with change notification. The
// zero value is not usable; construct with New.
//
// Registry is safe for concurrent use by multiple goroutines.
type Registry struct {
	logger *slog.Logger

	mu          sync.RWMutex
	servers     map[int]*vhttp.Server
	subscribers map[int]func(Event)
	nextSubID   int
}

// New returns an empty registry. A nil logger means slog.Default().
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:      logger,
		servers:     make(map[int]*vhttp.Server),
		subscribers: make(map[int]func(Event)),
	}
}

// Register maps a port to a server, replacing any previous entry for
// that port, and notifies subscribers with a Listen event.
func (r *Registry) Register(port int, server *vhttp.Server) {
	r.mu.Lock()
	if _, replaced := r.servers[port]; replaced {
		r.logger.Debug("replacing port registration", "port", port)
	}
	r.servers[port] = server
	subscribers := r.snapshotLocked()
	r.mu.Unlock()

	event := Event{Kind: Listen, Port: port, Server: server}
	for _, fn := range subscribers {
		fn(event)
	}
}

// Unregister removes a port's entry and notifies subscribers with a
// Close event. Removing an unregistered port is a no-op.
func (r *Registry) Unregister(port int) {
	r.mu.Lock()
	if _, ok := r.servers[port]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.servers, port)
	subscribers := r.snapshotLocked()
	r.mu.Unlock()

	event := Event{Kind: Close, Port: port}
	for _, fn := range subscribers {
		fn(event)
	}
}

// Lookup returns the server registered on a port.
func (r *Registry) Lookup(port int) (*vhttp.Server, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	server, ok := r.servers[port]
	return server, ok
}

// Ports returns the registered ports in ascending order.
func (r *Registry) Ports() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ports := make([]int, 0, len(r.servers))
	for port := range r.servers {
		ports = append(ports, port)
	}
	sort.Ints(ports)
	return ports
}

// Len returns the number of registered ports.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.servers)
}

// Subscribe attaches a change listener and returns a cancel function.
// Listeners run synchronously on the goroutine performing the change,
// after the table has been updated: a Lookup from inside a listener
// sees the new state. Any number of subscribers may be active.
func (r *Registry) Subscribe(fn func(Event)) (cancel func()) {
	r.mu.Lock()
	id := r.nextSubID
	r.nextSubID++
	r.subscribers[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subscribers, id)
		r.mu.Unlock()
	}
}

// snapshotLocked copies the subscriber list in registration order so
// notifications run without holding the lock. Callers hold r.mu.
func (r *Registry) snapshotLocked() []func(Event) {
	ids := make([]int, 0, len(r.subscribers))
	for id := range r.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, r.subscribers[id])
	}
	return fns
}

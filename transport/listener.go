// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"sync"

	"github.com/tabwire/tabwire/emitter"
)

var (
	// ErrAlreadyListening is returned by Listen on a listener that is
	// already bound.
	ErrAlreadyListening = errors.New("transport: already listening")

	// ErrNotListening is returned by Close on a listener that never
	// bound or already closed.
	ErrNotListening = errors.New("transport: not listening")
)

// DefaultHost is the logical host assumed when ListenConfig leaves
// Host empty.
const DefaultHost = "127.0.0.1"

// ListenConfig is the single structured form of the historical
// listen(port), listen(port, host, cb), and listen(options, cb)
// calling shapes.
type ListenConfig struct {
	// Port is the virtual port to bind. The emulation does not
	// allocate ports: zero stays zero, and duplicate binds are a
	// caller error enforced (if at all) by the registry layer.
	Port int

	// Host is the logical host. Empty means DefaultHost.
	Host string

	// Ready, when non-nil, is registered as a one-shot "listening"
	// listener before the state transition, matching the trailing
	// callback of the historical forms.
	Ready func()
}

// Listener models a server's listening state: a bound port/host, a
// listening flag, and "listening"/"close"/"error" lifecycle events.
// No OS resource backs it.
type Listener struct {
	mu        sync.Mutex
	events    emitter.Emitter
	listening bool
	addr      Addr
}

// NewListener returns an unbound Listener.
func NewListener() *Listener {
	return &Listener{}
}

// Listen binds the logical port and fires "listening". The Ready
// callback, if set, runs as a one-shot listening listener.
func (l *Listener) Listen(cfg ListenConfig) error {
	l.mu.Lock()
	if l.listening {
		l.mu.Unlock()
		return ErrAlreadyListening
	}
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	l.listening = true
	l.addr = Addr{Host: host, Port: cfg.Port}
	l.mu.Unlock()

	if cfg.Ready != nil {
		ready := cfg.Ready
		l.events.Once("listening", func(args ...any) { ready() })
	}
	l.events.Emit("listening")
	return nil
}

// ListenPort is the bare-port convenience wrapper.
func (l *Listener) ListenPort(port int) error {
	return l.Listen(ListenConfig{Port: port})
}

// ListenHostPort is the port+host+callback convenience wrapper.
func (l *Listener) ListenHostPort(port int, host string, ready func()) error {
	return l.Listen(ListenConfig{Port: port, Host: host, Ready: ready})
}

// Close leaves the listening state and fires "close". The callback,
// if set, runs as a one-shot close listener.
func (l *Listener) Close(callback func()) error {
	l.mu.Lock()
	if !l.listening {
		l.mu.Unlock()
		return ErrNotListening
	}
	l.listening = false
	l.mu.Unlock()

	if callback != nil {
		l.events.Once("close", func(args ...any) { callback() })
	}
	l.events.Emit("close")
	return nil
}

// Addr returns the bound address, or false if the listener is not
// listening.
func (l *Listener) Addr() (Addr, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.listening {
		return Addr{}, false
	}
	return l.addr, true
}

// Listening reports whether the listener is bound.
func (l *Listener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listening
}

// Ref is a no-op kept for API compatibility with runtimes where
// listeners participate in event-loop liveness.
func (l *Listener) Ref() {}

// Unref is a no-op kept for API compatibility; see Ref.
func (l *Listener) Unref() {}

// OnListening attaches a listener for the "listening" event.
func (l *Listener) OnListening(fn func()) *emitter.Subscription {
	return l.events.On("listening", func(args ...any) { fn() })
}

// OnClose attaches a listener for the "close" event.
func (l *Listener) OnClose(fn func()) *emitter.Subscription {
	return l.events.On("close", func(args ...any) { fn() })
}

// OnError attaches a listener for the "error" event.
func (l *Listener) OnError(fn func(err error)) *emitter.Subscription {
	return l.events.On(emitter.Error, func(args ...any) {
		fn(args[0].(error))
	})
}

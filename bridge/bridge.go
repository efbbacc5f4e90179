// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tabwire/tabwire/emitter"
	"github.com/tabwire/tabwire/registry"
	"github.com/tabwire/tabwire/vhttp"
)

// Options configures a Bridge.
type Options struct {
	// BaseURL prefixes every minted server URL, e.g.
	// "http://localhost:5173". Required.
	BaseURL string

	// Registry holds the port table. Nil means the bridge constructs
	// its own empty registry. Sharing one registry between bridges is
	// possible but rarely wanted; each bridge instance normally owns
	// an independent namespace.
	Registry *registry.Registry

	// Logger receives structured log output. Nil means slog.Default().
	Logger *slog.Logger
}

// Bridge maps virtual ports to servers and mints canonical URLs for
// them under one base URL.
type Bridge struct {
	baseURL  string
	registry *registry.Registry
	logger   *slog.Logger
	events   emitter.Emitter
}

// New constructs a bridge.
func New(opts Options) (*Bridge, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("bridge: BaseURL is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := opts.Registry
	if reg == nil {
		reg = registry.New(logger)
	}
	return &Bridge{
		baseURL:  opts.BaseURL,
		registry: reg,
		logger:   logger,
	}, nil
}

// Registry returns the bridge's port table.
func (b *Bridge) Registry() *registry.Registry { return b.registry }

// BaseURL returns the configured base URL.
func (b *Bridge) BaseURL() string { return b.baseURL }

// RegisterServer records a server under a port and emits "server-ready"
// with the port and its canonical URL. Registering a port twice
// replaces the earlier server.
func (b *Bridge) RegisterServer(server *vhttp.Server, port int) {
	b.registry.Register(port, server)
	url := b.ServerURL(port)
	b.logger.Info("virtual server registered", "port", port, "url", url)
	b.events.Emit("server-ready", port, url)
}

// UnregisterServer removes a port's registration. Unknown ports are a
// no-op.
func (b *Bridge) UnregisterServer(port int) {
	b.registry.Unregister(port)
}

// ServerURL returns the canonical address for a port:
// <baseURL>/__virtual__/<port>. It is a pure function of the port,
// registered or not.
func (b *Bridge) ServerURL(port int) string {
	return fmt.Sprintf("%s/__virtual__/%d", b.baseURL, port)
}

// Ports returns the registered ports in ascending order.
func (b *Bridge) Ports() []int {
	return b.registry.Ports()
}

// OnServerReady attaches a listener for server registrations.
func (b *Bridge) OnServerReady(fn func(port int, url string)) *emitter.Subscription {
	return b.events.On("server-ready", func(args ...any) {
		fn(args[0].(int), args[1].(string))
	})
}

// HandleRequest dispatches a request to the server registered on a
// port. A port with no server yields a synthesized 503 response and no
// error; the error return carries only per-request failures from the
// dispatched server (handler panic, timeout, cancelled context).
func (b *Bridge) HandleRequest(ctx context.Context, port int, req vhttp.RequestData) (vhttp.ResponseData, error) {
	server, ok := b.registry.Lookup(port)
	if !ok {
		b.logger.Debug("request for unregistered port", "port", port, "url", req.URL)
		return noServerResponse(port), nil
	}
	return server.HandleRequest(ctx, req)
}

// noServerResponse is the canonical missing-target response. The body
// phrase "No server listening" is load-bearing for external callers.
func noServerResponse(port int) vhttp.ResponseData {
	return vhttp.ResponseData{
		StatusCode:    http.StatusServiceUnavailable,
		StatusMessage: http.StatusText(http.StatusServiceUnavailable),
		Header:        map[string]string{"content-type": "text/plain"},
		Body:          []byte(fmt.Sprintf("No server listening on virtual port %d", port)),
	}
}

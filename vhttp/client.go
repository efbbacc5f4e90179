// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package vhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tabwire/tabwire/emitter"
	"github.com/tabwire/tabwire/lib/clock"
	"github.com/tabwire/tabwire/lib/netutil"
)

// OriginOverrideKey is the Store key holding the indirection origin.
// When set, outbound requests are rewritten onto that origin's virtual
// namespace (<origin>/__virtual__/<port><path>) instead of addressing
// <hostname>:<port> directly, so a same-origin proxy can route them —
// the workaround for cross-origin restrictions on the host page.
const OriginOverrideKey = "tabwire.fetch.origin"

// ErrRequestEnded is returned by Write after End.
var ErrRequestEnded = errors.New("vhttp: client request already ended")

// RequestOptions is the structured request-options shape the client
// request is assembled from.
type RequestOptions struct {
	// Method defaults to GET.
	Method string

	// Path is the request target, defaulting to "/".
	Path string

	// Hostname and Port locate the origin. Hostname defaults to
	// "localhost".
	Hostname string
	Port     int

	// Header is copied with case-normalized keys.
	Header map[string]string

	// Timeout, when positive, cancels the in-flight call and fires
	// "timeout" if no response arrives in time.
	Timeout time.Duration
}

// ClientConfig carries the client's collaborators.
type ClientConfig struct {
	// Fetcher performs the network call. Nil means an HTTPFetcher on
	// http.DefaultClient.
	Fetcher Fetcher

	// Store, when non-nil, is consulted for OriginOverrideKey.
	Store Store

	// Clock drives the timeout. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives structured log output. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// Client request states. Exactly one terminal transition happens per
// request; every continuation checks the state at resumption.
const (
	clientIdle = iota
	clientInFlight
	clientDone
	clientAborted
	clientTimedOut
)

// ClientRequest is a single-use outbound HTTP request. Chunks written
// before End are buffered; End performs the real network call through
// the configured Fetcher. Exactly one of the "response", "error",
// "timeout", or "abort" events fires. An unobserved "error" panics per
// the emitter contract — callers must attach OnError before End.
type ClientRequest struct {
	mu     sync.Mutex
	events emitter.Emitter

	method   string
	path     string
	hostname string
	port     int
	header   Header
	timeout  time.Duration
	chunks   [][]byte

	fetcher Fetcher
	store   Store
	clock   clock.Clock
	logger  *slog.Logger

	state  int
	cancel context.CancelFunc
	timer  *clock.Timer
}

// NewClientRequest assembles a request from options. The request does
// nothing until End.
func NewClientRequest(opts RequestOptions, cfg ClientConfig) *ClientRequest {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	path := opts.Path
	if path == "" {
		path = "/"
	}
	hostname := opts.Hostname
	if hostname == "" {
		hostname = "localhost"
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = &HTTPFetcher{}
	}
	c := cfg.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientRequest{
		method:   method,
		path:     path,
		hostname: hostname,
		port:     opts.Port,
		header:   NewHeader(opts.Header),
		timeout:  opts.Timeout,
		fetcher:  fetcher,
		store:    cfg.Store,
		clock:    c,
		logger:   logger,
		state:    clientIdle,
	}
}

// SetHeader sets an outbound header. Fails once the request is in
// flight.
func (c *ClientRequest) SetHeader(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != clientIdle {
		return ErrRequestEnded
	}
	c.header.Set(key, value)
	return nil
}

// Header returns the outbound header mapping.
func (c *ClientRequest) Header() Header { return c.header }

// Write buffers an outbound body chunk. Fails after End.
func (c *ClientRequest) Write(chunk []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != clientIdle {
		return ErrRequestEnded
	}
	c.chunks = append(c.chunks, append([]byte(nil), chunk...))
	return nil
}

// End performs the network call. It is a one-shot transition to
// in-flight: second and later calls are no-ops. The buffered body is
// attached (suppressed for GET and HEAD), the timeout timer starts,
// and the fetch runs on its own goroutine with a cancellation context
// checked at every resumption point.
func (c *ClientRequest) End() {
	c.mu.Lock()
	if c.state != clientIdle {
		c.mu.Unlock()
		return
	}
	c.state = clientInFlight

	url := c.targetURL()
	var body io.Reader
	if len(c.chunks) > 0 && c.method != http.MethodGet && c.method != http.MethodHead {
		body = bytes.NewReader(bytes.Join(c.chunks, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	if c.timeout > 0 {
		c.timer = c.clock.AfterFunc(c.timeout, func() { c.onTimeout() })
	}

	req, err := http.NewRequest(c.method, url, body)
	if err != nil {
		c.state = clientDone
		c.stopTimerLocked()
		c.mu.Unlock()
		cancel()
		c.events.Emit(emitter.Error, fmt.Errorf("vhttp: building request: %w", err))
		return
	}
	for key, value := range c.header {
		req.Header.Set(key, value)
	}
	c.mu.Unlock()

	go c.run(ctx, req)
}

// targetURL builds the request URL, rewriting through the indirection
// origin when the store provides one. Callers hold c.mu.
func (c *ClientRequest) targetURL() string {
	if c.store != nil {
		if origin, ok := c.store.Get(OriginOverrideKey); ok && origin != "" {
			return fmt.Sprintf("%s/__virtual__/%d%s", origin, c.port, c.path)
		}
	}
	return fmt.Sprintf("http://%s:%d%s", c.hostname, c.port, c.path)
}

// run performs the fetch and routes the outcome. Every resumption
// rechecks the request state: an abort or timeout that landed while
// the fetch was in flight suppresses the late outcome.
func (c *ClientRequest) run(ctx context.Context, req *http.Request) {
	resp, err := c.fetcher.Fetch(ctx, req)

	c.mu.Lock()
	state := c.state
	if state == clientInFlight {
		c.state = clientDone
		c.stopTimerLocked()
	}
	c.mu.Unlock()

	switch state {
	case clientAborted:
		// Abort already notified the caller; discard everything.
		if resp != nil {
			resp.Body.Close()
		}
		return
	case clientTimedOut:
		// The timeout already notified the caller. The cancellation-
		// induced failure (or a response racing the cancel) is
		// swallowed.
		if resp != nil {
			resp.Body.Close()
		}
		return
	}

	if err != nil {
		c.logger.Debug("client request failed", "method", c.method, "url", req.URL.String(), "error", err)
		c.events.Emit(emitter.Error, err)
		return
	}

	defer resp.Body.Close()
	payload, readErr := netutil.ReadBounded(resp.Body)
	if readErr != nil {
		c.events.Emit(emitter.Error, fmt.Errorf("vhttp: reading response body: %w", readErr))
		return
	}

	header := make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) == 0 {
			continue
		}
		header[key] = values[0]
		for _, extra := range values[1:] {
			header[key] += ", " + extra
		}
	}

	message := newClientResponse(resp.StatusCode, statusMessageOf(resp), header, payload)
	c.events.Emit("response", message)
}

// onTimeout fires from the clock. It cancels the in-flight call and
// notifies the caller; a request that already settled is left alone.
func (c *ClientRequest) onTimeout() {
	c.mu.Lock()
	if c.state != clientInFlight {
		c.mu.Unlock()
		return
	}
	c.state = clientTimedOut
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.events.Emit("timeout")
}

// Abort cancels the request. After Abort only "abort" fires — never a
// late "response" or "error". Aborting a settled or already-cancelled
// request is a no-op.
func (c *ClientRequest) Abort() {
	c.mu.Lock()
	if c.state == clientDone || c.state == clientAborted || c.state == clientTimedOut {
		c.mu.Unlock()
		return
	}
	c.state = clientAborted
	cancel := c.cancel
	c.stopTimerLocked()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.events.Emit("abort")
}

// Aborted reports whether Abort cancelled the request.
func (c *ClientRequest) Aborted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == clientAborted
}

func (c *ClientRequest) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// OnResponse attaches the success listener. The response arrives as an
// IncomingMessage whose body is a single chunk followed by
// end-of-stream.
func (c *ClientRequest) OnResponse(fn func(res *IncomingMessage)) *emitter.Subscription {
	return c.events.On("response", func(args ...any) {
		fn(args[0].(*IncomingMessage))
	})
}

// OnError attaches the failure listener. Without one, an asynchronous
// failure panics (emitter contract).
func (c *ClientRequest) OnError(fn func(err error)) *emitter.Subscription {
	return c.events.On(emitter.Error, func(args ...any) {
		fn(args[0].(error))
	})
}

// OnTimeout attaches the timeout listener.
func (c *ClientRequest) OnTimeout(fn func()) *emitter.Subscription {
	return c.events.On("timeout", func(args ...any) { fn() })
}

// OnAbort attaches the abort listener.
func (c *ClientRequest) OnAbort(fn func()) *emitter.Subscription {
	return c.events.On("abort", func(args ...any) { fn() })
}

// statusMessageOf extracts the reason phrase, falling back to the
// standard text for the code.
func statusMessageOf(resp *http.Response) string {
	// resp.Status is "200 OK"; strip the leading code when present.
	status := resp.Status
	for i := 0; i < len(status); i++ {
		if status[i] == ' ' {
			return status[i+1:]
		}
	}
	return http.StatusText(resp.StatusCode)
}

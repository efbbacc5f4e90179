// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package vhttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tabwire/tabwire/emitter"
	"github.com/tabwire/tabwire/lib/clock"
	"github.com/tabwire/tabwire/transport"
)

// ErrNoHandler is returned by HandleRequest when the server has
// neither a primary handler nor any "request" listeners.
var ErrNoHandler = errors.New("vhttp: no request handler registered")

// TimeoutError is the failure result when a configured server-level
// timeout elapses before the handler settles the response.
type TimeoutError struct {
	// Duration is the configured deadline that elapsed.
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("vhttp: request timed out after %v", e.Duration)
}

// Timeout reports true, matching the net.Error convention.
func (e *TimeoutError) Timeout() bool { return true }

// Handler processes one emulated request. Reading the request and
// writing the response both happen through the passed pair; the call
// settles when res.End runs.
type Handler func(req *IncomingMessage, res *ServerResponse)

// RequestData is the complete inbound tuple HandleRequest consumes.
type RequestData struct {
	Method string

	// URL is the request target: path plus query, verbatim.
	URL string

	Header map[string]string

	// Body is the full request body, nil for bodyless requests.
	Body []byte
}

// ServerOptions configures a Server.
type ServerOptions struct {
	// Handler is the primary request handler. Optional when requests
	// are consumed through OnRequest instead; HandleRequest fails if
	// neither is present.
	Handler Handler

	// Timeout, when positive, bounds each HandleRequest call. On
	// expiry the call fails with *TimeoutError and the handler's
	// eventual settlement is discarded.
	Timeout time.Duration

	// Clock drives the timeout. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives structured log output. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// Server drives emulated requests through a handler. It owns a
// transport.Listener for the listening lifecycle and keeps no
// per-request state beyond an in-flight counter — each HandleRequest
// call builds a fresh IncomingMessage/ServerResponse pair whose
// completion is held in the call's own frame.
type Server struct {
	listener *transport.Listener
	events   emitter.Emitter
	handler  Handler
	timeout  time.Duration
	clock    clock.Clock
	logger   *slog.Logger
	inFlight atomic.Int64
}

// NewServer creates a Server.
func NewServer(opts ServerOptions) *Server {
	c := opts.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		listener: transport.NewListener(),
		handler:  opts.Handler,
		timeout:  opts.Timeout,
		clock:    c,
		logger:   logger,
	}
}

// Listener exposes the server's listening-state object.
func (s *Server) Listener() *transport.Listener { return s.listener }

// Listen binds the server's listener.
func (s *Server) Listen(cfg transport.ListenConfig) error {
	return s.listener.Listen(cfg)
}

// Close closes the server's listener.
func (s *Server) Close(callback func()) error {
	return s.listener.Close(callback)
}

// OnRequest attaches a generic "request" listener. These run before
// the primary handler on every call; a server may be driven entirely
// through them.
func (s *Server) OnRequest(fn Handler) *emitter.Subscription {
	return s.events.On("request", func(args ...any) {
		fn(args[0].(*IncomingMessage), args[1].(*ServerResponse))
	})
}

// InFlight returns the number of HandleRequest calls currently
// executing. This is the server's only cross-request bookkeeping:
// settlement is carried by each call's own completion, so no
// request-id table exists.
func (s *Server) InFlight() int64 { return s.inFlight.Load() }

// HandleRequest turns one complete request tuple into a settled
// response. It builds a fresh message/response pair, dispatches the
// "request" event and the primary handler exactly once, and blocks
// until the response settles, the configured timeout elapses, or ctx
// is cancelled. A handler panic becomes the call's error result and
// clears any pending timer.
func (s *Server) HandleRequest(ctx context.Context, req RequestData) (ResponseData, error) {
	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	start := s.clock.Now()

	message := NewIncomingMessage(req.Method, req.URL, req.Header, req.Body)
	message.socket = s.requestSocket()
	completion := NewCompletion()
	response := NewServerResponse(completion)

	var timer *clock.Timer
	timedOut := make(chan struct{})
	if s.timeout > 0 {
		duration := s.timeout
		timer = s.clock.AfterFunc(duration, func() { close(timedOut) })
	}
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
	}

	if err := s.dispatch(message, response); err != nil {
		stopTimer()
		return ResponseData{}, err
	}

	select {
	case <-completion.Done():
		stopTimer()
		settled, err := completion.Value()
		if err != nil {
			return ResponseData{}, err
		}
		s.logger.Debug("request served",
			"method", req.Method,
			"url", req.URL,
			"status", settled.StatusCode,
			"duration", s.clock.Now().Sub(start),
		)
		return settled, nil
	case <-timedOut:
		s.logger.Warn("request timed out",
			"method", req.Method,
			"url", req.URL,
			"timeout", s.timeout,
		)
		return ResponseData{}, &TimeoutError{Duration: s.timeout}
	case <-ctx.Done():
		stopTimer()
		return ResponseData{}, ctx.Err()
	}
}

// dispatch emits "request" and invokes the primary handler, converting
// a handler panic into the call's failure.
func (s *Server) dispatch(message *IncomingMessage, response *ServerResponse) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			if panicked, ok := recovered.(error); ok {
				err = fmt.Errorf("vhttp: handler failed: %w", panicked)
				return
			}
			err = fmt.Errorf("vhttp: handler failed: %v", recovered)
		}
	}()

	heard := s.events.Emit("request", message, response)
	if s.handler != nil {
		s.handler(message, response)
		return nil
	}
	if !heard {
		return ErrNoHandler
	}
	return nil
}

// requestSocket builds the passive per-request connection stand-in.
// The local endpoint mirrors the bound listener address when the
// server is listening.
func (s *Server) requestSocket() *transport.Socket {
	local := transport.Addr{Host: transport.DefaultHost}
	if addr, ok := s.listener.Addr(); ok {
		local = addr
	}
	remote := transport.Addr{Host: transport.DefaultHost, Port: 0}
	return transport.NewSocket(local, remote)
}

// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/tabwire/tabwire/lib/codec"
	"github.com/tabwire/tabwire/lib/netutil"
)

// SocketServer serves a FetchHandlerFunc over a listening socket for
// out-of-process intercepting proxies. Each frame on a connection is
// one CBOR-encoded FetchRequest; the server answers with one
// CBOR-encoded FetchResponse. Frames on one connection are processed
// strictly in order.
type SocketServer struct {
	// Network is "unix" or "tcp".
	Network string

	// Address is the socket path (unix) or host:port (tcp).
	Address string

	// Handler resolves each decoded request. Required.
	Handler FetchHandlerFunc

	// Logger receives structured log output. If nil, slog.Default()
	// is used. Per-connection events are logged at Debug level.
	Logger *slog.Logger

	listener    net.Listener
	cancel      context.CancelFunc
	done        chan struct{}
	connections sync.WaitGroup
}

func (s *SocketServer) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Start binds the listener and begins serving in the background. It
// returns once the listener is accepting, or an error if binding
// fails. The server runs until Stop is called or the context is
// cancelled.
func (s *SocketServer) Start(ctx context.Context) error {
	if s.Network != "unix" && s.Network != "tcp" {
		return fmt.Errorf("socket server: unsupported network %q", s.Network)
	}
	if s.Address == "" {
		return fmt.Errorf("socket server: Address is required")
	}
	if s.Handler == nil {
		return fmt.Errorf("socket server: Handler is required")
	}

	listener, err := net.Listen(s.Network, s.Address)
	if err != nil {
		return fmt.Errorf("socket server: failed to listen on %s %s: %w", s.Network, s.Address, err)
	}
	s.listener = listener

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.acceptLoop(ctx)
	}()

	s.logger().Info("socket server started",
		"network", s.Network,
		"address", listener.Addr().String(),
	)
	return nil
}

// Addr returns the listener's address, useful when binding to port 0.
// Returns nil if the server has not been started.
func (s *SocketServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts down the server, closing the listener and waiting for all
// open connections to drain.
func (s *SocketServer) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
	}
	if s.done != nil {
		<-s.done
	}
}

// Wait blocks until the server has stopped.
func (s *SocketServer) Wait() {
	if s.done != nil {
		<-s.done
	}
}

// acceptLoop accepts connections until the listener closes. It waits
// for all in-flight connection goroutines to finish before returning,
// so that closing the done channel signals full quiescence.
func (s *SocketServer) acceptLoop(ctx context.Context) {
	var connectionCount int64

	for {
		connection, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.connections.Wait()
				return
			default:
				if errors.Is(err, net.ErrClosed) {
					s.connections.Wait()
					return
				}
				s.logger().Error("accept failed", "error", err)
				continue
			}
		}

		connectionCount++
		connectionID := connectionCount
		s.connections.Add(1)
		go func() {
			defer s.connections.Done()
			s.serveConnection(ctx, connection, connectionID)
		}()
	}
}

// serveConnection decodes request frames and answers each one before
// reading the next. The connection ends at EOF, on a decode error, or
// when the server stops.
func (s *SocketServer) serveConnection(ctx context.Context, connection net.Conn, connectionID int64) {
	defer connection.Close()

	logger := s.logger().With("connection_id", connectionID)
	logger.Debug("connection accepted", "remote_addr", connection.RemoteAddr())

	// Close the connection when the server stops so a blocked decode
	// unblocks.
	stopWatcher := context.AfterFunc(ctx, func() { connection.Close() })
	defer stopWatcher()

	decoder := codec.NewDecoder(connection)
	encoder := codec.NewEncoder(connection)

	for {
		var request FetchRequest
		if err := decoder.Decode(&request); err != nil {
			if err != io.EOF && !netutil.IsExpectedCloseError(err) {
				logger.Debug("decoding request frame failed", "error", err)
			}
			return
		}

		response := s.Handler(ctx, request)
		if err := encoder.Encode(response); err != nil {
			if !netutil.IsExpectedCloseError(err) {
				logger.Debug("encoding response frame failed", "error", err)
			}
			return
		}
	}
}

// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides network and HTTP I/O utilities for Tabwire.
//
// Body read helpers (ReadBounded) bound all body reads at MaxBodySize
// to prevent unbounded memory allocation from a misbehaving or
// malicious peer. The emulation holds every body fully in memory — a
// request tuple and a settled response are both complete values — so
// the bound is the only thing standing between a pathological peer
// and exhausted memory.
//
// Connection error helpers (IsExpectedCloseError) classify errors that
// occur during normal connection teardown in the bridge's socket
// service.
package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// MaxBodySize is the bound on body reads: 256 MB. This exists solely
// to prevent a pathological payload from exhausting system memory.
// Legitimate emulated bodies are orders of magnitude smaller; the
// limit is intentionally generous so that it never interferes with
// normal operation.
const MaxBodySize int64 = 256 << 20

// ReadBounded reads a body up to MaxBodySize bytes. Use instead of
// io.ReadAll when reading request or response bodies.
func ReadBounded(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxBodySize))
}

// IsExpectedCloseError reports whether err is a normal connection
// termination: EOF, closed connection, broken pipe, or connection
// reset. These occur during normal teardown when one side disconnects
// and the other side's in-flight read or write fails as a result, and
// should not be logged as errors.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}

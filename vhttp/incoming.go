// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package vhttp

import (
	"github.com/tabwire/tabwire/emitter"
	"github.com/tabwire/tabwire/stream"
	"github.com/tabwire/tabwire/transport"
)

// IncomingMessage represents a received HTTP message: a request on the
// server side, a response on the client side. It owns a
// stream.Readable for the body and exposes the stream's operations
// through its own methods, so it is usable wherever a readable is
// expected without inheriting the stream implementation.
//
// The message is constructed from a complete (method, url, headers,
// body) tuple: the body, when present, is pushed and end-of-stream is
// marked before the constructor returns, so Complete is true for the
// message's whole observable life.
type IncomingMessage struct {
	// Method is the request method ("" for client-side responses).
	Method string

	// URL is the request target as received, path plus query,
	// verbatim ("" for client-side responses).
	URL string

	// StatusCode and StatusMessage are set on client-side responses
	// and zero on server-side requests.
	StatusCode    int
	StatusMessage string

	header   Header
	body     *stream.Readable
	socket   *transport.Socket
	complete bool
}

// NewIncomingMessage builds a server-side request message. A nil body
// means no request body; either way end-of-stream is marked before
// returning and Complete reports true.
func NewIncomingMessage(method, url string, header map[string]string, body []byte) *IncomingMessage {
	m := &IncomingMessage{
		Method: method,
		URL:    url,
		header: NewHeader(header),
		body:   stream.NewReadable(),
	}
	if len(body) > 0 {
		m.body.Push(body)
	}
	m.body.PushEnd()
	m.complete = true
	return m
}

// newClientResponse builds a client-side response message from a
// settled network response. Header keys are lower-cased by NewHeader;
// the body arrives as a single chunk followed by end-of-stream.
func newClientResponse(statusCode int, statusMessage string, header map[string]string, body []byte) *IncomingMessage {
	m := NewIncomingMessage("", "", header, body)
	m.StatusCode = statusCode
	m.StatusMessage = statusMessage
	return m
}

// Header returns the message's case-insensitive header mapping.
func (m *IncomingMessage) Header() Header { return m.header }

// HeaderValue is shorthand for Header().Get.
func (m *IncomingMessage) HeaderValue(key string) string { return m.header.Get(key) }

// Body returns the owned readable body stream.
func (m *IncomingMessage) Body() *stream.Readable { return m.body }

// OnData attaches a body chunk listener, replaying any queued chunks.
func (m *IncomingMessage) OnData(fn func(chunk []byte)) *emitter.Subscription {
	return m.body.OnData(fn)
}

// OnEnd attaches a body end-of-stream listener; it fires immediately
// when the body has already drained.
func (m *IncomingMessage) OnEnd(fn func()) *emitter.Subscription {
	return m.body.OnEnd(fn)
}

// ReadBody drains the body in paused mode and returns the
// concatenated bytes. Convenience for handlers that want the whole
// payload at once.
func (m *IncomingMessage) ReadBody() []byte {
	var all []byte
	for {
		chunk := m.body.Read()
		if chunk == nil {
			return all
		}
		all = append(all, chunk...)
	}
}

// Complete reports whether all body data has been pushed.
func (m *IncomingMessage) Complete() bool { return m.complete }

// Socket returns the passive connection stand-in attached to this
// message, or nil for client-side responses.
func (m *IncomingMessage) Socket() *transport.Socket { return m.socket }

// Destroy tears down the body stream.
func (m *IncomingMessage) Destroy(err error) { m.body.Destroy(err) }

// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package vhttp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/tabwire/tabwire/emitter"
	"github.com/tabwire/tabwire/stream"
)

var (
	// ErrHeadersSent is returned by header mutations after the first
	// body byte (or WriteHead) has been sent. Mutating sent headers is
	// a caller bug and fails synchronously at the call site.
	ErrHeadersSent = errors.New("vhttp: headers already sent")

	// ErrResponseFinished is returned by Write and End after End has
	// settled the response.
	ErrResponseFinished = errors.New("vhttp: response already finished")
)

// Head is the structured form of the historical writeHead overloads
// (status; status+headers; status+message+headers).
type Head struct {
	StatusCode    int
	StatusMessage string
	Header        map[string]string
}

// ServerResponse accumulates an emulated HTTP response and settles a
// one-shot Completion when End runs. Headers are mutable until the
// first byte is sent; afterwards every mutation fails. The response
// owns a stream.Writable whose sink is the body buffer, exposing the
// writable's operations through its own interface.
//
// The per-request state machine is
// created → headers-writable → body-writable → finished; Write moves
// it past headers-writable, End (exactly once) to finished.
type ServerResponse struct {
	mu            sync.Mutex
	statusCode    int
	statusMessage string
	header        Header
	headersSent   bool
	finished      bool
	body          bytes.Buffer
	writable      *stream.Writable
	completion    *Completion
	events        emitter.Emitter
}

// NewServerResponse returns a response wired to settle completion on
// End. Status defaults to 200.
func NewServerResponse(completion *Completion) *ServerResponse {
	r := &ServerResponse{
		statusCode: http.StatusOK,
		header:     NewHeader(nil),
		completion: completion,
	}
	r.writable = stream.NewWritable(func(chunk []byte) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.body.Write(chunk)
		return nil
	}, stream.WritableOptions{})
	return r
}

// SetHeader sets a response header. Fails after send.
func (r *ServerResponse) SetHeader(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.headersSent {
		return ErrHeadersSent
	}
	r.header.Set(key, value)
	return nil
}

// GetHeader returns a response header value ("" when absent).
func (r *ServerResponse) GetHeader(key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Get(key)
}

// HasHeader reports whether a response header is present.
func (r *ServerResponse) HasHeader(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Has(key)
}

// RemoveHeader removes a response header. Fails after send.
func (r *ServerResponse) RemoveHeader(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.headersSent {
		return ErrHeadersSent
	}
	r.header.Del(key)
	return nil
}

// WriteHead commits the status line and merges any headers, marking
// the headers as sent. Fails if they already were.
func (r *ServerResponse) WriteHead(head Head) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.headersSent {
		return ErrHeadersSent
	}
	if head.StatusCode != 0 {
		r.statusCode = head.StatusCode
	}
	if head.StatusMessage != "" {
		r.statusMessage = head.StatusMessage
	}
	for key, value := range head.Header {
		r.header.Set(key, value)
	}
	r.headersSent = true
	return nil
}

// WriteHeadStatus is the status-only writeHead wrapper.
func (r *ServerResponse) WriteHeadStatus(statusCode int) error {
	return r.WriteHead(Head{StatusCode: statusCode})
}

// Write appends a body chunk. The first Write marks the headers as
// sent. The boolean is the writable's backpressure signal.
func (r *ServerResponse) Write(chunk []byte) (bool, error) {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return false, ErrResponseFinished
	}
	r.headersSent = true
	r.mu.Unlock()
	return r.writable.Write(chunk)
}

// End flushes an optional final chunk, transitions to finished,
// snapshots status and headers, and settles the completion with the
// finished {status, headers, body} value — exactly once. Later Write
// and End calls fail with ErrResponseFinished; the settled result is
// never overwritten. A "finish" event fires asynchronously after
// settlement.
func (r *ServerResponse) End(finalChunk []byte) error {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return ErrResponseFinished
	}
	r.finished = true
	r.headersSent = true
	r.mu.Unlock()

	if err := r.writable.End(finalChunk); err != nil {
		return err
	}

	r.mu.Lock()
	statusMessage := r.statusMessage
	if statusMessage == "" {
		statusMessage = http.StatusText(r.statusCode)
	}
	settled := ResponseData{
		StatusCode:    r.statusCode,
		StatusMessage: statusMessage,
		Header:        r.header.Snapshot(),
		Body:          append([]byte(nil), r.body.Bytes()...),
	}
	r.mu.Unlock()

	if err := r.completion.Settle(settled); err != nil {
		// The finished guard makes a double settle unreachable from
		// this response; a failure here means the completion was
		// shared and settled elsewhere.
		return fmt.Errorf("vhttp: settling response: %w", err)
	}

	go r.events.Emit("finish")
	return nil
}

// EndCallback ends the response and, on success, invokes fn
// asynchronously.
func (r *ServerResponse) EndCallback(finalChunk []byte, fn func()) error {
	if err := r.End(finalChunk); err != nil {
		return err
	}
	if fn != nil {
		go fn()
	}
	return nil
}

// Status sets the status code for chaining:
//
//	res.Status(404).Send([]byte("nope"))
//
// After the headers are sent the call leaves the status unchanged; the
// following Write/End fails loudly.
func (r *ServerResponse) Status(statusCode int) *ServerResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.headersSent {
		r.statusCode = statusCode
	}
	return r
}

// Send writes body and ends the response.
func (r *ServerResponse) Send(body []byte) error {
	return r.End(body)
}

// JSON sets the content type, marshals v, and ends the response.
func (r *ServerResponse) JSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("vhttp: encoding JSON response: %w", err)
	}
	if err := r.SetHeader("content-type", "application/json"); err != nil {
		return err
	}
	return r.End(data)
}

// Redirect sends a redirect to location. A zero statusCode means 302.
func (r *ServerResponse) Redirect(statusCode int, location string) error {
	if statusCode == 0 {
		statusCode = http.StatusFound
	}
	if err := r.SetHeader("location", location); err != nil {
		return err
	}
	return r.Status(statusCode).End(nil)
}

// OnFinish attaches a listener for the asynchronous "finish" event.
func (r *ServerResponse) OnFinish(fn func()) *emitter.Subscription {
	return r.events.On("finish", func(args ...any) { fn() })
}

// StatusCode returns the current status code.
func (r *ServerResponse) StatusCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusCode
}

// HeadersSent reports whether the headers have been committed.
func (r *ServerResponse) HeadersSent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.headersSent
}

// Finished reports whether End has settled the response.
func (r *ServerResponse) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

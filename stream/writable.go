// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"errors"
	"sync"

	"github.com/tabwire/tabwire/emitter"
)

// ErrWriteAfterEnd is returned by Write and End once the writable has
// been ended.
var ErrWriteAfterEnd = errors.New("stream: write after end")

// DefaultHighWaterMark is the backpressure threshold when
// WritableOptions leaves HighWaterMark zero: 16 KiB, the conventional
// server-runtime default.
const DefaultHighWaterMark = 16 * 1024

// WritableOptions configures a Writable.
type WritableOptions struct {
	// HighWaterMark is the number of accepted-but-undrained bytes
	// above which Write returns false. Zero means
	// DefaultHighWaterMark.
	HighWaterMark int
}

// Writable accepts chunks into a sink with a backpressure signal.
// There is no real I/O underneath: every chunk is accepted
// synchronously, and the high-water mark only reports that the
// consumer has not drained — callers may keep writing, correctness
// never depends on throttling.
type Writable struct {
	mu        sync.Mutex
	events    emitter.Emitter
	sink      func(chunk []byte) error
	highWater int
	pending   int
	ended     bool
	finished  bool
}

// NewWritable returns a Writable delivering accepted chunks to sink.
// A nil sink discards chunks.
func NewWritable(sink func(chunk []byte) error, opts WritableOptions) *Writable {
	highWater := opts.HighWaterMark
	if highWater <= 0 {
		highWater = DefaultHighWaterMark
	}
	if sink == nil {
		sink = func([]byte) error { return nil }
	}
	return &Writable{sink: sink, highWater: highWater}
}

// Write accepts a chunk. The boolean is the backpressure signal: false
// means the bytes accepted since the last Drain exceed the high-water
// mark and the caller should throttle (it does not have to). Write
// after End fails.
func (w *Writable) Write(chunk []byte) (bool, error) {
	w.mu.Lock()
	if w.ended {
		w.mu.Unlock()
		return false, ErrWriteAfterEnd
	}
	sink := w.sink
	w.pending += len(chunk)
	underMark := w.pending <= w.highWater
	w.mu.Unlock()

	if err := sink(chunk); err != nil {
		return false, err
	}
	return underMark, nil
}

// End flushes an optional final chunk (nil means none), transitions to
// finished, and emits "finish". A second End fails with
// ErrWriteAfterEnd; concrete owners layer their own idempotence guard
// on top.
func (w *Writable) End(finalChunk []byte) error {
	w.mu.Lock()
	if w.ended {
		w.mu.Unlock()
		return ErrWriteAfterEnd
	}
	w.ended = true
	sink := w.sink
	w.mu.Unlock()

	if finalChunk != nil {
		if err := sink(finalChunk); err != nil {
			return err
		}
	}

	w.mu.Lock()
	w.finished = true
	w.mu.Unlock()
	w.events.Emit("finish")
	return nil
}

// EndCallback is the boundary convenience for callers that pass a
// completion callback: it ends the stream and, on success, invokes fn
// asynchronously — never re-entrant with the End call itself.
func (w *Writable) EndCallback(finalChunk []byte, fn func()) error {
	if err := w.End(finalChunk); err != nil {
		return err
	}
	if fn != nil {
		go fn()
	}
	return nil
}

// Drain resets the backpressure accounting and emits "drain" if the
// mark had been exceeded. The emulation's consumers absorb chunks
// synchronously, so this is called by owners that snapshot their
// buffer (a settled response) rather than by a transport.
func (w *Writable) Drain() {
	w.mu.Lock()
	wasOver := w.pending > w.highWater
	w.pending = 0
	w.mu.Unlock()
	if wasOver {
		w.events.Emit("drain")
	}
}

// OnFinish attaches a listener for the "finish" event, fired once End
// has flushed every accepted write.
func (w *Writable) OnFinish(fn func()) *emitter.Subscription {
	return w.events.On("finish", func(args ...any) { fn() })
}

// OnDrain attaches a listener for the "drain" event.
func (w *Writable) OnDrain(fn func()) *emitter.Subscription {
	return w.events.On("drain", func(args ...any) { fn() })
}

// Ended reports whether End has been called.
func (w *Writable) Ended() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ended
}

// Finished reports whether End has completed and "finish" fired.
func (w *Writable) Finished() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finished
}

// Pending returns the bytes accepted since the last Drain. Exposed for
// backpressure introspection in tests.
func (w *Writable) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

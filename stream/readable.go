// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"errors"
	"sync"

	"github.com/tabwire/tabwire/emitter"
)

var (
	// ErrStreamEnded is returned by Push and PushEnd after
	// end-of-stream has been marked. Once ended, no further chunks
	// may enter the stream.
	ErrStreamEnded = errors.New("stream: already ended")

	// ErrStreamDestroyed is returned by Push and PushEnd after
	// Destroy.
	ErrStreamDestroyed = errors.New("stream: destroyed")
)

// Readable is the push side of a one-way byte flow. Producers call
// Push and PushEnd; consumers either attach a "data" listener (flowing
// mode) or pull explicitly with Read (paused mode).
//
// A Readable starts paused. OnData attaches a listener and resumes, so
// chunks pushed before the consumer attached are replayed in push
// order — the common shape in the emulation, where a request body is
// pushed in full before the handler runs.
type Readable struct {
	mu         sync.Mutex
	events     emitter.Emitter
	buffer     [][]byte
	flowing    bool
	ended      bool
	endEmitted bool
	destroyed  bool
}

// NewReadable returns a paused, empty Readable.
func NewReadable() *Readable {
	return &Readable{}
}

// Push appends a chunk. In flowing mode the chunk is delivered to
// "data" listeners before Push returns; in paused mode it queues.
// Push after PushEnd or Destroy fails.
func (r *Readable) Push(chunk []byte) error {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return ErrStreamDestroyed
	}
	if r.ended {
		r.mu.Unlock()
		return ErrStreamEnded
	}
	if !r.flowing {
		r.buffer = append(r.buffer, chunk)
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()
	r.events.Emit("data", chunk)
	return nil
}

// PushEnd marks end-of-stream. It is the only way to end a Readable.
// If the stream is flowing and drained, "end" fires before PushEnd
// returns; otherwise it fires once the queue drains.
func (r *Readable) PushEnd() error {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return ErrStreamDestroyed
	}
	if r.ended {
		r.mu.Unlock()
		return ErrStreamEnded
	}
	r.ended = true
	fireEnd := r.flowing && len(r.buffer) == 0 && !r.endEmitted
	if fireEnd {
		r.endEmitted = true
	}
	r.mu.Unlock()
	if fireEnd {
		r.events.Emit("end")
	}
	return nil
}

// Pause leaves flowing mode. Subsequent pushes queue until Resume.
func (r *Readable) Pause() {
	r.mu.Lock()
	r.flowing = false
	r.mu.Unlock()
}

// Resume enters flowing mode, delivers any queued chunks to "data"
// listeners in push order, and fires "end" if end-of-stream was
// already marked.
func (r *Readable) Resume() {
	for {
		r.mu.Lock()
		if r.destroyed {
			r.mu.Unlock()
			return
		}
		r.flowing = true
		if len(r.buffer) == 0 {
			fireEnd := r.ended && !r.endEmitted
			if fireEnd {
				r.endEmitted = true
			}
			r.mu.Unlock()
			if fireEnd {
				r.events.Emit("end")
			}
			return
		}
		chunk := r.buffer[0]
		r.buffer = r.buffer[1:]
		r.mu.Unlock()
		r.events.Emit("data", chunk)

		// A data listener may have paused the stream; stop draining
		// and leave the remainder queued.
		r.mu.Lock()
		stillFlowing := r.flowing
		r.mu.Unlock()
		if !stillFlowing {
			return
		}
	}
}

// Read pulls one queued chunk in paused mode, or nil when the queue is
// empty. Draining the final chunk of an ended stream fires "end".
func (r *Readable) Read() []byte {
	r.mu.Lock()
	if len(r.buffer) == 0 {
		fireEnd := r.ended && !r.endEmitted
		if fireEnd {
			r.endEmitted = true
		}
		r.mu.Unlock()
		if fireEnd {
			r.events.Emit("end")
		}
		return nil
	}
	chunk := r.buffer[0]
	r.buffer = r.buffer[1:]
	fireEnd := r.ended && len(r.buffer) == 0 && !r.endEmitted
	if fireEnd {
		r.endEmitted = true
	}
	r.mu.Unlock()
	if fireEnd {
		r.events.Emit("end")
	}
	return chunk
}

// Destroy tears the stream down. Queued chunks are discarded. When err
// is non-nil an "error" event fires first (panicking if unobserved,
// per the emitter contract), then "close" fires. Destroying an
// already-destroyed stream is a no-op.
func (r *Readable) Destroy(err error) {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	r.buffer = nil
	r.mu.Unlock()
	if err != nil {
		r.events.Emit(emitter.Error, err)
	}
	r.events.Emit("close")
}

// OnData attaches a chunk listener and resumes the stream, replaying
// any queued chunks before returning.
func (r *Readable) OnData(fn func(chunk []byte)) *emitter.Subscription {
	sub := r.events.On("data", func(args ...any) {
		fn(args[0].([]byte))
	})
	r.Resume()
	return sub
}

// OnEnd attaches an end-of-stream listener. If "end" has already
// fired, fn is invoked immediately — late consumers must not hang.
func (r *Readable) OnEnd(fn func()) *emitter.Subscription {
	r.mu.Lock()
	alreadyEnded := r.endEmitted
	r.mu.Unlock()
	if alreadyEnded {
		fn()
		return nil
	}
	return r.events.On("end", func(args ...any) { fn() })
}

// OnError attaches a destroy-error listener.
func (r *Readable) OnError(fn func(err error)) *emitter.Subscription {
	return r.events.On(emitter.Error, func(args ...any) {
		fn(args[0].(error))
	})
}

// OnClose attaches a listener for the terminal "close" event.
func (r *Readable) OnClose(fn func()) *emitter.Subscription {
	return r.events.On("close", func(args ...any) { fn() })
}

// Ended reports whether end-of-stream has been marked.
func (r *Readable) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// EndEmitted reports whether the "end" event has fired, meaning every
// chunk has been delivered or drained.
func (r *Readable) EndEmitted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endEmitted
}

// Destroyed reports whether Destroy has been called.
func (r *Readable) Destroyed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyed
}

// Flowing reports whether the stream is in flowing mode.
func (r *Readable) Flowing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flowing
}

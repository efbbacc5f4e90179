// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package emitter

import (
	"fmt"
	"sync"
)

// Error is the reserved event name for failure notification. Emitting
// it with no registered listeners panics: an unobserved failure must
// propagate to the host environment, never be dropped.
const Error = "error"

// Listener receives the arguments passed to Emit.
type Listener func(args ...any)

// Subscription identifies one registered listener. It is the removal
// handle: Go functions are not comparable, so Off takes the handle
// returned by On or Once instead of the function itself.
type Subscription struct {
	event   string
	fn      Listener
	once    bool
	removed bool
}

// Emitter is a synchronous event dispatcher. Dispatch happens on the
// emitting goroutine, in registration order. The zero value is ready
// to use.
//
// Emitter is safe for concurrent use, but the emulation's components
// assume a single logical owner goroutine per connected object graph
// (the cooperative scheduling model); the lock exists so that tests
// and the outbound client's fetch goroutine can signal safely.
type Emitter struct {
	mu        sync.Mutex
	listeners map[string][]*Subscription
}

// On registers fn for the named event. It stays registered until Off.
func (e *Emitter) On(event string, fn Listener) *Subscription {
	return e.add(event, fn, false)
}

// Once registers fn for a single invocation. The subscription removes
// itself before fn runs, so re-emitting from inside fn cannot invoke
// it twice.
func (e *Emitter) Once(event string, fn Listener) *Subscription {
	return e.add(event, fn, true)
}

func (e *Emitter) add(event string, fn Listener, once bool) *Subscription {
	sub := &Subscription{event: event, fn: fn, once: once}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[string][]*Subscription)
	}
	e.listeners[event] = append(e.listeners[event], sub)
	return sub
}

// Off removes a subscription. Removing an already-removed subscription
// is a no-op. Safe to call during dispatch: the removed listener will
// not run in the current emission if it has not run yet.
func (e *Emitter) Off(sub *Subscription) {
	if sub == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(sub)
}

func (e *Emitter) removeLocked(sub *Subscription) {
	if sub.removed {
		return
	}
	sub.removed = true
	subs := e.listeners[sub.event]
	for i, candidate := range subs {
		if candidate == sub {
			e.listeners[sub.event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
}

// Emit dispatches the event to every listener registered at the time
// of the call, in registration order, and reports whether any listener
// ran. Listeners added during dispatch do not see the current
// emission; listeners removed during dispatch are skipped if they have
// not run yet.
//
// Emitting Error with zero listeners panics with the first argument
// (wrapped if it is an error).
func (e *Emitter) Emit(event string, args ...any) bool {
	e.mu.Lock()
	snapshot := append([]*Subscription(nil), e.listeners[event]...)
	// Once-listeners self-remove before invocation so that a
	// re-entrant Emit cannot run them twice.
	for _, sub := range snapshot {
		if sub.once {
			e.removeLocked(sub)
		}
	}
	e.mu.Unlock()

	if len(snapshot) == 0 {
		if event == Error {
			panic(unhandledError(args))
		}
		return false
	}

	ran := false
	for _, sub := range snapshot {
		if !sub.once && subRemoved(e, sub) {
			continue
		}
		ran = true
		sub.fn(args...)
	}
	return ran
}

// ListenerCount returns the number of listeners registered for event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}

func subRemoved(e *Emitter, sub *Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return sub.removed
}

func unhandledError(args []any) error {
	if len(args) > 0 {
		if err, ok := args[0].(error); ok {
			return fmt.Errorf("emitter: unhandled error event: %w", err)
		}
		return fmt.Errorf("emitter: unhandled error event: %v", args[0])
	}
	return fmt.Errorf("emitter: unhandled error event")
}

// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package emitter provides the synchronous publish/subscribe primitive
// that every other Tabwire component builds on.
//
// [Emitter] dispatches events synchronously, in listener registration
// order, on the goroutine that calls Emit. There is no queue and no
// background delivery: when Emit returns, every listener has run. This
// mirrors the cooperative, single-owner scheduling model of the whole
// emulation — streams, sockets, servers, and the bridge all signal
// lifecycle transitions through an owned Emitter.
//
// Listeners are identified by the [Subscription] handle returned from
// On and Once (Go functions are not comparable, so removal by handle
// replaces removal by function identity). A listener may remove itself
// or any other listener during dispatch; removed once-listeners are
// never invoked twice.
//
// Emitting "error" with zero listeners panics. An unobserved failure
// must reach the host environment rather than being silently dropped;
// this forces every caller that can fail asynchronously to attach
// error handling. It is a deliberate contract, not a convenience.
package emitter

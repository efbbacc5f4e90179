// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package stream provides the cooperative, backpressure-aware byte
// stream pair the virtual transport is built on.
//
// [Readable] is the push side of a one-way byte flow: a producer calls
// Push for each chunk and PushEnd exactly once to mark end-of-stream.
// Consumers attach in one of two modes. In flowing mode (entered by
// OnData or Resume) each chunk is delivered as a "data" event as soon
// as it arrives, followed by one "end" event after PushEnd. In paused
// mode chunks queue internally until Resume or an explicit Read.
//
// [Writable] is the pull side: Write accepts a chunk into the
// configured sink and reports backpressure — false means the bytes
// accepted since the last Drain exceed the high-water mark. Callers
// may ignore the signal; correctness never depends on throttling,
// because nothing underneath is a real socket. End accepts an optional
// final chunk, transitions to finished, and emits "finish".
//
// Neither type performs I/O. They exist so that request and response
// objects can own a stream and expose its operations through their own
// interfaces (capability composition), behaving like the byte flows a
// server runtime expects without a transport underneath.
package stream

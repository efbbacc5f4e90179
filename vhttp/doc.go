// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package vhttp provides the emulated HTTP request/response lifecycle
// and the outbound HTTP client.
//
// The server surface mirrors what server-runtime application code
// expects to be handed: [IncomingMessage] (a readable request — owns a
// stream.Readable, exposed through its own methods rather than
// inherited) and [ServerResponse] (a writable response whose End
// settles a one-shot [Completion] with the finished
// {status, headers, body} value). [Server] turns one complete
// (method, url, headers, body) tuple into a settled [ResponseData] by
// driving the registered handler, racing an optional per-request
// timeout on an injected clock, and recovering handler panics into the
// call's error result. Every request gets a fresh message/response
// pair; the server keeps no per-request state beyond an in-flight
// counter.
//
// The client surface is [ClientRequest]: a single-use outbound request
// assembled from structured [RequestOptions], performed on End through
// a pluggable [Fetcher] (net/http by default), with explicit
// cancellation (Abort) and a clock-driven timeout. Exactly one of
// "response", "error", "timeout", or "abort" fires per request. An
// unobserved "error" event panics, by the emitter contract: a caller
// that can fail asynchronously must attach error handling.
//
// Header keys are case-insensitive everywhere, stored lower-cased in
// [Header], following the runtime convention the emulation reproduces.
package vhttp

// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge multiplexes virtual HTTP servers behind one routable
// namespace.
//
// A Bridge owns a port registry and a base URL. Registered servers
// become reachable at <baseURL>/__virtual__/<port>/..., and the bridge
// resolves such a URL back to the owning server, dispatches the
// request, and returns the settled response. Requests to ports with no
// registered server produce a synthesized 503, never an error.
//
// The bridge's outer surface is FetchHandler: a pure function from a
// request descriptor to a response descriptor, which is all an
// external intercepting proxy needs. Two adapters serve that function
// to real callers: HTTPHandler exposes it as a net/http.Handler, and
// SocketServer serves it as CBOR frames over a Unix or TCP socket for
// out-of-process proxies.
package bridge

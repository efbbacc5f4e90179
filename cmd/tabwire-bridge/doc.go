// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

// tabwire-bridge serves a bridge's virtual server namespace to real
// callers. It loads a YAML config (or flags), fronts the bridge's
// fetch handler on a TCP address as plain HTTP, and optionally serves
// the CBOR frame protocol on a Unix socket for out-of-process
// intercepting proxies.
package main

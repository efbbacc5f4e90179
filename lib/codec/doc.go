// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Tabwire's standard CBOR encoding configuration.
//
// Tabwire uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: the ServerResponse.JSON helper and
//     anything a browser-facing proxy consumes directly.
//   - CBOR for the internal wire protocol: the framed request/response
//     descriptors an out-of-process intercepting proxy exchanges with
//     the bridge socket service.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every Tabwire component encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Wire types carry `json` struct tags: fxamacker/cbor v2 reads `json`
// tags as fallback when `cbor` tags are absent, so a single tag
// controls field naming for both formats.
package codec

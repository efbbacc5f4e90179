// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package vhttp

import (
	"sort"
	"strings"
)

// Header is a case-insensitive header mapping. Keys are stored
// lower-cased; multiple values for one key are joined with ", "
// (first-or-joined, the runtime convention for every header except
// Set-Cookie, which the emulation does not special-case).
//
// Use the methods rather than indexing so that keys normalize;
// iteration over the map sees the lower-cased form.
type Header map[string]string

// NewHeader returns a Header populated from raw, normalizing keys.
// A nil raw yields an empty, usable Header.
func NewHeader(raw map[string]string) Header {
	h := make(Header, len(raw))
	for key, value := range raw {
		h[strings.ToLower(key)] = value
	}
	return h
}

// Get returns the value for key, or "" when absent.
func (h Header) Get(key string) string {
	return h[strings.ToLower(key)]
}

// Has reports whether key is present.
func (h Header) Has(key string) bool {
	_, ok := h[strings.ToLower(key)]
	return ok
}

// Set replaces the value for key.
func (h Header) Set(key, value string) {
	h[strings.ToLower(key)] = value
}

// Add appends a value for key, joining with ", " when the key already
// has one.
func (h Header) Add(key, value string) {
	normalized := strings.ToLower(key)
	if existing, ok := h[normalized]; ok {
		h[normalized] = existing + ", " + value
		return
	}
	h[normalized] = value
}

// Del removes key.
func (h Header) Del(key string) {
	delete(h, strings.ToLower(key))
}

// Keys returns the stored (lower-cased) keys, sorted for deterministic
// output.
func (h Header) Keys() []string {
	keys := make([]string, 0, len(h))
	for key := range h {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns an independent plain-map copy with lower-cased
// keys. Mutating the snapshot does not affect the Header.
func (h Header) Snapshot() map[string]string {
	snapshot := make(map[string]string, len(h))
	for key, value := range h {
		snapshot[key] = value
	}
	return snapshot
}

// Clone returns an independent Header copy.
func (h Header) Clone() Header {
	return Header(h.Snapshot())
}

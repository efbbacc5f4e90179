// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package vhttp

import (
	"context"
	"net/http"
)

// Fetcher performs the one real network operation the emulation ever
// makes: the outbound client's request. It is the stand-in for the
// host environment's fetch primitive, pluggable so tests and embedders
// can substitute an in-process implementation (a bridge fetch handler,
// for instance) for the default net/http client.
type Fetcher interface {
	Fetch(ctx context.Context, req *http.Request) (*http.Response, error)
}

// HTTPFetcher is the production Fetcher, backed by an *http.Client.
type HTTPFetcher struct {
	// Client is the underlying HTTP client. Nil means
	// http.DefaultClient.
	Client *http.Client
}

// Fetch issues the request with the given context attached.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *http.Request) (*http.Response, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req.WithContext(ctx))
}

// Store is the client-side key/value lookup the outbound client
// consults for configuration it cannot hard-code — the origin
// indirection endpoint in particular. It mirrors the host page's
// local storage surface.
type Store interface {
	Get(key string) (value string, ok bool)
}

// MapStore is a Store backed by a plain map. Suitable for tests and
// static configuration.
type MapStore map[string]string

// Get looks up key.
func (s MapStore) Get(key string) (string, bool) {
	value, ok := s[key]
	return value, ok
}

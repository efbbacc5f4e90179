// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/tabwire/tabwire/lib/netutil"
)

// gzipThreshold is the smallest payload worth compressing. Below this
// the gzip header overhead dominates.
const gzipThreshold = 1024

// HTTPHandler adapts a FetchHandlerFunc to net/http so a real reverse
// proxy can front the virtual namespace.
type HTTPHandler struct {
	// Handler resolves each request. Required.
	Handler FetchHandlerFunc

	// Logger receives structured log output. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

func (h *HTTPHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// ServeHTTP reads the inbound body into memory, dispatches through the
// fetch handler, and copies status, headers, and body back. Responses
// are gzip-compressed when the client advertises support and the
// payload is large enough to benefit.
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		data, err := netutil.ReadBounded(r.Body)
		if err != nil {
			h.logger().Warn("reading request body failed", "method", r.Method, "url", r.URL.String(), "error", err)
			http.Error(w, "request body too large or unreadable", http.StatusBadRequest)
			return
		}
		body = data
	}

	header := make(map[string]string, len(r.Header))
	for key, values := range r.Header {
		header[key] = strings.Join(values, ", ")
	}

	response := h.Handler(r.Context(), FetchRequest{
		Method: r.Method,
		URL:    r.URL.RequestURI(),
		Header: header,
		Body:   body,
	})

	for key, value := range response.Header {
		w.Header().Set(key, value)
	}

	payload := response.Body
	if shouldGzip(r, response) {
		compressed, err := gzipBytes(payload)
		if err == nil && len(compressed) < len(payload) {
			payload = compressed
			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Add("Vary", "Accept-Encoding")
		}
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(response.StatusCode)
	if _, err := w.Write(payload); err != nil && !netutil.IsExpectedCloseError(err) {
		h.logger().Debug("writing response failed", "error", err)
	}
}

// shouldGzip reports whether the response payload should be
// compressed: the client must accept gzip, the payload must clear the
// size threshold, and the virtual server must not have applied its own
// encoding.
func shouldGzip(r *http.Request, response FetchResponse) bool {
	if len(response.Body) < gzipThreshold {
		return false
	}
	if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		return false
	}
	for key := range response.Header {
		if strings.EqualFold(key, "Content-Encoding") {
			return false
		}
	}
	return true
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

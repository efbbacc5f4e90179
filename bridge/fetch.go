// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tabwire/tabwire/vhttp"
)

// virtualPrefix is the path segment marking the virtual namespace.
const virtualPrefix = "/__virtual__/"

// FetchRequest is the inbound request descriptor the intercepting
// proxy hands to the fetch handler. URL is the full request URL or an
// absolute path; either way it must contain the /__virtual__/<port>/
// segment.
type FetchRequest struct {
	Method string            `cbor:"method"`
	URL    string            `cbor:"url"`
	Header map[string]string `cbor:"header,omitempty"`
	Body   []byte            `cbor:"body,omitempty"`
}

// FetchResponse is the outbound response descriptor.
type FetchResponse struct {
	StatusCode    int               `cbor:"status_code"`
	StatusMessage string            `cbor:"status_message,omitempty"`
	Header        map[string]string `cbor:"header,omitempty"`
	Body          []byte            `cbor:"body,omitempty"`
}

// FetchHandlerFunc maps one request descriptor to one response
// descriptor. It never fails: every error condition is folded into a
// well-formed response.
type FetchHandlerFunc func(ctx context.Context, req FetchRequest) FetchResponse

// FetchHandler returns the bridge's pure request-to-response function.
// It parses the virtual URL scheme, dispatches to the owning server,
// and converts dispatch failures into generic failure responses (504
// for timeouts, 500 otherwise).
func (b *Bridge) FetchHandler() FetchHandlerFunc {
	return func(ctx context.Context, req FetchRequest) FetchResponse {
		port, target, err := ParseVirtualURL(req.URL)
		if err != nil {
			b.logger.Debug("unroutable request", "url", req.URL, "error", err)
			return failureResponse(http.StatusNotFound, fmt.Sprintf("Not a virtual address: %s", req.URL))
		}

		result, err := b.HandleRequest(ctx, port, vhttp.RequestData{
			Method: req.Method,
			URL:    target,
			Header: req.Header,
			Body:   req.Body,
		})
		if err != nil {
			b.logger.Warn("virtual server request failed",
				"port", port,
				"method", req.Method,
				"url", target,
				"error", err,
			)
			var timeout *vhttp.TimeoutError
			if errors.As(err, &timeout) {
				return failureResponse(http.StatusGatewayTimeout, "Virtual server timed out")
			}
			return failureResponse(http.StatusInternalServerError, "Virtual server error")
		}

		return FetchResponse{
			StatusCode:    result.StatusCode,
			StatusMessage: result.StatusMessage,
			Header:        result.Header,
			Body:          result.Body,
		}
	}
}

// ParseVirtualURL extracts the virtual port and downstream target from
// a URL containing the /__virtual__/<port>/ segment. The target keeps
// the sub-path and query string verbatim and always starts with "/".
func ParseVirtualURL(url string) (port int, target string, err error) {
	_, rest, found := strings.Cut(url, virtualPrefix)
	if !found {
		return 0, "", fmt.Errorf("bridge: URL %q has no %s segment", url, virtualPrefix)
	}

	// The port runs until the next path or query separator.
	portEnd := strings.IndexAny(rest, "/?")
	portText := rest
	if portEnd >= 0 {
		portText = rest[:portEnd]
	}
	port, err = strconv.Atoi(portText)
	if err != nil || port < 0 {
		return 0, "", fmt.Errorf("bridge: invalid virtual port %q in %q", portText, url)
	}

	if portEnd < 0 {
		return port, "/", nil
	}
	target = rest[portEnd:]
	if strings.HasPrefix(target, "?") {
		target = "/" + target
	}
	return port, target, nil
}

func failureResponse(status int, message string) FetchResponse {
	return FetchResponse{
		StatusCode:    status,
		StatusMessage: http.StatusText(status),
		Header:        map[string]string{"content-type": "text/plain"},
		Body:          []byte(message),
	}
}

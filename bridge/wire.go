// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"
	"net"
	"sync"

	"github.com/tabwire/tabwire/lib/codec"
)

// SocketClient is the calling side of the SocketServer protocol: one
// CBOR FetchRequest frame out, one CBOR FetchResponse frame back, in
// order. An intercepting proxy running out of process uses this to
// reach the bridge.
//
// SocketClient serializes calls; concurrent Roundtrip calls queue.
type SocketClient struct {
	mu         sync.Mutex
	connection net.Conn
	encoder    *codec.Encoder
	decoder    *codec.Decoder
}

// DialSocket connects to a running SocketServer.
func DialSocket(network, address string) (*SocketClient, error) {
	connection, err := net.Dial(network, address)
	if err != nil {
		return nil, fmt.Errorf("bridge: dialing %s %s: %w", network, address, err)
	}
	return &SocketClient{
		connection: connection,
		encoder:    codec.NewEncoder(connection),
		decoder:    codec.NewDecoder(connection),
	}, nil
}

// Roundtrip sends one request frame and reads the matching response
// frame.
func (c *SocketClient) Roundtrip(req FetchRequest) (FetchResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.encoder.Encode(req); err != nil {
		return FetchResponse{}, fmt.Errorf("bridge: sending request frame: %w", err)
	}
	var response FetchResponse
	if err := c.decoder.Decode(&response); err != nil {
		return FetchResponse{}, fmt.Errorf("bridge: reading response frame: %w", err)
	}
	return response, nil
}

// Close closes the underlying connection.
func (c *SocketClient) Close() error {
	return c.connection.Close()
}

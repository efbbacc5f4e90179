// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tabwire/tabwire/lib/testutil"
	"github.com/tabwire/tabwire/vhttp"
)

func startSocketServer(t *testing.T, handle FetchHandlerFunc) *SocketServer {
	t.Helper()
	server := &SocketServer{
		Network: "unix",
		Address: filepath.Join(testutil.SocketDir(t), "bridge.sock"),
		Handler: handle,
	}
	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(server.Stop)
	return server
}

func TestSocketServerRoundTrip(t *testing.T) {
	b := newBridge(t, "http://localhost:5173")
	b.RegisterServer(echoServer(t), 5001)
	server := startSocketServer(t, b.FetchHandler())

	client, err := DialSocket("unix", server.Address)
	if err != nil {
		t.Fatalf("DialSocket: %v", err)
	}
	defer client.Close()

	path := "/api/" + testutil.UniqueID("probe")
	response, err := client.Roundtrip(FetchRequest{
		Method: "GET",
		URL:    "http://localhost:5173/__virtual__/5001" + path + "?x=1",
	})
	if err != nil {
		t.Fatalf("Roundtrip: %v", err)
	}
	if response.StatusCode != 200 || string(response.Body) != path+"?x=1" {
		t.Fatalf("response = %d %q", response.StatusCode, response.Body)
	}
}

func TestSocketServerSequentialFrames(t *testing.T) {
	b := newBridge(t, "http://localhost:5173")
	b.RegisterServer(echoServer(t), 5001)
	server := startSocketServer(t, b.FetchHandler())

	client, err := DialSocket("unix", server.Address)
	if err != nil {
		t.Fatalf("DialSocket: %v", err)
	}
	defer client.Close()

	// Multiple frames on one connection answer in order.
	for _, path := range []string{"/one", "/two", "/three"} {
		response, err := client.Roundtrip(FetchRequest{
			Method: "GET",
			URL:    "/__virtual__/5001" + path,
		})
		if err != nil {
			t.Fatalf("Roundtrip(%s): %v", path, err)
		}
		if string(response.Body) != path {
			t.Fatalf("frame for %s answered %q", path, response.Body)
		}
	}
}

func TestSocketServerMissingServer(t *testing.T) {
	b := newBridge(t, "http://localhost:5173")
	server := startSocketServer(t, b.FetchHandler())

	client, err := DialSocket("unix", server.Address)
	if err != nil {
		t.Fatalf("DialSocket: %v", err)
	}
	defer client.Close()

	response, err := client.Roundtrip(FetchRequest{Method: "GET", URL: "/__virtual__/4242/"})
	if err != nil {
		t.Fatalf("Roundtrip: %v", err)
	}
	if response.StatusCode != 503 {
		t.Fatalf("status = %d", response.StatusCode)
	}
}

func TestSocketServerStopDrains(t *testing.T) {
	b := newBridge(t, "http://localhost:5173")
	b.RegisterServer(vhttp.NewServer(vhttp.ServerOptions{
		Handler: func(req *vhttp.IncomingMessage, res *vhttp.ServerResponse) {
			res.End(nil)
		},
	}), 5001)
	server := startSocketServer(t, b.FetchHandler())

	client, err := DialSocket("unix", server.Address)
	if err != nil {
		t.Fatalf("DialSocket: %v", err)
	}
	if _, err := client.Roundtrip(FetchRequest{Method: "GET", URL: "/__virtual__/5001/"}); err != nil {
		t.Fatalf("Roundtrip: %v", err)
	}
	client.Close()

	server.Stop()
	server.Wait() // returns promptly once connections drained

	// A dial after Stop must fail.
	if _, err := DialSocket("unix", server.Address); err == nil {
		t.Fatal("dial succeeded after Stop")
	}
}

func TestSocketServerStartValidation(t *testing.T) {
	cases := []SocketServer{
		{Network: "udp", Address: "x", Handler: func(context.Context, FetchRequest) FetchResponse { return FetchResponse{} }},
		{Network: "unix", Handler: func(context.Context, FetchRequest) FetchResponse { return FetchResponse{} }},
		{Network: "unix", Address: "x"},
	}
	for i := range cases {
		if err := cases[i].Start(context.Background()); err == nil {
			t.Errorf("case %d: Start succeeded, want error", i)
			cases[i].Stop()
		}
	}
}

// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"testing"
	"time"
)

func TestListenBareForm(t *testing.T) {
	l := NewListener()
	fired := false
	l.OnListening(func() { fired = true })

	if err := l.ListenPort(5001); err != nil {
		t.Fatalf("ListenPort: %v", err)
	}
	if !fired {
		t.Fatal("listening event did not fire")
	}
	addr, ok := l.Addr()
	if !ok {
		t.Fatal("Addr() not available while listening")
	}
	if addr.Port != 5001 || addr.Host != DefaultHost {
		t.Fatalf("addr = %v", addr)
	}
	if addr.String() != "127.0.0.1:5001" {
		t.Fatalf("addr.String() = %q", addr.String())
	}
}

func TestListenHostPortForm(t *testing.T) {
	l := NewListener()
	readyCalled := false

	err := l.ListenHostPort(8080, "localhost", func() { readyCalled = true })
	if err != nil {
		t.Fatalf("ListenHostPort: %v", err)
	}
	if !readyCalled {
		t.Fatal("ready callback did not run")
	}

	addr, _ := l.Addr()
	if addr.Host != "localhost" || addr.Port != 8080 {
		t.Fatalf("addr = %v", addr)
	}
}

func TestListenOptionsForm(t *testing.T) {
	l := NewListener()
	if err := l.Listen(ListenConfig{Port: 3000, Host: "0.0.0.0"}); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if !l.Listening() {
		t.Fatal("Listening() = false after Listen")
	}
}

func TestListenTwice(t *testing.T) {
	l := NewListener()
	l.ListenPort(1)
	if err := l.ListenPort(2); !errors.Is(err, ErrAlreadyListening) {
		t.Fatalf("second Listen: err = %v", err)
	}
}

func TestCloseLifecycle(t *testing.T) {
	l := NewListener()
	closeEvent := false
	callback := false
	l.OnClose(func() { closeEvent = true })

	l.ListenPort(5001)
	if err := l.Close(func() { callback = true }); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !closeEvent || !callback {
		t.Fatalf("close event = %v, callback = %v", closeEvent, callback)
	}
	if l.Listening() {
		t.Fatal("Listening() = true after Close")
	}
	if _, ok := l.Addr(); ok {
		t.Fatal("Addr() still available after Close")
	}
	if err := l.Close(nil); !errors.Is(err, ErrNotListening) {
		t.Fatalf("double Close: err = %v", err)
	}
}

func TestCloseCallbackRunsOncePerClose(t *testing.T) {
	l := NewListener()
	calls := 0

	l.ListenPort(5001)
	l.Close(func() { calls++ })

	// Rebind and close again with no callback: the first callback was
	// a one-shot and must not fire for this close.
	l.ListenPort(5001)
	l.Close(nil)

	if calls != 1 {
		t.Fatalf("close callback ran %d times", calls)
	}
}

func TestRefUnrefNoOps(t *testing.T) {
	l := NewListener()
	l.Ref()
	l.Unref()
	if l.Listening() {
		t.Fatal("Ref/Unref changed state")
	}
}

func TestSocketMetadata(t *testing.T) {
	s := NewSocket(Addr{Host: "127.0.0.1", Port: 5001}, Addr{Host: "127.0.0.1", Port: 49152})

	if got := s.LocalAddr().Port; got != 5001 {
		t.Fatalf("LocalAddr().Port = %d", got)
	}
	if got := s.RemoteAddr().Port; got != 49152 {
		t.Fatalf("RemoteAddr().Port = %d", got)
	}
	if got := s.LocalAddr().Network(); got != "virtual" {
		t.Fatalf("Network() = %q", got)
	}

	s.SetTimeout(30 * time.Second)
	if got := s.Timeout(); got != 30*time.Second {
		t.Fatalf("Timeout() = %v", got)
	}
}

// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/tabwire/tabwire/lib/testutil"
)

func TestReadableFlowingDelivery(t *testing.T) {
	r := NewReadable()
	var got [][]byte
	ended := false

	r.OnData(func(chunk []byte) { got = append(got, chunk) })
	r.OnEnd(func() { ended = true })

	if err := r.Push([]byte("one")); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := r.Push([]byte("two")); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := r.PushEnd(); err != nil {
		t.Fatalf("PushEnd: %v", err)
	}

	if len(got) != 2 || string(got[0]) != "one" || string(got[1]) != "two" {
		t.Fatalf("chunks = %q", got)
	}
	if !ended {
		t.Fatal("end event did not fire")
	}
}

func TestReadableReplayBeforeAttach(t *testing.T) {
	// The emulation pushes the whole request body before the handler
	// attaches. Attaching must replay queued chunks in push order and
	// then fire one end event.
	r := NewReadable()
	r.Push([]byte("a"))
	r.Push([]byte("b"))
	r.PushEnd()

	var got []byte
	endCount := 0
	r.OnData(func(chunk []byte) { got = append(got, chunk...) })
	r.OnEnd(func() { endCount++ })

	if string(got) != "ab" {
		t.Fatalf("replayed body = %q, want %q", got, "ab")
	}
	if endCount != 1 {
		t.Fatalf("end fired %d times", endCount)
	}
}

func TestReadableLateEndListener(t *testing.T) {
	r := NewReadable()
	r.PushEnd()
	r.Resume()

	called := false
	r.OnEnd(func() { called = true })
	if !called {
		t.Fatal("OnEnd after end did not invoke listener")
	}
}

func TestReadablePushAfterEnd(t *testing.T) {
	r := NewReadable()
	r.PushEnd()

	if err := r.Push([]byte("late")); !errors.Is(err, ErrStreamEnded) {
		t.Fatalf("Push after end: err = %v", err)
	}
	if err := r.PushEnd(); !errors.Is(err, ErrStreamEnded) {
		t.Fatalf("double PushEnd: err = %v", err)
	}
}

func TestReadablePauseQueues(t *testing.T) {
	r := NewReadable()
	var got [][]byte
	r.OnData(func(chunk []byte) { got = append(got, chunk) })

	r.Pause()
	r.Push([]byte("queued"))
	if len(got) != 0 {
		t.Fatalf("paused stream delivered %q", got)
	}

	r.Resume()
	if len(got) != 1 || string(got[0]) != "queued" {
		t.Fatalf("resume delivered %q", got)
	}
}

func TestReadablePauseDuringDrain(t *testing.T) {
	r := NewReadable()
	r.Push([]byte("first"))
	r.Push([]byte("second"))

	var got [][]byte
	r.OnData(func(chunk []byte) {
		got = append(got, chunk)
		r.Pause()
	})

	if len(got) != 1 || string(got[0]) != "first" {
		t.Fatalf("drain after self-pause delivered %q", got)
	}
	if chunk := r.Read(); string(chunk) != "second" {
		t.Fatalf("remaining chunk = %q", chunk)
	}
}

func TestReadableExplicitRead(t *testing.T) {
	r := NewReadable()
	r.Push([]byte("x"))
	r.Push([]byte("y"))
	r.PushEnd()

	ended := false
	r.OnEnd(func() { ended = true })

	if chunk := r.Read(); string(chunk) != "x" {
		t.Fatalf("Read = %q", chunk)
	}
	if ended {
		t.Fatal("end fired before queue drained")
	}
	if chunk := r.Read(); string(chunk) != "y" {
		t.Fatalf("Read = %q", chunk)
	}
	if !ended {
		t.Fatal("end did not fire after final Read")
	}
	if chunk := r.Read(); chunk != nil {
		t.Fatalf("Read on empty stream = %q", chunk)
	}
}

func TestReadableDestroy(t *testing.T) {
	r := NewReadable()
	r.Push([]byte("pending"))

	var gotErr error
	closed := false
	r.OnError(func(err error) { gotErr = err })
	r.OnClose(func() { closed = true })

	cause := errors.New("torn down")
	r.Destroy(cause)

	if gotErr != cause {
		t.Fatalf("error event carried %v", gotErr)
	}
	if !closed {
		t.Fatal("close event did not fire")
	}
	if !r.Destroyed() {
		t.Fatal("Destroyed() = false")
	}
	if err := r.Push([]byte("late")); !errors.Is(err, ErrStreamDestroyed) {
		t.Fatalf("Push after destroy: err = %v", err)
	}

	// Second destroy is a no-op.
	r.Destroy(errors.New("again"))
}

func TestReadableDestroyNoError(t *testing.T) {
	r := NewReadable()
	closed := false
	r.OnClose(func() { closed = true })
	r.Destroy(nil)
	if !closed {
		t.Fatal("close did not fire on errorless destroy")
	}
}

func TestWritableSink(t *testing.T) {
	var sunk bytes.Buffer
	w := NewWritable(func(chunk []byte) error {
		sunk.Write(chunk)
		return nil
	}, WritableOptions{})

	ok, err := w.Write([]byte("hello "))
	if err != nil || !ok {
		t.Fatalf("Write = %v, %v", ok, err)
	}
	if err := w.End([]byte("world")); err != nil {
		t.Fatalf("End: %v", err)
	}
	if sunk.String() != "hello world" {
		t.Fatalf("sink = %q", sunk.String())
	}
	if !w.Finished() {
		t.Fatal("Finished() = false after End")
	}
}

func TestWritableBackpressure(t *testing.T) {
	w := NewWritable(nil, WritableOptions{HighWaterMark: 4})

	if ok, _ := w.Write([]byte("1234")); !ok {
		t.Fatal("Write at the mark reported backpressure")
	}
	if ok, _ := w.Write([]byte("5")); ok {
		t.Fatal("Write over the mark did not report backpressure")
	}

	// Over the mark, writes still succeed: the signal is advisory.
	if _, err := w.Write([]byte("ignored-anyway")); err != nil {
		t.Fatalf("Write over the mark failed: %v", err)
	}

	drained := false
	w.OnDrain(func() { drained = true })
	w.Drain()
	if !drained {
		t.Fatal("drain event did not fire")
	}
	if ok, _ := w.Write([]byte("ab")); !ok {
		t.Fatal("backpressure persisted after Drain")
	}
}

func TestWritableWriteAfterEnd(t *testing.T) {
	w := NewWritable(nil, WritableOptions{})
	if err := w.End(nil); err != nil {
		t.Fatalf("End: %v", err)
	}
	if _, err := w.Write([]byte("late")); !errors.Is(err, ErrWriteAfterEnd) {
		t.Fatalf("Write after End: err = %v", err)
	}
	if err := w.End(nil); !errors.Is(err, ErrWriteAfterEnd) {
		t.Fatalf("double End: err = %v", err)
	}
}

func TestWritableFinishEvent(t *testing.T) {
	w := NewWritable(nil, WritableOptions{})
	finished := false
	w.OnFinish(func() { finished = true })
	w.End(nil)
	if !finished {
		t.Fatal("finish did not fire")
	}
}

func TestWritableEndCallbackAsync(t *testing.T) {
	w := NewWritable(nil, WritableOptions{})
	done := make(chan struct{})
	if err := w.EndCallback([]byte("tail"), func() { close(done) }); err != nil {
		t.Fatalf("EndCallback: %v", err)
	}
	testutil.RequireClosed(t, done, time.Second, "end callback")
}

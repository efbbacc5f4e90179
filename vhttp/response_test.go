// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package vhttp

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tabwire/tabwire/lib/testutil"
)

func newResponse(t *testing.T) (*ServerResponse, *Completion) {
	t.Helper()
	completion := NewCompletion()
	return NewServerResponse(completion), completion
}

func settledValue(t *testing.T, completion *Completion) ResponseData {
	t.Helper()
	value, err := completion.Value()
	if err != nil {
		t.Fatalf("completion value: %v", err)
	}
	return value
}

func TestEndSettlesOnce(t *testing.T) {
	res, completion := newResponse(t)

	if err := res.End([]byte("done")); err != nil {
		t.Fatalf("End: %v", err)
	}
	if err := res.End([]byte("again")); !errors.Is(err, ErrResponseFinished) {
		t.Fatalf("second End: err = %v", err)
	}
	if _, err := res.Write([]byte("late")); !errors.Is(err, ErrResponseFinished) {
		t.Fatalf("Write after End: err = %v", err)
	}

	value := settledValue(t, completion)
	if string(value.Body) != "done" {
		t.Fatalf("settled body = %q (later calls must not overwrite)", value.Body)
	}
}

func TestMultiChunkBody(t *testing.T) {
	res, completion := newResponse(t)

	res.Write([]byte("one "))
	res.Write([]byte("two "))
	res.End([]byte("three"))

	if got := string(settledValue(t, completion).Body); got != "one two three" {
		t.Fatalf("body = %q", got)
	}
}

func TestEmptyBody(t *testing.T) {
	res, completion := newResponse(t)
	res.End(nil)
	if got := settledValue(t, completion).Body; len(got) != 0 {
		t.Fatalf("body = %q, want empty", got)
	}
}

func TestHeaderMutationAfterSend(t *testing.T) {
	res, _ := newResponse(t)
	res.SetHeader("X-Early", "ok")
	res.Write([]byte("b")) // first byte commits headers

	if !res.HeadersSent() {
		t.Fatal("HeadersSent() = false after first write")
	}
	if err := res.SetHeader("X-Late", "nope"); !errors.Is(err, ErrHeadersSent) {
		t.Fatalf("SetHeader after send: err = %v", err)
	}
	if err := res.RemoveHeader("X-Early"); !errors.Is(err, ErrHeadersSent) {
		t.Fatalf("RemoveHeader after send: err = %v", err)
	}
	if err := res.WriteHead(Head{StatusCode: 500}); !errors.Is(err, ErrHeadersSent) {
		t.Fatalf("WriteHead after send: err = %v", err)
	}
}

func TestWriteHeadForms(t *testing.T) {
	t.Run("status only", func(t *testing.T) {
		res, completion := newResponse(t)
		if err := res.WriteHeadStatus(204); err != nil {
			t.Fatalf("WriteHeadStatus: %v", err)
		}
		res.End(nil)
		if got := settledValue(t, completion).StatusCode; got != 204 {
			t.Fatalf("status = %d", got)
		}
	})

	t.Run("status and headers", func(t *testing.T) {
		res, completion := newResponse(t)
		err := res.WriteHead(Head{StatusCode: 201, Header: map[string]string{"X-Created": "yes"}})
		if err != nil {
			t.Fatalf("WriteHead: %v", err)
		}
		res.End(nil)
		value := settledValue(t, completion)
		if value.StatusCode != 201 || value.Header["x-created"] != "yes" {
			t.Fatalf("settled = %+v", value)
		}
	})

	t.Run("status message and headers", func(t *testing.T) {
		res, completion := newResponse(t)
		err := res.WriteHead(Head{
			StatusCode:    418,
			StatusMessage: "short and stout",
			Header:        map[string]string{"X-Teapot": "1"},
		})
		if err != nil {
			t.Fatalf("WriteHead: %v", err)
		}
		res.End(nil)
		value := settledValue(t, completion)
		if value.StatusMessage != "short and stout" {
			t.Fatalf("status message = %q", value.StatusMessage)
		}
	})
}

func TestDefaultStatusMessage(t *testing.T) {
	res, completion := newResponse(t)
	res.Status(404).End(nil)
	value := settledValue(t, completion)
	if value.StatusMessage != "Not Found" {
		t.Fatalf("status message = %q", value.StatusMessage)
	}
}

func TestHeaderSnapshotCaseNormalized(t *testing.T) {
	res, completion := newResponse(t)
	res.SetHeader("Content-Type", "text/html")
	res.SetHeader("X-REQUEST-ID", "42")
	res.End(nil)

	value := settledValue(t, completion)
	if value.Header["content-type"] != "text/html" || value.Header["x-request-id"] != "42" {
		t.Fatalf("snapshot = %v", value.Header)
	}
}

func TestSendHelper(t *testing.T) {
	res, completion := newResponse(t)
	if err := res.Status(202).Send([]byte("accepted")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	value := settledValue(t, completion)
	if value.StatusCode != 202 || string(value.Body) != "accepted" {
		t.Fatalf("settled = %+v", value)
	}
}

func TestJSONHelper(t *testing.T) {
	res, completion := newResponse(t)
	if err := res.JSON(map[string]int{"count": 3}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	value := settledValue(t, completion)
	if value.Header["content-type"] != "application/json" {
		t.Fatalf("content type = %q", value.Header["content-type"])
	}
	var decoded map[string]int
	if err := json.Unmarshal(value.Body, &decoded); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if decoded["count"] != 3 {
		t.Fatalf("decoded = %v", decoded)
	}
}

func TestRedirectHelper(t *testing.T) {
	res, completion := newResponse(t)
	if err := res.Redirect(0, "/elsewhere"); err != nil {
		t.Fatalf("Redirect: %v", err)
	}
	value := settledValue(t, completion)
	if value.StatusCode != 302 || value.Header["location"] != "/elsewhere" {
		t.Fatalf("settled = %+v", value)
	}
}

func TestFinishEventAsync(t *testing.T) {
	res, _ := newResponse(t)
	done := make(chan struct{})
	res.OnFinish(func() { close(done) })
	res.End(nil)
	testutil.RequireClosed(t, done, time.Second, "finish event")
}

func TestCompletionDetectsDoubleSettle(t *testing.T) {
	completion := NewCompletion()
	if err := completion.Settle(ResponseData{StatusCode: 200}); err != nil {
		t.Fatalf("first Settle: %v", err)
	}
	if err := completion.Settle(ResponseData{StatusCode: 500}); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("second Settle: err = %v", err)
	}
	value, err := completion.Value()
	if err != nil || value.StatusCode != 200 {
		t.Fatalf("value = %+v, %v", value, err)
	}
}

func TestCompletionValueBeforeSettle(t *testing.T) {
	completion := NewCompletion()
	if _, err := completion.Value(); !errors.Is(err, ErrNotSettled) {
		t.Fatalf("Value before settle: err = %v", err)
	}
}

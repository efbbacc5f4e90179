// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type wireSample struct {
	Method string            `json:"method"`
	URL    string            `json:"url"`
	Header map[string]string `json:"header,omitempty"`
	Body   []byte            `json:"body,omitempty"`
}

func TestMarshalRoundTrip(t *testing.T) {
	in := wireSample{
		Method: "POST",
		URL:    "/api/data?foo=bar",
		Header: map[string]string{"content-type": "application/json"},
		Body:   []byte(`{"ok":true}`),
	}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out wireSample
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Method != in.Method || out.URL != in.URL {
		t.Fatalf("round trip mismatch: got %+v", out)
	}
	if !bytes.Equal(out.Body, in.Body) {
		t.Fatalf("body mismatch: got %q", out.Body)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	value := map[string]any{"b": 2, "a": 1, "c": []any{"x", "y"}}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("same logical value produced different encodings")
	}
}

func TestUnmarshalAnyMapType(t *testing.T) {
	data, err := Marshal(map[string]any{"nested": map[string]any{"k": "v"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out map[string]any
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	nested, ok := out["nested"].(map[string]any)
	if !ok {
		t.Fatalf("nested value decoded as %T, want map[string]any", out["nested"])
	}
	if nested["k"] != "v" {
		t.Fatalf("nested[k] = %v", nested["k"])
	}
}

func TestStreamEncoder(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for i := 0; i < 3; i++ {
		if err := encoder.Encode(wireSample{Method: "GET", URL: "/"}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i := 0; i < 3; i++ {
		var out wireSample
		if err := decoder.Decode(&out); err != nil {
			t.Fatalf("Decode item %d: %v", i, err)
		}
		if out.Method != "GET" {
			t.Fatalf("item %d method = %q", i, out.Method)
		}
	}
}

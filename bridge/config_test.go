// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
base_url: http://localhost:5173
listen_address: 127.0.0.1:8080
socket_path: /run/tabwire/bridge.sock
log_level: debug
`)
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if config.BaseURL != "http://localhost:5173" {
		t.Fatalf("BaseURL = %q", config.BaseURL)
	}
	if level, _ := config.SlogLevel(); level != slog.LevelDebug {
		t.Fatalf("SlogLevel = %v", level)
	}
}

func TestLoadConfigDefaultsLogLevel(t *testing.T) {
	path := writeConfig(t, `
base_url: http://localhost:5173
listen_address: 127.0.0.1:8080
`)
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.LogLevel != "info" {
		t.Fatalf("LogLevel = %q", config.LogLevel)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig succeeded on a missing file")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		config Config
		valid  bool
	}{
		{"complete", Config{BaseURL: "http://localhost:5173", ListenAddress: "127.0.0.1:0"}, true},
		{"socket only", Config{BaseURL: "http://localhost:5173", SocketPath: "/tmp/b.sock"}, true},
		{"missing base url", Config{ListenAddress: "127.0.0.1:0"}, false},
		{"relative base url", Config{BaseURL: "localhost:5173", ListenAddress: "127.0.0.1:0"}, false},
		{"trailing slash", Config{BaseURL: "http://localhost:5173/", ListenAddress: "127.0.0.1:0"}, false},
		{"no listeners", Config{BaseURL: "http://localhost:5173"}, false},
		{"bad log level", Config{BaseURL: "http://localhost:5173", ListenAddress: "127.0.0.1:0", LogLevel: "verbose"}, false},
	}
	for _, test := range cases {
		err := test.config.Validate()
		if test.valid && err != nil {
			t.Errorf("%s: Validate: %v", test.name, err)
		}
		if !test.valid && err == nil {
			t.Errorf("%s: Validate succeeded, want error", test.name)
		}
	}
}

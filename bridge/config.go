// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the bridge daemon.
type Config struct {
	// BaseURL prefixes every minted virtual server URL,
	// e.g. "http://localhost:5173". Required.
	BaseURL string `yaml:"base_url"`

	// ListenAddress is an optional TCP address for the HTTP adapter
	// (e.g. "127.0.0.1:8080"). At least one of ListenAddress and
	// SocketPath must be set.
	ListenAddress string `yaml:"listen_address"`

	// SocketPath is an optional Unix socket path for the CBOR frame
	// service used by out-of-process intercepting proxies.
	SocketPath string `yaml:"socket_path"`

	// LogLevel is one of "debug", "info", "warn", "error".
	// Defaults to "info".
	LogLevel string `yaml:"log_level"`
}

// LoadConfig loads a configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	return &config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("base_url %q is not an absolute URL", c.BaseURL)
	}
	if strings.HasSuffix(c.BaseURL, "/") {
		return fmt.Errorf("base_url must not end with a slash")
	}

	if c.ListenAddress == "" && c.SocketPath == "" {
		return fmt.Errorf("at least one of listen_address and socket_path is required")
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured log level name onto slog's scale.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log_level %q (supported: debug, info, warn, error)", c.LogLevel)
	}
}

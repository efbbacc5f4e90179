// Copyright 2026 The Tabwire Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/tabwire/tabwire/bridge"
	"github.com/tabwire/tabwire/vhttp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var baseURL string
	var listenAddress string
	var socketPath string
	var logLevel string
	var echoPort int

	flagSet := pflag.NewFlagSet("tabwire-bridge", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	flagSet.StringVar(&baseURL, "base-url", "", "base URL for minted virtual server addresses")
	flagSet.StringVarP(&listenAddress, "listen", "l", "", "TCP address for the HTTP adapter (e.g. 127.0.0.1:8080)")
	flagSet.StringVarP(&socketPath, "socket", "s", "", "Unix socket path for the CBOR frame service")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.IntVar(&echoPort, "echo-port", 0, "register a diagnostic echo server on this virtual port")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	config := &bridge.Config{}
	if configPath != "" {
		loaded, err := bridge.LoadConfig(configPath)
		if err != nil {
			return err
		}
		config = loaded
	}

	// Flags override the config file.
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if listenAddress != "" {
		config.ListenAddress = listenAddress
	}
	if socketPath != "" {
		config.SocketPath = socketPath
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}
	if err := config.Validate(); err != nil {
		return err
	}

	level, err := config.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	b, err := bridge.New(bridge.Options{
		BaseURL: config.BaseURL,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if echoPort > 0 {
		b.RegisterServer(echoDiagnosticServer(logger), echoPort)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handle := b.FetchHandler()

	var httpServer *http.Server
	httpErrors := make(chan error, 1)
	if config.ListenAddress != "" {
		httpServer = &http.Server{
			Addr:    config.ListenAddress,
			Handler: &bridge.HTTPHandler{Handler: handle, Logger: logger},
		}
		go func() {
			logger.Info("http adapter listening", "address", config.ListenAddress)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpErrors <- err
			}
		}()
	}

	var socketServer *bridge.SocketServer
	if config.SocketPath != "" {
		socketServer = &bridge.SocketServer{
			Network: "unix",
			Address: config.SocketPath,
			Handler: handle,
			Logger:  logger,
		}
		if err := socketServer.Start(ctx); err != nil {
			return err
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-httpErrors:
		logger.Error("http adapter failed", "error", err)
		stop()
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}
	if socketServer != nil {
		socketServer.Stop()
	}
	return nil
}

// echoDiagnosticServer answers every request with its own method, URL,
// and body, for verifying routing end to end.
func echoDiagnosticServer(logger *slog.Logger) *vhttp.Server {
	return vhttp.NewServer(vhttp.ServerOptions{
		Handler: func(req *vhttp.IncomingMessage, res *vhttp.ServerResponse) {
			res.JSON(map[string]any{
				"method": req.Method,
				"url":    req.URL,
				"body":   string(req.ReadBody()),
			})
		},
		Logger: logger,
	})
}

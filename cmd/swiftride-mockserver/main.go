// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Swiftride-mockserver is a development stand-in for the production
// backend. It serves the full REST surface the client calls (auth,
// rider ride lifecycle, driver operations, fleet owner operations)
// from an in-memory store, and a websocket endpoint that replays a
// scripted ride lifecycle so the CLI and the tracking TUI can be
// exercised without real infrastructure.
//
// Three accounts are pre-seeded, all with password "password":
//
//	rider@swiftride.dev   (USER)
//	driver@swiftride.dev  (DRIVER)
//	owner@swiftride.dev   (OWNER)
//
// Booking a ride starts the script: the ride is assigned to the
// seeded driver after a short delay, then progresses through
// DRIVER_ARRIVING and STARTED to COMPLETED, broadcasting status
// changes and driver location updates to the ride's room along the
// way. No business rules are enforced beyond what the client needs.
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
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "swiftride-mockserver:", err)
		os.Exit(1)
	}
}

func run() error {
	var listen string
	var verbose bool
	var interval time.Duration
	pflag.StringVar(&listen, "listen", "localhost:3000", "address to listen on")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pflag.DurationVar(&interval, "interval", 3*time.Second, "delay between scripted ride transitions")
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := newMockServer(logger, interval)
	httpServer := &http.Server{
		Addr:    listen,
		Handler: server.routes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("mock backend listening",
		"addr", listen,
		"rest", "http://"+listen+"/api",
		"realtime", "ws://"+listen+"/ws",
	)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

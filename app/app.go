// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package app assembles the SwiftRide client: config, API client,
// session store, realtime connection manager, and the view-state
// stores, wired together the one correct way. Commands and UIs take
// an *App instead of building the pieces themselves.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nkthecoder12/swiftride-fleet/api"
	"github.com/nkthecoder12/swiftride-fleet/driverstate"
	"github.com/nkthecoder12/swiftride-fleet/fleetstate"
	"github.com/nkthecoder12/swiftride-fleet/lib/config"
	"github.com/nkthecoder12/swiftride-fleet/realtime"
	"github.com/nkthecoder12/swiftride-fleet/ridestate"
	"github.com/nkthecoder12/swiftride-fleet/session"
)

// Options adjusts construction. The zero value is production
// behavior.
type Options struct {
	// Logger is used by every component. Nil means slog.Default.
	Logger *slog.Logger

	// Dialer overrides the realtime transport. Nil means the
	// websocket dialer; tests inject fakes here.
	Dialer realtime.Dialer
}

// App is the assembled client.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Client   *api.Client
	Sessions *session.Store
	Realtime *realtime.Manager
	Ride     *ridestate.Store
	Driver   *driverstate.Store
	Fleet    *fleetstate.Store
}

// New wires the client together. It does not restore the persisted
// session or open any connection; call Sessions.Restore (or Login)
// for that.
func New(cfg *config.Config, options Options) (*App, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := api.NewClient(api.ClientConfig{
		BaseURL:    cfg.Backend.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Backend.Timeout.Std()},
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("app: building API client: %w", err)
	}

	manager, err := realtime.NewManager(realtime.ManagerConfig{
		URL:    cfg.Realtime.URL,
		Dialer: options.Dialer,
		Policy: cfg.Realtime.Reconnect.Policy(),
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("app: building connection manager: %w", err)
	}

	sessions, err := session.NewStore(session.StoreConfig{
		Client:  client,
		Path:    cfg.Session.File,
		Channel: manager,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("app: building session store: %w", err)
	}

	application := &App{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Sessions: sessions,
		Realtime: manager,
		Ride:     ridestate.NewStore(logger),
		Driver:   driverstate.NewStore(logger),
		Fleet:    fleetstate.NewStore(),
	}

	// Inbound events feed both projections; each scopes by rideId,
	// so the inactive one ignores what is not addressed to it.
	manager.OnEvent(application.Ride.Apply)
	manager.OnEvent(application.Driver.Apply)

	// Logout (explicit or forced by a credential rejection) clears
	// every per-user projection.
	sessions.OnChange(func(current *api.Session) {
		if current == nil {
			application.Ride.Reset()
			application.Driver.Reset()
			application.Fleet.Reset()
		}
	})

	return application, nil
}

// Close tears down the live connection and transport pools. The
// session stays persisted: closing the app is not a logout.
func (a *App) Close() {
	a.Realtime.Disconnect()
	a.Client.CloseIdleConnections()
}

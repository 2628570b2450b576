// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/nkthecoder12/swiftride-fleet/api"
	"github.com/nkthecoder12/swiftride-fleet/app"
	"github.com/nkthecoder12/swiftride-fleet/lib/config"
)

// loadApp assembles the client from configuration and restores the
// persisted session, if any.
func loadApp(configPath string, verbose bool) (*app.App, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	application, err := app.New(cfg, app.Options{Logger: newLogger(verbose)})
	if err != nil {
		return nil, err
	}
	if _, err := application.Sessions.Restore(); err != nil {
		application.Close()
		return nil, err
	}
	return application, nil
}

// requireSession returns the live session or a uniform "not logged
// in" error.
func requireSession(application *app.App) (*api.Session, error) {
	session := application.Sessions.Current()
	if session == nil {
		return nil, fmt.Errorf("not logged in; run 'swiftride login' first")
	}
	return session, nil
}

// formatAmount renders a money amount stored in minor units.
func formatAmount(amount int64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, currency)
}

// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Command swiftride is the terminal client for the SwiftRide
// platform: rider, driver, and fleet owner operations against the
// backend REST API, with a live tracking view over the realtime
// channel.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/nkthecoder12/swiftride-fleet/cmd/swiftride/cli"
)

func main() {
	root := &cli.Command{
		Name:    "swiftride",
		Summary: "SwiftRide terminal client",
		Description: "swiftride is the terminal client for the SwiftRide ride-hailing\n" +
			"platform. Configuration is read from the file named by the\n" +
			"SWIFTRIDE_CONFIG environment variable or the --config flag.",
		Subcommands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			signupCommand(),
			rideCommand(),
			driverCommand(),
			fleetCommand(),
		},
	}

	if err := root.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "swiftride: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags returns the flag set shared by every leaf command.
func globalFlags(name string, configPath *string, verbose *bool) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.StringVar(configPath, "config", "", "path to swiftride.yaml (overrides SWIFTRIDE_CONFIG)")
	flags.BoolVarP(verbose, "verbose", "v", false, "enable debug logging")
	return flags
}

// newLogger builds the process logger. Debug level when verbose,
// warnings and up otherwise so command output stays clean.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

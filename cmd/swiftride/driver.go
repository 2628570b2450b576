// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/nkthecoder12/swiftride-fleet/cmd/swiftride/cli"
	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

func driverCommand() *cli.Command {
	return &cli.Command{
		Name:    "driver",
		Summary: "driver operations",
		Subcommands: []*cli.Command{
			driverOnlineCommand(),
			driverOfflineCommand(),
			driverCurrentCommand(),
			driverAcceptCommand(),
			driverStartCommand(),
			driverCompleteCommand(),
			driverLocationCommand(),
			driverEarningsCommand(),
			driverHistoryCommand(),
		},
	}
}

func driverAvailabilityCommand(name string, status ride.DriverStatus) *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    name,
		Summary: fmt.Sprintf("go %s", name),
		Flags: func() *pflag.FlagSet {
			return globalFlags(name, &configPath, &verbose)
		},
		Run: func(args []string) error {
			application, err := loadApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer application.Close()
			session, err := requireSession(application)
			if err != nil {
				return err
			}

			if err := session.SetDriverStatus(context.Background(), status); err != nil {
				return err
			}
			application.Driver.SetAvailability(status)
			fmt.Printf("driver status: %s\n", status)
			return nil
		},
	}
}

func driverOnlineCommand() *cli.Command {
	return driverAvailabilityCommand("online", ride.DriverOnline)
}

func driverOfflineCommand() *cli.Command {
	return driverAvailabilityCommand("offline", ride.DriverOffline)
}

func driverCurrentCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "current",
		Summary: "show the currently assigned ride",
		Flags: func() *pflag.FlagSet {
			return globalFlags("current", &configPath, &verbose)
		},
		Run: func(args []string) error {
			application, err := loadApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer application.Close()
			session, err := requireSession(application)
			if err != nil {
				return err
			}

			assigned, err := session.AssignedRide(context.Background())
			if err != nil {
				return err
			}
			if assigned == nil {
				fmt.Println("no assigned ride")
				return nil
			}
			application.Driver.Assigned().Begin(*assigned)
			printRide(assigned)
			return nil
		},
	}
}

func driverAcceptCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "accept",
		Summary: "accept a ride request",
		Usage:   "swiftride driver accept <ride-id>",
		Flags: func() *pflag.FlagSet {
			return globalFlags("accept", &configPath, &verbose)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: swiftride driver accept <ride-id>")
			}
			rideID, err := ref.ParseRideID(args[0])
			if err != nil {
				return err
			}
			application, err := loadApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer application.Close()
			session, err := requireSession(application)
			if err != nil {
				return err
			}

			accepted, err := session.AcceptRide(context.Background(), rideID)
			if err != nil {
				return err
			}
			application.Driver.TakeRequest(rideID)
			application.Driver.Assigned().Begin(*accepted)
			fmt.Printf("ride %s accepted\n", accepted.ID)
			return nil
		},
	}
}

func driverStartCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "start",
		Summary: "start the assigned ride",
		Usage:   "swiftride driver start <ride-id>",
		Flags: func() *pflag.FlagSet {
			return globalFlags("start", &configPath, &verbose)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: swiftride driver start <ride-id>")
			}
			rideID, err := ref.ParseRideID(args[0])
			if err != nil {
				return err
			}
			application, err := loadApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer application.Close()
			session, err := requireSession(application)
			if err != nil {
				return err
			}

			assigned := application.Driver.Assigned()
			if snapshot := assigned.Snapshot(); snapshot.Active && snapshot.Ride.ID == rideID {
				assigned.MarkStatus(ride.StatusStarted)
			}
			started, err := session.StartRide(context.Background(), rideID)
			if err != nil {
				return err
			}
			fmt.Printf("ride %s started\n", started.ID)
			return nil
		},
	}
}

func driverCompleteCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "complete",
		Summary: "complete the assigned ride",
		Usage:   "swiftride driver complete <ride-id>",
		Flags: func() *pflag.FlagSet {
			return globalFlags("complete", &configPath, &verbose)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: swiftride driver complete <ride-id>")
			}
			rideID, err := ref.ParseRideID(args[0])
			if err != nil {
				return err
			}
			application, err := loadApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer application.Close()
			session, err := requireSession(application)
			if err != nil {
				return err
			}

			assigned := application.Driver.Assigned()
			if snapshot := assigned.Snapshot(); snapshot.Active && snapshot.Ride.ID == rideID {
				assigned.MarkStatus(ride.StatusCompleted)
			}
			completed, err := session.CompleteRide(context.Background(), rideID)
			if err != nil {
				return err
			}
			fmt.Printf("ride %s completed", completed.ID)
			if completed.FinalFare != 0 {
				fmt.Printf(", fare %s", formatAmount(completed.FinalFare, ""))
			}
			fmt.Println()
			return nil
		},
	}
}

func driverLocationCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "location",
		Summary: "report the driver's position",
		Usage:   "swiftride driver location <lat,lng>",
		Description: "Reports the driver's position to the backend over HTTP and, when\n" +
			"the realtime connection is up, broadcasts it to the active ride's\n" +
			"topic so the rider sees it immediately.",
		Flags: func() *pflag.FlagSet {
			return globalFlags("location", &configPath, &verbose)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: swiftride driver location <lat,lng>")
			}
			position, err := parseLatLng(args[0])
			if err != nil {
				return err
			}
			application, err := loadApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer application.Close()
			session, err := requireSession(application)
			if err != nil {
				return err
			}

			if err := session.UpdateLocation(context.Background(), position); err != nil {
				return err
			}
			application.Realtime.PublishLocation(position)
			fmt.Printf("location reported: %.5f,%.5f\n", position.Lat, position.Lng)
			return nil
		},
	}
}

func driverEarningsCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "earnings",
		Summary: "show the driver's earnings summary",
		Flags: func() *pflag.FlagSet {
			return globalFlags("earnings", &configPath, &verbose)
		},
		Run: func(args []string) error {
			application, err := loadApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer application.Close()
			session, err := requireSession(application)
			if err != nil {
				return err
			}

			earnings, err := session.Earnings(context.Background())
			if err != nil {
				return err
			}
			application.Driver.SetEarnings(*earnings)
			fmt.Printf("today  %s\n", formatAmount(earnings.Today, earnings.Currency))
			fmt.Printf("week   %s\n", formatAmount(earnings.Week, earnings.Currency))
			fmt.Printf("month  %s\n", formatAmount(earnings.Month, earnings.Currency))
			fmt.Printf("total  %s (%d rides)\n", formatAmount(earnings.Total, earnings.Currency), earnings.Rides)
			return nil
		},
	}
}

func driverHistoryCommand() *cli.Command {
	var configPath string
	var verbose bool
	var page int

	return &cli.Command{
		Name:    "history",
		Summary: "list the driver's past rides",
		Flags: func() *pflag.FlagSet {
			flags := globalFlags("history", &configPath, &verbose)
			flags.IntVar(&page, "page", 1, "result page")
			return flags
		},
		Run: func(args []string) error {
			application, err := loadApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer application.Close()
			session, err := requireSession(application)
			if err != nil {
				return err
			}

			rides, err := session.DriverRideHistory(context.Background(), page)
			if err != nil {
				return err
			}
			printRideTable(rides)
			return nil
		},
	}
}

// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/nkthecoder12/swiftride-fleet/cmd/swiftride/cli"
	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/lib/trackui"
	"github.com/nkthecoder12/swiftride-fleet/realtime"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

func rideCommand() *cli.Command {
	return &cli.Command{
		Name:    "ride",
		Summary: "rider operations",
		Subcommands: []*cli.Command{
			rideEstimateCommand(),
			rideBookCommand(),
			rideStatusCommand(),
			rideCancelCommand(),
			rideRateCommand(),
			rideHistoryCommand(),
			rideTrackCommand(),
		},
	}
}

// parseLatLng parses "lat,lng".
func parseLatLng(raw string) (ride.LatLng, error) {
	var position ride.LatLng
	if _, err := fmt.Sscanf(raw, "%f,%f", &position.Lat, &position.Lng); err != nil {
		return ride.LatLng{}, fmt.Errorf("invalid coordinates %q (want lat,lng): %w", raw, err)
	}
	return position, nil
}

func rideEstimateCommand() *cli.Command {
	var configPath string
	var verbose bool
	var from, to string

	return &cli.Command{
		Name:    "estimate",
		Summary: "estimate the fare between two points",
		Usage:   "swiftride ride estimate --from <lat,lng> --to <lat,lng>",
		Flags: func() *pflag.FlagSet {
			flags := globalFlags("estimate", &configPath, &verbose)
			flags.StringVar(&from, "from", "", "pickup coordinates (lat,lng)")
			flags.StringVar(&to, "to", "", "dropoff coordinates (lat,lng)")
			return flags
		},
		Run: func(args []string) error {
			pickup, err := parseLatLng(from)
			if err != nil {
				return err
			}
			dropoff, err := parseLatLng(to)
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

			estimate, err := session.EstimateFare(context.Background(), pickup, dropoff)
			if err != nil {
				return err
			}
			fmt.Printf("estimated fare: %s (%d min, %.1f km)\n",
				formatAmount(estimate.TotalFare, estimate.Currency),
				estimate.EstimatedMinutes, estimate.EstimatedDistance)
			return nil
		},
	}
}

func rideBookCommand() *cli.Command {
	var configPath string
	var verbose bool
	var from, to, fromAddress, toAddress string

	return &cli.Command{
		Name:    "book",
		Summary: "request a ride",
		Usage:   "swiftride ride book --from <lat,lng> --to <lat,lng> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := globalFlags("book", &configPath, &verbose)
			flags.StringVar(&from, "from", "", "pickup coordinates (lat,lng)")
			flags.StringVar(&to, "to", "", "dropoff coordinates (lat,lng)")
			flags.StringVar(&fromAddress, "from-address", "", "pickup address")
			flags.StringVar(&toAddress, "to-address", "", "dropoff address")
			return flags
		},
		Run: func(args []string) error {
			pickup, err := parseLatLng(from)
			if err != nil {
				return err
			}
			dropoff, err := parseLatLng(to)
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

			booked, err := session.CreateRide(context.Background(),
				ride.Location{Address: fromAddress, Coordinates: pickup},
				ride.Location{Address: toAddress, Coordinates: dropoff})
			if err != nil {
				return err
			}
			application.Ride.Begin(*booked)
			fmt.Printf("ride %s requested (%s)\n", booked.ID, booked.Status)
			return nil
		},
	}
}

func rideStatusCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "status",
		Summary: "show a ride",
		Usage:   "swiftride ride status <ride-id>",
		Flags: func() *pflag.FlagSet {
			return globalFlags("status", &configPath, &verbose)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: swiftride ride status <ride-id>")
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

			current, err := session.GetRide(context.Background(), rideID)
			if err != nil {
				return err
			}
			printRide(current)
			return nil
		},
	}
}

func rideCancelCommand() *cli.Command {
	var configPath string
	var verbose bool
	var reason string

	return &cli.Command{
		Name:    "cancel",
		Summary: "cancel a ride",
		Usage:   "swiftride ride cancel <ride-id> [--reason <text>]",
		Flags: func() *pflag.FlagSet {
			flags := globalFlags("cancel", &configPath, &verbose)
			flags.StringVar(&reason, "reason", "", "cancellation reason")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: swiftride ride cancel <ride-id>")
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

			// Optimistic: if the projection is tracking this ride,
			// show CANCELLED while the backend confirms.
			if snapshot := application.Ride.Snapshot(); snapshot.Active && snapshot.Ride.ID == rideID {
				application.Ride.MarkStatus(ride.StatusCancelled)
			}
			cancelled, err := session.CancelRide(context.Background(), rideID, reason)
			if err != nil {
				return err
			}
			fmt.Printf("ride %s cancelled\n", cancelled.ID)
			return nil
		},
	}
}

func rideRateCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "rate",
		Summary: "rate a completed ride",
		Usage:   "swiftride ride rate <ride-id> <rating 1-5>",
		Flags: func() *pflag.FlagSet {
			return globalFlags("rate", &configPath, &verbose)
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: swiftride ride rate <ride-id> <rating>")
			}
			rideID, err := ref.ParseRideID(args[0])
			if err != nil {
				return err
			}
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid rating %q", args[1])
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

			if _, err := session.RateRide(context.Background(), rideID, rating); err != nil {
				return err
			}
			fmt.Printf("rated ride %s: %d/5\n", rideID, rating)
			return nil
		},
	}
}

func rideHistoryCommand() *cli.Command {
	var configPath string
	var verbose bool
	var page int

	return &cli.Command{
		Name:    "history",
		Summary: "list past rides",
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

			rides, err := session.RideHistory(context.Background(), page)
			if err != nil {
				return err
			}
			printRideTable(rides)
			return nil
		},
	}
}

func rideTrackCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "track",
		Summary: "live view of a ride",
		Usage:   "swiftride ride track <ride-id>",
		Description: "Subscribes to the ride's realtime topic and renders a live\n" +
			"terminal view: status progression, counterpart position, and\n" +
			"connection state. Quit with q.",
		Flags: func() *pflag.FlagSet {
			return globalFlags("track", &configPath, &verbose)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: swiftride ride track <ride-id>")
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

			current, err := session.GetRide(context.Background(), rideID)
			if err != nil {
				return err
			}
			application.Ride.Begin(*current)
			application.Realtime.Subscribe(rideID)
			defer application.Realtime.Unsubscribe(rideID)

			snapshots, cancelWatch := application.Ride.Watch()
			defer cancelWatch()

			states := make(chan realtime.State, 16)
			handle := application.Realtime.OnStateChange(func(state realtime.State) {
				select {
				case states <- state:
				default:
				}
			})
			defer application.Realtime.RemoveStateListener(handle)

			model := trackui.New(snapshots, states, application.Realtime.State())
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}
}

func printRide(r *ride.Ride) {
	fmt.Printf("ride %s\n", r.ID)
	fmt.Printf("  status   %s\n", r.Status)
	fmt.Printf("  from     %s\n", r.Pickup.Address)
	fmt.Printf("  to       %s\n", r.Dropoff.Address)
	if r.Driver != nil {
		fmt.Printf("  driver   %s (%s)\n", r.Driver.Name, r.Driver.VehicleModel)
	}
	if r.Fare != nil {
		fmt.Printf("  fare     %s\n", formatAmount(r.Fare.TotalFare, r.Fare.Currency))
	}
	if r.FinalFare != 0 {
		fmt.Printf("  charged  %s\n", formatAmount(r.FinalFare, ""))
	}
	if r.CancelReason != "" {
		fmt.Printf("  cancel   %s\n", r.CancelReason)
	}
}

func printRideTable(rides []ride.Ride) {
	if len(rides) == 0 {
		fmt.Println("no rides")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tFROM\tTO\tCREATED")
	for _, r := range rides {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Status, r.Pickup.Address, r.Dropoff.Address,
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

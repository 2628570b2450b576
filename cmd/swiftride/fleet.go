// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/nkthecoder12/swiftride-fleet/api"
	"github.com/nkthecoder12/swiftride-fleet/cmd/swiftride/cli"
	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

func fleetCommand() *cli.Command {
	return &cli.Command{
		Name:    "fleet",
		Summary: "fleet owner operations",
		Subcommands: []*cli.Command{
			fleetDriversCommand(),
			fleetDriverAddCommand(),
			fleetDriverToggleCommand(),
			fleetDriverDeleteCommand(),
			fleetRidesCommand(),
			fleetAnalyticsCommand(),
		},
	}
}

func fleetDriversCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "drivers",
		Summary: "list the fleet's drivers",
		Flags: func() *pflag.FlagSet {
			return globalFlags("drivers", &configPath, &verbose)
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

			drivers, err := session.ListDrivers(context.Background())
			if err != nil {
				return err
			}
			application.Fleet.SetDrivers(drivers)
			if len(drivers) == 0 {
				fmt.Println("no drivers")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tVEHICLE\tSTATUS\tACTIVE\tRATING\tRIDES")
			for _, driver := range drivers {
				fmt.Fprintf(tw, "%s\t%s\t%s (%s)\t%s\t%t\t%.1f\t%d\n",
					driver.ID, driver.Name, driver.VehicleModel, driver.VehicleNumber,
					driver.Status, driver.Active, driver.Rating, driver.TotalRides)
			}
			tw.Flush()
			return nil
		},
	}
}

func fleetDriverAddCommand() *cli.Command {
	var configPath string
	var verbose bool
	var name, email, phone, vehicleNumber, vehicleModel string

	return &cli.Command{
		Name:    "add",
		Summary: "register a new driver",
		Usage:   "swiftride fleet add --name <name> --email <email> --vehicle-number <plate> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := globalFlags("add", &configPath, &verbose)
			flags.StringVar(&name, "name", "", "driver name")
			flags.StringVar(&email, "email", "", "driver email")
			flags.StringVar(&phone, "phone", "", "driver phone")
			flags.StringVar(&vehicleNumber, "vehicle-number", "", "vehicle registration")
			flags.StringVar(&vehicleModel, "vehicle-model", "", "vehicle model")
			return flags
		},
		Run: func(args []string) error {
			if name == "" || email == "" || vehicleNumber == "" {
				return fmt.Errorf("--name, --email, and --vehicle-number are required")
			}
			password, err := cli.PromptPassword("Driver password: ")
			if err != nil {
				return err
			}
			defer password.Close()

			application, err := loadApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer application.Close()
			session, err := requireSession(application)
			if err != nil {
				return err
			}

			driver, err := session.CreateDriver(context.Background(), api.CreateDriverRequest{
				Name:          name,
				Email:         email,
				Phone:         phone,
				VehicleNumber: vehicleNumber,
				VehicleModel:  vehicleModel,
				Password:      password.String(),
			})
			if err != nil {
				return err
			}
			application.Fleet.UpsertDriver(*driver)
			fmt.Printf("driver %s registered: %s\n", driver.ID, driver.Name)
			return nil
		},
	}
}

func fleetDriverToggleCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "toggle",
		Summary: "enable or disable a driver",
		Usage:   "swiftride fleet toggle <driver-id>",
		Flags: func() *pflag.FlagSet {
			return globalFlags("toggle", &configPath, &verbose)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: swiftride fleet toggle <driver-id>")
			}
			driverID, err := ref.ParseDriverID(args[0])
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

			driver, err := session.ToggleDriverActive(context.Background(), driverID)
			if err != nil {
				return err
			}
			application.Fleet.UpsertDriver(*driver)
			state := "disabled"
			if driver.Active {
				state = "active"
			}
			fmt.Printf("driver %s is now %s\n", driver.ID, state)
			return nil
		},
	}
}

func fleetDriverDeleteCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "delete",
		Summary: "remove a driver from the fleet",
		Usage:   "swiftride fleet delete <driver-id>",
		Flags: func() *pflag.FlagSet {
			return globalFlags("delete", &configPath, &verbose)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: swiftride fleet delete <driver-id>")
			}
			driverID, err := ref.ParseDriverID(args[0])
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

			if err := session.DeleteDriver(context.Background(), driverID); err != nil {
				return err
			}
			application.Fleet.RemoveDriver(driverID)
			fmt.Printf("driver %s removed\n", driverID)
			return nil
		},
	}
}

func fleetRidesCommand() *cli.Command {
	var configPath string
	var verbose bool
	var status string
	var page int

	return &cli.Command{
		Name:    "rides",
		Summary: "list the fleet's rides",
		Flags: func() *pflag.FlagSet {
			flags := globalFlags("rides", &configPath, &verbose)
			flags.StringVar(&status, "status", "", "filter by status (PENDING, ASSIGNED, ...)")
			flags.IntVar(&page, "page", 1, "result page")
			return flags
		},
		Run: func(args []string) error {
			filter := api.RideFilter{Page: page}
			if status != "" {
				parsed, err := ride.ParseStatus(status)
				if err != nil {
					return err
				}
				filter.Status = parsed
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

			rides, err := session.ListRides(context.Background(), filter)
			if err != nil {
				return err
			}
			application.Fleet.SetRides(rides)
			printRideTable(rides)
			return nil
		},
	}
}

func fleetAnalyticsCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "analytics",
		Summary: "show the fleet dashboard",
		Flags: func() *pflag.FlagSet {
			return globalFlags("analytics", &configPath, &verbose)
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

			analytics, err := session.Analytics(context.Background())
			if err != nil {
				return err
			}
			application.Fleet.SetAnalytics(*analytics)
			fmt.Printf("total rides      %d\n", analytics.TotalRides)
			fmt.Printf("active drivers   %d\n", analytics.ActiveDrivers)
			fmt.Printf("total revenue    %s\n", formatAmount(analytics.TotalRevenue, ""))
			fmt.Printf("completion rate  %.1f%%\n", analytics.CompletionRate*100)
			fmt.Printf("average rating   %.2f\n", analytics.AverageRating)
			return nil
		},
	}
}

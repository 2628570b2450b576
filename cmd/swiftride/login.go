// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/nkthecoder12/swiftride-fleet/api"
	"github.com/nkthecoder12/swiftride-fleet/cmd/swiftride/cli"
	"github.com/nkthecoder12/swiftride-fleet/rolegate"
)

func loginCommand() *cli.Command {
	var configPath string
	var verbose bool
	var email string

	return &cli.Command{
		Name:    "login",
		Summary: "authenticate and persist the session",
		Usage:   "swiftride login --email <address> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := globalFlags("login", &configPath, &verbose)
			flags.StringVar(&email, "email", "", "account email address")
			return flags
		},
		Run: func(args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			application, err := loadApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer application.Close()

			password, err := cli.PromptPassword("Password: ")
			if err != nil {
				return err
			}
			defer password.Close()

			identity, err := application.Sessions.Login(context.Background(), email, password)
			if err != nil {
				return err
			}
			fmt.Printf("logged in as %s (%s)\n", identity.Name, identity.Role)
			fmt.Printf("home: %s\n", rolegate.HomeSurface(identity.Role))
			return nil
		},
	}
}

func signupCommand() *cli.Command {
	var configPath string
	var verbose bool
	var name, email, phone string

	return &cli.Command{
		Name:    "signup",
		Summary: "create a rider account and log in",
		Usage:   "swiftride signup --name <name> --email <address> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := globalFlags("signup", &configPath, &verbose)
			flags.StringVar(&name, "name", "", "display name")
			flags.StringVar(&email, "email", "", "account email address")
			flags.StringVar(&phone, "phone", "", "phone number")
			return flags
		},
		Run: func(args []string) error {
			if name == "" || email == "" {
				return fmt.Errorf("--name and --email are required")
			}
			application, err := loadApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer application.Close()

			password, err := cli.PromptPassword("Password: ")
			if err != nil {
				return err
			}
			defer password.Close()

			identity, err := application.Sessions.Signup(context.Background(), api.SignupRequest{
				Name:     name,
				Email:    email,
				Phone:    phone,
				Password: password.String(),
			})
			if err != nil {
				return err
			}
			fmt.Printf("account created; logged in as %s\n", identity.Name)
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "logout",
		Summary: "end the session and clear the persisted credential",
		Flags: func() *pflag.FlagSet {
			return globalFlags("logout", &configPath, &verbose)
		},
		Run: func(args []string) error {
			application, err := loadApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer application.Close()

			if !application.Sessions.LoggedIn() {
				fmt.Println("not logged in")
				return nil
			}
			if err := application.Sessions.Logout(); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "whoami",
		Summary: "show the logged-in identity",
		Flags: func() *pflag.FlagSet {
			return globalFlags("whoami", &configPath, &verbose)
		},
		Run: func(args []string) error {
			application, err := loadApp(configPath, verbose)
			if err != nil {
				return err
			}
			defer application.Close()

			identity, ok := application.Sessions.Identity()
			if !ok {
				return fmt.Errorf("not logged in")
			}
			fmt.Printf("%s <%s> role=%s home=%s\n",
				identity.Name, identity.Email, identity.Role,
				rolegate.HomeSurface(identity.Role))
			return nil
		},
	}
}

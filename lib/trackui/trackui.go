// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package trackui renders a live terminal view of the current ride:
// status progression, pickup and dropoff, the counterpart's last
// position, and a connection badge. It consumes snapshots from the
// ride store and state changes from the connection manager through
// channels; it never mutates either.
package trackui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nkthecoder12/swiftride-fleet/realtime"
	"github.com/nkthecoder12/swiftride-fleet/ridestate"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

// Theme is the color palette, in ANSI 256-color codes for broad
// terminal compatibility.
type Theme struct {
	FaintText lipgloss.Color
	Header    lipgloss.Color

	StatusPending   lipgloss.Color
	StatusActive    lipgloss.Color
	StatusComplete  lipgloss.Color
	StatusCancelled lipgloss.Color

	Connected    lipgloss.Color
	Reconnecting lipgloss.Color
	Disconnected lipgloss.Color
}

// DefaultTheme returns the standard palette.
func DefaultTheme() Theme {
	return Theme{
		FaintText:       lipgloss.Color("243"),
		Header:          lipgloss.Color("81"),
		StatusPending:   lipgloss.Color("178"),
		StatusActive:    lipgloss.Color("75"),
		StatusComplete:  lipgloss.Color("78"),
		StatusCancelled: lipgloss.Color("167"),
		Connected:       lipgloss.Color("78"),
		Reconnecting:    lipgloss.Color("178"),
		Disconnected:    lipgloss.Color("167"),
	}
}

// snapshotMsg wraps a ride store snapshot for delivery through the
// bubbletea message loop.
type snapshotMsg struct {
	snapshot ridestate.Snapshot
}

// connectionMsg wraps a connection state change.
type connectionMsg struct {
	state realtime.State
}

// Model is the bubbletea model for the tracking view.
type Model struct {
	theme      Theme
	width      int
	snapshot   ridestate.Snapshot
	connection realtime.State
	spinner    spinner.Model

	snapshots <-chan ridestate.Snapshot
	states    <-chan realtime.State
}

// New builds a tracking model reading from the given channels. The
// snapshot channel is typically ridestate.Store.Watch; the state
// channel is fed from realtime.Manager.OnStateChange.
func New(snapshots <-chan ridestate.Snapshot, states <-chan realtime.State, connection realtime.State) Model {
	theme := DefaultTheme()
	return Model{
		theme:      theme,
		connection: connection,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Reconnecting)),
		),
		snapshots: snapshots,
		states:    states,
	}
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return tea.Batch(
		listenForSnapshot(model.snapshots),
		listenForConnection(model.states),
		model.spinner.Tick,
	)
}

// listenForSnapshot returns a tea.Cmd that blocks until the ride
// store publishes a snapshot.
func listenForSnapshot(channel <-chan ridestate.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-channel
		if !ok {
			return nil
		}
		return snapshotMsg{snapshot: snapshot}
	}
}

func listenForConnection(channel <-chan realtime.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-channel
		if !ok {
			return nil
		}
		return connectionMsg{state: state}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		return model, nil
	case tea.KeyMsg:
		switch message.String() {
		case "q", "esc", "ctrl+c":
			return model, tea.Quit
		}
		return model, nil
	case snapshotMsg:
		model.snapshot = message.snapshot
		return model, listenForSnapshot(model.snapshots)
	case connectionMsg:
		model.connection = message.state
		return model, listenForConnection(model.states)
	case spinner.TickMsg:
		var command tea.Cmd
		model.spinner, command = model.spinner.Update(message)
		return model, command
	}
	return model, nil
}

// View implements tea.Model.
func (model Model) View() string {
	var view strings.Builder

	header := lipgloss.NewStyle().Foreground(model.theme.Header).Bold(true)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	view.WriteString(header.Render("SwiftRide"))
	view.WriteString("  ")
	view.WriteString(model.connectionBadge())
	view.WriteString("\n\n")

	if !model.snapshot.Active {
		view.WriteString(faint.Render("no active ride"))
		view.WriteString("\n\n")
		view.WriteString(faint.Render("q to quit"))
		return view.String()
	}

	current := model.snapshot.Ride
	view.WriteString(fmt.Sprintf("ride %s\n", current.ID))
	view.WriteString(model.statusLine())
	view.WriteString("\n")
	view.WriteString(fmt.Sprintf("from  %s\n", current.Pickup.Address))
	view.WriteString(fmt.Sprintf("to    %s\n", current.Dropoff.Address))
	if current.Driver != nil {
		view.WriteString(fmt.Sprintf("driver %s (%s)\n",
			current.Driver.Name, current.Driver.VehicleModel))
	}
	if fare := current.Fare; fare != nil {
		view.WriteString(fmt.Sprintf("fare  %d.%02d %s\n",
			fare.TotalFare/100, fare.TotalFare%100, fare.Currency))
	}
	if position := model.snapshot.Counterpart; position != nil {
		view.WriteString(faint.Render(fmt.Sprintf("counterpart at %.5f, %.5f",
			position.Lat, position.Lng)))
		view.WriteString("\n")
	}
	view.WriteString("\n")
	view.WriteString(faint.Render("q to quit"))
	return view.String()
}

// statusLine renders the effective status, marking an unconfirmed
// optimistic transition.
func (model Model) statusLine() string {
	status := model.snapshot.Status()
	style := lipgloss.NewStyle().Foreground(model.statusColor(status)).Bold(true)
	line := style.Render(string(status))
	if model.snapshot.Intent != "" {
		faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
		line += faint.Render(" (confirming)")
	}
	return line
}

func (model Model) statusColor(status ride.Status) lipgloss.Color {
	switch status {
	case ride.StatusPending:
		return model.theme.StatusPending
	case ride.StatusCompleted:
		return model.theme.StatusComplete
	case ride.StatusCancelled:
		return model.theme.StatusCancelled
	default:
		return model.theme.StatusActive
	}
}

func (model Model) connectionBadge() string {
	switch model.connection {
	case realtime.Connected:
		style := lipgloss.NewStyle().Foreground(model.theme.Connected)
		return style.Render("● " + model.connection.String())
	case realtime.Connecting, realtime.Reconnecting:
		style := lipgloss.NewStyle().Foreground(model.theme.Reconnecting)
		return model.spinner.View() + style.Render(model.connection.String())
	default:
		style := lipgloss.NewStyle().Foreground(model.theme.Disconnected)
		return style.Render("● " + model.connection.String())
	}
}

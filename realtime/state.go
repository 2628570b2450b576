// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

// State is the lifecycle state of the realtime channel.
type State int

const (
	// Disconnected means no connection exists and none is being
	// attempted: the initial state, the state after an explicit
	// Disconnect, and the state after the reconnect budget is
	// exhausted.
	Disconnected State = iota

	// Connecting means the first dial of a Connect call is in
	// flight.
	Connecting

	// Connected means the transport is established and events
	// flow.
	Connected

	// Reconnecting means an established connection was lost (or an
	// initial dial failed) and the manager is redialing with
	// backoff.
	Reconnecting
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Live reports whether the channel is usable for publishing right
// now. Only Connected is live: Connecting and Reconnecting drop
// outbound messages the same way Disconnected does.
func (s State) Live() bool {
	return s == Connected
}

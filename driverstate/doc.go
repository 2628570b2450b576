// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package driverstate holds the driver-side view state: availability,
// the assigned-ride projection, the inbox of incoming ride requests,
// and a cached earnings snapshot.
//
// The assigned ride reuses the ridestate projection, so it inherits
// the same forward-only reconciliation against realtime events. The
// request inbox is fed by new-ride-request events and de-duplicates
// by ride ID — the channel is at-least-once, and a redelivered offer
// must not resurface after the driver has dismissed or accepted it.
package driverstate

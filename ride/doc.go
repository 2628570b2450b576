// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package ride defines the domain model shared by the backend API
// client, the realtime channel, and the view-state stores: ride
// status and its progression order, locations and fares, driver and
// account records.
//
// The load-bearing piece is [Status]. A ride's status only moves
// forward through PENDING → ASSIGNED → DRIVER_ARRIVING → STARTED →
// COMPLETED, or sideways into the absorbing state CANCELLED.
// [Status.CanAdvanceTo] encodes that rule in one place; the
// view-state stores use it to reject stale or duplicate events from
// the realtime channel, which guarantees neither ordering nor
// exactly-once delivery.
package ride

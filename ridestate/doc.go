// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package ridestate holds the client's believed state of the ride it
// is currently watching.
//
// [Store] is the sole owner of the ride projection: the UI reads
// snapshots, and every write goes through Begin, Apply, MarkStatus,
// or Reset. The projection is two-phase — a confirmed remote ride
// plus an optional pending local intent — so there is never ambiguity
// about which value is truth during an optimistic window:
// [Snapshot.Status] shows the intent for responsiveness, while the
// confirmed ride advances only on authoritative events.
//
// Reconciliation is forward-only. The realtime channel guarantees
// neither ordering nor exactly-once delivery, so [Store.Apply] keeps
// a status event only when it moves the confirmed status strictly
// forward through the ride progression, or is the absorbing
// CANCELLED; stale and duplicate events are silently discarded, and
// events scoped to a different ride never touch the projection. A
// terminal ride stays in the store, last-known state intact, until
// the view hands off with [Store.Reset].
package ridestate

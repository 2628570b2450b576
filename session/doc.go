// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package session owns the device's authenticated identity.
//
// [Store] holds at most one live [api.Session] and keeps three things
// in lockstep with it: the persisted session file (so the identity
// survives process restarts), the realtime channel (connected with
// the session credential on login and restore, torn down on logout),
// and the registered change listeners. Restore is forgiving by
// design: a missing session file means logged out, and a malformed
// one is discarded the same way rather than surfaced as an error —
// the recovery from a corrupt file is simply logging in again.
//
// A server-side credential rejection (HTTP 401 on any authenticated
// call) logs the store out through the session's auth-reject hook, so
// an expired token converges to the same state as an explicit logout.
package session

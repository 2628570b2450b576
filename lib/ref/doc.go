// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated identifier types for SwiftRide
// entities: rides, drivers, and users.
//
// Backend identifiers are opaque strings (the server issues UUIDs,
// but the client never relies on that). The types here validate the
// structural rules the client depends on — non-empty, no whitespace,
// restricted to URL-safe characters — so that an identifier that made
// it into a [RideID] or [DriverID] can be embedded in request paths
// and realtime topic names without further escaping.
//
// All identifier types are immutable value types implementing
// encoding.TextMarshaler and TextUnmarshaler, so they validate
// automatically at JSON deserialization boundaries. The zero value is
// never valid; use IsZero to check.
//
// This package has no SwiftRide-internal dependencies.
package ref

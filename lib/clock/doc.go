// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability.
//
// Production code injects [Real]; tests inject [Fake] and drive time
// forward explicitly with Advance. Any SwiftRide code that would call
// time.Now, time.After, time.NewTimer, or time.Sleep takes a [Clock]
// instead, so that reconnection backoff schedules and other timing
// behavior can be asserted deterministically without real waits.
//
// This package has no SwiftRide-internal dependencies.
package clock

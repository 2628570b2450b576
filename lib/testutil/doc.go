// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for SwiftRide
// packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate
// the timeout safety valve pattern (select with a time.After
// fallback) so individual tests never hang and never need direct
// time.After calls. These are the only places in the test suite that
// use real wall-clock timeouts; everything timing-sensitive goes
// through lib/clock's fake.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation. Use it instead of time.Now() when a test needs
// distinguishable ride or driver identifiers.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil

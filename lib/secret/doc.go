// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for sensitive data —
// in this codebase, the bearer credential that authenticates every
// backend call and the realtime channel, and passwords read at login.
//
// [Buffer] allocates memory outside the Go heap via
// mmap(MAP_ANONYMOUS), locks it into physical RAM via mlock
// (preventing swap), and marks it excluded from core dumps via
// madvise(MADV_DONTDUMP). On Close, the memory is zeroed, unlocked,
// and unmapped. Because the memory lives outside the Go heap, the
// garbage collector cannot copy or relocate it, so secret material
// does not linger after release.
//
// Access the contents via [Buffer.Bytes] (a slice into the mmap
// region) or [Buffer.String] (a short-lived heap copy for API
// boundaries that require a string, such as an Authorization header).
// [Zero] wipes transient heap slices that briefly held secret bytes,
// such as the marshaled session file before it is written to disk.
//
// Depends on golang.org/x/sys/unix. No SwiftRide-internal
// dependencies.
package secret

// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package api wraps the SwiftRide backend's REST interface.
//
// The package provides two core types. [Client] is an unauthenticated
// client that holds the backend base URL and HTTP transport and
// handles login and signup, returning authenticated [Session] values.
// [Session] wraps a Client with a bearer credential for everything
// else: profile management, the rider ride lifecycle (estimate,
// create, get, cancel, rate, history), driver operations (status,
// current ride, accept/start/complete, location pings, earnings), and
// fleet owner operations (driver roster management, ride monitoring,
// analytics).
//
// The credential is held in an mmap-backed secret.Buffer (locked
// against swap, excluded from core dumps); callers must Close the
// Session to release it. All business rules — fare computation, ride
// matching, driver assignment — live server-side; this package only
// moves typed requests and responses.
//
// Every backend response uses the envelope {success, data, message}.
// Failures are returned as [*APIError] carrying the backend's error
// code, message, and HTTP status; test with [IsAPIError] or
// [IsAuthRejected]. A 401 rejection on any Session call additionally
// fires the hook registered with [Session.OnAuthReject], exactly
// once — the session store uses this to run its logout path when the
// credential expires mid-session.
package api

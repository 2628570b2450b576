// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package realtime maintains the single live event channel between
// the client and the SwiftRide backend.
//
// [Manager] owns at most one transport connection per process,
// authenticated with the session's bearer credential. Its lifecycle
// is the four-state machine Disconnected → Connecting → Connected ⇄
// Reconnecting: an unexpected transport failure moves it to
// Reconnecting and it redials with capped exponential backoff until
// either a dial succeeds or the attempt budget is exhausted, at which
// point it settles in Disconnected. An explicit [Manager.Disconnect]
// is terminal until the next Connect. Transport errors never reach
// callers as return values — they drive the state machine and are
// observable through [Manager.OnStateChange].
//
// Ride subscriptions are desired state, not one-shot commands:
// [Manager.Subscribe] records the ride in the desired set and joins
// its topic when connected, and after every reconnect the manager
// rejoins every desired topic before dispatching new events. Outbound
// publishes are best-effort — when the channel is down they are
// dropped, which is the documented semantics for ephemeral location
// pings.
//
// Inbound messages are parsed into typed events ([LocationUpdate],
// [StatusChange], [Assignment], [RideRequest]) and fanned out to
// listeners in arrival order from a single dispatch goroutine.
// Listener registration and removal are safe at any time, including
// from inside a listener callback. No ordering is guaranteed across
// rides; the view-state stores' forward-only reconciliation is the
// defense against stale delivery.
//
// The production transport is a websocket ([WebsocketDialer],
// github.com/gorilla/websocket); tests inject a fake [Dialer] and a
// fake clock to pin the backoff schedule.
package realtime

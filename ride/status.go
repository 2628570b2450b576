// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package ride

import "fmt"

// Status is the lifecycle state of a ride. The zero value is invalid.
type Status string

// Ride lifecycle states, in progression order. CANCELLED sits outside
// the progression: it can be entered from any other state and can
// never be left.
const (
	StatusPending        Status = "PENDING"
	StatusAssigned       Status = "ASSIGNED"
	StatusDriverArriving Status = "DRIVER_ARRIVING"
	StatusStarted        Status = "STARTED"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

// statusRanks maps each progressing status to its ordinal. CANCELLED
// is deliberately absent — it has no position in the forward order.
var statusRanks = map[Status]int{
	StatusPending:        0,
	StatusAssigned:       1,
	StatusDriverArriving: 2,
	StatusStarted:        3,
	StatusCompleted:      4,
}

// ParseStatus validates a raw status string from the wire.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	if !status.Valid() {
		return "", fmt.Errorf("ride: unknown status %q", raw)
	}
	return status, nil
}

// Valid reports whether the status is one of the defined lifecycle
// states.
func (s Status) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRanks[s]
	return ok
}

// Rank returns the status's position in the forward progression and
// whether it has one. CANCELLED and invalid statuses have no rank.
func (s Status) Rank() (int, bool) {
	rank, ok := statusRanks[s]
	return rank, ok
}

// Terminal reports whether the status ends the ride's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanAdvanceTo reports whether a transition from s to next is a legal
// forward move. Legal moves are a strict rank increase, or entering
// CANCELLED from any other state: a cancellation always wins, even
// over a locally-known COMPLETED, because the backend is the
// authority on disputes and a late cancellation is its final word.
// Everything else — backward moves, duplicates, leaving CANCELLED —
// is rejected; the view-state stores treat rejected transitions as
// stale events and drop them.
func (s Status) CanAdvanceTo(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == StatusCancelled {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	currentRank, ok := s.Rank()
	if !ok {
		return false
	}
	nextRank, ok := next.Rank()
	if !ok {
		return false
	}
	return nextRank > currentRank
}

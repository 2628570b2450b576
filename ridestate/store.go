// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package ridestate

import (
	"log/slog"
	"sync"

	"github.com/nkthecoder12/swiftride-fleet/realtime"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

// Snapshot is one immutable view of the ride projection. Active is
// false when no ride is being watched; the other fields are then
// zero.
type Snapshot struct {
	// Active reports whether a ride projection exists.
	Active bool

	// Ride is the confirmed remote state.
	Ride ride.Ride

	// Intent is the pending optimistic status from a local user
	// action, zero when no confirmation is outstanding.
	Intent ride.Status

	// Counterpart is the other party's last reported position, nil
	// until the first location update.
	Counterpart *ride.LatLng
}

// Status returns the status the UI should display: the pending
// intent while a confirmation is outstanding, otherwise the
// confirmed status.
func (s Snapshot) Status() ride.Status {
	if !s.Active {
		return ""
	}
	if s.Intent != "" {
		return s.Intent
	}
	return s.Ride.Status
}

// Store is the single authoritative projection of the current ride.
// All methods are safe for concurrent use; Apply has the right shape
// to register directly as a realtime event listener.
type Store struct {
	logger *slog.Logger

	mu          sync.Mutex
	active      bool
	confirmed   ride.Ride
	intent      ride.Status
	counterpart *ride.LatLng

	nextHandle int
	watchers   map[int]chan Snapshot
}

// NewStore builds an empty Store. A nil logger means slog.Default.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:   logger,
		watchers: make(map[int]chan Snapshot),
	}
}

// Begin starts watching a ride, replacing any existing projection.
// Called when the user books a ride or a view adopts one fetched
// from the backend.
func (s *Store) Begin(r ride.Ride) {
	s.mu.Lock()
	s.active = true
	s.confirmed = r
	s.intent = ""
	s.counterpart = nil
	notify := s.notifyLocked()
	s.mu.Unlock()
	notify()
}

// Snapshot returns the current projection.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Reset clears the projection entirely. Used for the handoff back to
// an idle view after completion or cancellation; nothing else clears
// a terminal ride.
func (s *Store) Reset() {
	s.mu.Lock()
	s.active = false
	s.confirmed = ride.Ride{}
	s.intent = ""
	s.counterpart = nil
	notify := s.notifyLocked()
	s.mu.Unlock()
	notify()
}

// MarkStatus records a local optimistic transition, immediately
// visible through Snapshot.Status while the authoritative
// confirmation is in flight. It reports whether the transition was
// accepted: a status that is not a forward move from the effective
// status is rejected, and without an active ride there is nothing to
// mark. The store never times an intent out — if no confirmation
// arrives, the intent stands until the view retries or resets.
func (s *Store) MarkStatus(status ride.Status) bool {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return false
	}
	effective := s.confirmed.Status
	if s.intent != "" {
		effective = s.intent
	}
	if !effective.CanAdvanceTo(status) {
		s.mu.Unlock()
		return false
	}
	s.intent = status
	notify := s.notifyLocked()
	s.mu.Unlock()
	notify()
	return true
}

// Apply reconciles one inbound realtime event into the projection.
// Events scoped to a different ride are ignored; status transitions
// that are not forward moves (and not the absorbing CANCELLED) are
// discarded as stale. Register it with the connection manager:
//
//	manager.OnEvent(store.Apply)
func (s *Store) Apply(event realtime.Event) {
	switch event.Type {
	case realtime.EventRideStatusChanged:
		s.applyStatus(event.Status)
	case realtime.EventLocationUpdate:
		s.applyLocation(event.Location)
	case realtime.EventRideAssigned:
		s.applyAssignment(event.Assignment)
	}
}

func (s *Store) applyStatus(change *realtime.StatusChange) {
	s.mu.Lock()
	if !s.active || s.confirmed.ID != change.RideID {
		s.mu.Unlock()
		return
	}
	if !s.confirmed.Status.CanAdvanceTo(change.Status) {
		// Stale or duplicate delivery: expected, not a fault.
		s.mu.Unlock()
		return
	}
	s.confirmed.Status = change.Status
	s.settleIntentLocked()
	notify := s.notifyLocked()
	s.mu.Unlock()
	notify()
}

func (s *Store) applyLocation(update *realtime.LocationUpdate) {
	s.mu.Lock()
	if !s.active || s.confirmed.ID != update.RideID {
		s.mu.Unlock()
		return
	}
	position := update.Position
	s.counterpart = &position
	notify := s.notifyLocked()
	s.mu.Unlock()
	notify()
}

// applyAssignment merges a driver assignment. The event's ride
// snapshot replaces the confirmed details (it carries the driver),
// but the status still only moves forward: a late assignment for a
// ride that already started does not revert it. An assignment
// implies at least ASSIGNED even when the embedded snapshot lags.
func (s *Store) applyAssignment(assignment *realtime.Assignment) {
	assigned := assignment.Ride
	if status := assigned.Status; !status.Valid() || status == ride.StatusPending {
		assigned.Status = ride.StatusAssigned
	}

	s.mu.Lock()
	if s.active && s.confirmed.ID != assigned.ID {
		s.mu.Unlock()
		return
	}
	if !s.active {
		// A ride can begin with its assignment, driver-side
		// flows aside.
		s.active = true
		s.confirmed = assigned
		s.intent = ""
		s.counterpart = nil
	} else {
		previous := s.confirmed.Status
		s.confirmed = assigned
		if !previous.CanAdvanceTo(assigned.Status) {
			s.confirmed.Status = previous
		}
		s.settleIntentLocked()
	}
	notify := s.notifyLocked()
	s.mu.Unlock()
	notify()
}

// settleIntentLocked clears the pending intent once the confirmed
// status has caught up with it.
func (s *Store) settleIntentLocked() {
	if s.intent == "" {
		return
	}
	if s.confirmed.Status == ride.StatusCancelled {
		s.intent = ""
		return
	}
	if s.intent == ride.StatusCancelled {
		return
	}
	intentRank, ok := s.intent.Rank()
	if !ok {
		s.intent = ""
		return
	}
	confirmedRank, ok := s.confirmed.Status.Rank()
	if ok && confirmedRank >= intentRank {
		s.intent = ""
	}
}

// Watch returns a channel carrying projection snapshots and a cancel
// function. The current snapshot is delivered immediately; delivery
// thereafter is coalescing, so a slow reader observes the latest
// snapshot rather than every intermediate one. After cancel the
// channel stops receiving; it is never closed, because a
// notification already in flight may still be delivering to it.
func (s *Store) Watch() (<-chan Snapshot, func()) {
	s.mu.Lock()
	s.nextHandle++
	handle := s.nextHandle
	channel := make(chan Snapshot, 1)
	s.watchers[handle] = channel
	channel <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.watchers, handle)
		s.mu.Unlock()
	}
	return channel, cancel
}

func (s *Store) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		Active: s.active,
		Ride:   s.confirmed,
		Intent: s.intent,
	}
	if s.counterpart != nil {
		position := *s.counterpart
		snapshot.Counterpart = &position
	}
	return snapshot
}

// notifyLocked pushes the current snapshot to every watcher,
// replacing any undelivered one. Returned as a deferred call so the
// sends happen outside the lock.
func (s *Store) notifyLocked() func() {
	snapshot := s.snapshotLocked()
	channels := make([]chan Snapshot, 0, len(s.watchers))
	for _, channel := range s.watchers {
		channels = append(channels, channel)
	}
	return func() {
		for _, channel := range channels {
			select {
			case channel <- snapshot:
			default:
				select {
				case <-channel:
				default:
				}
				select {
				case channel <- snapshot:
				default:
				}
			}
		}
	}
}

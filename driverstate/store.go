// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package driverstate

import (
	"log/slog"
	"sync"

	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/realtime"
	"github.com/nkthecoder12/swiftride-fleet/ridestate"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

// Snapshot is one immutable view of the driver state. The assigned
// ride is read separately through Assigned.
type Snapshot struct {
	Availability ride.DriverStatus
	Requests     []ride.Ride
	Earnings     *ride.Earnings
}

// Store owns the driver-side view state. All methods are safe for
// concurrent use; Apply registers directly as a realtime event
// listener.
type Store struct {
	logger   *slog.Logger
	assigned *ridestate.Store

	mu           sync.Mutex
	availability ride.DriverStatus
	requests     []ride.Ride
	offered      map[ref.RideID]bool
	earnings     *ride.Earnings

	nextHandle int
	watchers   map[int]chan Snapshot
}

// NewStore builds an empty Store. A nil logger means slog.Default.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:       logger,
		assigned:     ridestate.NewStore(logger),
		availability: ride.DriverOffline,
		offered:      make(map[ref.RideID]bool),
		watchers:     make(map[int]chan Snapshot),
	}
}

// Assigned returns the projection of the ride the driver is
// currently working. It reconciles realtime events with the same
// forward-only rule as the rider's view.
func (s *Store) Assigned() *ridestate.Store {
	return s.assigned
}

// Availability returns the driver's availability state.
func (s *Store) Availability() ride.DriverStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.availability
}

// SetAvailability records the availability confirmed by the backend.
func (s *Store) SetAvailability(status ride.DriverStatus) {
	s.mu.Lock()
	s.availability = status
	notify := s.notifyLocked()
	s.mu.Unlock()
	notify()
}

// Snapshot returns the current driver state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Requests returns the pending ride offers in arrival order.
func (s *Store) Requests() []ride.Ride {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ride.Ride(nil), s.requests...)
}

// TakeRequest removes and returns the offer for the given ride,
// typically on accept. ok is false when the offer is no longer in
// the inbox.
func (s *Store) TakeRequest(rideID ref.RideID) (ride.Ride, bool) {
	s.mu.Lock()
	for index, request := range s.requests {
		if request.ID == rideID {
			taken := request
			s.requests = append(s.requests[:index], s.requests[index+1:]...)
			notify := s.notifyLocked()
			s.mu.Unlock()
			notify()
			return taken, true
		}
	}
	s.mu.Unlock()
	return ride.Ride{}, false
}

// DismissRequest drops the offer for the given ride. The ride stays
// marked as seen, so a redelivered offer does not resurface.
func (s *Store) DismissRequest(rideID ref.RideID) {
	s.TakeRequest(rideID)
}

// SetEarnings caches the latest earnings snapshot from the backend.
func (s *Store) SetEarnings(earnings ride.Earnings) {
	s.mu.Lock()
	s.earnings = &earnings
	notify := s.notifyLocked()
	s.mu.Unlock()
	notify()
}

// Earnings returns the cached earnings snapshot, if any.
func (s *Store) Earnings() (ride.Earnings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.earnings == nil {
		return ride.Earnings{}, false
	}
	return *s.earnings, true
}

// Reset clears everything, including the assigned-ride projection
// and the seen-offer set. Called on logout.
func (s *Store) Reset() {
	s.assigned.Reset()
	s.mu.Lock()
	s.availability = ride.DriverOffline
	s.requests = nil
	s.offered = make(map[ref.RideID]bool)
	s.earnings = nil
	notify := s.notifyLocked()
	s.mu.Unlock()
	notify()
}

// Apply routes one inbound realtime event: ride offers land in the
// inbox, everything else feeds the assigned-ride projection.
// Register it with the connection manager:
//
//	manager.OnEvent(store.Apply)
func (s *Store) Apply(event realtime.Event) {
	if event.Type == realtime.EventNewRideRequest {
		s.applyRequest(event.RideRequest)
		return
	}
	s.assigned.Apply(event)
}

func (s *Store) applyRequest(request *realtime.RideRequest) {
	offer := request.Ride
	if offer.ID.IsZero() {
		return
	}
	s.mu.Lock()
	if s.offered[offer.ID] {
		// Redelivery of an offer already seen: drop it.
		s.mu.Unlock()
		return
	}
	s.offered[offer.ID] = true
	s.requests = append(s.requests, offer)
	notify := s.notifyLocked()
	s.mu.Unlock()
	notify()
	s.logger.Debug("ride offer received", "ride_id", offer.ID)
}

// Watch returns a channel carrying driver-state snapshots and a
// cancel function. Delivery is coalescing, as in ridestate.Watch.
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
		Availability: s.availability,
		Requests:     append([]ride.Ride(nil), s.requests...),
	}
	if s.earnings != nil {
		earnings := *s.earnings
		snapshot.Earnings = &earnings
	}
	return snapshot
}

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

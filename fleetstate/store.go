// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

// Package fleetstate caches the fleet owner's dashboard data: the
// driver roster, the monitored ride list, and the analytics
// snapshot. Unlike the ride and driver stores these are plain
// REST-backed caches — nothing here is mutated by realtime events;
// the owning view refreshes them explicitly.
package fleetstate

import (
	"sync"

	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

// Store holds the owner view caches. All methods are safe for
// concurrent use.
type Store struct {
	mu        sync.Mutex
	drivers   []ride.Driver
	rides     []ride.Ride
	analytics *ride.Analytics
}

// NewStore builds an empty Store.
func NewStore() *Store {
	return &Store{}
}

// SetDrivers replaces the cached roster.
func (s *Store) SetDrivers(drivers []ride.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers = append([]ride.Driver(nil), drivers...)
}

// Drivers returns the cached roster.
func (s *Store) Drivers() []ride.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ride.Driver(nil), s.drivers...)
}

// UpsertDriver merges one driver into the roster, by ID. Used after
// create and toggle calls so the cache reflects the backend response
// without a full refresh.
func (s *Store) UpsertDriver(driver ride.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for index, existing := range s.drivers {
		if existing.ID == driver.ID {
			s.drivers[index] = driver
			return
		}
	}
	s.drivers = append(s.drivers, driver)
}

// RemoveDriver drops a driver from the roster. Unknown IDs are a
// no-op.
func (s *Store) RemoveDriver(id ref.DriverID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for index, existing := range s.drivers {
		if existing.ID == id {
			s.drivers = append(s.drivers[:index], s.drivers[index+1:]...)
			return
		}
	}
}

// SetRides replaces the monitored ride list.
func (s *Store) SetRides(rides []ride.Ride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rides = append([]ride.Ride(nil), rides...)
}

// Rides returns the monitored ride list.
func (s *Store) Rides() []ride.Ride {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ride.Ride(nil), s.rides...)
}

// SetAnalytics caches the analytics snapshot.
func (s *Store) SetAnalytics(analytics ride.Analytics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analytics = &analytics
}

// Analytics returns the cached analytics snapshot, if any.
func (s *Store) Analytics() (ride.Analytics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analytics == nil {
		return ride.Analytics{}, false
	}
	return *s.analytics, true
}

// Reset clears all caches. Called on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers = nil
	s.rides = nil
	s.analytics = nil
}

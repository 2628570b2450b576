// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"time"

	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/realtime"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

// runScript drives a booked ride through its lifecycle: assignment
// to the seeded driver, arrival, the trip itself, completion. Each
// step yields if the ride was cancelled or a real driver session
// already advanced it further. Location updates are interpolated
// between pickup and dropoff so the tracking TUI has something to
// show.
func (s *mockServer) runScript(rideID ref.RideID) {
	time.Sleep(s.interval)
	if !s.scriptAdvance(rideID, ride.StatusAssigned) {
		return
	}

	time.Sleep(s.interval)
	if !s.scriptAdvance(rideID, ride.StatusDriverArriving) {
		return
	}
	s.scriptDrive(rideID, 0.0, 0.3)

	time.Sleep(s.interval)
	if !s.scriptAdvance(rideID, ride.StatusStarted) {
		return
	}
	s.scriptDrive(rideID, 0.3, 1.0)

	time.Sleep(s.interval)
	s.scriptAdvance(rideID, ride.StatusCompleted)
}

// scriptAdvance moves the ride to target if the progression allows
// it, broadcasting the change. Returns false when the script should
// stop (ride gone, cancelled, or already past target).
func (s *mockServer) scriptAdvance(rideID ref.RideID, target ride.Status) bool {
	s.mu.Lock()
	current := s.rides[rideID]
	if current == nil {
		s.mu.Unlock()
		return false
	}
	if current.Status == ride.StatusCancelled {
		s.mu.Unlock()
		return false
	}
	if !current.Status.CanAdvanceTo(target) {
		// A driver session already advanced the ride; the script
		// keeps following from wherever it is now.
		s.mu.Unlock()
		return current.Status != ride.StatusCompleted
	}
	now := time.Now().UTC()
	current.Status = target
	switch target {
	case ride.StatusAssigned:
		if driver := s.drivers[s.seeded]; driver != nil {
			copied := *driver
			current.Driver = &copied
			current.DriverID = driver.ID
		}
	case ride.StatusStarted:
		current.StartedAt = &now
	case ride.StatusCompleted:
		current.CompletedAt = &now
		if current.Fare != nil {
			current.FinalFare = current.Fare.TotalFare
		}
	}
	snapshot := *current
	s.mu.Unlock()

	s.logger.Info("scripted transition", "ride_id", rideID, "status", target)
	if target == ride.StatusAssigned {
		s.hub.broadcastAssignment(snapshot)
	} else {
		s.hub.broadcastStatus(rideID, target)
	}
	return true
}

// scriptDrive emits a short burst of interpolated location updates
// along the pickup-to-dropoff line, from fraction `from` to `to`.
func (s *mockServer) scriptDrive(rideID ref.RideID, from, to float64) {
	s.mu.Lock()
	current := s.rides[rideID]
	if current == nil {
		s.mu.Unlock()
		return
	}
	pickup := current.Pickup.Coordinates
	dropoff := current.Dropoff.Coordinates
	s.mu.Unlock()

	const steps = 3
	pause := s.interval / (steps + 1)
	for i := 1; i <= steps; i++ {
		time.Sleep(pause)
		fraction := from + (to-from)*float64(i)/steps
		position := ride.LatLng{
			Lat: pickup.Lat + (dropoff.Lat-pickup.Lat)*fraction,
			Lng: pickup.Lng + (dropoff.Lng-pickup.Lng)*fraction,
		}
		s.hub.broadcast(rideID, realtime.EventLocationUpdate, realtime.LocationUpdate{
			RideID:   rideID,
			Position: position,
		})
	}
}

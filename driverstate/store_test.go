// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package driverstate

import (
	"testing"

	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/realtime"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

func offerEvent(id string) realtime.Event {
	return realtime.Event{
		Type: realtime.EventNewRideRequest,
		RideRequest: &realtime.RideRequest{
			Ride: ride.Ride{
				ID:     ref.MustParseRideID(id),
				Status: ride.StatusPending,
			},
		},
	}
}

func TestInboxDeduplicatesByRideID(t *testing.T) {
	store := NewStore(nil)

	store.Apply(offerEvent("ride-1"))
	store.Apply(offerEvent("ride-2"))
	store.Apply(offerEvent("ride-1"))

	requests := store.Requests()
	if len(requests) != 2 {
		t.Fatalf("inbox length = %d, want 2", len(requests))
	}
	if requests[0].ID.String() != "ride-1" || requests[1].ID.String() != "ride-2" {
		t.Errorf("inbox order = [%s %s], want [ride-1 ride-2]", requests[0].ID, requests[1].ID)
	}
}

func TestRedeliveredOfferDoesNotResurface(t *testing.T) {
	store := NewStore(nil)
	rideID := ref.MustParseRideID("ride-1")

	store.Apply(offerEvent("ride-1"))
	store.DismissRequest(rideID)
	store.Apply(offerEvent("ride-1"))

	if got := len(store.Requests()); got != 0 {
		t.Errorf("inbox length = %d after dismissed redelivery, want 0", got)
	}
}

func TestTakeRequestRemovesOffer(t *testing.T) {
	store := NewStore(nil)
	store.Apply(offerEvent("ride-1"))
	store.Apply(offerEvent("ride-2"))

	taken, ok := store.TakeRequest(ref.MustParseRideID("ride-1"))
	if !ok {
		t.Fatal("TakeRequest missed an offer that is in the inbox")
	}
	if taken.ID.String() != "ride-1" {
		t.Errorf("taken ride = %s, want ride-1", taken.ID)
	}
	if _, ok := store.TakeRequest(ref.MustParseRideID("ride-1")); ok {
		t.Error("TakeRequest returned the same offer twice")
	}
	if got := len(store.Requests()); got != 1 {
		t.Errorf("inbox length = %d, want 1", got)
	}
}

func TestAssignedRideEventsRouteToProjection(t *testing.T) {
	store := NewStore(nil)
	assigned := ride.Ride{
		ID:     ref.MustParseRideID("ride-5"),
		Status: ride.StatusAssigned,
	}
	store.Apply(realtime.Event{
		Type:       realtime.EventRideAssigned,
		Assignment: &realtime.Assignment{Ride: assigned},
	})

	snapshot := store.Assigned().Snapshot()
	if !snapshot.Active {
		t.Fatal("assignment did not start the assigned-ride projection")
	}
	if got := snapshot.Status(); got != ride.StatusAssigned {
		t.Errorf("assigned status = %q, want ASSIGNED", got)
	}

	// Status events flow through with the same forward-only rule.
	store.Apply(realtime.Event{
		Type:   realtime.EventRideStatusChanged,
		Status: &realtime.StatusChange{RideID: assigned.ID, Status: ride.StatusStarted},
	})
	store.Apply(realtime.Event{
		Type:   realtime.EventRideStatusChanged,
		Status: &realtime.StatusChange{RideID: assigned.ID, Status: ride.StatusAssigned},
	})
	if got := store.Assigned().Snapshot().Status(); got != ride.StatusStarted {
		t.Errorf("assigned status = %q, want STARTED", got)
	}
}

func TestAvailabilityAndEarnings(t *testing.T) {
	store := NewStore(nil)
	if got := store.Availability(); got != ride.DriverOffline {
		t.Errorf("initial availability = %q, want OFFLINE", got)
	}

	store.SetAvailability(ride.DriverOnline)
	if got := store.Availability(); got != ride.DriverOnline {
		t.Errorf("availability = %q, want ONLINE", got)
	}

	if _, ok := store.Earnings(); ok {
		t.Error("earnings present before any fetch")
	}
	store.SetEarnings(ride.Earnings{Today: 12500, Currency: "USD", Rides: 7})
	earnings, ok := store.Earnings()
	if !ok || earnings.Today != 12500 {
		t.Errorf("earnings = %+v, %v", earnings, ok)
	}
}

func TestResetClearsEverything(t *testing.T) {
	store := NewStore(nil)
	store.SetAvailability(ride.DriverOnRide)
	store.Apply(offerEvent("ride-1"))
	store.SetEarnings(ride.Earnings{Today: 100})
	store.Apply(realtime.Event{
		Type: realtime.EventRideAssigned,
		Assignment: &realtime.Assignment{Ride: ride.Ride{
			ID:     ref.MustParseRideID("ride-9"),
			Status: ride.StatusAssigned,
		}},
	})

	store.Reset()
	if got := store.Availability(); got != ride.DriverOffline {
		t.Errorf("availability after reset = %q, want OFFLINE", got)
	}
	if got := len(store.Requests()); got != 0 {
		t.Errorf("inbox length after reset = %d, want 0", got)
	}
	if _, ok := store.Earnings(); ok {
		t.Error("earnings survived reset")
	}
	if store.Assigned().Snapshot().Active {
		t.Error("assigned projection survived reset")
	}

	// The seen-offer set resets with the rest: a fresh offer for a
	// previously seen ride is a new offer.
	store.Apply(offerEvent("ride-1"))
	if got := len(store.Requests()); got != 1 {
		t.Errorf("inbox length = %d after reset and re-offer, want 1", got)
	}
}

func TestWatchDeliversCoalescedSnapshots(t *testing.T) {
	store := NewStore(nil)
	updates, cancel := store.Watch()
	defer cancel()

	initial := <-updates
	if initial.Availability != ride.DriverOffline {
		t.Errorf("initial availability = %q", initial.Availability)
	}

	store.SetAvailability(ride.DriverOnline)
	store.Apply(offerEvent("ride-1"))

	latest := <-updates
	if latest.Availability != ride.DriverOnline || len(latest.Requests) != 1 {
		t.Errorf("coalesced snapshot = %+v", latest)
	}
}

// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package fleetstate

import (
	"testing"

	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

func TestRosterUpsertAndRemove(t *testing.T) {
	store := NewStore()
	driverOne := ride.Driver{ID: ref.MustParseDriverID("d-1"), Name: "Maya", Active: true}
	driverTwo := ride.Driver{ID: ref.MustParseDriverID("d-2"), Name: "Ona", Active: true}
	store.SetDrivers([]ride.Driver{driverOne, driverTwo})

	// Upsert by ID replaces in place.
	driverOne.Active = false
	store.UpsertDriver(driverOne)
	drivers := store.Drivers()
	if len(drivers) != 2 {
		t.Fatalf("roster length = %d, want 2", len(drivers))
	}
	if drivers[0].Active {
		t.Error("upsert did not replace the existing entry")
	}

	// Upsert of an unknown driver appends.
	store.UpsertDriver(ride.Driver{ID: ref.MustParseDriverID("d-3"), Name: "Pia"})
	if got := len(store.Drivers()); got != 3 {
		t.Errorf("roster length = %d after append, want 3", got)
	}

	store.RemoveDriver(ref.MustParseDriverID("d-2"))
	store.RemoveDriver(ref.MustParseDriverID("d-404"))
	drivers = store.Drivers()
	if len(drivers) != 2 {
		t.Fatalf("roster length = %d after remove, want 2", len(drivers))
	}
	for _, driver := range drivers {
		if driver.ID.String() == "d-2" {
			t.Error("removed driver still in roster")
		}
	}
}

func TestCachesAreCopies(t *testing.T) {
	store := NewStore()
	store.SetDrivers([]ride.Driver{{ID: ref.MustParseDriverID("d-1"), Name: "Maya"}})

	// Mutating a returned slice must not leak into the cache.
	drivers := store.Drivers()
	drivers[0].Name = "changed"
	if got := store.Drivers()[0].Name; got != "Maya" {
		t.Errorf("cache mutated through a returned copy: %q", got)
	}
}

func TestAnalyticsAndReset(t *testing.T) {
	store := NewStore()
	if _, ok := store.Analytics(); ok {
		t.Error("analytics present before any fetch")
	}

	store.SetAnalytics(ride.Analytics{TotalRides: 42, ActiveDrivers: 7})
	analytics, ok := store.Analytics()
	if !ok || analytics.TotalRides != 42 {
		t.Errorf("analytics = %+v, %v", analytics, ok)
	}

	store.SetRides([]ride.Ride{{ID: ref.MustParseRideID("ride-1")}})
	store.Reset()
	if got := len(store.Drivers()); got != 0 {
		t.Errorf("roster length after reset = %d", got)
	}
	if got := len(store.Rides()); got != 0 {
		t.Errorf("ride list length after reset = %d", got)
	}
	if _, ok := store.Analytics(); ok {
		t.Error("analytics survived reset")
	}
}

// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package ride

import (
	"fmt"
	"time"

	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
)

// Role is the capability role attached to an authenticated account.
type Role string

const (
	// RoleRider books and tracks rides.
	RoleRider Role = "USER"
	// RoleDriver accepts and performs rides.
	RoleDriver Role = "DRIVER"
	// RoleOwner manages a fleet of drivers.
	RoleOwner Role = "OWNER"
)

// Valid reports whether the role is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRider, RoleDriver, RoleOwner:
		return true
	}
	return false
}

// ParseRole validates a raw role string from the wire.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", fmt.Errorf("ride: unknown role %q", raw)
	}
	return role, nil
}

// DriverStatus is a driver's availability state.
type DriverStatus string

const (
	DriverOffline DriverStatus = "OFFLINE"
	DriverOnline  DriverStatus = "ONLINE"
	DriverOnRide  DriverStatus = "ON_RIDE"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a human-readable address with its coordinates.
type Location struct {
	Address     string `json:"address"`
	Coordinates LatLng `json:"coordinates"`
}

// FareEstimate is the backend's fare quote for a pickup/dropoff pair.
// All amounts are in the smallest unit of Currency. The client never
// computes fares; it only displays what the backend quotes.
type FareEstimate struct {
	BaseFare          int64  `json:"baseFare"`
	DistanceFare      int64  `json:"distanceFare"`
	TimeFare          int64  `json:"timeFare"`
	TotalFare         int64  `json:"totalFare"`
	Currency          string `json:"currency"`
	EstimatedMinutes  int    `json:"estimatedTime"`
	EstimatedDistance float64 `json:"estimatedDistance"`
}

// Ride is one trip request, as reported by the backend.
type Ride struct {
	ID           ref.RideID    `json:"id"`
	UserID       ref.UserID    `json:"userId"`
	DriverID     ref.DriverID  `json:"driverId,omitempty"`
	Driver       *Driver       `json:"driver,omitempty"`
	Pickup       Location      `json:"pickup"`
	Dropoff      Location      `json:"dropoff"`
	Status       Status        `json:"status"`
	Fare         *FareEstimate `json:"fare,omitempty"`
	FinalFare    int64         `json:"finalFare,omitempty"`
	Rating       int           `json:"rating,omitempty"`
	CancelReason string        `json:"cancelReason,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	StartedAt    *time.Time    `json:"startedAt,omitempty"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
	CancelledAt  *time.Time    `json:"cancelledAt,omitempty"`
}

// Driver is a fleet driver record, as reported by the backend.
type Driver struct {
	ID              ref.DriverID `json:"id"`
	UserID          ref.UserID   `json:"userId"`
	Name            string       `json:"name"`
	Email           string       `json:"email"`
	Phone           string       `json:"phone"`
	Status          DriverStatus `json:"status"`
	VehicleNumber   string       `json:"vehicleNumber"`
	VehicleModel    string       `json:"vehicleModel"`
	Rating          float64      `json:"rating"`
	TotalRides      int          `json:"totalRides"`
	Active          bool         `json:"isActive"`
	CurrentLocation *LatLng      `json:"currentLocation,omitempty"`
}

// Earnings is a driver's earnings summary. Amounts are in the
// smallest unit of Currency.
type Earnings struct {
	Today    int64  `json:"today"`
	Week     int64  `json:"week"`
	Month    int64  `json:"month"`
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
	Rides    int    `json:"rides"`
}

// DayCount is one day's ride count in a fleet analytics series.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DayAmount is one day's revenue in a fleet analytics series.
type DayAmount struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}

// Analytics is a fleet owner's aggregate dashboard data, computed
// entirely server-side.
type Analytics struct {
	TotalRides     int         `json:"totalRides"`
	ActiveDrivers  int         `json:"activeDrivers"`
	TotalRevenue   int64       `json:"totalRevenue"`
	CompletionRate float64     `json:"completionRate"`
	AverageRating  float64     `json:"averageRating"`
	RidesPerDay    []DayCount  `json:"ridesPerDay"`
	RevenuePerDay  []DayAmount `json:"revenuePerDay"`
}

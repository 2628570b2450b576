// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"time"

	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

// Identity is an authenticated account as reported by the backend.
type Identity struct {
	ID        ref.UserID `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Role      ride.Role  `json:"role"`
	Avatar    string     `json:"avatar,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// IdentityUpdate carries the mutable profile fields. Nil fields are
// left unchanged by the backend.
type IdentityUpdate struct {
	Name   *string `json:"name,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// SignupRequest holds the fields for account creation. The password
// travels as a string only inside the marshaled request body.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// CreateDriverRequest holds the fields for a fleet owner creating a
// driver account.
type CreateDriverRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	VehicleNumber string `json:"vehicleNumber"`
	VehicleModel  string `json:"vehicleModel"`
	Password      string `json:"password"`
}

// RideFilter restricts owner ride listings. Zero values mean "no
// restriction".
type RideFilter struct {
	Status ride.Status
	Page   int
}

// AuthResponse is the payload of successful login and signup calls.
type AuthResponse struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

// envelope is the uniform response wrapper the backend puts around
// every payload.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
}

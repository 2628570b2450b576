// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// maxIDLength bounds identifier length. Backend identifiers are UUIDs
// (36 characters); the limit is generous so that non-UUID test
// fixtures and future formats still fit.
const maxIDLength = 128

// allowedIDChars is the set of characters permitted in SwiftRide
// identifiers: a-z, A-Z, 0-9, and the symbols . _ - : all of which
// are safe in URL path segments and realtime topic names.
var allowedIDChars [256]bool

func init() {
	for c := byte('a'); c <= 'z'; c++ {
		allowedIDChars[c] = true
	}
	for c := byte('A'); c <= 'Z'; c++ {
		allowedIDChars[c] = true
	}
	for c := byte('0'); c <= '9'; c++ {
		allowedIDChars[c] = true
	}
	allowedIDChars['.'] = true
	allowedIDChars['_'] = true
	allowedIDChars['-'] = true
	allowedIDChars[':'] = true
}

// validateID enforces the shared identifier rules. kind names the
// identifier type in error messages ("ride ID", "driver ID").
func validateID(kind, raw string) error {
	if raw == "" {
		return fmt.Errorf("ref: %s is empty", kind)
	}
	if len(raw) > maxIDLength {
		return fmt.Errorf("ref: %s exceeds %d characters", kind, maxIDLength)
	}
	for index := 0; index < len(raw); index++ {
		if !allowedIDChars[raw[index]] {
			return fmt.Errorf("ref: %s %q contains invalid character %q", kind, raw, raw[index])
		}
	}
	return nil
}

// RideID identifies one ride (trip) on the backend. Used in request
// paths and as the realtime topic scope for ride-level events.
//
// RideID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type RideID struct {
	id string
}

// ParseRideID validates and wraps a raw ride identifier.
func ParseRideID(raw string) (RideID, error) {
	if err := validateID("ride ID", raw); err != nil {
		return RideID{}, err
	}
	return RideID{id: raw}, nil
}

// MustParseRideID wraps ParseRideID, panicking on invalid input.
// For test fixtures and compile-time constants only.
func MustParseRideID(raw string) RideID {
	id, err := ParseRideID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the raw identifier string.
func (r RideID) String() string { return r.id }

// IsZero reports whether the RideID is the zero value (uninitialized).
func (r RideID) IsZero() bool { return r.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (r RideID) MarshalText() ([]byte, error) {
	return []byte(r.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Validates the
// identifier format. An empty input produces the zero value (unset).
func (r *RideID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*r = RideID{}
		return nil
	}
	parsed, err := ParseRideID(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// DriverID identifies one driver record owned by a fleet.
//
// DriverID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type DriverID struct {
	id string
}

// ParseDriverID validates and wraps a raw driver identifier.
func ParseDriverID(raw string) (DriverID, error) {
	if err := validateID("driver ID", raw); err != nil {
		return DriverID{}, err
	}
	return DriverID{id: raw}, nil
}

// MustParseDriverID wraps ParseDriverID, panicking on invalid input.
func MustParseDriverID(raw string) DriverID {
	id, err := ParseDriverID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the raw identifier string.
func (d DriverID) String() string { return d.id }

// IsZero reports whether the DriverID is the zero value.
func (d DriverID) IsZero() bool { return d.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (d DriverID) MarshalText() ([]byte, error) {
	return []byte(d.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DriverID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = DriverID{}
		return nil
	}
	parsed, err := ParseDriverID(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UserID identifies one authenticated account (rider, driver, or
// fleet owner).
//
// UserID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type UserID struct {
	id string
}

// ParseUserID validates and wraps a raw user identifier.
func ParseUserID(raw string) (UserID, error) {
	if err := validateID("user ID", raw); err != nil {
		return UserID{}, err
	}
	return UserID{id: raw}, nil
}

// MustParseUserID wraps ParseUserID, panicking on invalid input.
func MustParseUserID(raw string) UserID {
	id, err := ParseUserID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the raw identifier string.
func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is the zero value.
func (u UserID) IsZero() bool { return u.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (u UserID) MarshalText() ([]byte, error) {
	return []byte(u.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *UserID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*u = UserID{}
		return nil
	}
	parsed, err := ParseUserID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/lib/secret"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

// Session is an authenticated backend session. It wraps a Client with
// the bearer credential for authenticated calls. Sessions are
// lightweight — a pointer to the parent Client plus the credential in
// mmap-backed memory. The caller must Close the Session to release
// the protected memory.
type Session struct {
	client *Client
	token  *secret.Buffer

	// identityMu guards identity: UpdateProfile rewrites it while
	// other goroutines (the session store, views) read it.
	identityMu sync.Mutex
	identity   Identity

	// authRejectOnce guards the OnAuthReject hook so a burst of
	// concurrent 401s (several in-flight calls against an expired
	// credential) runs the logout path only once.
	authRejectOnce sync.Once
	authRejectHook func()
	hookMu         sync.Mutex
}

// Identity returns the account this session authenticates.
func (s *Session) Identity() Identity {
	s.identityMu.Lock()
	defer s.identityMu.Unlock()
	return s.identity
}

// Token returns the bearer credential as a heap string. This creates
// a brief unprotected copy — use only at boundaries that require a
// string, such as authenticating the realtime channel.
func (s *Session) Token() string {
	return s.token.String()
}

// OnAuthReject registers a hook fired the first time any call on this
// session is rejected with HTTP 401. The session store registers its
// logout path here. Passing nil clears the hook.
func (s *Session) OnAuthReject(hook func()) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.authRejectHook = hook
}

// CloseIdleConnections drops pooled HTTP connections in the shared
// transport. Call after a network disruption.
func (s *Session) CloseIdleConnections() {
	s.client.CloseIdleConnections()
}

// Close releases the credential memory (zeros, unlocks, unmaps).
// Idempotent.
func (s *Session) Close() error {
	if s.token != nil {
		return s.token.Close()
	}
	return nil
}

// do wraps Client.doRequest with 401 detection. Every authenticated
// endpoint goes through here.
func (s *Session) do(ctx context.Context, method, path string, requestBody any, query ...url.Values) ([]byte, error) {
	body, err := s.client.doRequest(ctx, method, path, s.token, requestBody, query...)
	if err != nil && IsAuthRejected(err) {
		s.hookMu.Lock()
		hook := s.authRejectHook
		s.hookMu.Unlock()
		if hook != nil {
			s.authRejectOnce.Do(func() {
				s.client.logger.Warn("credential rejected by backend, running auth-reject hook",
					"user_id", s.Identity().ID,
				)
				hook()
			})
		}
	}
	return body, err
}

// GetProfile fetches the current account's profile.
func (s *Session) GetProfile(ctx context.Context) (*Identity, error) {
	body, err := s.do(ctx, http.MethodGet, "/auth/profile", nil)
	if err != nil {
		return nil, fmt.Errorf("api: get profile failed: %w", err)
	}
	var identity Identity
	if err := decodeData(body, &identity); err != nil {
		return nil, fmt.Errorf("api: failed to parse profile response: %w", err)
	}
	return &identity, nil
}

// UpdateProfile merges the given fields into the account profile and
// returns the updated identity.
func (s *Session) UpdateProfile(ctx context.Context, update IdentityUpdate) (*Identity, error) {
	body, err := s.do(ctx, http.MethodPut, "/auth/profile", update)
	if err != nil {
		return nil, fmt.Errorf("api: update profile failed: %w", err)
	}
	var identity Identity
	if err := decodeData(body, &identity); err != nil {
		return nil, fmt.Errorf("api: failed to parse profile response: %w", err)
	}
	s.identityMu.Lock()
	s.identity = identity
	s.identityMu.Unlock()
	return &identity, nil
}

// EstimateFare asks the backend for a fare quote between two points.
func (s *Session) EstimateFare(ctx context.Context, pickup, dropoff ride.LatLng) (*ride.FareEstimate, error) {
	request := map[string]ride.LatLng{"pickup": pickup, "dropoff": dropoff}
	body, err := s.do(ctx, http.MethodPost, "/rides/estimate", request)
	if err != nil {
		return nil, fmt.Errorf("api: estimate fare failed: %w", err)
	}
	var estimate ride.FareEstimate
	if err := decodeData(body, &estimate); err != nil {
		return nil, fmt.Errorf("api: failed to parse estimate response: %w", err)
	}
	return &estimate, nil
}

// CreateRide books a new ride.
func (s *Session) CreateRide(ctx context.Context, pickup, dropoff ride.Location) (*ride.Ride, error) {
	request := map[string]ride.Location{"pickup": pickup, "dropoff": dropoff}
	body, err := s.do(ctx, http.MethodPost, "/rides", request)
	if err != nil {
		return nil, fmt.Errorf("api: create ride failed: %w", err)
	}
	booked, err := decodeRide(body)
	if err != nil {
		return nil, err
	}
	s.client.logger.Info("booked ride",
		"ride_id", booked.ID,
		"status", booked.Status,
	)
	return booked, nil
}

// GetRide fetches one ride by ID.
func (s *Session) GetRide(ctx context.Context, id ref.RideID) (*ride.Ride, error) {
	body, err := s.do(ctx, http.MethodGet, "/rides/"+url.PathEscape(id.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("api: get ride %s failed: %w", id, err)
	}
	return decodeRide(body)
}

// CancelRide cancels a ride. reason may be empty.
func (s *Session) CancelRide(ctx context.Context, id ref.RideID, reason string) (*ride.Ride, error) {
	request := map[string]string{"reason": reason}
	body, err := s.do(ctx, http.MethodPost, "/rides/"+url.PathEscape(id.String())+"/cancel", request)
	if err != nil {
		return nil, fmt.Errorf("api: cancel ride %s failed: %w", id, err)
	}
	return decodeRide(body)
}

// RateRide submits a 1-5 rating for a completed ride.
func (s *Session) RateRide(ctx context.Context, id ref.RideID, rating int) (*ride.Ride, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("api: rating must be between 1 and 5, got %d", rating)
	}
	request := map[string]int{"rating": rating}
	body, err := s.do(ctx, http.MethodPost, "/rides/"+url.PathEscape(id.String())+"/rate", request)
	if err != nil {
		return nil, fmt.Errorf("api: rate ride %s failed: %w", id, err)
	}
	return decodeRide(body)
}

// RideHistory fetches the rider's paginated ride history. page <= 0
// means the first page.
func (s *Session) RideHistory(ctx context.Context, page int) ([]ride.Ride, error) {
	body, err := s.do(ctx, http.MethodGet, "/rides/history", nil, pageQuery(page))
	if err != nil {
		return nil, fmt.Errorf("api: ride history failed: %w", err)
	}
	return decodeRides(body)
}

// SetDriverStatus sets the driver's availability to ONLINE or
// OFFLINE. ON_RIDE is backend-managed and rejected here.
func (s *Session) SetDriverStatus(ctx context.Context, status ride.DriverStatus) error {
	if status != ride.DriverOnline && status != ride.DriverOffline {
		return fmt.Errorf("api: driver status must be ONLINE or OFFLINE, got %s", status)
	}
	request := map[string]ride.DriverStatus{"status": status}
	if _, err := s.do(ctx, http.MethodPut, "/driver/status", request); err != nil {
		return fmt.Errorf("api: set driver status failed: %w", err)
	}
	return nil
}

// AssignedRide fetches the driver's currently assigned ride. Returns
// nil without error when no ride is assigned.
func (s *Session) AssignedRide(ctx context.Context) (*ride.Ride, error) {
	body, err := s.do(ctx, http.MethodGet, "/driver/current-ride", nil)
	if err != nil {
		if IsAPIError(err, ErrCodeNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("api: get assigned ride failed: %w", err)
	}
	var assigned *ride.Ride
	if err := decodeData(body, &assigned); err != nil {
		return nil, fmt.Errorf("api: failed to parse assigned ride response: %w", err)
	}
	return assigned, nil
}

// AcceptRide accepts a pending ride offer.
func (s *Session) AcceptRide(ctx context.Context, id ref.RideID) (*ride.Ride, error) {
	body, err := s.do(ctx, http.MethodPost, "/driver/rides/"+url.PathEscape(id.String())+"/accept", nil)
	if err != nil {
		return nil, fmt.Errorf("api: accept ride %s failed: %w", id, err)
	}
	return decodeRide(body)
}

// StartRide marks an assigned ride as started.
func (s *Session) StartRide(ctx context.Context, id ref.RideID) (*ride.Ride, error) {
	body, err := s.do(ctx, http.MethodPost, "/driver/rides/"+url.PathEscape(id.String())+"/start", nil)
	if err != nil {
		return nil, fmt.Errorf("api: start ride %s failed: %w", id, err)
	}
	return decodeRide(body)
}

// CompleteRide marks a started ride as completed.
func (s *Session) CompleteRide(ctx context.Context, id ref.RideID) (*ride.Ride, error) {
	body, err := s.do(ctx, http.MethodPost, "/driver/rides/"+url.PathEscape(id.String())+"/complete", nil)
	if err != nil {
		return nil, fmt.Errorf("api: complete ride %s failed: %w", id, err)
	}
	return decodeRide(body)
}

// UpdateLocation reports the driver's current position over REST.
// Routine pings go over the realtime channel; this endpoint is the
// fallback the backend uses to seed a driver's position on
// assignment.
func (s *Session) UpdateLocation(ctx context.Context, position ride.LatLng) error {
	if _, err := s.do(ctx, http.MethodPut, "/driver/location", position); err != nil {
		return fmt.Errorf("api: update location failed: %w", err)
	}
	return nil
}

// Earnings fetches the driver's earnings summary.
func (s *Session) Earnings(ctx context.Context) (*ride.Earnings, error) {
	body, err := s.do(ctx, http.MethodGet, "/driver/earnings", nil)
	if err != nil {
		return nil, fmt.Errorf("api: get earnings failed: %w", err)
	}
	var earnings ride.Earnings
	if err := decodeData(body, &earnings); err != nil {
		return nil, fmt.Errorf("api: failed to parse earnings response: %w", err)
	}
	return &earnings, nil
}

// DriverRideHistory fetches the driver's paginated ride history.
func (s *Session) DriverRideHistory(ctx context.Context, page int) ([]ride.Ride, error) {
	body, err := s.do(ctx, http.MethodGet, "/driver/rides", nil, pageQuery(page))
	if err != nil {
		return nil, fmt.Errorf("api: driver ride history failed: %w", err)
	}
	return decodeRides(body)
}

// CreateDriver creates a driver account in the owner's fleet.
func (s *Session) CreateDriver(ctx context.Context, request CreateDriverRequest) (*ride.Driver, error) {
	body, err := s.do(ctx, http.MethodPost, "/owner/drivers", request)
	if err != nil {
		return nil, fmt.Errorf("api: create driver failed: %w", err)
	}
	var driver ride.Driver
	if err := decodeData(body, &driver); err != nil {
		return nil, fmt.Errorf("api: failed to parse driver response: %w", err)
	}
	s.client.logger.Info("created driver",
		"driver_id", driver.ID,
		"vehicle", driver.VehicleNumber,
	)
	return &driver, nil
}

// ListDrivers fetches the owner's full driver roster.
func (s *Session) ListDrivers(ctx context.Context) ([]ride.Driver, error) {
	body, err := s.do(ctx, http.MethodGet, "/owner/drivers", nil)
	if err != nil {
		return nil, fmt.Errorf("api: list drivers failed: %w", err)
	}
	var drivers []ride.Driver
	if err := decodeData(body, &drivers); err != nil {
		return nil, fmt.Errorf("api: failed to parse drivers response: %w", err)
	}
	return drivers, nil
}

// ToggleDriverActive flips a driver's active flag and returns the
// updated record.
func (s *Session) ToggleDriverActive(ctx context.Context, id ref.DriverID) (*ride.Driver, error) {
	body, err := s.do(ctx, http.MethodPut, "/owner/drivers/"+url.PathEscape(id.String())+"/toggle", nil)
	if err != nil {
		return nil, fmt.Errorf("api: toggle driver %s failed: %w", id, err)
	}
	var driver ride.Driver
	if err := decodeData(body, &driver); err != nil {
		return nil, fmt.Errorf("api: failed to parse driver response: %w", err)
	}
	return &driver, nil
}

// DeleteDriver removes a driver from the fleet.
func (s *Session) DeleteDriver(ctx context.Context, id ref.DriverID) error {
	if _, err := s.do(ctx, http.MethodDelete, "/owner/drivers/"+url.PathEscape(id.String()), nil); err != nil {
		return fmt.Errorf("api: delete driver %s failed: %w", id, err)
	}
	return nil
}

// ListRides fetches the owner's ride listing, optionally filtered by
// status and paginated.
func (s *Session) ListRides(ctx context.Context, filter RideFilter) ([]ride.Ride, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	body, err := s.do(ctx, http.MethodGet, "/owner/rides", nil, query)
	if err != nil {
		return nil, fmt.Errorf("api: list rides failed: %w", err)
	}
	return decodeRides(body)
}

// Analytics fetches the fleet's aggregate dashboard data.
func (s *Session) Analytics(ctx context.Context) (*ride.Analytics, error) {
	body, err := s.do(ctx, http.MethodGet, "/owner/analytics", nil)
	if err != nil {
		return nil, fmt.Errorf("api: get analytics failed: %w", err)
	}
	var analytics ride.Analytics
	if err := decodeData(body, &analytics); err != nil {
		return nil, fmt.Errorf("api: failed to parse analytics response: %w", err)
	}
	return &analytics, nil
}

func decodeRide(body []byte) (*ride.Ride, error) {
	var decoded ride.Ride
	if err := decodeData(body, &decoded); err != nil {
		return nil, fmt.Errorf("api: failed to parse ride response: %w", err)
	}
	return &decoded, nil
}

func decodeRides(body []byte) ([]ride.Ride, error) {
	var decoded []ride.Ride
	if err := decodeData(body, &decoded); err != nil {
		return nil, fmt.Errorf("api: failed to parse rides response: %w", err)
	}
	return decoded, nil
}

func pageQuery(page int) url.Values {
	if page <= 0 {
		return nil
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	return query
}

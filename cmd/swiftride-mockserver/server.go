// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkthecoder12/swiftride-fleet/api"
	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

// account is one seeded or signed-up user with its plaintext
// password. The mock stores passwords in the clear; it never sees
// real credentials.
type account struct {
	identity api.Identity
	password string
}

type mockServer struct {
	logger   *slog.Logger
	interval time.Duration
	hub      *hub

	mu       sync.Mutex
	accounts map[string]*account   // keyed by email
	tokens   map[string]string     // bearer token -> email
	rides    map[ref.RideID]*ride.Ride
	order    []ref.RideID // creation order, for listings
	drivers  map[ref.DriverID]*ride.Driver
	seeded   ref.DriverID // the driver the script assigns rides to
}

func newMockServer(logger *slog.Logger, interval time.Duration) *mockServer {
	s := &mockServer{
		logger:   logger,
		interval: interval,
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		rides:    make(map[ref.RideID]*ride.Ride),
		drivers:  make(map[ref.DriverID]*ride.Driver),
	}
	s.hub = newHub(logger, s)
	s.seed()
	return s
}

// seed creates the three development accounts and one fleet driver
// record backing the driver account.
func (s *mockServer) seed() {
	now := time.Now().UTC()
	for _, fixture := range []struct {
		email string
		name  string
		role  ride.Role
	}{
		{"rider@swiftride.dev", "Riley Rider", ride.RoleRider},
		{"driver@swiftride.dev", "Dana Driver", ride.RoleDriver},
		{"owner@swiftride.dev", "Omar Owner", ride.RoleOwner},
	} {
		s.accounts[fixture.email] = &account{
			identity: api.Identity{
				ID:        ref.MustParseUserID(uuid.NewString()),
				Name:      fixture.name,
				Email:     fixture.email,
				Phone:     "+15550100",
				Role:      fixture.role,
				CreatedAt: now,
			},
			password: "password",
		}
	}

	driverID := ref.MustParseDriverID(uuid.NewString())
	s.drivers[driverID] = &ride.Driver{
		ID:            driverID,
		UserID:        s.accounts["driver@swiftride.dev"].identity.ID,
		Name:          "Dana Driver",
		Email:         "driver@swiftride.dev",
		Phone:         "+15550100",
		Status:        ride.DriverOnline,
		VehicleNumber: "SR-0001",
		VehicleModel:  "Toyota Prius",
		Rating:        4.9,
		TotalRides:    412,
		Active:        true,
	}
	s.seeded = driverID
}

func (s *mockServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/profile", s.withAuth(s.handleProfile))
	mux.HandleFunc("PUT /api/auth/profile", s.withAuth(s.handleUpdateProfile))

	mux.HandleFunc("POST /api/rides/estimate", s.withAuth(s.handleEstimate))
	mux.HandleFunc("POST /api/rides", s.withAuth(s.handleCreateRide))
	mux.HandleFunc("GET /api/rides/history", s.withAuth(s.handleRideHistory))
	mux.HandleFunc("GET /api/rides/{id}", s.withAuth(s.handleGetRide))
	mux.HandleFunc("POST /api/rides/{id}/cancel", s.withAuth(s.handleCancelRide))
	mux.HandleFunc("POST /api/rides/{id}/rate", s.withAuth(s.handleRateRide))

	mux.HandleFunc("PUT /api/driver/status", s.withAuth(s.handleDriverStatus))
	mux.HandleFunc("GET /api/driver/current-ride", s.withAuth(s.handleCurrentRide))
	mux.HandleFunc("POST /api/driver/rides/{id}/accept", s.withAuth(s.handleAcceptRide))
	mux.HandleFunc("POST /api/driver/rides/{id}/start", s.withAuth(s.handleStartRide))
	mux.HandleFunc("POST /api/driver/rides/{id}/complete", s.withAuth(s.handleCompleteRide))
	mux.HandleFunc("PUT /api/driver/location", s.withAuth(s.handleDriverLocation))
	mux.HandleFunc("GET /api/driver/earnings", s.withAuth(s.handleEarnings))
	mux.HandleFunc("GET /api/driver/rides", s.withAuth(s.handleDriverRides))

	mux.HandleFunc("POST /api/owner/drivers", s.withAuth(s.handleCreateDriver))
	mux.HandleFunc("GET /api/owner/drivers", s.withAuth(s.handleListDrivers))
	mux.HandleFunc("PUT /api/owner/drivers/{id}/toggle", s.withAuth(s.handleToggleDriver))
	mux.HandleFunc("DELETE /api/owner/drivers/{id}", s.withAuth(s.handleDeleteDriver))
	mux.HandleFunc("GET /api/owner/rides", s.withAuth(s.handleListRides))
	mux.HandleFunc("GET /api/owner/analytics", s.withAuth(s.handleAnalytics))

	mux.HandleFunc("GET /ws", s.hub.serveWS)

	return mux
}

// writeData wraps v in the backend envelope and writes it.
func writeData(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    v,
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"code":    code,
		"message": message,
	})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		return false
	}
	return true
}

// withAuth resolves the bearer token to an account and passes it to
// the handler. The account is read under the lock and copied; the
// handler re-locks for any mutation.
func (s *mockServer) withAuth(handler func(http.ResponseWriter, *http.Request, *account)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}
		s.mu.Lock()
		email, ok := s.tokens[token]
		user := s.accounts[email]
		s.mu.Unlock()
		if !ok || user == nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			return
		}
		handler(w, r, user)
	}
}

func (s *mockServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var request api.SignupRequest
	if !readJSON(w, r, &request) {
		return
	}
	if request.Email == "" || request.Password == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "email and password are required")
		return
	}
	s.mu.Lock()
	if _, exists := s.accounts[request.Email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "CONFLICT", "email already registered")
		return
	}
	user := &account{
		identity: api.Identity{
			ID:        ref.MustParseUserID(uuid.NewString()),
			Name:      request.Name,
			Email:     request.Email,
			Phone:     request.Phone,
			Role:      ride.RoleRider,
			CreatedAt: time.Now().UTC(),
		},
		password: request.Password,
	}
	s.accounts[request.Email] = user
	token := uuid.NewString()
	s.tokens[token] = request.Email
	s.mu.Unlock()

	s.logger.Info("account created", "email", request.Email)
	writeData(w, api.AuthResponse{Token: token, User: user.identity})
}

func (s *mockServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &request) {
		return
	}
	s.mu.Lock()
	user := s.accounts[request.Email]
	if user == nil || user.password != request.Password {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
		return
	}
	token := uuid.NewString()
	s.tokens[token] = request.Email
	identity := user.identity
	s.mu.Unlock()

	s.logger.Info("login", "email", request.Email, "role", identity.Role)
	writeData(w, api.AuthResponse{Token: token, User: identity})
}

func (s *mockServer) handleProfile(w http.ResponseWriter, r *http.Request, user *account) {
	s.mu.Lock()
	identity := user.identity
	s.mu.Unlock()
	writeData(w, identity)
}

func (s *mockServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request, user *account) {
	var update api.IdentityUpdate
	if !readJSON(w, r, &update) {
		return
	}
	s.mu.Lock()
	if update.Name != nil {
		user.identity.Name = *update.Name
	}
	if update.Phone != nil {
		user.identity.Phone = *update.Phone
	}
	if update.Avatar != nil {
		user.identity.Avatar = *update.Avatar
	}
	identity := user.identity
	s.mu.Unlock()
	writeData(w, identity)
}

// fakeFare quotes a fare from straight-line distance: 1.50 base,
// 1.20/km, 0.40/min at an assumed 30 km/h. Amounts in cents.
func fakeFare(pickup, dropoff ride.LatLng) ride.FareEstimate {
	const kmPerDegree = 111.0
	dLat := (dropoff.Lat - pickup.Lat) * kmPerDegree
	dLng := (dropoff.Lng - pickup.Lng) * kmPerDegree * math.Cos(pickup.Lat*math.Pi/180)
	distance := math.Sqrt(dLat*dLat + dLng*dLng)
	minutes := int(math.Ceil(distance * 2)) // 30 km/h
	if minutes < 1 {
		minutes = 1
	}
	fare := ride.FareEstimate{
		BaseFare:          150,
		DistanceFare:      int64(distance * 120),
		TimeFare:          int64(minutes) * 40,
		Currency:          "USD",
		EstimatedMinutes:  minutes,
		EstimatedDistance: math.Round(distance*10) / 10,
	}
	fare.TotalFare = fare.BaseFare + fare.DistanceFare + fare.TimeFare
	return fare
}

func (s *mockServer) handleEstimate(w http.ResponseWriter, r *http.Request, user *account) {
	var request struct {
		Pickup  ride.LatLng `json:"pickup"`
		Dropoff ride.LatLng `json:"dropoff"`
	}
	if !readJSON(w, r, &request) {
		return
	}
	writeData(w, fakeFare(request.Pickup, request.Dropoff))
}

func (s *mockServer) handleCreateRide(w http.ResponseWriter, r *http.Request, user *account) {
	var request struct {
		Pickup  ride.Location `json:"pickup"`
		Dropoff ride.Location `json:"dropoff"`
	}
	if !readJSON(w, r, &request) {
		return
	}
	fare := fakeFare(request.Pickup.Coordinates, request.Dropoff.Coordinates)
	booked := &ride.Ride{
		ID:        ref.MustParseRideID(uuid.NewString()),
		UserID:    user.identity.ID,
		Pickup:    request.Pickup,
		Dropoff:   request.Dropoff,
		Status:    ride.StatusPending,
		Fare:      &fare,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.rides[booked.ID] = booked
	s.order = append(s.order, booked.ID)
	snapshot := *booked
	s.mu.Unlock()

	s.logger.Info("ride booked", "ride_id", booked.ID, "rider", user.identity.Email)
	s.hub.offerRide(snapshot)
	go s.runScript(booked.ID)
	writeData(w, snapshot)
}

// rideFromPath resolves the {id} path segment to a stored ride,
// writing the error response itself on failure.
func (s *mockServer) rideFromPath(w http.ResponseWriter, r *http.Request) (*ride.Ride, bool) {
	id, err := ref.ParseRideID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid ride ID")
		return nil, false
	}
	s.mu.Lock()
	current := s.rides[id]
	s.mu.Unlock()
	if current == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "ride not found")
		return nil, false
	}
	return current, true
}

func (s *mockServer) handleGetRide(w http.ResponseWriter, r *http.Request, user *account) {
	current, ok := s.rideFromPath(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	snapshot := *current
	s.mu.Unlock()
	writeData(w, snapshot)
}

func (s *mockServer) handleCancelRide(w http.ResponseWriter, r *http.Request, user *account) {
	current, ok := s.rideFromPath(w, r)
	if !ok {
		return
	}
	var request struct {
		Reason string `json:"reason"`
	}
	if !readJSON(w, r, &request) {
		return
	}
	s.mu.Lock()
	if !current.Status.CanAdvanceTo(ride.StatusCancelled) {
		status := current.Status
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "CONFLICT", "ride is already "+string(status))
		return
	}
	now := time.Now().UTC()
	current.Status = ride.StatusCancelled
	current.CancelReason = request.Reason
	current.CancelledAt = &now
	snapshot := *current
	s.mu.Unlock()

	s.logger.Info("ride cancelled", "ride_id", snapshot.ID, "reason", request.Reason)
	s.hub.broadcastStatus(snapshot.ID, ride.StatusCancelled)
	writeData(w, snapshot)
}

func (s *mockServer) handleRateRide(w http.ResponseWriter, r *http.Request, user *account) {
	current, ok := s.rideFromPath(w, r)
	if !ok {
		return
	}
	var request struct {
		Rating int `json:"rating"`
	}
	if !readJSON(w, r, &request) {
		return
	}
	s.mu.Lock()
	if current.Status != ride.StatusCompleted {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "CONFLICT", "only completed rides can be rated")
		return
	}
	current.Rating = request.Rating
	snapshot := *current
	s.mu.Unlock()
	writeData(w, snapshot)
}

// ridesForUser returns the user's rides in reverse creation order.
// Riders match on UserID, drivers on DriverID via the seeded record.
func (s *mockServer) ridesForUser(user *account) []ride.Ride {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rides []ride.Ride
	for i := len(s.order) - 1; i >= 0; i-- {
		current := s.rides[s.order[i]]
		switch user.identity.Role {
		case ride.RoleDriver:
			if current.Driver != nil && current.Driver.UserID == user.identity.ID {
				rides = append(rides, *current)
			}
		default:
			if current.UserID == user.identity.ID {
				rides = append(rides, *current)
			}
		}
	}
	return rides
}

func (s *mockServer) handleRideHistory(w http.ResponseWriter, r *http.Request, user *account) {
	writeData(w, s.ridesForUser(user))
}

func (s *mockServer) handleDriverStatus(w http.ResponseWriter, r *http.Request, user *account) {
	var request struct {
		Status ride.DriverStatus `json:"status"`
	}
	if !readJSON(w, r, &request) {
		return
	}
	s.mu.Lock()
	for _, driver := range s.drivers {
		if driver.UserID == user.identity.ID {
			driver.Status = request.Status
		}
	}
	s.mu.Unlock()
	s.logger.Info("driver status", "email", user.identity.Email, "status", request.Status)
	writeData(w, map[string]ride.DriverStatus{"status": request.Status})
}

func (s *mockServer) handleCurrentRide(w http.ResponseWriter, r *http.Request, user *account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.order) - 1; i >= 0; i-- {
		current := s.rides[s.order[i]]
		if current.Driver == nil || current.Driver.UserID != user.identity.ID {
			continue
		}
		if current.Status == ride.StatusCompleted || current.Status == ride.StatusCancelled {
			continue
		}
		writeData(w, *current)
		return
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "no assigned ride")
}

// driverTransition is the shared shape of accept/start/complete.
func (s *mockServer) driverTransition(w http.ResponseWriter, r *http.Request, user *account, target ride.Status) {
	current, ok := s.rideFromPath(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	if !current.Status.CanAdvanceTo(target) {
		status := current.Status
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "CONFLICT",
			"cannot move "+string(status)+" ride to "+string(target))
		return
	}
	now := time.Now().UTC()
	current.Status = target
	switch target {
	case ride.StatusAssigned:
		driver := s.drivers[s.seeded]
		for _, candidate := range s.drivers {
			if candidate.UserID == user.identity.ID {
				driver = candidate
			}
		}
		if driver != nil {
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

	s.logger.Info("ride transition", "ride_id", snapshot.ID, "status", target)
	if target == ride.StatusAssigned {
		s.hub.broadcastAssignment(snapshot)
	} else {
		s.hub.broadcastStatus(snapshot.ID, target)
	}
	writeData(w, snapshot)
}

func (s *mockServer) handleAcceptRide(w http.ResponseWriter, r *http.Request, user *account) {
	s.driverTransition(w, r, user, ride.StatusAssigned)
}

func (s *mockServer) handleStartRide(w http.ResponseWriter, r *http.Request, user *account) {
	s.driverTransition(w, r, user, ride.StatusStarted)
}

func (s *mockServer) handleCompleteRide(w http.ResponseWriter, r *http.Request, user *account) {
	s.driverTransition(w, r, user, ride.StatusCompleted)
}

func (s *mockServer) handleDriverLocation(w http.ResponseWriter, r *http.Request, user *account) {
	var position ride.LatLng
	if !readJSON(w, r, &position) {
		return
	}
	s.mu.Lock()
	for _, driver := range s.drivers {
		if driver.UserID == user.identity.ID {
			copied := position
			driver.CurrentLocation = &copied
		}
	}
	s.mu.Unlock()
	s.hub.broadcastDriverPosition(user.identity.ID, position)
	writeData(w, map[string]bool{"updated": true})
}

func (s *mockServer) handleEarnings(w http.ResponseWriter, r *http.Request, user *account) {
	rides := s.ridesForUser(user)
	earnings := ride.Earnings{Currency: "USD"}
	now := time.Now().UTC()
	for _, completed := range rides {
		if completed.Status != ride.StatusCompleted {
			continue
		}
		earnings.Total += completed.FinalFare
		earnings.Rides++
		if completed.CompletedAt == nil {
			continue
		}
		age := now.Sub(*completed.CompletedAt)
		if age < 24*time.Hour {
			earnings.Today += completed.FinalFare
		}
		if age < 7*24*time.Hour {
			earnings.Week += completed.FinalFare
		}
		if age < 30*24*time.Hour {
			earnings.Month += completed.FinalFare
		}
	}
	writeData(w, earnings)
}

func (s *mockServer) handleDriverRides(w http.ResponseWriter, r *http.Request, user *account) {
	writeData(w, s.ridesForUser(user))
}

func (s *mockServer) handleCreateDriver(w http.ResponseWriter, r *http.Request, user *account) {
	var request api.CreateDriverRequest
	if !readJSON(w, r, &request) {
		return
	}
	if request.Email == "" || request.Name == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "name and email are required")
		return
	}
	now := time.Now().UTC()
	driver := &ride.Driver{
		ID:            ref.MustParseDriverID(uuid.NewString()),
		UserID:        ref.MustParseUserID(uuid.NewString()),
		Name:          request.Name,
		Email:         request.Email,
		Phone:         request.Phone,
		Status:        ride.DriverOffline,
		VehicleNumber: request.VehicleNumber,
		VehicleModel:  request.VehicleModel,
		Active:        true,
	}
	s.mu.Lock()
	s.drivers[driver.ID] = driver
	s.accounts[request.Email] = &account{
		identity: api.Identity{
			ID:        driver.UserID,
			Name:      request.Name,
			Email:     request.Email,
			Phone:     request.Phone,
			Role:      ride.RoleDriver,
			CreatedAt: now,
		},
		password: request.Password,
	}
	snapshot := *driver
	s.mu.Unlock()

	s.logger.Info("driver registered", "driver_id", snapshot.ID, "email", request.Email)
	writeData(w, snapshot)
}

func (s *mockServer) handleListDrivers(w http.ResponseWriter, r *http.Request, user *account) {
	s.mu.Lock()
	drivers := make([]ride.Driver, 0, len(s.drivers))
	for _, driver := range s.drivers {
		drivers = append(drivers, *driver)
	}
	s.mu.Unlock()
	sort.Slice(drivers, func(i, j int) bool { return drivers[i].Name < drivers[j].Name })
	writeData(w, drivers)
}

// driverFromPath resolves the {id} path segment to a stored driver.
func (s *mockServer) driverFromPath(w http.ResponseWriter, r *http.Request) (ref.DriverID, *ride.Driver, bool) {
	id, err := ref.ParseDriverID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid driver ID")
		return ref.DriverID{}, nil, false
	}
	s.mu.Lock()
	driver := s.drivers[id]
	s.mu.Unlock()
	if driver == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "driver not found")
		return ref.DriverID{}, nil, false
	}
	return id, driver, true
}

func (s *mockServer) handleToggleDriver(w http.ResponseWriter, r *http.Request, user *account) {
	_, driver, ok := s.driverFromPath(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	driver.Active = !driver.Active
	snapshot := *driver
	s.mu.Unlock()
	writeData(w, snapshot)
}

func (s *mockServer) handleDeleteDriver(w http.ResponseWriter, r *http.Request, user *account) {
	id, _, ok := s.driverFromPath(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.drivers, id)
	s.mu.Unlock()
	writeData(w, map[string]bool{"deleted": true})
}

func (s *mockServer) handleListRides(w http.ResponseWriter, r *http.Request, user *account) {
	filter := r.URL.Query().Get("status")
	s.mu.Lock()
	rides := make([]ride.Ride, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		current := s.rides[s.order[i]]
		if filter != "" && string(current.Status) != filter {
			continue
		}
		rides = append(rides, *current)
	}
	s.mu.Unlock()
	writeData(w, rides)
}

func (s *mockServer) handleAnalytics(w http.ResponseWriter, r *http.Request, user *account) {
	s.mu.Lock()
	analytics := ride.Analytics{}
	completed := 0
	ratings := 0
	ratingSum := 0
	for _, current := range s.rides {
		analytics.TotalRides++
		if current.Status == ride.StatusCompleted {
			completed++
			analytics.TotalRevenue += current.FinalFare
		}
		if current.Rating > 0 {
			ratings++
			ratingSum += current.Rating
		}
	}
	for _, driver := range s.drivers {
		if driver.Active && driver.Status != ride.DriverOffline {
			analytics.ActiveDrivers++
		}
	}
	s.mu.Unlock()
	if analytics.TotalRides > 0 {
		analytics.CompletionRate = float64(completed) / float64(analytics.TotalRides)
	}
	if ratings > 0 {
		analytics.AverageRating = float64(ratingSum) / float64(ratings)
	}
	writeData(w, analytics)
}

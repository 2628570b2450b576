// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/realtime"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

// hub tracks websocket clients and the ride rooms they have joined.
// Ride-scoped events go to room members; new-ride-request goes to
// every connected client (the mock does not model driver matching).
type hub struct {
	logger *slog.Logger
	server *mockServer

	mu      sync.Mutex
	clients map[*wsClient]bool
	rooms   map[ref.RideID]map[*wsClient]bool
}

func newHub(logger *slog.Logger, server *mockServer) *hub {
	return &hub{
		logger:  logger,
		server:  server,
		clients: make(map[*wsClient]bool),
		rooms:   make(map[ref.RideID]map[*wsClient]bool),
	}
}

// wsClient is one websocket connection. The send channel decouples
// broadcasts from the peer's read speed; a client that falls more
// than sendBuffer messages behind is dropped.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

const sendBuffer = 64

var upgrader = websocket.Upgrader{
	// Local development tool: any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	h.logger.Info("realtime client connected", "remote", conn.RemoteAddr())

	go h.writeLoop(client)
	h.readLoop(client)
}

func (h *hub) writeLoop(client *wsClient) {
	for data := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (h *hub) readLoop(client *wsClient) {
	defer h.drop(client)
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var envelope realtime.Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			h.logger.Debug("dropping malformed client message", "error", err)
			continue
		}
		switch envelope.Type {
		case realtime.MessageJoinRideRoom, realtime.MessageLeaveRideRoom:
			var room struct {
				RideID ref.RideID `json:"rideId"`
			}
			if err := json.Unmarshal(envelope.Payload, &room); err != nil || room.RideID.IsZero() {
				continue
			}
			h.setMembership(client, room.RideID, envelope.Type == realtime.MessageJoinRideRoom)
		case realtime.MessageDriverLocation:
			var position ride.LatLng
			if err := json.Unmarshal(envelope.Payload, &position); err != nil {
				continue
			}
			// The mock cannot tell which driver sent the ping, so it
			// forwards the position to every room the sender joined.
			h.forwardPosition(client, position)
		default:
			h.logger.Debug("ignoring unknown client message", "type", envelope.Type)
		}
	}
}

func (h *hub) setMembership(client *wsClient, rideID ref.RideID, join bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[rideID]
	if join {
		if room == nil {
			room = make(map[*wsClient]bool)
			h.rooms[rideID] = room
		}
		room[client] = true
		h.logger.Debug("client joined ride room", "ride_id", rideID)
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, rideID)
	}
}

func (h *hub) forwardPosition(sender *wsClient, position ride.LatLng) {
	h.mu.Lock()
	var rideIDs []ref.RideID
	for rideID, room := range h.rooms {
		if room[sender] {
			rideIDs = append(rideIDs, rideID)
		}
	}
	h.mu.Unlock()
	for _, rideID := range rideIDs {
		h.broadcast(rideID, realtime.EventLocationUpdate, realtime.LocationUpdate{
			RideID:   rideID,
			Position: position,
		})
	}
}

func (h *hub) drop(client *wsClient) {
	h.mu.Lock()
	if !h.clients[client] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	for rideID, room := range h.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, rideID)
		}
	}
	h.mu.Unlock()
	close(client.send)
	client.conn.Close()
	h.logger.Info("realtime client disconnected", "remote", client.conn.RemoteAddr())
}

func encode(eventType string, payload any) ([]byte, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, false
	}
	data, err := json.Marshal(realtime.Envelope{Type: eventType, Payload: raw})
	if err != nil {
		return nil, false
	}
	return data, true
}

// broadcast sends an event to every member of a ride room. Clients
// whose send buffer is full are dropped rather than blocked on.
func (h *hub) broadcast(rideID ref.RideID, eventType string, payload any) {
	data, ok := encode(eventType, payload)
	if !ok {
		return
	}
	h.mu.Lock()
	var stalled []*wsClient
	for client := range h.rooms[rideID] {
		select {
		case client.send <- data:
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.Unlock()
	for _, client := range stalled {
		h.drop(client)
	}
}

// broadcastAll sends an event to every connected client.
func (h *hub) broadcastAll(eventType string, payload any) {
	data, ok := encode(eventType, payload)
	if !ok {
		return
	}
	h.mu.Lock()
	var stalled []*wsClient
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.Unlock()
	for _, client := range stalled {
		h.drop(client)
	}
}

func (h *hub) broadcastStatus(rideID ref.RideID, status ride.Status) {
	h.broadcast(rideID, realtime.EventRideStatusChanged, realtime.StatusChange{
		RideID: rideID,
		Status: status,
	})
}

func (h *hub) broadcastAssignment(assigned ride.Ride) {
	h.broadcast(assigned.ID, realtime.EventRideAssigned, realtime.Assignment{Ride: assigned})
}

// offerRide announces a freshly booked ride to every client so a
// driver session sees the request in its inbox.
func (h *hub) offerRide(pending ride.Ride) {
	h.broadcastAll(realtime.EventNewRideRequest, realtime.RideRequest{Ride: pending})
}

// broadcastDriverPosition routes an HTTP location report to the
// rooms of the driver's active rides.
func (h *hub) broadcastDriverPosition(driverUser ref.UserID, position ride.LatLng) {
	h.server.mu.Lock()
	var rideIDs []ref.RideID
	for _, current := range h.server.rides {
		if current.Driver == nil || current.Driver.UserID != driverUser {
			continue
		}
		if current.Status == ride.StatusCompleted || current.Status == ride.StatusCancelled {
			continue
		}
		rideIDs = append(rideIDs, current.ID)
	}
	h.server.mu.Unlock()
	for _, rideID := range rideIDs {
		h.broadcast(rideID, realtime.EventLocationUpdate, realtime.LocationUpdate{
			RideID:   rideID,
			Position: position,
		})
	}
}

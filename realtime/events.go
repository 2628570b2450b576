// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

// Inbound event types carried in the envelope's "type" field.
const (
	EventLocationUpdate    = "location-update"
	EventRideStatusChanged = "ride-status-changed"
	EventRideAssigned      = "ride-assigned"
	EventNewRideRequest    = "new-ride-request"
)

// Outbound message types.
const (
	MessageJoinRideRoom   = "join-ride-room"
	MessageLeaveRideRoom  = "leave-ride-room"
	MessageDriverLocation = "driver-location"
)

// Envelope is the wire framing for every realtime message in both
// directions: a type tag plus a type-specific payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LocationUpdate reports the counterpart's position during an active
// ride. Scoped to a single ride.
type LocationUpdate struct {
	RideID   ref.RideID  `json:"rideId"`
	Position ride.LatLng `json:"position"`
}

// StatusChange reports a ride's server-side status transition.
type StatusChange struct {
	RideID ref.RideID  `json:"rideId"`
	Status ride.Status `json:"status"`
}

// Assignment tells a rider that a driver accepted their pending
// ride. The embedded ride carries the driver details and implies the
// assigned status even when the snapshot predates it.
type Assignment struct {
	Ride ride.Ride `json:"ride"`
}

// RideRequest offers a pending ride to an online driver.
type RideRequest struct {
	Ride ride.Ride `json:"ride"`
}

// roomPayload is the payload for join-ride-room and leave-ride-room.
type roomPayload struct {
	RideID ref.RideID `json:"rideId"`
}

// Event is one parsed inbound message. Type identifies which of the
// payload fields is set; exactly one is non-nil.
type Event struct {
	Type string

	Location    *LocationUpdate
	Status      *StatusChange
	Assignment  *Assignment
	RideRequest *RideRequest
}

// RideID returns the ride the event is scoped to, or the zero RideID
// for events that are not ride-scoped.
func (e Event) RideID() ref.RideID {
	switch e.Type {
	case EventLocationUpdate:
		return e.Location.RideID
	case EventRideStatusChanged:
		return e.Status.RideID
	case EventRideAssigned:
		return e.Assignment.Ride.ID
	case EventNewRideRequest:
		return e.RideRequest.Ride.ID
	default:
		return ref.RideID{}
	}
}

// ParseEvent decodes one inbound wire message into a typed event. An
// unrecognized type or a payload that does not match the type's
// schema is an error; callers drop such messages without tearing
// down the connection.
func ParseEvent(data []byte) (Event, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Event{}, fmt.Errorf("realtime: decoding envelope: %w", err)
	}
	event := Event{Type: envelope.Type}
	switch envelope.Type {
	case EventLocationUpdate:
		event.Location = &LocationUpdate{}
		if err := json.Unmarshal(envelope.Payload, event.Location); err != nil {
			return Event{}, fmt.Errorf("realtime: decoding %s payload: %w", envelope.Type, err)
		}
	case EventRideStatusChanged:
		event.Status = &StatusChange{}
		if err := json.Unmarshal(envelope.Payload, event.Status); err != nil {
			return Event{}, fmt.Errorf("realtime: decoding %s payload: %w", envelope.Type, err)
		}
	case EventRideAssigned:
		event.Assignment = &Assignment{}
		if err := json.Unmarshal(envelope.Payload, event.Assignment); err != nil {
			return Event{}, fmt.Errorf("realtime: decoding %s payload: %w", envelope.Type, err)
		}
	case EventNewRideRequest:
		event.RideRequest = &RideRequest{}
		if err := json.Unmarshal(envelope.Payload, event.RideRequest); err != nil {
			return Event{}, fmt.Errorf("realtime: decoding %s payload: %w", envelope.Type, err)
		}
	default:
		return Event{}, fmt.Errorf("realtime: unknown event type %q", envelope.Type)
	}
	return event, nil
}

// encodeMessage frames an outbound message.
func encodeMessage(messageType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("realtime: encoding %s payload: %w", messageType, err)
	}
	data, err := json.Marshal(Envelope{Type: messageType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("realtime: encoding %s envelope: %w", messageType, err)
	}
	return data, nil
}

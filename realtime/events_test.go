// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"encoding/json"
	"testing"

	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

func TestParseEventLocationUpdate(t *testing.T) {
	raw := `{"type":"location-update","payload":{"rideId":"ride-7","position":{"lat":48.85,"lng":2.35}}}`
	event, err := ParseEvent([]byte(raw))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if event.Type != EventLocationUpdate {
		t.Fatalf("type = %q, want %q", event.Type, EventLocationUpdate)
	}
	if event.Location == nil {
		t.Fatal("Location payload is nil")
	}
	if got := event.Location.RideID.String(); got != "ride-7" {
		t.Errorf("rideId = %q, want %q", got, "ride-7")
	}
	if event.Location.Position.Lat != 48.85 || event.Location.Position.Lng != 2.35 {
		t.Errorf("position = %+v", event.Location.Position)
	}
	if got := event.RideID().String(); got != "ride-7" {
		t.Errorf("RideID() = %q, want %q", got, "ride-7")
	}
}

func TestParseEventStatusChange(t *testing.T) {
	raw := `{"type":"ride-status-changed","payload":{"rideId":"ride-3","status":"STARTED"}}`
	event, err := ParseEvent([]byte(raw))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if event.Status == nil {
		t.Fatal("Status payload is nil")
	}
	if event.Status.Status != ride.StatusStarted {
		t.Errorf("status = %q, want %q", event.Status.Status, ride.StatusStarted)
	}
	if got := event.RideID().String(); got != "ride-3" {
		t.Errorf("RideID() = %q, want %q", got, "ride-3")
	}
}

func TestParseEventAssignment(t *testing.T) {
	raw := `{"type":"ride-assigned","payload":{"ride":{"id":"ride-9","status":"ASSIGNED",` +
		`"driver":{"id":"driver-2","name":"Maya"},` +
		`"pickup":{"address":"A","coordinates":{"lat":1,"lng":2}},` +
		`"dropoff":{"address":"B","coordinates":{"lat":3,"lng":4}},` +
		`"createdAt":"2026-08-30T10:00:00Z"}}}`
	event, err := ParseEvent([]byte(raw))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if event.Assignment == nil {
		t.Fatal("Assignment payload is nil")
	}
	if event.Assignment.Ride.Driver == nil || event.Assignment.Ride.Driver.Name != "Maya" {
		t.Errorf("driver = %+v", event.Assignment.Ride.Driver)
	}
	if got := event.RideID().String(); got != "ride-9" {
		t.Errorf("RideID() = %q, want %q", got, "ride-9")
	}
}

func TestParseEventNewRideRequest(t *testing.T) {
	raw := `{"type":"new-ride-request","payload":{"ride":{"id":"ride-11","status":"PENDING",` +
		`"pickup":{"address":"A","coordinates":{"lat":0,"lng":0}},` +
		`"dropoff":{"address":"B","coordinates":{"lat":0,"lng":0}},` +
		`"createdAt":"2026-08-30T10:00:00Z"}}}`
	event, err := ParseEvent([]byte(raw))
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if event.RideRequest == nil {
		t.Fatal("RideRequest payload is nil")
	}
	if event.RideRequest.Ride.Status != ride.StatusPending {
		t.Errorf("status = %q", event.RideRequest.Ride.Status)
	}
}

func TestParseEventRejectsUnknownType(t *testing.T) {
	_, err := ParseEvent([]byte(`{"type":"surge-notice","payload":{}}`))
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestParseEventRejectsMalformedPayload(t *testing.T) {
	_, err := ParseEvent([]byte(`{"type":"location-update","payload":"not-an-object"}`))
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
	_, err = ParseEvent([]byte(`not json at all`))
	if err == nil {
		t.Fatal("expected error for non-JSON message")
	}
}

func TestEncodeMessageFrames(t *testing.T) {
	rideID := ref.MustParseRideID("ride-5")
	data, err := encodeMessage(MessageJoinRideRoom, roomPayload{RideID: rideID})
	if err != nil {
		t.Fatalf("encodeMessage: %v", err)
	}
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("decoding frame: %v", err)
	}
	if envelope.Type != MessageJoinRideRoom {
		t.Errorf("type = %q, want %q", envelope.Type, MessageJoinRideRoom)
	}
	var payload roomPayload
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if payload.RideID != rideID {
		t.Errorf("rideId = %q, want %q", payload.RideID, rideID)
	}
}

func TestReconnectPolicyDelay(t *testing.T) {
	policy := DefaultReconnectPolicy()
	want := []string{"1s", "2s", "4s", "5s", "5s", "5s"}
	for attempt, expected := range want {
		if got := policy.Delay(attempt + 1).String(); got != expected {
			t.Errorf("Delay(%d) = %s, want %s", attempt+1, got, expected)
		}
	}
}

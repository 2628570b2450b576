// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/nkthecoder12/swiftride-fleet/lib/clock"
	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/lib/testutil"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

const testTimeout = 5 * time.Second

// fakeTransport is a scriptable in-memory Transport. Tests deliver
// inbound messages through deliver and observe outbound frames on
// writes; fail simulates the server dropping the connection.
type fakeTransport struct {
	incoming  chan []byte
	writes    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		incoming: make(chan []byte, 16),
		writes:   make(chan []byte, 16),
		done:     make(chan struct{}),
	}
}

func (t *fakeTransport) ReadMessage() ([]byte, error) {
	select {
	case data := <-t.incoming:
		return data, nil
	case <-t.done:
		return nil, net.ErrClosed
	}
}

func (t *fakeTransport) WriteMessage(data []byte) error {
	select {
	case <-t.done:
		return net.ErrClosed
	case t.writes <- data:
		return nil
	}
}

func (t *fakeTransport) Close() error {
	t.fail()
	return nil
}

func (t *fakeTransport) fail() {
	t.closeOnce.Do(func() { close(t.done) })
}

func (t *fakeTransport) deliver(test *testing.T, raw string) {
	test.Helper()
	testutil.RequireSend(test, t.incoming, []byte(raw), testTimeout,
		"delivering inbound message")
}

// nextWrite reads one outbound frame and decodes its envelope.
func (t *fakeTransport) nextWrite(test *testing.T) (string, json.RawMessage) {
	test.Helper()
	data := testutil.RequireReceive(test, t.writes, testTimeout,
		"waiting for outbound frame")
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		test.Fatalf("decoding outbound frame: %v", err)
	}
	return envelope.Type, envelope.Payload
}

// fakeDialer hands out fake transports, optionally failing the first
// failUntil dials. Each successful dial is also pushed on transports
// so the test can script it.
type fakeDialer struct {
	mu          sync.Mutex
	dials       int
	failUntil   int
	credentials []string

	attempts   chan int
	transports chan *fakeTransport
}

func newFakeDialer(failUntil int) *fakeDialer {
	return &fakeDialer{
		failUntil:  failUntil,
		attempts:   make(chan int, 64),
		transports: make(chan *fakeTransport, 16),
	}
}

func (d *fakeDialer) DialContext(ctx context.Context, url, credential string) (Transport, error) {
	d.mu.Lock()
	d.dials++
	attempt := d.dials
	d.credentials = append(d.credentials, credential)
	fail := attempt <= d.failUntil
	d.mu.Unlock()
	d.attempts <- attempt
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fail {
		return nil, errors.New("connection refused")
	}
	transport := newFakeTransport()
	d.transports <- transport
	return transport, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) credentialFor(dial int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.credentials[dial-1]
}

func newTestManager(t *testing.T, dialer Dialer, options ...func(*ManagerConfig)) (*Manager, chan State) {
	t.Helper()
	config := ManagerConfig{URL: "ws://realtime.test/ws", Dialer: dialer}
	for _, option := range options {
		option(&config)
	}
	manager, err := NewManager(config)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(manager.Disconnect)
	states := make(chan State, 64)
	manager.OnStateChange(func(state State) { states <- state })
	return manager, states
}

func awaitState(t *testing.T, states chan State, want State) {
	t.Helper()
	for {
		state := testutil.RequireReceive(t, states, testTimeout,
			"waiting for state %s", want)
		if state == want {
			return
		}
	}
}

func TestNewManagerRequiresURL(t *testing.T) {
	if _, err := NewManager(ManagerConfig{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	dialer := newFakeDialer(0)
	manager, states := newTestManager(t, dialer)

	manager.Connect("token-1")
	manager.Connect("token-1")
	awaitState(t, states, Connected)

	if got := dialer.dialCount(); got != 1 {
		t.Errorf("dial count = %d, want 1", got)
	}
	if got := manager.State(); got != Connected {
		t.Errorf("state = %s, want connected", got)
	}
	if got := dialer.credentialFor(1); got != "token-1" {
		t.Errorf("dial credential = %q, want %q", got, "token-1")
	}
}

func TestEventsReachListenersInOrder(t *testing.T) {
	dialer := newFakeDialer(0)
	manager, states := newTestManager(t, dialer)
	events := make(chan Event, 16)
	manager.OnEvent(func(event Event) { events <- event })

	manager.Connect("token-1")
	awaitState(t, states, Connected)
	transport := testutil.RequireReceive(t, dialer.transports, testTimeout, "first dial")

	transport.deliver(t, `{"type":"ride-status-changed","payload":{"rideId":"ride-1","status":"ASSIGNED"}}`)
	transport.deliver(t, `{"type":"bogus-type","payload":{}}`)
	transport.deliver(t, `{"type":"ride-status-changed","payload":{"rideId":"ride-1","status":"STARTED"}}`)

	first := testutil.RequireReceive(t, events, testTimeout, "first event")
	if first.Status == nil || first.Status.Status != ride.StatusAssigned {
		t.Fatalf("first event = %+v", first)
	}
	// The malformed message in between is dropped, not fatal.
	second := testutil.RequireReceive(t, events, testTimeout, "second event")
	if second.Status == nil || second.Status.Status != ride.StatusStarted {
		t.Fatalf("second event = %+v", second)
	}
}

func TestSubscribeJoinsAndLeavesWhileConnected(t *testing.T) {
	dialer := newFakeDialer(0)
	manager, states := newTestManager(t, dialer)
	manager.Connect("token-1")
	awaitState(t, states, Connected)
	transport := testutil.RequireReceive(t, dialer.transports, testTimeout, "first dial")

	rideID := ref.MustParseRideID("ride-42")
	manager.Subscribe(rideID)
	messageType, payload := transport.nextWrite(t)
	if messageType != MessageJoinRideRoom {
		t.Fatalf("frame type = %q, want %q", messageType, MessageJoinRideRoom)
	}
	var join roomPayload
	if err := json.Unmarshal(payload, &join); err != nil {
		t.Fatalf("decoding join payload: %v", err)
	}
	if join.RideID != rideID {
		t.Errorf("join rideId = %q, want %q", join.RideID, rideID)
	}

	// Duplicate subscriptions do not resend the join.
	manager.Subscribe(rideID)
	if got := len(manager.Subscriptions()); got != 1 {
		t.Errorf("subscription count = %d, want 1", got)
	}

	manager.Unsubscribe(rideID)
	messageType, _ = transport.nextWrite(t)
	if messageType != MessageLeaveRideRoom {
		t.Fatalf("frame type = %q, want %q", messageType, MessageLeaveRideRoom)
	}
	if got := len(manager.Subscriptions()); got != 0 {
		t.Errorf("subscription count = %d, want 0", got)
	}
}

func TestSubscriptionsRejoinedAfterReconnect(t *testing.T) {
	dialer := newFakeDialer(0)
	manager, states := newTestManager(t, dialer)
	manager.Connect("token-1")
	awaitState(t, states, Connected)
	first := testutil.RequireReceive(t, dialer.transports, testTimeout, "first dial")

	rideA := ref.MustParseRideID("ride-a")
	rideB := ref.MustParseRideID("ride-b")
	manager.Subscribe(rideA)
	manager.Subscribe(rideB)
	first.nextWrite(t)
	first.nextWrite(t)

	first.fail()
	awaitState(t, states, Reconnecting)
	awaitState(t, states, Connected)
	second := testutil.RequireReceive(t, dialer.transports, testTimeout, "second dial")

	// Both desired topics are rejoined on the fresh transport, in
	// sorted order.
	var rejoined []string
	for i := 0; i < 2; i++ {
		messageType, payload := second.nextWrite(t)
		if messageType != MessageJoinRideRoom {
			t.Fatalf("frame type = %q, want %q", messageType, MessageJoinRideRoom)
		}
		var join roomPayload
		if err := json.Unmarshal(payload, &join); err != nil {
			t.Fatalf("decoding join payload: %v", err)
		}
		rejoined = append(rejoined, join.RideID.String())
	}
	if rejoined[0] != "ride-a" || rejoined[1] != "ride-b" {
		t.Errorf("rejoined = %v, want [ride-a ride-b]", rejoined)
	}
}

func TestReconnectBackoffSchedule(t *testing.T) {
	fakeClock := clock.Fake(time.Unix(1000, 0))
	dialer := newFakeDialer(1 << 30)
	manager, states := newTestManager(t, dialer, func(config *ManagerConfig) {
		config.Clock = fakeClock
		config.Policy = ReconnectPolicy{
			MaxAttempts:  5,
			InitialDelay: time.Second,
			MaxDelay:     5 * time.Second,
		}
	})

	manager.Connect("token-1")
	testutil.RequireReceive(t, dialer.attempts, testTimeout, "dial 1")
	awaitState(t, states, Reconnecting)

	waits := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for i, wait := range waits {
		fakeClock.BlockUntilWaiters(1)
		// Advancing just short of the delay must not trigger the
		// next dial.
		fakeClock.Advance(wait - time.Millisecond)
		if got := fakeClock.WaiterCount(); got != 1 {
			t.Fatalf("after partial advance %d: waiters = %d, want 1", i+1, got)
		}
		fakeClock.Advance(time.Millisecond)
		attempt := testutil.RequireReceive(t, dialer.attempts, testTimeout,
			"dial %d", i+2)
		if attempt != i+2 {
			t.Fatalf("attempt = %d, want %d", attempt, i+2)
		}
	}

	// Fifth failed dial exhausts the budget.
	awaitState(t, states, Disconnected)
	if got := dialer.dialCount(); got != 5 {
		t.Errorf("dial count = %d, want 5", got)
	}
}

func TestDisconnectStopsReconnectLoop(t *testing.T) {
	fakeClock := clock.Fake(time.Unix(1000, 0))
	dialer := newFakeDialer(1 << 30)
	manager, states := newTestManager(t, dialer, func(config *ManagerConfig) {
		config.Clock = fakeClock
	})

	manager.Connect("token-1")
	testutil.RequireReceive(t, dialer.attempts, testTimeout, "dial 1")
	awaitState(t, states, Reconnecting)
	fakeClock.BlockUntilWaiters(1)

	manager.Disconnect()
	awaitState(t, states, Disconnected)

	// The cancelled loop never dials again, even when the backoff
	// deadline passes.
	fakeClock.Advance(time.Minute)
	time.Sleep(50 * time.Millisecond)
	if got := dialer.dialCount(); got != 1 {
		t.Errorf("dial count after disconnect = %d, want 1", got)
	}
}

func TestDisconnectIsIdempotentAndClearsSubscriptions(t *testing.T) {
	dialer := newFakeDialer(0)
	manager, states := newTestManager(t, dialer)
	manager.Connect("token-1")
	awaitState(t, states, Connected)
	transport := testutil.RequireReceive(t, dialer.transports, testTimeout, "first dial")
	manager.Subscribe(ref.MustParseRideID("ride-1"))
	transport.nextWrite(t)

	manager.Disconnect()
	manager.Disconnect()
	if got := manager.State(); got != Disconnected {
		t.Errorf("state = %s, want disconnected", got)
	}
	if got := len(manager.Subscriptions()); got != 0 {
		t.Errorf("subscription count = %d, want 0", got)
	}
	if got := dialer.dialCount(); got != 1 {
		t.Errorf("dial count = %d, want 1 (no reconnect after disconnect)", got)
	}
}

func TestPublishDroppedWhenNotConnected(t *testing.T) {
	dialer := newFakeDialer(0)
	manager, states := newTestManager(t, dialer)

	// Never connected: dropped without panicking.
	manager.PublishLocation(ride.LatLng{Lat: 1, Lng: 2})

	manager.Connect("token-1")
	awaitState(t, states, Connected)
	transport := testutil.RequireReceive(t, dialer.transports, testTimeout, "first dial")

	manager.PublishLocation(ride.LatLng{Lat: 48.85, Lng: 2.35})
	messageType, payload := transport.nextWrite(t)
	if messageType != MessageDriverLocation {
		t.Fatalf("frame type = %q, want %q", messageType, MessageDriverLocation)
	}
	var position ride.LatLng
	if err := json.Unmarshal(payload, &position); err != nil {
		t.Fatalf("decoding location payload: %v", err)
	}
	if position.Lat != 48.85 {
		t.Errorf("lat = %v, want 48.85", position.Lat)
	}

	manager.Disconnect()
	manager.PublishLocation(ride.LatLng{Lat: 3, Lng: 4})
	select {
	case data := <-transport.writes:
		t.Fatalf("unexpected frame after disconnect: %s", data)
	default:
	}
}

func TestReconnectAllowedAfterBudgetExhausted(t *testing.T) {
	dialer := newFakeDialer(1)
	manager, states := newTestManager(t, dialer, func(config *ManagerConfig) {
		config.Policy = ReconnectPolicy{
			MaxAttempts:  1,
			InitialDelay: time.Second,
			MaxDelay:     5 * time.Second,
		}
	})

	manager.Connect("token-1")
	awaitState(t, states, Disconnected)

	// A fresh Connect after the budget ran out starts over, with
	// the credential it is given.
	manager.Connect("token-2")
	awaitState(t, states, Connected)
	if got := dialer.credentialFor(2); got != "token-2" {
		t.Errorf("second dial credential = %q, want %q", got, "token-2")
	}
}

func TestListenerRemovableFromCallback(t *testing.T) {
	dialer := newFakeDialer(0)
	manager, states := newTestManager(t, dialer)

	onceEvents := make(chan Event, 16)
	allEvents := make(chan Event, 16)
	var handle int
	handle = manager.OnEvent(func(event Event) {
		manager.RemoveEventListener(handle)
		onceEvents <- event
	})
	manager.OnEvent(func(event Event) { allEvents <- event })

	manager.Connect("token-1")
	awaitState(t, states, Connected)
	transport := testutil.RequireReceive(t, dialer.transports, testTimeout, "first dial")

	transport.deliver(t, `{"type":"ride-status-changed","payload":{"rideId":"ride-1","status":"ASSIGNED"}}`)
	transport.deliver(t, `{"type":"ride-status-changed","payload":{"rideId":"ride-1","status":"STARTED"}}`)

	testutil.RequireReceive(t, allEvents, testTimeout, "first event, second listener")
	testutil.RequireReceive(t, allEvents, testTimeout, "second event, second listener")
	testutil.RequireReceive(t, onceEvents, testTimeout, "first event, removed listener")
	select {
	case event := <-onceEvents:
		t.Fatalf("removed listener received %+v", event)
	default:
	}
}

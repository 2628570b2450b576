// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/nkthecoder12/swiftride-fleet/lib/clock"
	"github.com/nkthecoder12/swiftride-fleet/lib/netutil"
	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

// ManagerConfig configures a Manager. URL is required; everything
// else has production defaults.
type ManagerConfig struct {
	// URL is the realtime endpoint, typically a ws:// or wss://
	// address.
	URL string

	// Dialer overrides the transport. Nil means the websocket
	// dialer.
	Dialer Dialer

	// Policy bounds the reconnect loop. The zero value means
	// DefaultReconnectPolicy.
	Policy ReconnectPolicy

	// Clock drives backoff timing. Nil means the real clock.
	Clock clock.Clock

	// Logger receives connection lifecycle logs. Nil means
	// slog.Default.
	Logger *slog.Logger
}

// Manager owns the process's single realtime connection. See the
// package documentation for the lifecycle and delivery contract. All
// methods are safe for concurrent use and safe to call from inside
// event and state listeners.
type Manager struct {
	url    string
	dialer Dialer
	policy ReconnectPolicy
	clock  clock.Clock
	logger *slog.Logger

	mu            sync.Mutex
	state         State
	transport     Transport
	credential    string
	generation    int
	cancelDial    context.CancelFunc
	subscriptions map[ref.RideID]struct{}

	nextHandle     int
	eventListeners map[int]func(Event)
	stateListeners map[int]func(State)
}

// NewManager builds a Manager. It does not connect.
func NewManager(config ManagerConfig) (*Manager, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("realtime: endpoint URL is required")
	}
	if config.Dialer == nil {
		config.Dialer = NewWebsocketDialer()
	}
	if config.Policy == (ReconnectPolicy{}) {
		config.Policy = DefaultReconnectPolicy()
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Manager{
		url:            config.URL,
		dialer:         config.Dialer,
		policy:         config.Policy,
		clock:          config.Clock,
		logger:         config.Logger,
		subscriptions:  make(map[ref.RideID]struct{}),
		eventListeners: make(map[int]func(Event)),
		stateListeners: make(map[int]func(State)),
	}, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect starts the connection loop with the given bearer
// credential. It returns immediately; progress is observable through
// OnStateChange. Calling Connect while a connection exists or is
// being established is a no-op — callers that need to switch
// credentials Disconnect first.
func (m *Manager) Connect(credential string) {
	m.mu.Lock()
	if m.state != Disconnected {
		m.mu.Unlock()
		m.logger.Debug("realtime connect ignored, channel already active")
		return
	}
	m.generation++
	generation := m.generation
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelDial = cancel
	m.credential = credential
	notify := m.setStateLocked(Connecting)
	m.mu.Unlock()
	notify()
	go m.run(ctx, generation)
}

// Disconnect tears down the connection, stops any reconnect loop,
// and discards the desired subscription set. It is idempotent and
// terminal until the next Connect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.generation++
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	transport := m.transport
	m.transport = nil
	m.credential = ""
	m.subscriptions = make(map[ref.RideID]struct{})
	notify := m.setStateLocked(Disconnected)
	m.mu.Unlock()
	if transport != nil {
		transport.Close()
	}
	notify()
}

// Subscribe adds the ride to the desired subscription set and, when
// connected, joins its topic immediately. The subscription survives
// reconnects: the manager rejoins every desired topic after each
// successful dial. Subscribing to an already-subscribed ride is a
// no-op.
func (m *Manager) Subscribe(rideID ref.RideID) {
	if rideID.IsZero() {
		return
	}
	m.mu.Lock()
	if _, exists := m.subscriptions[rideID]; exists {
		m.mu.Unlock()
		return
	}
	m.subscriptions[rideID] = struct{}{}
	transport := m.transport
	live := m.state == Connected
	m.mu.Unlock()
	if live {
		m.send(transport, MessageJoinRideRoom, roomPayload{RideID: rideID})
	}
}

// Unsubscribe removes the ride from the desired set and, when
// connected, leaves its topic. Unsubscribing an unknown ride is a
// no-op.
func (m *Manager) Unsubscribe(rideID ref.RideID) {
	m.mu.Lock()
	if _, exists := m.subscriptions[rideID]; !exists {
		m.mu.Unlock()
		return
	}
	delete(m.subscriptions, rideID)
	transport := m.transport
	live := m.state == Connected
	m.mu.Unlock()
	if live {
		m.send(transport, MessageLeaveRideRoom, roomPayload{RideID: rideID})
	}
}

// Subscriptions returns the desired subscription set, sorted.
func (m *Manager) Subscriptions() []ref.RideID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscriptionsLocked()
}

func (m *Manager) subscriptionsLocked() []ref.RideID {
	rides := make([]ref.RideID, 0, len(m.subscriptions))
	for rideID := range m.subscriptions {
		rides = append(rides, rideID)
	}
	sort.Slice(rides, func(i, j int) bool {
		return rides[i].String() < rides[j].String()
	})
	return rides
}

// Publish sends a message on the live channel. When the channel is
// not connected the message is dropped: realtime publishes are
// ephemeral by contract and are never queued.
func (m *Manager) Publish(messageType string, payload any) {
	m.mu.Lock()
	transport := m.transport
	live := m.state == Connected
	m.mu.Unlock()
	if !live {
		m.logger.Debug("dropping realtime publish, channel not connected",
			"type", messageType)
		return
	}
	m.send(transport, messageType, payload)
}

// PublishLocation sends a driver location ping.
func (m *Manager) PublishLocation(position ride.LatLng) {
	m.Publish(MessageDriverLocation, position)
}

// OnEvent registers a listener for every inbound event. Listeners
// run on the dispatch goroutine in arrival order; a slow listener
// delays delivery. The handle removes the listener via
// RemoveEventListener.
func (m *Manager) OnEvent(listener func(Event)) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextHandle++
	m.eventListeners[m.nextHandle] = listener
	return m.nextHandle
}

// RemoveEventListener removes a listener registered with OnEvent.
// Safe to call from inside a listener.
func (m *Manager) RemoveEventListener(handle int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.eventListeners, handle)
}

// OnStateChange registers a listener for lifecycle transitions. The
// listener is called with the new state after each change.
func (m *Manager) OnStateChange(listener func(State)) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextHandle++
	m.stateListeners[m.nextHandle] = listener
	return m.nextHandle
}

// RemoveStateListener removes a listener registered with
// OnStateChange.
func (m *Manager) RemoveStateListener(handle int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stateListeners, handle)
}

// setStateLocked records a state transition and returns the deferred
// listener notification, to be invoked after the lock is released.
func (m *Manager) setStateLocked(next State) func() {
	if m.state == next {
		return func() {}
	}
	m.state = next
	handles := make([]int, 0, len(m.stateListeners))
	for handle := range m.stateListeners {
		handles = append(handles, handle)
	}
	sort.Ints(handles)
	listeners := make([]func(State), 0, len(handles))
	for _, handle := range handles {
		listeners = append(listeners, m.stateListeners[handle])
	}
	return func() {
		for _, listener := range listeners {
			listener(next)
		}
	}
}

// run is the per-Connect connection loop: dial, rejoin, read until
// failure, back off, repeat. It exits when the generation changes
// (explicit Disconnect) or the attempt budget is exhausted.
func (m *Manager) run(ctx context.Context, generation int) {
	attempt := 0
	for {
		m.mu.Lock()
		if m.generation != generation {
			m.mu.Unlock()
			return
		}
		url, credential := m.url, m.credential
		m.mu.Unlock()

		transport, err := m.dialer.DialContext(ctx, url, credential)
		if err != nil {
			attempt++
			m.logger.Debug("realtime dial failed",
				"attempt", attempt, "error", err)
			if attempt >= m.policy.MaxAttempts {
				m.mu.Lock()
				if m.generation != generation {
					m.mu.Unlock()
					return
				}
				m.cancelDial = nil
				notify := m.setStateLocked(Disconnected)
				m.mu.Unlock()
				notify()
				m.logger.Warn("realtime reconnect budget exhausted",
					"attempts", attempt)
				return
			}
			m.mu.Lock()
			if m.generation != generation {
				m.mu.Unlock()
				return
			}
			notify := m.setStateLocked(Reconnecting)
			m.mu.Unlock()
			notify()
			select {
			case <-m.clock.After(m.policy.Delay(attempt)):
			case <-ctx.Done():
				return
			}
			continue
		}

		m.mu.Lock()
		if m.generation != generation {
			m.mu.Unlock()
			transport.Close()
			return
		}
		m.transport = transport
		subscriptions := m.subscriptionsLocked()
		notify := m.setStateLocked(Connected)
		m.mu.Unlock()
		notify()
		attempt = 0
		m.logger.Info("realtime channel connected",
			"subscriptions", len(subscriptions))

		// Re-establish the desired set before any new event can
		// arrive for it.
		for _, rideID := range subscriptions {
			m.send(transport, MessageJoinRideRoom, roomPayload{RideID: rideID})
		}

		m.readLoop(transport)

		m.mu.Lock()
		if m.generation != generation {
			m.mu.Unlock()
			return
		}
		m.transport = nil
		notify = m.setStateLocked(Reconnecting)
		m.mu.Unlock()
		notify()
		m.logger.Info("realtime connection lost, reconnecting")
	}
}

// readLoop dispatches inbound messages until the transport fails.
// Malformed messages are dropped without tearing down the
// connection.
func (m *Manager) readLoop(transport Transport) {
	for {
		data, err := transport.ReadMessage()
		if err != nil {
			if !netutil.IsExpectedCloseError(err) {
				m.logger.Debug("realtime read failed", "error", err)
			}
			return
		}
		event, err := ParseEvent(data)
		if err != nil {
			m.logger.Debug("dropping unparseable realtime message",
				"error", err)
			continue
		}
		m.dispatch(event)
	}
}

// dispatch fans one event out to the listeners registered at the
// moment of delivery. Listeners are called without the manager lock
// held, so they may re-enter any Manager method.
func (m *Manager) dispatch(event Event) {
	m.mu.Lock()
	handles := make([]int, 0, len(m.eventListeners))
	for handle := range m.eventListeners {
		handles = append(handles, handle)
	}
	sort.Ints(handles)
	listeners := make([]func(Event), 0, len(handles))
	for _, handle := range handles {
		listeners = append(listeners, m.eventListeners[handle])
	}
	m.mu.Unlock()
	for _, listener := range listeners {
		listener(event)
	}
}

// send frames and writes one outbound message. Write failures are
// logged and otherwise ignored: the read loop observes the broken
// transport and drives the reconnect.
func (m *Manager) send(transport Transport, messageType string, payload any) {
	data, err := encodeMessage(messageType, payload)
	if err != nil {
		m.logger.Warn("encoding realtime message", "type", messageType, "error", err)
		return
	}
	if err := transport.WriteMessage(data); err != nil {
		m.logger.Debug("realtime write failed", "type", messageType, "error", err)
	}
}

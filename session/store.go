// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/nkthecoder12/swiftride-fleet/api"
	"github.com/nkthecoder12/swiftride-fleet/lib/secret"
)

// Channel is the realtime side the store drives: connected with the
// session credential whenever a session becomes live, disconnected
// when it ends. *realtime.Manager satisfies it.
type Channel interface {
	Connect(credential string)
	Disconnect()
}

// StoreConfig configures a Store.
type StoreConfig struct {
	// Client performs authentication calls. Required.
	Client *api.Client

	// Path is the session file location. Required.
	Path string

	// Channel is connected and disconnected alongside the session.
	// Nil means no realtime channel.
	Channel Channel

	// Logger receives session lifecycle logs. Nil means
	// slog.Default.
	Logger *slog.Logger
}

// Store holds the device's single authenticated session. All methods
// are safe for concurrent use.
type Store struct {
	client  *api.Client
	path    string
	channel Channel
	logger  *slog.Logger

	mu         sync.Mutex
	session    *api.Session
	nextHandle int
	listeners  map[int]func(*api.Session)
}

// NewStore builds a Store. It does not touch the session file; call
// Restore to adopt a persisted session.
func NewStore(config StoreConfig) (*Store, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("session: client is required")
	}
	if config.Path == "" {
		return nil, fmt.Errorf("session: session file path is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Store{
		client:    config.Client,
		path:      config.Path,
		channel:   config.Channel,
		logger:    config.Logger,
		listeners: make(map[int]func(*api.Session)),
	}, nil
}

// Current returns the live session, or nil when logged out.
func (s *Store) Current() *api.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Identity returns the logged-in identity. ok is false when logged
// out.
func (s *Store) Identity() (identity api.Identity, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return api.Identity{}, false
	}
	return s.session.Identity(), true
}

// LoggedIn reports whether a session is live.
func (s *Store) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// OnChange registers a listener called with the new session after
// every login, restore, and logout (nil on logout). The handle
// removes it via RemoveListener.
func (s *Store) OnChange(listener func(*api.Session)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHandle++
	s.listeners[s.nextHandle] = listener
	return s.nextHandle
}

// RemoveListener removes a listener registered with OnChange.
func (s *Store) RemoveListener(handle int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, handle)
}

// Restore adopts the persisted session, if any. It returns true when
// a session was restored. A missing session file means logged out; a
// malformed one is discarded with a warning, not an error — logging
// in again is the recovery. The restored credential is not validated
// here: the first authenticated call rejects it if it has expired,
// which logs the store out through the auth-reject path.
func (s *Store) Restore() (bool, error) {
	record, err := loadSession(s.path)
	if errors.Is(err, errCorruptSession) {
		s.logger.Warn("discarding unreadable session file", "path", s.path, "error", err)
		if err := clearSession(s.path); err != nil {
			return false, err
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}

	session, err := s.client.SessionFromToken(record.Identity, record.Token)
	if err != nil {
		return false, err
	}
	s.adopt(session)
	s.logger.Info("session restored",
		"user_id", record.Identity.ID,
		"role", record.Identity.Role,
	)
	return true, nil
}

// Login authenticates with the backend, persists the session, and
// connects the realtime channel. A session that is already live is
// replaced.
func (s *Store) Login(ctx context.Context, email string, password *secret.Buffer) (api.Identity, error) {
	session, err := s.client.Login(ctx, email, password)
	if err != nil {
		return api.Identity{}, err
	}
	if err := s.persist(session); err != nil {
		session.Close()
		return api.Identity{}, err
	}
	s.adopt(session)
	return session.Identity(), nil
}

// Signup creates a rider account and logs in as it.
func (s *Store) Signup(ctx context.Context, request api.SignupRequest) (api.Identity, error) {
	session, err := s.client.Signup(ctx, request)
	if err != nil {
		return api.Identity{}, err
	}
	if err := s.persist(session); err != nil {
		session.Close()
		return api.Identity{}, err
	}
	s.adopt(session)
	return session.Identity(), nil
}

// Logout ends the session: clears the session file, disconnects the
// realtime channel, closes the session, and notifies listeners with
// nil. Idempotent; logging out while logged out does nothing.
func (s *Store) Logout() error {
	s.mu.Lock()
	session := s.session
	s.session = nil
	notify := s.notifyLocked(nil)
	s.mu.Unlock()

	if session == nil {
		return nil
	}
	identity := session.Identity()
	if s.channel != nil {
		s.channel.Disconnect()
	}
	err := clearSession(s.path)
	session.Close()
	notify()
	s.logger.Info("logged out", "user_id", identity.ID)
	return err
}

// UpdateIdentity updates the profile on the backend and re-persists
// the refreshed identity. Without a live session it is a no-op
// returning nil.
func (s *Store) UpdateIdentity(ctx context.Context, update api.IdentityUpdate) (*api.Identity, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil {
		return nil, nil
	}

	identity, err := session.UpdateProfile(ctx, update)
	if err != nil {
		return nil, err
	}
	if err := s.persist(session); err != nil {
		return nil, err
	}
	return identity, nil
}

// persist writes the session record to the session file.
func (s *Store) persist(session *api.Session) error {
	return saveSession(s.path, persistedSession{
		Token:    session.Token(),
		Identity: session.Identity(),
	})
}

// adopt installs a new live session, replacing and closing any
// previous one, connects the channel, and notifies listeners.
func (s *Store) adopt(session *api.Session) {
	session.OnAuthReject(func() { s.expire(session) })

	s.mu.Lock()
	previous := s.session
	s.session = session
	notify := s.notifyLocked(session)
	s.mu.Unlock()

	if previous != nil {
		if s.channel != nil {
			s.channel.Disconnect()
		}
		previous.Close()
	}
	if s.channel != nil {
		s.channel.Connect(session.Token())
	}
	notify()
}

// expire handles a server-side credential rejection. It logs out
// only if the rejected session is still the live one, so a stale
// hook from a replaced session cannot end its successor.
func (s *Store) expire(session *api.Session) {
	s.mu.Lock()
	current := s.session == session
	s.mu.Unlock()
	if !current {
		return
	}
	s.logger.Warn("session rejected by server, logging out",
		"user_id", session.Identity().ID)
	if err := s.Logout(); err != nil {
		s.logger.Warn("cleanup after session rejection", "error", err)
	}
}

// notifyLocked snapshots the listeners for a change notification,
// returned as a deferred call to run outside the lock.
func (s *Store) notifyLocked(session *api.Session) func() {
	handles := make([]int, 0, len(s.listeners))
	for handle := range s.listeners {
		handles = append(handles, handle)
	}
	sort.Ints(handles)
	listeners := make([]func(*api.Session), 0, len(handles))
	for _, handle := range handles {
		listeners = append(listeners, s.listeners[handle])
	}
	return func() {
		for _, listener := range listeners {
			listener(session)
		}
	}
}

// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nkthecoder12/swiftride-fleet/api"
	"github.com/nkthecoder12/swiftride-fleet/lib/ref"
	"github.com/nkthecoder12/swiftride-fleet/lib/secret"
	"github.com/nkthecoder12/swiftride-fleet/ride"
)

// fakeChannel records connect and disconnect calls.
type fakeChannel struct {
	mu          sync.Mutex
	connects    []string
	disconnects int
}

func (c *fakeChannel) Connect(credential string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects = append(c.connects, credential)
}

func (c *fakeChannel) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
}

func (c *fakeChannel) lastConnect() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.connects) == 0 {
		return "", false
	}
	return c.connects[len(c.connects)-1], true
}

func (c *fakeChannel) disconnectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

func writeData(writer http.ResponseWriter, v any) {
	writer.Header().Set("Content-Type", "application/json")
	data, _ := json.Marshal(v)
	json.NewEncoder(writer).Encode(map[string]any{
		"success": true,
		"data":    json.RawMessage(data),
	})
}

func writeError(writer http.ResponseWriter, status int, code, message string) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(map[string]any{
		"success": false,
		"code":    code,
		"message": message,
	})
}

func testIdentity() api.Identity {
	return api.Identity{
		ID:        ref.MustParseUserID("u-1"),
		Name:      "Ada",
		Email:     "ada@example.com",
		Role:      ride.RoleRider,
		CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

// newTestStore wires a Store against a test server, a temp session
// file, and a fake channel.
func newTestStore(t *testing.T, handler http.Handler) (*Store, string, *fakeChannel) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := api.NewClient(api.ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "state", "session.json")
	channel := &fakeChannel{}
	store, err := NewStore(StoreConfig{
		Client:  client,
		Path:    path,
		Channel: channel,
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store, path, channel
}

func loginHandler(t *testing.T, token string) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(writer http.ResponseWriter, request *http.Request) {
		writeData(writer, api.AuthResponse{Token: token, User: testIdentity()})
	})
	return mux
}

func mustBuffer(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromBytes([]byte(value))
	if err != nil {
		t.Fatalf("secret.NewFromBytes failed: %v", err)
	}
	return buffer
}

func TestLoginPersistsAndConnects(t *testing.T) {
	store, path, channel := newTestStore(t, loginHandler(t, "token-abc"))

	identity, err := store.Login(context.Background(), "ada@example.com", mustBuffer(t, "hunter2"))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if identity.Name != "Ada" {
		t.Errorf("identity name = %q, want Ada", identity.Name)
	}
	if !store.LoggedIn() {
		t.Error("store not logged in after Login")
	}

	credential, ok := channel.lastConnect()
	if !ok || credential != "token-abc" {
		t.Errorf("channel connect credential = %q, %v; want token-abc", credential, ok)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("session file not written: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o600 {
		t.Errorf("session file mode = %o, want 0600", got)
	}
	record, err := loadSession(path)
	if err != nil {
		t.Fatalf("loadSession failed: %v", err)
	}
	if record.Token != "token-abc" {
		t.Errorf("persisted token = %q, want token-abc", record.Token)
	}
	if record.Identity.ID != testIdentity().ID {
		t.Errorf("persisted identity = %+v", record.Identity)
	}
}

func TestRestoreMissingFileMeansLoggedOut(t *testing.T) {
	store, _, channel := newTestStore(t, http.NewServeMux())

	restored, err := store.Restore()
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored {
		t.Error("restored = true with no session file")
	}
	if store.LoggedIn() {
		t.Error("store logged in with no session file")
	}
	if _, ok := channel.lastConnect(); ok {
		t.Error("channel connected with no session file")
	}
}

func TestRestoreDiscardsMalformedFile(t *testing.T) {
	store, path, _ := newTestStore(t, http.NewServeMux())
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	restored, err := store.Restore()
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored {
		t.Error("restored = true from malformed file")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("malformed session file not removed")
	}
}

func TestRestoreDiscardsTokenlessFile(t *testing.T) {
	store, path, _ := newTestStore(t, http.NewServeMux())
	if err := saveSession(path, persistedSession{Identity: testIdentity()}); err != nil {
		t.Fatal(err)
	}

	restored, err := store.Restore()
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored {
		t.Error("restored = true from tokenless file")
	}
}

func TestRestoreAdoptsPersistedSession(t *testing.T) {
	store, path, channel := newTestStore(t, http.NewServeMux())
	if err := saveSession(path, persistedSession{
		Token:    "token-restored",
		Identity: testIdentity(),
	}); err != nil {
		t.Fatal(err)
	}

	restored, err := store.Restore()
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if !restored {
		t.Fatal("restored = false for valid session file")
	}
	identity, ok := store.Identity()
	if !ok || identity.Name != "Ada" {
		t.Errorf("identity = %+v, %v", identity, ok)
	}
	credential, ok := channel.lastConnect()
	if !ok || credential != "token-restored" {
		t.Errorf("channel connect credential = %q, %v; want token-restored", credential, ok)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	store, path, channel := newTestStore(t, loginHandler(t, "token-abc"))
	if _, err := store.Login(context.Background(), "ada@example.com", mustBuffer(t, "hunter2")); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	changes := make(chan *api.Session, 8)
	store.OnChange(func(session *api.Session) { changes <- session })

	if err := store.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if store.LoggedIn() {
		t.Error("store still logged in after Logout")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session file not removed on logout")
	}
	if got := channel.disconnectCount(); got != 1 {
		t.Errorf("disconnect count = %d, want 1", got)
	}
	if session := <-changes; session != nil {
		t.Error("change listener got non-nil session on logout")
	}

	// Second logout: no error, no second disconnect, no second
	// notification.
	if err := store.Logout(); err != nil {
		t.Fatalf("second Logout failed: %v", err)
	}
	if got := channel.disconnectCount(); got != 1 {
		t.Errorf("disconnect count after second logout = %d, want 1", got)
	}
}

func TestUpdateIdentityWithoutSessionIsNoop(t *testing.T) {
	store, _, _ := newTestStore(t, http.NewServeMux())
	identity, err := store.UpdateIdentity(context.Background(), api.IdentityUpdate{})
	if err != nil {
		t.Fatalf("UpdateIdentity failed: %v", err)
	}
	if identity != nil {
		t.Errorf("identity = %+v, want nil", identity)
	}
}

func TestUpdateIdentityRepersists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(writer http.ResponseWriter, request *http.Request) {
		writeData(writer, api.AuthResponse{Token: "token-abc", User: testIdentity()})
	})
	mux.HandleFunc("PUT /auth/profile", func(writer http.ResponseWriter, request *http.Request) {
		updated := testIdentity()
		updated.Name = "Ada L."
		writeData(writer, updated)
	})
	store, path, _ := newTestStore(t, mux)
	if _, err := store.Login(context.Background(), "ada@example.com", mustBuffer(t, "hunter2")); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	name := "Ada L."
	identity, err := store.UpdateIdentity(context.Background(), api.IdentityUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateIdentity failed: %v", err)
	}
	if identity.Name != "Ada L." {
		t.Errorf("identity name = %q, want %q", identity.Name, "Ada L.")
	}
	record, err := loadSession(path)
	if err != nil {
		t.Fatalf("loadSession failed: %v", err)
	}
	if record.Identity.Name != "Ada L." {
		t.Errorf("persisted name = %q, want %q", record.Identity.Name, "Ada L.")
	}
}

func TestAuthRejectionLogsOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(writer http.ResponseWriter, request *http.Request) {
		writeData(writer, api.AuthResponse{Token: "token-abc", User: testIdentity()})
	})
	mux.HandleFunc("GET /auth/profile", func(writer http.ResponseWriter, request *http.Request) {
		writeError(writer, http.StatusUnauthorized, "TOKEN_EXPIRED", "token expired")
	})
	store, path, channel := newTestStore(t, mux)
	if _, err := store.Login(context.Background(), "ada@example.com", mustBuffer(t, "hunter2")); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := store.Current().GetProfile(context.Background()); err == nil {
		t.Fatal("expected profile call to fail with 401")
	}
	if store.LoggedIn() {
		t.Error("store still logged in after credential rejection")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session file not removed after credential rejection")
	}
	if got := channel.disconnectCount(); got != 1 {
		t.Errorf("disconnect count = %d, want 1", got)
	}
}

func TestLoginReplacesExistingSession(t *testing.T) {
	tokens := []string{"token-1", "token-2"}
	index := 0
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(writer http.ResponseWriter, request *http.Request) {
		token := tokens[index]
		index++
		writeData(writer, api.AuthResponse{Token: token, User: testIdentity()})
	})
	store, _, channel := newTestStore(t, mux)

	if _, err := store.Login(context.Background(), "ada@example.com", mustBuffer(t, "hunter2")); err != nil {
		t.Fatalf("first Login failed: %v", err)
	}
	if _, err := store.Login(context.Background(), "ada@example.com", mustBuffer(t, "hunter2")); err != nil {
		t.Fatalf("second Login failed: %v", err)
	}

	credential, _ := channel.lastConnect()
	if credential != "token-2" {
		t.Errorf("channel credential = %q, want token-2", credential)
	}
	if got := channel.disconnectCount(); got != 1 {
		t.Errorf("disconnect count = %d, want 1 (old session torn down)", got)
	}
	if got := store.Current().Token(); got != "token-2" {
		t.Errorf("current token = %q, want token-2", got)
	}
}

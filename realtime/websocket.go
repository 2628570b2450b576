// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const websocketWriteTimeout = 10 * time.Second

// WebsocketDialer is the production Dialer. It speaks websocket to
// the backend's realtime endpoint and authenticates the upgrade
// request with the session's bearer credential.
type WebsocketDialer struct {
	// Dialer overrides the underlying websocket dialer. Nil means
	// websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// InstanceID identifies this client instance across reconnects
	// of the same session. NewWebsocketDialer generates one.
	InstanceID string
}

// NewWebsocketDialer returns a dialer with a fresh instance ID.
func NewWebsocketDialer() *WebsocketDialer {
	return &WebsocketDialer{InstanceID: uuid.NewString()}
}

// DialContext implements Dialer.
func (d *WebsocketDialer) DialContext(ctx context.Context, url, credential string) (Transport, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+credential)
	if d.InstanceID != "" {
		header.Set("X-Client-Instance", d.InstanceID)
	}
	connection, response, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if response != nil {
			return nil, fmt.Errorf("realtime: dialing %s: %w (status %s)", url, err, response.Status)
		}
		return nil, fmt.Errorf("realtime: dialing %s: %w", url, err)
	}
	return &websocketTransport{connection: connection}, nil
}

// websocketTransport adapts a gorilla websocket connection to the
// Transport interface. The gorilla connection permits one concurrent
// writer, so writes are serialized with a mutex; reads stay on the
// manager's single read goroutine.
type websocketTransport struct {
	connection *websocket.Conn
	writeMu    sync.Mutex
}

func (t *websocketTransport) ReadMessage() ([]byte, error) {
	for {
		messageType, data, err := t.connection.ReadMessage()
		if err != nil {
			return nil, err
		}
		// Control frames are handled inside gorilla; anything
		// non-text here is a protocol oddity we skip.
		if messageType != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

func (t *websocketTransport) WriteMessage(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	deadline := time.Now().Add(websocketWriteTimeout)
	if err := t.connection.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return t.connection.WriteMessage(websocket.TextMessage, data)
}

func (t *websocketTransport) Close() error {
	t.writeMu.Lock()
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	deadline := time.Now().Add(websocketWriteTimeout)
	_ = t.connection.WriteControl(websocket.CloseMessage, message, deadline)
	t.writeMu.Unlock()
	return t.connection.Close()
}

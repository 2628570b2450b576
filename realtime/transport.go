// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"context"
	"time"
)

// Transport is one live bidirectional message connection. ReadMessage
// blocks until a message arrives or the transport fails; after Close,
// both ReadMessage and WriteMessage return errors. Implementations
// must allow WriteMessage and Close to be called concurrently with a
// blocked ReadMessage.
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer establishes transport connections. DialContext must honor
// context cancellation while the dial is in flight.
type Dialer interface {
	DialContext(ctx context.Context, url, credential string) (Transport, error)
}

// ReconnectPolicy bounds the redial loop after a connection attempt
// fails. The delay before attempt n is InitialDelay doubled n-1
// times, capped at MaxDelay; after MaxAttempts consecutive failures
// the manager gives up and settles in Disconnected.
type ReconnectPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultReconnectPolicy returns the production policy: ten attempts,
// starting at one second and capping at five.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts:  10,
		InitialDelay: time.Second,
		MaxDelay:     5 * time.Second,
	}
}

// Delay returns the wait before the given attempt, counted from 1.
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	delay := p.InitialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/nkthecoder12/swiftride-fleet/lib/netutil"
	"github.com/nkthecoder12/swiftride-fleet/lib/secret"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the backend API base URL (e.g., "http://localhost:3000/api").
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client is an unauthenticated SwiftRide backend client. It holds the
// base URL and HTTP transport, shared across Sessions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new unauthenticated backend client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}

	// Validate the URL structure up front. Request URLs are built by
	// string concatenation, so a malformed base would fail on every
	// call with a confusing error.
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's pool. Call after a network disruption to force
// subsequent requests onto fresh TCP connections instead of a
// poisoned pooled connection.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Login authenticates with email and password, returning an
// authenticated Session. The password Buffer is read but not closed —
// the caller retains ownership.
func (c *Client) Login(ctx context.Context, email string, password *secret.Buffer) (*Session, error) {
	if email == "" {
		return nil, fmt.Errorf("api: email is required for login")
	}
	if password == nil {
		return nil, fmt.Errorf("api: password is required for login")
	}

	// The password becomes a heap string at the JSON serialization
	// boundary; the copy lives only for the duration of the call.
	request := map[string]string{
		"email":    email,
		"password": password.String(),
	}
	body, err := c.doRequest(ctx, http.MethodPost, "/auth/login", nil, request)
	if err != nil {
		return nil, fmt.Errorf("api: login failed: %w", err)
	}

	auth, err := decodeAuthResponse(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("logged in",
		"user_id", auth.User.ID,
		"role", auth.User.Role,
	)
	return c.sessionFromAuth(auth)
}

// Signup creates a new rider account, returning an authenticated
// Session for it.
func (c *Client) Signup(ctx context.Context, request SignupRequest) (*Session, error) {
	if request.Email == "" {
		return nil, fmt.Errorf("api: email is required for signup")
	}
	if request.Password == "" {
		return nil, fmt.Errorf("api: password is required for signup")
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/auth/signup", nil, request)
	if err != nil {
		return nil, fmt.Errorf("api: signup failed: %w", err)
	}

	auth, err := decodeAuthResponse(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("signed up",
		"user_id", auth.User.ID,
		"role", auth.User.Role,
	)
	return c.sessionFromAuth(auth)
}

// SessionFromToken creates a Session from an existing bearer
// credential, typically one restored from the persisted session file.
// The token is moved into mmap-backed memory; the original string
// remains on the heap briefly until collected.
//
// This does NOT validate the credential — the first API call fails if
// it is invalid or expired. The caller must Close the returned
// Session when done.
func (c *Client) SessionFromToken(identity Identity, token string) (*Session, error) {
	tokenBuffer, err := secret.NewFromBytes([]byte(token))
	if err != nil {
		return nil, fmt.Errorf("api: protecting credential: %w", err)
	}
	return &Session{
		client:   c,
		token:    tokenBuffer,
		identity: identity,
	}, nil
}

func (c *Client) sessionFromAuth(auth *AuthResponse) (*Session, error) {
	tokenBuffer, err := secret.NewFromBytes([]byte(auth.Token))
	if err != nil {
		return nil, fmt.Errorf("api: protecting credential: %w", err)
	}
	return &Session{
		client:   c,
		token:    tokenBuffer,
		identity: auth.User,
	}, nil
}

func decodeAuthResponse(body []byte) (*AuthResponse, error) {
	var auth AuthResponse
	if err := decodeData(body, &auth); err != nil {
		return nil, fmt.Errorf("api: failed to parse auth response: %w", err)
	}
	if auth.Token == "" {
		return nil, fmt.Errorf("api: auth response missing token")
	}
	return &auth, nil
}

// decodeData unwraps the backend envelope and decodes the data
// payload into v. Pass nil v to discard the payload.
func decodeData(body []byte, v any) error {
	var wrapped envelope
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return err
	}
	if v == nil || len(wrapped.Data) == 0 {
		return nil
	}
	return json.Unmarshal(wrapped.Data, v)
}

// doRequest performs an HTTP request against the backend and returns
// the raw response body. On 2xx, returns the body. On any other
// status, returns a *APIError built from the envelope. token may be
// nil for unauthenticated endpoints; query may be nil.
func (c *Client) doRequest(ctx context.Context, method, path string, token *secret.Buffer, requestBody any, query ...url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 && query[0] != nil {
		requestURL += "?" + query[0].Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("api: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("api: failed to create request: %w", err)
	}

	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != nil {
		request.Header.Set("Authorization", "Bearer "+token.String())
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("api: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("api: failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	// Error responses reuse the envelope with success=false. A body
	// that is not the envelope (a proxy error page, say) still has to
	// produce an *APIError: the status code drives IsAuthRejected and
	// with it the forced-logout path, regardless of what the body is.
	var wrapped envelope
	if jsonErr := json.Unmarshal(responseBody, &wrapped); jsonErr != nil {
		return nil, &APIError{
			Code:       ErrCodeUnknown,
			Message:    fmt.Sprintf("unexpected %d response from %s %s", response.StatusCode, method, path),
			StatusCode: response.StatusCode,
		}
	}

	code := wrapped.Code
	if code == "" {
		code = ErrCodeUnknown
	}
	return responseBody, &APIError{
		Code:       code,
		Message:    wrapped.Message,
		StatusCode: response.StatusCode,
	}
}

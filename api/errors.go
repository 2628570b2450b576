// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a structured error response from the SwiftRide backend.
// Callers use errors.As to extract the structured information:
//
//	var apiErr *api.APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.Code == api.ErrCodeInvalidCredentials { ... }
//	}
type APIError struct {
	// Code is the backend error code (e.g., "INVALID_CREDENTIALS").
	Code string `json:"code"`
	// Message is the human-readable description from the backend.
	Message string `json:"message"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Backend error codes.
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeEmailInUse         = "EMAIL_IN_USE"
	ErrCodeRideNotCancellable = "RIDE_NOT_CANCELLABLE"
	ErrCodeUnknown            = "UNKNOWN"
)

// IsAPIError checks whether err is a *APIError with the given code.
func IsAPIError(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// IsAuthRejected reports whether err is a credential rejection (HTTP
// 401). A rejected credential forces the session store's logout path.
func IsAuthRejected(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

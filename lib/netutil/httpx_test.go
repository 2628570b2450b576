// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
	"testing"
)

func TestDecodeResponse(t *testing.T) {
	var decoded struct {
		Name string `json:"name"`
	}
	if err := DecodeResponse(strings.NewReader(`{"name":"ada"}`), &decoded); err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if decoded.Name != "ada" {
		t.Errorf("unexpected name: %q", decoded.Name)
	}
}

func TestDecodeResponseInvalidJSON(t *testing.T) {
	var decoded map[string]any
	if err := DecodeResponse(strings.NewReader("{"), &decoded); err == nil {
		t.Error("DecodeResponse on truncated JSON succeeded")
	}
}

func TestReadResponseBounded(t *testing.T) {
	data, err := ReadResponse(strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("ReadResponse failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("unexpected body: %q", data)
	}
}

func TestErrorBodySwallowsReadErrors(t *testing.T) {
	if got := ErrorBody(failingReader{}); got != "" {
		t.Errorf("unexpected body: %q", got)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestIsExpectedCloseError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.EOF, true},
		{"wrapped eof", errors.Join(errors.New("read"), io.EOF), true},
		{"closed", net.ErrClosed, true},
		{"epipe", syscall.EPIPE, true},
		{"econnreset", syscall.ECONNRESET, true},
		{"other errno", syscall.EINVAL, false},
		{"other error", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsExpectedCloseError(tc.err); got != tc.want {
				t.Errorf("IsExpectedCloseError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

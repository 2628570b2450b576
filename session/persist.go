// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nkthecoder12/swiftride-fleet/api"
)

// errCorruptSession marks a session file that exists but cannot be
// decoded. Restore treats it as logged out and removes the file.
var errCorruptSession = errors.New("session: corrupt session file")

// persistedSession is the on-disk session record. The token is
// stored in the clear; the file itself is the protection boundary
// (0600 in a 0700 directory).
type persistedSession struct {
	Token    string       `json:"token"`
	Identity api.Identity `json:"identity"`
}

// loadSession reads the session file. A missing file returns
// (nil, nil); an undecodable or tokenless file returns
// errCorruptSession.
func loadSession(path string) (*persistedSession, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: reading %s: %w", path, err)
	}
	var record persistedSession
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errCorruptSession, path, err)
	}
	if record.Token == "" {
		return nil, fmt.Errorf("%w: %s: missing token", errCorruptSession, path)
	}
	return &record, nil
}

// saveSession writes the session record atomically: temp file in the
// same directory, fsync, rename over the target, fsync the
// directory. A crash mid-write leaves either the old record or the
// new one, never a torn file.
func saveSession(path string, record persistedSession) error {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("session: creating %s: %w", directory, err)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("session: encoding session record: %w", err)
	}

	temp, err := os.CreateTemp(directory, ".session-*")
	if err != nil {
		return fmt.Errorf("session: creating temp file: %w", err)
	}
	tempName := temp.Name()
	removeTemp := func() { _ = os.Remove(tempName) }

	if err := temp.Chmod(0o600); err != nil {
		temp.Close()
		removeTemp()
		return fmt.Errorf("session: restricting %s: %w", tempName, err)
	}
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		removeTemp()
		return fmt.Errorf("session: writing %s: %w", tempName, err)
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		removeTemp()
		return fmt.Errorf("session: syncing %s: %w", tempName, err)
	}
	if err := temp.Close(); err != nil {
		removeTemp()
		return fmt.Errorf("session: closing %s: %w", tempName, err)
	}
	if err := os.Rename(tempName, path); err != nil {
		removeTemp()
		return fmt.Errorf("session: renaming into %s: %w", path, err)
	}

	if dir, err := os.Open(directory); err == nil {
		_ = dir.Sync()
		dir.Close()
	}
	return nil
}

// clearSession removes the session file. Missing is not an error.
func clearSession(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: removing %s: %w", path, err)
	}
	return nil
}

// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/nkthecoder12/swiftride-fleet/lib/secret"
)

// PromptPassword reads a password from the terminal without echo and
// moves it into locked memory. When stdin is not a terminal (piped
// input, CI), it falls back to reading one line.
func PromptPassword(prompt string) (*secret.Buffer, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		// NewFromBytes zeroes raw.
		return secret.NewFromBytes(raw)
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return secret.NewFromBytes([]byte(strings.TrimRight(line, "\r\n")))
}

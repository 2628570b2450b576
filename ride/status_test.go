// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package ride

import "testing"

func TestStatusRankOrder(t *testing.T) {
	ordered := []Status{StatusPending, StatusAssigned, StatusDriverArriving, StatusStarted, StatusCompleted}
	for index, status := range ordered {
		rank, ok := status.Rank()
		if !ok {
			t.Fatalf("%s has no rank", status)
		}
		if rank != index {
			t.Errorf("%s rank = %d, want %d", status, rank, index)
		}
	}

	if _, ok := StatusCancelled.Rank(); ok {
		t.Error("CANCELLED has a rank; it must sit outside the progression")
	}
}

func TestCanAdvanceTo(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"forward one step", StatusPending, StatusAssigned, true},
		{"forward skipping steps", StatusPending, StatusStarted, true},
		{"duplicate", StatusAssigned, StatusAssigned, false},
		{"backward", StatusStarted, StatusAssigned, false},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"started to cancelled", StatusStarted, StatusCancelled, true},
		{"completed to cancelled", StatusCompleted, StatusCancelled, true},
		{"cancelled is absorbing", StatusCancelled, StatusStarted, false},
		{"cancelled to cancelled", StatusCancelled, StatusCancelled, false},
		{"completed is terminal", StatusCompleted, StatusStarted, false},
		{"invalid from", Status("BOGUS"), StatusAssigned, false},
		{"invalid to", StatusPending, Status("BOGUS"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.CanAdvanceTo(tc.to); got != tc.want {
				t.Errorf("%s.CanAdvanceTo(%s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("DRIVER_ARRIVING")
	if err != nil {
		t.Fatalf("ParseStatus failed: %v", err)
	}
	if status != StatusDriverArriving {
		t.Errorf("unexpected status: %s", status)
	}

	if _, err := ParseStatus("driving"); err == nil {
		t.Error("ParseStatus accepted unknown status")
	}
}

func TestTerminal(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusPending:   false,
		StatusStarted:   false,
		StatusCompleted: true,
		StatusCancelled: true,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"USER", "DRIVER", "OWNER"} {
		if _, err := ParseRole(raw); err != nil {
			t.Errorf("ParseRole(%q) failed: %v", raw, err)
		}
	}
	if _, err := ParseRole("ADMIN"); err == nil {
		t.Error("ParseRole accepted unknown role")
	}
}

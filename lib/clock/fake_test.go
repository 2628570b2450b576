// Copyright 2026 The SwiftRide Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var testEpoch = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	fake := Fake(testEpoch)
	ch := fake.After(5 * time.Second)

	select {
	case <-ch:
		t.Fatal("timer fired before Advance")
	default:
	}

	fake.Advance(4 * time.Second)
	select {
	case <-ch:
		t.Fatal("timer fired before its deadline")
	default:
	}

	fake.Advance(time.Second)
	select {
	case fired := <-ch:
		want := testEpoch.Add(5 * time.Second)
		if !fired.Equal(want) {
			t.Errorf("fire time %v, want %v", fired, want)
		}
	default:
		t.Fatal("timer did not fire at its deadline")
	}
}

func TestFakeAfterNonPositiveFiresImmediately(t *testing.T) {
	fake := Fake(testEpoch)
	select {
	case <-fake.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
}

func TestFakeTimerStop(t *testing.T) {
	fake := Fake(testEpoch)
	timer := fake.NewTimer(time.Second)

	if !timer.Stop() {
		t.Error("Stop on pending timer returned false")
	}
	if timer.Stop() {
		t.Error("second Stop returned true")
	}

	fake.Advance(2 * time.Second)
	select {
	case <-timer.C:
		t.Error("stopped timer fired")
	default:
	}
}

func TestFakeAdvanceFiresInDeadlineOrder(t *testing.T) {
	fake := Fake(testEpoch)
	second := fake.After(2 * time.Second)
	first := fake.After(1 * time.Second)

	fake.Advance(3 * time.Second)

	firstFired := <-first
	secondFired := <-second
	if !firstFired.Before(secondFired) {
		t.Errorf("fire order inverted: %v then %v", firstFired, secondFired)
	}
}

func TestFakeSleepBlocksUntilAdvance(t *testing.T) {
	fake := Fake(testEpoch)
	done := make(chan struct{})

	go func() {
		fake.Sleep(time.Second)
		close(done)
	}()

	fake.BlockUntilWaiters(1)
	select {
	case <-done:
		t.Fatal("Sleep returned before Advance")
	default:
	}

	fake.Advance(time.Second)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sleep did not return after Advance")
	}
}

func TestFakeWaiterCount(t *testing.T) {
	fake := Fake(testEpoch)
	if fake.WaiterCount() != 0 {
		t.Fatalf("fresh clock has %d waiters", fake.WaiterCount())
	}

	fake.After(time.Second)
	timer := fake.NewTimer(time.Second)
	if fake.WaiterCount() != 2 {
		t.Errorf("waiter count %d, want 2", fake.WaiterCount())
	}

	timer.Stop()
	if fake.WaiterCount() != 1 {
		t.Errorf("waiter count after stop %d, want 1", fake.WaiterCount())
	}
}

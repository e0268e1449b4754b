package lifecycle

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { calls.Add(1) })
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Touch()
		time.Sleep(5 * time.Millisecond)
	}

	if !d.Pending() {
		t.Fatal("expected a pending call during the burst")
	}

	deadline := time.Now().Add(1 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	// Allow a possible duplicate to surface before counting.
	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
	if d.Pending() {
		t.Error("expected no pending call after firing")
	}
}

func TestDebouncer_ZeroDelayIsSynchronous(t *testing.T) {
	calls := 0
	d := NewDebouncer(0, func() { calls++ })

	d.Touch()
	d.Touch()

	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })

	d.Touch()
	d.Stop()
	d.Touch()

	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("expected no calls after Stop, got %d", got)
	}
}

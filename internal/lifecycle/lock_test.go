package lifecycle

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestInstanceLock_AcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "watch.lock")
	lock := NewInstanceLock(path)

	if err := lock.Acquire(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("lock file not created: %v", err)
	}
	if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		t.Errorf("expected own pid in lock file, got %q", data)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected lock file to be removed")
	}

	// Releasing twice is a no-op.
	if err := lock.Release(); err != nil {
		t.Errorf("unexpected error on second release: %v", err)
	}
}

func TestInstanceLock_HeldByLiveProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.lock")

	first := NewInstanceLock(path)
	if err := first.Acquire(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer first.Release() //nolint:errcheck

	second := NewInstanceLock(path)
	err := second.Acquire()
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	// The failed acquirer must not remove the holder's lock.
	if err := second.Release(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("lock file removed by non-holder")
	}
}

func TestInstanceLock_TakesOverStaleLock(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "garbage", content: "not-a-pid\n"},
		{name: "empty", content: ""},
		// PIDs are bounded by pid_max (at most 2^22 on Linux).
		{name: "dead pid", content: "99999999\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "watch.lock")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}

			lock := NewInstanceLock(path)
			if err := lock.Acquire(); err != nil {
				t.Fatalf("expected stale lock to be taken over, got %v", err)
			}
			defer lock.Release() //nolint:errcheck
		})
	}
}

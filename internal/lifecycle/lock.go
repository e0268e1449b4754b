package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrLocked is returned when another live process holds the lock.
var ErrLocked = errors.New("another instance is already running")

// InstanceLock is a PID file that keeps a second daemon from starting.
// A lock left behind by a dead process is taken over.
type InstanceLock struct {
	path string
	held bool
}

// NewInstanceLock creates a lock at path.
func NewInstanceLock(path string) *InstanceLock {
	return &InstanceLock{path: path}
}

// Path returns the lock file path.
func (l *InstanceLock) Path() string {
	return l.path
}

// Acquire creates the lock file.
func (l *InstanceLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
		if err == nil {
			defer f.Close() //nolint:errcheck // Write-only operation, close error is not critical
			if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
				return fmt.Errorf("failed to write lock file: %w", err)
			}
			l.held = true
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to create lock file: %w", err)
		}

		pid, alive := l.owner()
		if alive {
			return fmt.Errorf("%w (pid %d, lock %s)", ErrLocked, pid, l.path)
		}

		// Stale lock from a process that is gone.
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale lock file: %w", err)
		}
	}

	return fmt.Errorf("%w (lock %s)", ErrLocked, l.path)
}

// Release removes the lock file if this process holds it.
func (l *InstanceLock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// owner returns the PID recorded in the lock file and whether it is alive.
func (l *InstanceLock) owner() (int, bool) {
	data, err := os.ReadFile(l.path) // #nosec G304 - path is derived from the user cache directory
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	// Signal 0 checks for existence without delivering anything.
	err = syscall.Kill(pid, 0)
	return pid, err == nil || errors.Is(err, syscall.EPERM)
}

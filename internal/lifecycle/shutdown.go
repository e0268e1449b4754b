// Package lifecycle coordinates signals, graceful shutdown and the single
// instance lock of the watch daemon.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownManager turns SIGTERM/SIGINT into context cancellation and SIGHUP
// into a reload callback.
type ShutdownManager struct {
	signalChan   chan os.Signal
	shutdownChan chan struct{}
	mu           sync.Mutex
	shutdown     bool
	stopped      bool
	reason       string
	onReload     func()
}

// NewShutdownManager creates a new shutdown manager.
func NewShutdownManager() *ShutdownManager {
	return &ShutdownManager{
		signalChan:   make(chan os.Signal, 1),
		shutdownChan: make(chan struct{}, 1),
	}
}

// OnReload registers fn to run on SIGHUP.
func (sm *ShutdownManager) OnReload(fn func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onReload = fn
}

// Start begins listening for signals. The returned context is cancelled
// when shutdown is initiated or ctx is done.
func (sm *ShutdownManager) Start(ctx context.Context) context.Context {
	signal.Notify(sm.signalChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	shutdownCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer cancel()
		for {
			select {
			case sig, ok := <-sm.signalChan:
				if !ok {
					return
				}
				if sig == syscall.SIGHUP {
					sm.reload()
					continue
				}
				sm.Shutdown(fmt.Sprintf("received signal: %v", sig))
				return

			case <-sm.shutdownChan:
				return

			case <-ctx.Done():
				return
			}
		}
	}()

	return shutdownCtx
}

func (sm *ShutdownManager) reload() {
	sm.mu.Lock()
	fn := sm.onReload
	sm.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Shutdown initiates shutdown with the given reason. Only the first reason
// is kept.
func (sm *ShutdownManager) Shutdown(reason string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return
	}

	sm.shutdown = true
	sm.reason = reason

	select {
	case sm.shutdownChan <- struct{}{}:
	default:
	}
}

// IsShutdown returns whether shutdown has been initiated.
func (sm *ShutdownManager) IsShutdown() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.shutdown
}

// Reason returns the reason for shutdown.
func (sm *ShutdownManager) Reason() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.reason
}

// Stop stops listening for signals.
func (sm *ShutdownManager) Stop() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.stopped {
		return
	}

	sm.stopped = true
	signal.Stop(sm.signalChan)
	close(sm.signalChan)
}

// GracefulShutdown waits for shutdownFunc, giving up after timeout.
func GracefulShutdown(ctx context.Context, shutdownFunc func(context.Context) error, timeout time.Duration) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- shutdownFunc(shutdownCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-shutdownCtx.Done():
		return fmt.Errorf("shutdown timed out after %v", timeout)
	}
}

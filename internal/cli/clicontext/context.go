// Package clicontext provides global CLI context and state management.
package clicontext

import "sync"

// Global holds the global CLI context, including flags that affect all commands.
type Global struct {
	// ConfigPath is an explicit configuration file (--config).
	ConfigPath string
	// NoColor disables colored output (--no-color).
	NoColor bool
}

var (
	globalContext = &Global{}
	mu            sync.RWMutex
)

// Set updates the global CLI context.
func Set(ctx *Global) {
	mu.Lock()
	defer mu.Unlock()
	globalContext = ctx
}

// Get returns a copy of the current global CLI context.
func Get() Global {
	mu.RLock()
	defer mu.RUnlock()
	return *globalContext
}

// SetConfigPath sets the explicit configuration file.
func SetConfigPath(path string) {
	mu.Lock()
	defer mu.Unlock()
	globalContext.ConfigPath = path
}

// SetNoColor disables colored output.
func SetNoColor(value bool) {
	mu.Lock()
	defer mu.Unlock()
	globalContext.NoColor = value
}

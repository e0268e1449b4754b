// Package credentials persists the single username/password pair used to
// authenticate against the portal.
package credentials

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fzdarsky/portalpass/internal/config"
)

// Credentials is a username/password pair.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Valid reports whether both fields are non-empty.
func (c Credentials) Valid() bool {
	return c.Username != "" && c.Password != ""
}

// Trimmed returns the pair with surrounding whitespace removed.
func (c Credentials) Trimmed() Credentials {
	return Credentials{
		Username: strings.TrimSpace(c.Username),
		Password: strings.TrimSpace(c.Password),
	}
}

// Store persists at most one credential pair.
type Store interface {
	// Save overwrites the stored pair.
	Save(username, password string) error
	// Load returns the stored pair, or an empty pair when nothing is stored.
	Load() (Credentials, error)
	// Clear erases the stored pair. Clearing an empty store is not an error.
	Clear() error
}

// New creates the store selected by the configuration.
func New(cfg *config.Config) (Store, error) {
	switch cfg.Credentials.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFile, "":
		dir := cfg.Credentials.Dir
		if dir == "" {
			var err error
			dir, err = config.UserConfigDir()
			if err != nil {
				return nil, err
			}
		}
		return NewFileStore(dir)
	default:
		return nil, fmt.Errorf("unknown credentials backend %q", cfg.Credentials.Backend)
	}
}

// MemoryStore keeps the pair for the lifetime of the process.
type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements Store.
func (s *MemoryStore) Save(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{Username: username, Password: password}
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, nil
}

// Clear implements Store.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	return nil
}

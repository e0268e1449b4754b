package credentials

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"gopkg.in/yaml.v3"

	"github.com/fzdarsky/portalpass/internal/config"
)

const (
	keyFileName     = "credentials.key"
	sealedFileName  = "credentials.enc"
	secretFileMode  = 0o600 // Owner read/write only
	sealedOverhead  = chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	maxSealedLength = 64 << 10
)

// ErrCorrupt is returned when the sealed file cannot be opened with the key.
var ErrCorrupt = errors.New("credential file is corrupt or was sealed with another key")

// FileStore keeps the pair in a file sealed with XChaCha20-Poly1305.
// The key is generated on first use and kept next to the sealed file.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := config.EnsureDir(dir); err != nil {
		return nil, err
	}

	return &FileStore{dir: dir}, nil
}

// Path returns the location of the sealed file.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, sealedFileName)
}

// Save seals the pair and replaces the file atomically.
func (s *FileStore) Save(username, password string) error {
	plaintext, err := yaml.Marshal(Credentials{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	key, err := s.key(true)
	if err != nil {
		return err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("failed to initialize cipher: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX, sealedOverhead+len(plaintext))
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, []byte(sealedFileName))

	if err := writeFileAtomic(s.Path(), sealed); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return nil
}

// Load opens the sealed file. A missing file yields empty credentials.
func (s *FileStore) Load() (Credentials, error) {
	sealed, err := os.ReadFile(s.Path()) // #nosec G304 - path is derived from the configured directory
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("failed to read credentials: %w", err)
	}

	if len(sealed) < sealedOverhead || len(sealed) > maxSealedLength {
		return Credentials{}, ErrCorrupt
	}

	key, err := s.key(false)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, ErrCorrupt
		}
		return Credentials{}, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(sealedFileName))
	if err != nil {
		return Credentials{}, ErrCorrupt
	}

	var creds Credentials
	if err := yaml.Unmarshal(plaintext, &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to decode credentials: %w", err)
	}

	return creds, nil
}

// Clear removes the sealed file. The key is kept for the next Save.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.Path()); err != nil {
		if os.IsNotExist(err) {
			return nil // Already cleared, not an error
		}
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	return nil
}

// key reads the key file, creating it when create is set.
func (s *FileStore) key(create bool) ([]byte, error) {
	path := filepath.Join(s.dir, keyFileName)

	key, err := os.ReadFile(path) // #nosec G304 - path is derived from the configured directory
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("key file %s has invalid length %d", path, len(key))
		}
		return key, nil
	}
	if !os.IsNotExist(err) || !create {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	if err := writeFileAtomic(path, key); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}

	return key, nil
}

// writeFileAtomic writes data to a temporary file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(secretFileMode); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

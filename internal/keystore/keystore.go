// Package keystore owns the locally persisted shared secret used to encrypt
// item payloads crossing the RPC boundary.
package keystore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"trans-gate/internal/utils"

	"github.com/sirupsen/logrus"
)

// KeyFileName is the fixed, well-known key file relative to the working directory.
const KeyFileName = ".skey"

// KeyLength is the shared secret length in bytes. It doubles as the AES-128 key size.
const KeyLength = 16

// Store loads or creates the shared secret and serves it for the process lifetime.
type Store struct {
	dir string

	mu  sync.Mutex
	key string
}

// NewStore creates a key store rooted at dir. An empty dir uses the working directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir}
}

// FilePath returns the absolute location of the key file.
func (s *Store) FilePath() string {
	abs, err := filepath.Abs(filepath.Join(s.dir, KeyFileName))
	if err != nil {
		return filepath.Join(s.dir, KeyFileName)
	}
	return abs
}

// Ensure loads the persisted key, generating and persisting a fresh one when
// no key file exists yet. It reports whether a new key was created.
func (s *Store) Ensure() (key string, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != "" {
		return s.key, false, nil
	}

	path := s.FilePath()
	existing, err := loadKeyFile(path)
	if err == nil {
		s.key = existing
		return s.key, false, nil
	}
	if !os.IsNotExist(err) {
		return "", false, err
	}

	generated := utils.RandomAlphanumeric(KeyLength)

	// O_EXCL makes creation atomic: if another process won the race, load its key instead.
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			existing, loadErr := loadKeyFile(path)
			if loadErr != nil {
				return "", false, loadErr
			}
			s.key = existing
			return s.key, false, nil
		}
		return "", false, fmt.Errorf("create security key file %q: %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(generated); err != nil {
		return "", false, fmt.Errorf("write security key file %q: %w", path, err)
	}

	s.key = generated
	logrus.Warnf("A security key has been generated and saved to the %s file.", path)
	return s.key, true, nil
}

// loadKeyFile reads and validates a persisted key. A missing file is
// reported with the bare os error so callers can branch on os.IsNotExist.
func loadKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("read security key file %q: %w", path, err)
	}
	if len(data) != KeyLength {
		return "", fmt.Errorf("security key file %q has invalid length %d (expected %d)", path, len(data), KeyLength)
	}
	return string(data), nil
}

// Current returns the loaded key. It panics when called before Ensure,
// which would indicate a wiring bug rather than a runtime condition.
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == "" {
		panic("keystore: Current called before Ensure")
	}
	return s.key
}

package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/awnumar/memguard"

	"github.com/byteatatime/flare-assist/internal/logger"
)

const (
	// ServiceName is the fixed service identifier for the assistant credential.
	ServiceName = "dev.byteatatime.flare.ai"
	// AccountName is the fixed account the API key is stored under.
	AccountName = "openrouter_api_key"
)

// ErrNotFound is returned when no credential has been stored.
var ErrNotFound = errors.New("credential not found")

// Store persists a single API key, encrypted at rest and held in locked
// memory once loaded. It is keyed by the fixed ServiceName/AccountName pair.
type Store struct {
	mu         sync.Mutex
	dir        string
	passphrase string
	cached     *memguard.Enclave
}

// NewStore creates a credential store rooted at dir. An empty passphrase
// falls back to a fixed application passphrase, matching the behavior of an
// OS keyring entry that is readable by the logged-in user.
func NewStore(dir, passphrase string) *Store {
	if strings.TrimSpace(passphrase) == "" {
		passphrase = ServiceName + "/" + AccountName
	}
	return &Store{dir: dir, passphrase: passphrase}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, "credentials", AccountName+".json")
}

// Set stores the API key, replacing any existing value.
func (s *Store) Set(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := EncryptBytes([]byte(key), s.passphrase)
	if err != nil {
		return fmt.Errorf("encrypt credential: %w", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path()), 0700); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}
	if err := os.WriteFile(s.path(), data, 0600); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}

	s.cached = memguard.NewEnclave([]byte(key))
	logger.Info("secrets: stored credential for %s/%s", ServiceName, AccountName)
	return nil
}

// Get returns the stored API key, or ErrNotFound if none has been set.
// The key stays sealed in locked memory between calls; the returned string
// is a short-lived copy for building the Authorization header.
func (s *Store) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		buf, err := s.cached.Open()
		if err != nil {
			return "", fmt.Errorf("open credential enclave: %w", err)
		}
		defer buf.Destroy()
		return string(buf.Bytes()), nil
	}

	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read credential: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	plaintext, err := DecryptBytes(&payload, s.passphrase)
	if err != nil {
		return "", err
	}

	key := string(plaintext)
	// NewEnclave wipes the source slice, so copy the key out first.
	s.cached = memguard.NewEnclave(plaintext)
	return key, nil
}

// IsSet reports whether a credential is stored.
func (s *Store) IsSet() (bool, error) {
	_, err := s.Get()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Delete removes the stored credential. Deleting an absent credential is an
// error, mirroring keyring semantics.
func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	if err := os.Remove(s.path()); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

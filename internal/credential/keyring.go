// Package credential keeps the notifyctl bearer token in the OS keyring.
package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const (
	serviceName = "pactnotify"
	tokenKey    = "notifications-token"
)

var ErrNotFound = errors.New("credential not found")

// Store wraps a keyring. Open picks the platform backend; tests pass an
// in-memory ring to NewStore.
type Store struct {
	ring keyring.Keyring
}

func NewStore(ring keyring.Keyring) *Store { return &Store{ring: ring} }

// EnvFilePassword supplies the passphrase for the encrypted file fallback.
// Without it the passphrase is read from the terminal.
const EnvFilePassword = "PACTNOTIFY_KEYRING_PASSWORD"

// Open returns a Store backed by the first available system keyring.
func Open() (*Store, error) {
	ring, err := keyring.Open(ringConfig(os.Getenv))
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

func ringConfig(getenv func(string) string) keyring.Config {
	prompt := keyring.TerminalPrompt
	if pw := getenv(EnvFilePassword); pw != "" {
		prompt = keyring.FixedStringPrompt(pw)
	}
	return keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/pactnotify/credentials",
		FilePasswordFunc:         prompt,
		KeychainTrustApplication: true,
	}
}

// Token returns the stored bearer token or ErrNotFound.
func (s *Store) Token() (string, error) {
	item, err := s.ring.Get(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting token: %w", err)
	}
	return string(item.Data), nil
}

func (s *Store) SetToken(token string) error {
	if token == "" {
		return errors.New("token is empty")
	}
	err := s.ring.Set(keyring.Item{
		Key:   tokenKey,
		Data:  []byte(token),
		Label: "pactnotify notifications token",
	})
	if err != nil {
		return fmt.Errorf("setting token: %w", err)
	}
	return nil
}

// DeleteToken removes the token. Deleting a missing token is not an error.
func (s *Store) DeleteToken() error {
	err := s.ring.Remove(tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}

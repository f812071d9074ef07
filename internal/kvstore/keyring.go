package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// keyringService is the service name shelf items are stored under.
const keyringService = "shelf"

// KeyringStore keeps values in the operating system credential store.
// It suits machines where the settings file would live on a shared home.
type KeyringStore struct {
	ring keyring.Keyring
}

// KeyringConfig configures OpenKeyring.
type KeyringConfig struct {
	// FileDir is used by the encrypted-file fallback when no native store exists.
	FileDir string

	// Backends restricts which keyring backends may be used (empty = all available).
	Backends []keyring.BackendType
}

// OpenKeyring opens the platform keyring for shelf.
func OpenKeyring(cfg KeyringConfig) (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:              keyringService,
		AllowedBackends:          cfg.Backends,
		FileDir:                  cfg.FileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(""),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open keyring: %w", ErrUnavailable, err)
	}
	return NewKeyringStore(ring), nil
}

// NewKeyringStore wraps an already opened keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// Ready lists the keyring's keys, which forces an unlock on backends that need one.
func (s *KeyringStore) Ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.ring.Keys(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *KeyringStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read keyring item %s: %w", key, err)
	}
	return item.Data, true, nil
}

func (s *KeyringStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  value,
		Label: "shelf " + key,
	})
	if err != nil {
		return fmt.Errorf("write keyring item %s: %w", key, err)
	}
	return nil
}

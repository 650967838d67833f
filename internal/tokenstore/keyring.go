package tokenstore

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// DefaultKeyringService is the keyring service the token is filed under.
const DefaultKeyringService = "graphmail"

// keyringItem is the key of the refresh token inside the service.
const keyringItem = "refresh_token"

// KeyringStore keeps the refresh token in the OS credential store.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore opens the system keyring for service.
func NewKeyringStore(service string) (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/" + service + "/credentials",
		FilePasswordFunc:         keyring.TerminalPrompt,
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewKeyringStoreFrom(ring), nil
}

// NewKeyringStoreFrom wraps an already opened keyring.
func NewKeyringStoreFrom(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

func (s *KeyringStore) Load() (string, error) {
	item, err := s.ring.Get(keyringItem)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("getting credential %q: %w", keyringItem, err)
	}

	if len(item.Data) == 0 {
		return "", ErrNotFound
	}
	return string(item.Data), nil
}

func (s *KeyringStore) Save(token string) error {
	err := s.ring.Set(keyring.Item{
		Key:   keyringItem,
		Data:  []byte(token),
		Label: "graphmail refresh token",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", keyringItem, err)
	}
	return nil
}

func (s *KeyringStore) Delete() error {
	if err := s.ring.Remove(keyringItem); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", keyringItem, err)
	}
	return nil
}

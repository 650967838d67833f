package tokenstore

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load when no refresh token has been persisted.
var ErrNotFound = errors.New("no refresh token stored")

// Store kinds accepted by New.
const (
	KindFile    = "file"
	KindKeyring = "keyring"
)

// Store persists a single refresh token.
type Store interface {
	// Load returns the stored refresh token or ErrNotFound.
	Load() (string, error)
	// Save overwrites the stored refresh token.
	Save(token string) error
	// Delete removes the stored token. Deleting an empty store is not an error.
	Delete() error
}

// New returns the store for kind. path is the token file for KindFile and
// is ignored otherwise.
func New(kind, path string) (Store, error) {
	switch kind {
	case KindFile, "":
		return NewFileStore(path), nil
	case KindKeyring:
		return NewKeyringStore(DefaultKeyringService)
	default:
		return nil, fmt.Errorf("unknown token store %q, must be one of: file, keyring", kind)
	}
}

package tokenstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "refresh_token.txt"))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_LoadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refresh_token.txt")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0600))

	_, err := NewFileStore(path).Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_LoadTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refresh_token.txt")
	require.NoError(t, os.WriteFile(path, []byte("M.R3_BAY.token\n"), 0600))

	token, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "M.R3_BAY.token", token)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refresh_token.txt")
	store := NewFileStore(path)

	require.NoError(t, store.Save("a-much-longer-first-token"))
	require.NoError(t, store.Save("second"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", token)
}

func TestFileStore_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "token")
	store := NewFileStore(path)

	require.NoError(t, store.Save("tok"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_Delete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refresh_token.txt")
	store := NewFileStore(path)

	require.NoError(t, store.Save("tok"))
	require.NoError(t, store.Delete())

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, store.Delete())
}

func TestNewFileStore_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultTokenFile, NewFileStore("").Path())
}

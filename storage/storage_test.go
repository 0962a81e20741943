package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rewards-dashboard/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStorage(t *testing.T, st Storage) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := st.GetItem(ctx, KeyAuth)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.SetItem(ctx, KeyAuth, `{"state":{}}`))
	require.NoError(t, st.SetItem(ctx, KeyToken, "tok"))
	require.NoError(t, st.SetItem(ctx, KeyAuth, `{"state":{"store":null}}`))

	v, ok, err := st.GetItem(ctx, KeyAuth)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"state":{"store":null}}`, v)

	require.NoError(t, st.RemoveItem(ctx, KeyAuth))
	require.NoError(t, st.RemoveItem(ctx, KeyAuth))
	_, ok, err = st.GetItem(ctx, KeyAuth)
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err = st.GetItem(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
}

func TestMemory(t *testing.T) {
	t.Parallel()
	exerciseStorage(t, NewMemory())
}

func TestFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "client-storage.json")
	exerciseStorage(t, NewFile(path))

	// A second instance sees what the first wrote.
	v, ok, err := NewFile(path).GetItem(context.Background(), KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
}

func TestFileRejectsCorruptDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "client-storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, _, err := NewFile(path).GetItem(context.Background(), KeyAuth)
	require.Error(t, err)
}

func TestFileTreatsEmptyDocumentAsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "client-storage.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	_, ok, err := NewFile(path).GetItem(context.Background(), KeyAuth)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewMemory()
	src := TokenSource{Storage: st}

	_, ok := src.Token(ctx)
	assert.False(t, ok)

	require.NoError(t, st.SetItem(ctx, KeyToken, ""))
	_, ok = src.Token(ctx)
	assert.False(t, ok)

	require.NoError(t, st.SetItem(ctx, KeyToken, "abc"))
	tok, ok := src.Token(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	st, err := Open(&config.Config{StorageDriver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)

	st, err = Open(&config.Config{StorageDriver: "file", StorageFile: filepath.Join(t.TempDir(), "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &File{}, st)

	_, err = Open(&config.Config{StorageDriver: "redis"})
	require.ErrorIs(t, err, ErrUnknownDriver)
}

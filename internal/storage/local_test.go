package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Save(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "abc123.webm", "audio/webm", 5, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/abc123.webm", url)

	data, err := os.ReadFile(filepath.Join(dir, "abc123.webm"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestLocalStore_StripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "../../etc/evil.webm", "audio/webm", 2, strings.NewReader("ok"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/evil.webm", url)

	_, err = os.Stat(filepath.Join(dir, "evil.webm"))
	assert.NoError(t, err)
}

func TestNewLocalStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

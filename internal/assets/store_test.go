package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorePutDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "/assets/")
	require.NoError(t, err)
	ctx := context.Background()

	key := ProductKey("SKA000001")
	url, err := store.Put(ctx, key, []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/assets/"+key, url)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	// overwrite keeps a single file
	_, err = store.Put(ctx, key, []byte("new"))
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(dir, "products"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, store.Delete(ctx, url))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, url))
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestKeysAreUniquePerAttempt(t *testing.T) {
	a, b := ProductKey("SKA000001"), ProductKey("SKA000001")
	assert.Regexp(t, `^products/SKA000001-[0-9a-f]{12}\.png$`, a)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^items/SKG1-[0-9a-f]{12}\.png$`, ItemKey("SKG1"))

	store, err := NewFileStore(t.TempDir(), "/assets")
	require.NoError(t, err)
	ctx := context.Background()
	first, err := store.Put(ctx, a, []byte("first"))
	require.NoError(t, err)
	second, err := store.Put(ctx, b, []byte("second"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, second))
	data, err := os.ReadFile(filepath.Join(store.Dir(), filepath.FromSlash(a)))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	assert.NotEqual(t, first, second)
}

func TestFileStoreRejectsForeignAndTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "/assets")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Put(ctx, "../escape.png", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	err = store.Delete(ctx, "https://cdn.example.com/products/a.png")
	assert.ErrorIs(t, err, ErrInvalidKey)

	err = store.Delete(ctx, "/assets/../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFileStoreHonoursCancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "/assets")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Put(ctx, ItemKey("SKG1"), []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

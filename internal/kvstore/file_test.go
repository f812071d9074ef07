package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileStore(t *testing.T) {
	store := NewFileStore("/tmp/settings.json")

	require.NotNil(t, store)
	assert.Equal(t, "/tmp/settings.json", store.Path())
}

func TestFileStore_Ready(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing file and directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "settings.json")
		store := NewFileStore(path)

		require.NoError(t, store.Ready(ctx))

		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("returns ErrUnavailable for corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		err := NewFileStore(path).Ready(ctx)

		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("returns ErrUnavailable when parent is a file", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		err := NewFileStore(filepath.Join(blocker, "settings.json")).Ready(ctx)

		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("honors canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		err := NewFileStore(filepath.Join(t.TempDir(), "settings.json")).Ready(canceled)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFileStore_GetSet(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key reports not found", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "settings.json"))

		value, ok, err := store.Get(ctx, "settings")

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, value)
	})

	t.Run("round-trips a value", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "settings.json"))

		require.NoError(t, store.Set(ctx, "settings", []byte(`{"multi_mode":true}`)))

		value, ok, err := store.Get(ctx, "settings")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"multi_mode":true}`, string(value))
	})

	t.Run("persists across instances", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.json")
		require.NoError(t, NewFileStore(path).Set(ctx, "a", []byte(`1`)))

		value, ok, err := NewFileStore(path).Get(ctx, "a")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "1", string(value))
	})

	t.Run("rejects non JSON values", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "settings.json"))

		err := store.Set(ctx, "a", []byte("plain text"))

		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileStore(filepath.Join(dir, "settings.json"))
		require.NoError(t, store.Set(ctx, "a", []byte(`"x"`)))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "settings.json", entries[0].Name())
	})
}

func TestFileStore_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.json"))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			assert.NoError(t, store.Set(ctx, key, []byte(fmt.Sprintf("%d", i))))
		}()
	}
	wg.Wait()

	for i := range 20 {
		value, ok, err := store.Get(ctx, fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("%d", i), string(value))
	}
}

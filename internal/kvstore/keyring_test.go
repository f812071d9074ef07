package kvstore

import (
	"context"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringStore(t *testing.T) {
	ctx := context.Background()

	t.Run("is ready when keys can be listed", func(t *testing.T) {
		store := NewKeyringStore(keyring.NewArrayKeyring(nil))

		assert.NoError(t, store.Ready(ctx))
	})

	t.Run("missing key reports not found", func(t *testing.T) {
		store := NewKeyringStore(keyring.NewArrayKeyring(nil))

		_, ok, err := store.Get(ctx, "settings")

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("round-trips a value", func(t *testing.T) {
		ring := keyring.NewArrayKeyring(nil)
		store := NewKeyringStore(ring)

		require.NoError(t, store.Set(ctx, "settings", []byte(`{"sort":"oldest"}`)))

		value, ok, err := store.Get(ctx, "settings")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"sort":"oldest"}`, string(value))

		item, err := ring.Get("settings")
		require.NoError(t, err)
		assert.Equal(t, "shelf settings", item.Label)
	})

	t.Run("reads items seeded in the keyring", func(t *testing.T) {
		store := NewKeyringStore(keyring.NewArrayKeyring([]keyring.Item{
			{Key: "settings", Data: []byte(`{}`)},
		}))

		value, ok, err := store.Get(ctx, "settings")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "{}", string(value))
	})

	t.Run("honors canceled context", func(t *testing.T) {
		store := NewKeyringStore(keyring.NewArrayKeyring(nil))
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		assert.ErrorIs(t, store.Set(canceled, "k", []byte(`1`)), context.Canceled)
	})
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch/internal/models"
	"stockwatch/internal/storage"
)

func TestSQLiteStorage(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	t.Run("empty database reports not found", func(t *testing.T) {
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("save and load keeps order", func(t *testing.T) {
		targets := []models.Target{
			{URL: "https://www.cartier.com/z.html", Title: "z", Memo: "first"},
			{URL: "https://www.cartier.com/a.html", Title: "a"},
		}
		require.NoError(t, store.Save(ctx, storage.NewSnapshot(targets)))

		snap, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, targets, snap.Targets())
	})

	t.Run("save replaces previous contents", func(t *testing.T) {
		targets := []models.Target{{URL: "https://www.cartier.com/a.html", Title: "a"}}
		require.NoError(t, store.Save(ctx, storage.NewSnapshot(targets)))

		snap, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://www.cartier.com/a.html"}, snap.URLs)
	})
}

func TestSQLiteStoragePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stockwatch.db")

	store, err := New(ctx, path)
	require.NoError(t, err)
	targets := []models.Target{{URL: "https://www.cartier.com/x.html", Title: "x", Memo: "m"}}
	require.NoError(t, store.Save(ctx, storage.NewSnapshot(targets)))
	require.NoError(t, store.Close())

	reopened, err := New(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	snap, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, targets, snap.Targets())
}

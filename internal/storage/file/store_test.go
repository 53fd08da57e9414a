package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch/internal/models"
	"stockwatch/internal/storage"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "urls.json")
	store, err := New(path)
	require.NoError(t, err)

	targets := []models.Target{
		{URL: "https://www.cartier.com/b.html", Title: "b", Memo: "반지 <7>"},
		{URL: "https://www.cartier.com/a.html", Title: "a"},
	}
	require.NoError(t, store.Save(ctx, storage.NewSnapshot(targets)))

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, targets, snap.Targets())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"urls"`)
	assert.Contains(t, string(raw), `"titles"`)
	assert.Contains(t, string(raw), `"memos"`)
	assert.Contains(t, string(raw), "반지 <7>", "non-ascii and html characters are written verbatim")
}

func TestFileStoreMissingFile(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	store, err := New(path)
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)
}

package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch/internal/models"
	"stockwatch/internal/storage"
	"stockwatch/internal/storage/file"
	"stockwatch/internal/urlutil"
)

const base = "https://www.cartier.com"

func newFileRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.json")
	store, err := file.New(path)
	require.NoError(t, err)
	return New(store, urlutil.PrefixAllowList(base), zerolog.Nop()), path
}

type failingStore struct {
	loadErr error
	saves   int
}

func (f *failingStore) Load(ctx context.Context) (*storage.Snapshot, error) { return nil, f.loadErr }
func (f *failingStore) Save(ctx context.Context, s *storage.Snapshot) error {
	f.saves++
	return errors.New("disk full")
}
func (f *failingStore) Close() error { return nil }

func TestAdd(t *testing.T) {
	ctx := context.Background()
	reg, _ := newFileRegistry(t)

	t.Run("derives title when absent", func(t *testing.T) {
		require.NoError(t, reg.Add(ctx, base+"/x.html", "", "memo"))
		assert.Equal(t, []models.Target{{URL: base + "/x.html", Title: "x", Memo: "memo"}}, reg.List())
	})

	t.Run("exact duplicate is rejected", func(t *testing.T) {
		err := reg.Add(ctx, base+"/x.html", "other", "")
		assert.ErrorIs(t, err, ErrDuplicateURL)
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("url differing in trailing path is accepted", func(t *testing.T) {
		require.NoError(t, reg.Add(ctx, base+"/x.html/y", "Custom", ""))
		assert.Equal(t, 2, reg.Len())
		assert.Equal(t, "Custom", reg.List()[1].Title)
	})

	t.Run("empty url is invalid", func(t *testing.T) {
		assert.ErrorIs(t, reg.Add(ctx, "   ", "", ""), ErrInvalidURL)
	})

	t.Run("disallowed host is invalid", func(t *testing.T) {
		assert.ErrorIs(t, reg.Add(ctx, "https://evil.example/x.html", "", ""), ErrInvalidURL)
		assert.Equal(t, 2, reg.Len())
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	reg, _ := newFileRegistry(t)
	for _, p := range []string{"/a.html", "/b.html", "/c.html"} {
		require.NoError(t, reg.Add(ctx, base+p, "", ""))
	}

	for _, idx := range []int{-1, 3, 100} {
		_, err := reg.Remove(ctx, idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}
	assert.Equal(t, 3, reg.Len(), "out of range removal leaves registry unchanged")

	removed, err := reg.Remove(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "a", removed.Title)

	// Positions shift after a removal.
	removed, err = reg.Remove(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "c", removed.Title)

	assert.Equal(t, []models.Target{{URL: base + "/b.html", Title: "b"}}, reg.List())
}

func TestPersistAndLoad(t *testing.T) {
	ctx := context.Background()
	reg, path := newFileRegistry(t)
	require.NoError(t, reg.Add(ctx, base+"/a.html", "A", "first"))
	require.NoError(t, reg.Add(ctx, base+"/b.html", "", ""))

	store, err := file.New(path)
	require.NoError(t, err)
	reloaded := New(store, urlutil.PrefixAllowList(base), zerolog.Nop())
	reloaded.Load(ctx)

	assert.Equal(t, reg.List(), reloaded.List())
}

func TestLoadCorruptFileFallsBackToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"urls": [`), 0o644))
	store, err := file.New(path)
	require.NoError(t, err)

	reg := New(store, nil, zerolog.Nop())
	reg.Load(context.Background())
	assert.Equal(t, 0, reg.Len())
}

func TestLoadSkipsBlankAndDuplicateEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	doc := `{"urls": ["https://a/1", "", "https://a/1", "https://a/2"], "titles": {"https://a/1": "one"}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	store, err := file.New(path)
	require.NoError(t, err)

	reg := New(store, nil, zerolog.Nop())
	reg.Load(context.Background())
	assert.Equal(t, []models.Target{{URL: "https://a/1", Title: "one"}, {URL: "https://a/2"}}, reg.List())
}

func TestSaveFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{loadErr: errors.New("boom")}
	reg := New(store, nil, zerolog.Nop())
	reg.Load(ctx)

	require.NoError(t, reg.Add(ctx, "https://shop.example/a.html", "", ""))
	_, err := reg.Remove(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, store.saves)
	assert.Error(t, reg.Save(ctx))
}

func TestContains(t *testing.T) {
	reg, _ := newFileRegistry(t)
	require.NoError(t, reg.Add(context.Background(), base+"/a.html", "", ""))
	assert.True(t, reg.Contains(base+"/a.html"))
	assert.False(t, reg.Contains(base+"/b.html"))
}

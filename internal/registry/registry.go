package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"stockwatch/internal/models"
	"stockwatch/internal/storage"
	"stockwatch/internal/urlutil"
)

var (
	ErrInvalidURL      = errors.New("invalid url")
	ErrDuplicateURL    = errors.New("url already registered")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Registry is the ordered list of monitored targets.
// Every successful mutation is persisted through the Storer.
type Registry struct {
	// writeMu serializes mutations so snapshots reach the store in order.
	writeMu sync.Mutex
	mu      sync.RWMutex
	targets []models.Target
	store   storage.Storer
	allow   urlutil.AllowFunc
	log     zerolog.Logger
}

// New creates an empty registry. A nil allow func accepts any absolute
// http(s) URL.
func New(store storage.Storer, allow urlutil.AllowFunc, logger zerolog.Logger) *Registry {
	if allow == nil {
		allow = urlutil.PrefixAllowList()
	}
	return &Registry{
		store: store,
		allow: allow,
		log:   logger.With().Str("component", "registry").Logger(),
	}
}

// Load replaces the in-memory list with the persisted one. Read and decode
// failures are logged and leave the registry empty.
func (r *Registry) Load(ctx context.Context) {
	snap, err := r.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.log.Warn().Err(err).Msg("could not load targets, starting empty")
		}
		r.mu.Lock()
		r.targets = nil
		r.mu.Unlock()
		return
	}

	seen := make(map[string]struct{}, len(snap.URLs))
	var targets []models.Target
	for _, t := range snap.Targets() {
		if t.URL == "" {
			continue
		}
		if _, dup := seen[t.URL]; dup {
			continue
		}
		seen[t.URL] = struct{}{}
		targets = append(targets, t)
	}

	r.mu.Lock()
	r.targets = targets
	r.mu.Unlock()
	r.log.Info().Int("count", len(targets)).Msg("targets loaded")
}

// Add appends a target. title defaults to a slug derived from the URL.
func (r *Registry) Add(ctx context.Context, rawURL, title, memo string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || !r.allow(rawURL) {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if strings.TrimSpace(title) == "" {
		title = urlutil.DeriveTitle(rawURL)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	for _, t := range r.targets {
		if t.URL == rawURL {
			r.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrDuplicateURL, rawURL)
		}
	}
	r.targets = append(r.targets, models.Target{URL: rawURL, Title: title, Memo: memo})
	snap := storage.NewSnapshot(r.targets)
	r.mu.Unlock()

	r.persist(ctx, snap)
	return nil
}

// Remove deletes the target at index. Later targets shift down by one.
func (r *Registry) Remove(ctx context.Context, index int) (models.Target, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	if index < 0 || index >= len(r.targets) {
		n := len(r.targets)
		r.mu.Unlock()
		return models.Target{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, n)
	}
	removed := r.targets[index]
	r.targets = append(r.targets[:index:index], r.targets[index+1:]...)
	snap := storage.NewSnapshot(r.targets)
	r.mu.Unlock()

	r.persist(ctx, snap)
	return removed, nil
}

// List returns a copy of the targets in registry order.
func (r *Registry) List() []models.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Target, len(r.targets))
	copy(out, r.targets)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.targets)
}

// Contains reports whether url is currently registered.
func (r *Registry) Contains(url string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.targets {
		if t.URL == url {
			return true
		}
	}
	return false
}

// Save writes the current list to the store.
func (r *Registry) Save(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	snap := storage.NewSnapshot(r.targets)
	r.mu.RUnlock()
	if err := r.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("failed to save targets: %w", err)
	}
	return nil
}

// persist is best effort: the in-memory change stands even if the write fails.
func (r *Registry) persist(ctx context.Context, snap *storage.Snapshot) {
	if err := r.store.Save(ctx, snap); err != nil {
		r.log.Error().Err(err).Msg("failed to save targets")
	}
}

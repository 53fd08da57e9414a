package storage

import (
	"context"
	"errors"

	"stockwatch/internal/models"
)

var (
	// ErrNotFound is returned when no snapshot has been saved yet
	ErrNotFound = errors.New("not found")
)

// Snapshot is the persisted form of the target registry.
// URLs keeps registry order; titles and memos are keyed by URL.
type Snapshot struct {
	URLs   []string          `json:"urls"`
	Titles map[string]string `json:"titles"`
	Memos  map[string]string `json:"memos"`
}

// NewSnapshot builds a snapshot from an ordered list of targets.
func NewSnapshot(targets []models.Target) *Snapshot {
	s := &Snapshot{
		URLs:   make([]string, 0, len(targets)),
		Titles: make(map[string]string, len(targets)),
		Memos:  make(map[string]string, len(targets)),
	}
	for _, t := range targets {
		s.URLs = append(s.URLs, t.URL)
		s.Titles[t.URL] = t.Title
		s.Memos[t.URL] = t.Memo
	}
	return s
}

// Targets expands the snapshot back into ordered targets.
func (s *Snapshot) Targets() []models.Target {
	if s == nil {
		return nil
	}
	out := make([]models.Target, 0, len(s.URLs))
	for _, u := range s.URLs {
		out = append(out, models.Target{URL: u, Title: s.Titles[u], Memo: s.Memos[u]})
	}
	return out
}

// Storer defines the interface for persisting the target registry
type Storer interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
	Close() error
}

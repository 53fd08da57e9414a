package state

import (
	"sync"

	"stockwatch/internal/models"
)

// Transition describes one observation of a URL against the one before it.
type Transition struct {
	URL         string
	Previous    models.StockStatus
	Current     models.StockStatus
	HadPrevious bool
}

// Qualifies reports whether the transition should notify: the URL was seen
// before, its status changed, and it is now in stock.
func (t Transition) Qualifies() bool {
	return t.HadPrevious && t.Previous != t.Current && t.Current == models.InStock
}

// Store maps each URL to its last observed status.
type Store struct {
	mu   sync.RWMutex
	last map[string]models.StockStatus
}

func New() *Store {
	return &Store{last: make(map[string]models.StockStatus)}
}

// Observe records status for url and returns the transition from the
// previously recorded status.
func (s *Store) Observe(url string, status models.StockStatus) Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.last[url]
	s.last[url] = status
	return Transition{URL: url, Previous: prev, Current: status, HadPrevious: ok}
}

// Status returns the last observed status, or NotYetChecked.
func (s *Store) Status(url string) models.StockStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.last[url]; ok {
		return st
	}
	return models.NotYetChecked
}

// Forget drops everything known about url.
func (s *Store) Forget(url string) {
	s.mu.Lock()
	delete(s.last, url)
	s.mu.Unlock()
}

package activity

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/models"
)

// DefaultCapacity is the number of entries kept before the oldest is evicted.
const DefaultCapacity = 100

const timeOfDay = "15:04:05"

// Log is a bounded, append-only ring of human readable events.
// It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []models.LogEntry
	start   int // index of the oldest entry
	size    int
	now     func() time.Time
	log     zerolog.Logger
}

// New creates a Log holding at most capacity entries. Each appended line is
// mirrored to logger.
func New(capacity int, logger zerolog.Logger) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries: make([]models.LogEntry, capacity),
		now:     time.Now,
		log:     logger.With().Str("component", "activity").Logger(),
	}
}

// Append stamps msg with the current time of day and stores it, evicting the
// oldest entry when the log is full.
func (l *Log) Append(msg string) {
	entry := models.LogEntry{Message: msg}

	l.mu.Lock()
	entry.Timestamp = l.now().Format(timeOfDay)
	capacity := len(l.entries)
	if l.size < capacity {
		l.entries[(l.start+l.size)%capacity] = entry
		l.size++
	} else {
		l.entries[l.start] = entry
		l.start = (l.start + 1) % capacity
	}
	l.mu.Unlock()

	l.log.Info().Msgf("[%s] %s", entry.Timestamp, msg)
}

// Recent returns up to n of the newest entries in chronological order.
// n <= 0 returns everything held.
func (l *Log) Recent(n int) []models.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > l.size {
		n = l.size
	}
	out := make([]models.LogEntry, 0, n)
	capacity := len(l.entries)
	for i := l.size - n; i < l.size; i++ {
		out = append(out, l.entries[(l.start+i)%capacity])
	}
	return out
}

// Len reports how many entries are held.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

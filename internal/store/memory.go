package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/city-weather/internal/weather"
)

var (
	// ErrNotFound is returned when no lookups are recorded for a given city.
	ErrNotFound = errors.New("no weather lookups for city")
)

// LookupHistory holds a time-ordered list of Ready views for a city.
type LookupHistory struct {
	Views []weather.View
}

// MemoryStore is a concurrency-safe in-memory record of completed lookups.
// It is display-only history: the pipeline never reads from it.
type MemoryStore struct {
	mu sync.RWMutex

	// key: normalized city, value: history
	data map[string]*LookupHistory

	// retention configuration
	maxHistory int           // max number of views per city
	maxAge     time.Duration // optional max age for views

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*LookupHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Key normalizes a city name for indexing.
func Key(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Record appends a Ready view for its city and enforces retention.
// Views in any other state are ignored.
func (s *MemoryStore) Record(view weather.View) {
	if view.State != weather.StateReady {
		return
	}
	key := Key(view.City)

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &LookupHistory{}
		s.data[key] = history
	}

	history.Views = append(history.Views, view)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Views) > s.maxHistory {
		over := len(history.Views) - s.maxHistory
		history.Views = history.Views[over:]
	}

	s.pruneLocked(key, history)
}

// GetLatest returns the most recent lookup for a city.
func (s *MemoryStore) GetLatest(city string) (weather.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[Key(city)]
	if !ok || len(history.Views) == 0 {
		return weather.View{}, ErrNotFound
	}
	return history.Views[len(history.Views)-1], nil
}

// GetRange returns all lookups for a city between from and to (inclusive).
func (s *MemoryStore) GetRange(city string, from, to time.Time) ([]weather.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[Key(city)]
	if !ok || len(history.Views) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.View
	for _, v := range history.Views {
		if !v.UpdatedAt.Before(from) && !v.UpdatedAt.After(to) {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}

// Prune drops every view older than maxAge and returns how many were removed.
// Cities left without views are forgotten.
func (s *MemoryStore) Prune() int {
	if s.maxAge <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, history := range s.data {
		removed += s.pruneLocked(key, history)
	}
	return removed
}

func (s *MemoryStore) pruneLocked(key string, history *LookupHistory) int {
	if s.maxAge <= 0 {
		return 0
	}

	cutoff := s.now().Add(-s.maxAge)
	i := 0
	for ; i < len(history.Views); i++ {
		if !history.Views[i].UpdatedAt.Before(cutoff) {
			break
		}
	}
	if i == 0 {
		return 0
	}

	history.Views = history.Views[i:]
	if len(history.Views) == 0 {
		delete(s.data, key)
	}
	return i
}

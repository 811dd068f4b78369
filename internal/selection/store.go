package selection

import (
	"errors"
	"strings"
	"sync"
)

var (
	// ErrEmptyCity is returned when a city name is empty after trimming.
	ErrEmptyCity = errors.New("please enter a valid city name")
)

// Store holds the currently selected city and notifies subscribers when it changes.
// The zero value is not usable; create one with New.
type Store struct {
	// notifyMu serializes SetCity so subscribers observe updates in write order.
	notifyMu sync.Mutex

	mu     sync.RWMutex
	city   string
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id int
	fn func(city string)
}

// New creates an empty Store. The selection starts as "" (no city chosen yet).
func New() *Store {
	return &Store{}
}

// City returns the current selection.
func (s *Store) City() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.city
}

// SetCity trims name and replaces the current selection with it.
// Empty input leaves the store unchanged and returns ErrEmptyCity.
// Subscribers are called synchronously, in registration order, after the update,
// even when the same city is set twice. Concurrent calls are applied and
// notified one at a time, so the last notification always carries the
// current selection. Subscribers must not call SetCity.
func (s *Store) SetCity(name string) error {
	city := strings.TrimSpace(name)
	if city == "" {
		return ErrEmptyCity
	}
	// The caller's string may alias a reused request buffer.
	city = strings.Clone(city)

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.city = city
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	// Called outside the lock so subscribers may read the store.
	for _, sub := range subs {
		sub.fn(city)
	}
	return nil
}

// Subscribe registers fn to be notified after every successful SetCity.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(city string)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

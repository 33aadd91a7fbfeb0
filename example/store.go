package main

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pthm/blockload/example/blocks"
)

// Store is an in-memory catalog that implements blocks.SlideSource.
type Store struct {
	mu     sync.RWMutex
	slides map[string][]blocks.Slide
	delay  time.Duration
}

// NewStore creates a store with sample data. Lookups wait for delay to
// stand in for a remote catalog.
func NewStore(delay time.Duration) *Store {
	s := &Store{
		slides: make(map[string][]blocks.Slide),
		delay:  delay,
	}

	s.Add("featured", blocks.Slide{Title: "Trail runner", Href: "https://www.example.com/p/trail-runner"})
	s.Add("featured", blocks.Slide{Title: "Rain shell", Href: "https://www.example.com/p/rain-shell"})
	s.Add("featured", blocks.Slide{Title: "Camp stove", Href: "https://www.example.com/p/camp-stove"})
	s.Add("new", blocks.Slide{Title: "Headlamp", Href: "https://www.example.com/p/headlamp"})

	return s
}

// Add appends a slide to a collection.
func (s *Store) Add(collection string, slide blocks.Slide) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slides[collection] = append(s.slides[collection], slide)
}

// Collections returns the collection names, sorted.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.slides))
	for name := range s.slides {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Slides implements blocks.SlideSource.
func (s *Store) Slides(ctx context.Context, collection string) ([]blocks.Slide, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]blocks.Slide(nil), s.slides[collection]...), nil
}

package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/soniadragulescu/beerstore/internal/beer"
	"github.com/soniadragulescu/beerstore/internal/cache"
)

var _ cache.Store = (*Store)(nil)

// Store is a process-local cache. Nothing survives Close.
type Store struct {
	mu       sync.RWMutex
	byKey    map[string]beer.Item
	order    []string // newest write first
	settings map[string]string
}

func New() *Store {
	return &Store{
		byKey:    make(map[string]beer.Item),
		settings: make(map[string]string),
	}
}

func (s *Store) Put(ctx context.Context, key string, item beer.Item) error {
	_ = ctx
	if key == "" {
		return errors.New("snapshot key required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byKey[key]; ok {
		for i, k := range s.order {
			if k == key {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.byKey[key] = item.Clone()
	s.order = append([]string{key}, s.order...)
	return nil
}

func (s *Store) All(ctx context.Context) ([]beer.Item, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]beer.Item, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.byKey[k].Clone())
	}
	return out, nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	return v, ok, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.settings, key)
	return nil
}

func (s *Store) Close() error { return nil }

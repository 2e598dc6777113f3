package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"docverify/internal/apikey/models"
	"docverify/pkg/platform/sentinel"
)

// InMemoryKeyStore keeps API keys in memory. Keys are loaded once at startup.
type InMemoryKeyStore struct {
	mu     sync.RWMutex
	byID   map[string]*models.Key
	byName map[string]string
}

// NewInMemoryKeyStore creates an empty store.
func NewInMemoryKeyStore() *InMemoryKeyStore {
	return &InMemoryKeyStore{
		byID:   make(map[string]*models.Key),
		byName: make(map[string]string),
	}
}

// Save adds a key. Names are unique.
func (s *InMemoryKeyStore) Save(_ context.Context, key *models.Key) error {
	if key == nil {
		return fmt.Errorf("key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.ToLower(key.Name)
	if existing, ok := s.byName[name]; ok && existing != key.ID {
		return fmt.Errorf("api key name %q already in use", key.Name)
	}
	stored := *key
	s.byID[key.ID] = &stored
	s.byName[name] = key.ID
	return nil
}

// FindByID returns a copy of the key or sentinel.ErrNotFound.
func (s *InMemoryKeyStore) FindByID(_ context.Context, id string) (*models.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("api key %s: %w", id, sentinel.ErrNotFound)
	}
	out := *k
	return &out, nil
}

// List returns copies of all keys ordered by name.
func (s *InMemoryKeyStore) List(_ context.Context) ([]*models.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Key, 0, len(s.byID))
	for _, k := range s.byID {
		c := *k
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *models.Key) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

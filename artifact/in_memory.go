package artifact

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/fittelligence/core"
)

// InMemoryStore is an in-process ArtifactStore. Data is copied on save and
// retrieval. There are no quotas or eviction.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[core.SessionKey]map[string][]byte
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[core.SessionKey]map[string][]byte)}
}

// Save stores (or overwrites) the artifact bytes for the session.
func (a *InMemoryStore) Save(key core.SessionKey, name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("artifact name must not be empty")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.artifacts[key]; !exists {
		a.artifacts[key] = make(map[string][]byte)
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	a.artifacts[key][name] = cp

	return nil
}

// Get returns a copy of the stored artifact bytes or ErrNotFound.
func (a *InMemoryStore) Get(key core.SessionKey, name string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	data, ok := a.artifacts[key][name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, key)
	}

	cp := make([]byte, len(data))
	copy(cp, data)

	return cp, nil
}

// List returns the sorted artifact names stored for the session.
func (a *InMemoryStore) List(key core.SessionKey) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.artifacts[key]))
	for name := range a.artifacts[key] {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// Delete removes the artifact or returns ErrNotFound.
func (a *InMemoryStore) Delete(key core.SessionKey, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.artifacts[key][name]; !ok {
		return fmt.Errorf("%w: %s in %s", ErrNotFound, name, key)
	}

	delete(a.artifacts[key], name)

	return nil
}

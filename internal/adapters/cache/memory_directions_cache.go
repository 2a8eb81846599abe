package cache

import (
	"context"
	"fmt"
	"pathbuilder-service/internal/ports"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryDirectionsCache keeps the most recently used results in process.
type MemoryDirectionsCache struct {
	entries *lru.Cache[string, ports.DirectionsResult]
}

func NewMemoryDirectionsCache(size int) (*MemoryDirectionsCache, error) {
	entries, err := lru.New[string, ports.DirectionsResult](size)
	if err != nil {
		return nil, fmt.Errorf("new memory directions cache: %w", err)
	}
	return &MemoryDirectionsCache{entries: entries}, nil
}

func (m *MemoryDirectionsCache) Get(_ context.Context, key string) (ports.DirectionsResult, bool, error) {
	res, ok := m.entries.Get(key)
	return res, ok, nil
}

func (m *MemoryDirectionsCache) Put(_ context.Context, key string, result ports.DirectionsResult) error {
	m.entries.Add(key, result)
	return nil
}

func (m *MemoryDirectionsCache) Len() int { return m.entries.Len() }

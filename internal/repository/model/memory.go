// Package model stores fitted model snapshots.
package model

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/topicdex/internal/domain"
)

// MemoryStore keeps snapshots in a size-bounded LRU with per-entry expiry.
type MemoryStore struct {
	cache *expirable.LRU[string, domain.Snapshot]
}

// NewMemoryStore creates a store holding at most maxEntries snapshots for ttl each.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: expirable.NewLRU[string, domain.Snapshot](maxEntries, nil, ttl)}
}

// Save stores a copy of snap under snap.ID.
func (s *MemoryStore) Save(_ context.Context, snap domain.Snapshot) error {
	snap.DocumentIDs = append([]string(nil), snap.DocumentIDs...)
	snap.State = append([]byte(nil), snap.State...)
	s.cache.Add(snap.ID, snap)
	observe(driverMemory, opSave, nil)
	return nil
}

// Load returns the snapshot or domain.ErrModelNotFound.
func (s *MemoryStore) Load(_ context.Context, id string) (domain.Snapshot, error) {
	snap, ok := s.cache.Get(id)
	if !ok {
		observe(driverMemory, opLoad, domain.ErrModelNotFound)
		return domain.Snapshot{}, domain.ErrModelNotFound
	}
	observe(driverMemory, opLoad, nil)
	return snap, nil
}

// Len returns the number of live snapshots.
func (s *MemoryStore) Len() int { return s.cache.Len() }

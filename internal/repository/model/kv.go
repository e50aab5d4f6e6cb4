package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/topicdex/internal/db"
	"github.com/kailas-cloud/topicdex/internal/domain"
)

// kvStore is the consumer interface for the key-value backend (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// KVStore keeps snapshots as JSON values with a TTL in Valkey or Redis.
type KVStore struct {
	kv     kvStore
	prefix string
	ttl    time.Duration
	driver string
}

// NewKVStore creates a key-value backed store. Keys are prefix + "model:" + id;
// an empty prefix falls back to domain.KeyPrefix.
func NewKVStore(kv kvStore, driver, prefix string, ttl time.Duration) *KVStore {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &KVStore{kv: kv, prefix: prefix + "model:", ttl: ttl, driver: driver}
}

// Save encodes and stores snap.
func (s *KVStore) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	err = s.kv.SetWithTTL(ctx, s.key(snap.ID), data, s.ttl)
	observe(s.driver, opSave, err)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// Load fetches and decodes a snapshot. Missing or expired keys fail with
// domain.ErrModelNotFound.
func (s *KVStore) Load(ctx context.Context, id string) (domain.Snapshot, error) {
	data, err := s.kv.Get(ctx, s.key(id))
	if errors.Is(err, db.ErrKeyNotFound) {
		observe(s.driver, opLoad, domain.ErrModelNotFound)
		return domain.Snapshot{}, domain.ErrModelNotFound
	}
	observe(s.driver, opLoad, err)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return snap, nil
}

func (s *KVStore) key(id string) string { return s.prefix + id }

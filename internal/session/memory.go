package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps encoded sessions in a TTL cache. Every Put restarts the
// session's expiry.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates a store whose entries expire ttl after their last
// write. Expired entries are purged every ttl/6 (at least once a minute).
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cleanup := ttl / 6
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &MemoryStore{cache: cache.New(ttl, cleanup)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	x, found := m.cache.Get(id)
	if !found {
		return nil, ErrNotFound
	}
	return decode(x.([]byte))
}

func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	m.cache.Set(s.ID, data, cache.DefaultExpiration)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

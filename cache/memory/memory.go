// Package memory provides a process-local cache.Store. Entries are not shared
// between instances, so it only suits single-node runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/adeilh/go-rakh-starter/cache"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is an in-memory cache.Store with per-key expiry.
type Store struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{items: make(map[string]entry), now: time.Now}
}

// SetNowFunc allows injecting a deterministic clock (useful for tests).
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		fn = time.Now
	}
	s.mu.Lock()
	s.now = fn
	s.mu.Unlock()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok {
		return nil, cache.ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.items[key] = e
	return nil
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok {
		return cache.ErrNotFound
	}
	if ttl <= 0 {
		delete(s.items, key)
		return nil
	}
	e.expiresAt = s.now().Add(ttl)
	s.items[key] = e
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(key); !ok {
		return cache.ErrNotFound
	}
	delete(s.items, key)
	return nil
}

// lookup must be called with s.mu held. Expired entries are dropped.
func (s *Store) lookup(key string) (entry, bool) {
	e, ok := s.items[key]
	if !ok {
		return entry{}, false
	}
	if e.expired(s.now()) {
		delete(s.items, key)
		return entry{}, false
	}
	return e, true
}

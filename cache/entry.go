package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Entry binds a Store to a single key and moves JSON-encoded values in and
// out of it.
type Entry struct {
	store Store
	key   string
}

// Key returns an Entry for key in store.
func Key(store Store, key string) Entry {
	return Entry{store: store, key: key}
}

// Name returns the key the entry is bound to.
func (e Entry) Name() string { return e.key }

// Get decodes the cached value into dest. It reports false with a nil error
// when the key is absent.
func (e Entry) Get(ctx context.Context, dest any) (bool, error) {
	payload, err := e.store.Get(ctx, e.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("cache: decode %q: %w", e.key, err)
	}
	return true, nil
}

// Set encodes value as JSON and stores it without an expiry. Chain Expire to
// bound its lifetime.
func (e Entry) Set(ctx context.Context, value any) (Entry, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return e, fmt.Errorf("cache: encode %q: %w", e.key, err)
	}
	if err := e.store.Set(ctx, e.key, payload, 0); err != nil {
		return e, err
	}
	return e, nil
}

// SetWithTTL stores value and its expiry in a single write.
func (e Entry) SetWithTTL(ctx context.Context, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", e.key, err)
	}
	return e.store.Set(ctx, e.key, payload, ttl)
}

// Expire sets the remaining lifetime of the key.
func (e Entry) Expire(ctx context.Context, ttl time.Duration) (Entry, error) {
	if err := e.store.Expire(ctx, e.key, ttl); err != nil {
		return e, err
	}
	return e, nil
}

// Delete removes the key. A missing key is not an error.
func (e Entry) Delete(ctx context.Context) error {
	if err := e.store.Delete(ctx, e.key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

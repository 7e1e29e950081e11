// Package kv provides the TTL-aware key/value primitive the fabric
// layers idempotency, nonce, and backpressure bookkeeping on top of
// (spec §6 "KV buckets"). The in-memory implementation mirrors the
// teacher's store.memory.go lock discipline: a single mutex guarding
// a map, expired values treated as absent on read and removed
// periodically by a background goroutine.
package kv

import (
	"context"
	"sync"
	"time"
)

// Store is the narrow contract every KV-backed primitive in the
// fabric depends on. CreateIfAbsent is the only operation that needs
// atomicity across replicas; a distributed backend satisfies this
// with a conditional put.
type Store interface {
	// CreateIfAbsent inserts value under key with the given TTL iff no
	// live entry exists. Returns true when the insert happened (first
	// sighting), false when an unexpired entry already existed.
	CreateIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Get returns the value stored under key, or ok=false if absent/expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Delete removes key unconditionally.
	Delete(ctx context.Context, key string) error

	// Close releases background resources (sweep goroutines, connections).
	Close() error
}

type entry struct {
	value   []byte
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// Memory is the OSS-shipped Store: an in-process map with a
// background sweep goroutine, sufficient for a single replica and for
// the degraded-availability path ingress falls back to on KV error
// (spec §4.2).
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	done    chan struct{}
	closeOnce sync.Once
}

// NewMemory starts a Memory store with a background sweep every
// interval. Pass 0 to disable the background sweep (expired entries
// then stay in the map: Get reports them as absent and
// CreateIfAbsent overwrites them).
func NewMemory(sweepInterval time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go m.sweepLoop(sweepInterval)
	}
	return m
}

func (m *Memory) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.done:
			return
		}
	}
}

func (m *Memory) sweep() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
}

// CreateIfAbsent implements Store.
func (m *Memory) CreateIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok && !e.expired(now) {
		return false, nil
	}

	exp := time.Time{}
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	m.entries[key] = entry{value: value, expires: exp}
	return true, nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || e.expired(now) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Close stops the background sweep goroutine.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

// Len reports the current entry count, including not-yet-swept
// expired entries. Test helper.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Package cache holds resolved metadata under a time-to-live so repeated
// describes of the same video skip the external tool.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kingsaver/media-gateway/pkg/models"
)

// Store is the resolution cache. Implementations must be safe for
// concurrent use; Get returns a copy the caller may mutate freely.
type Store interface {
	Get(ctx context.Context, key string) (*models.ResolvedMedia, bool)
	Put(ctx context.Context, key string, value *models.ResolvedMedia)
}

type entry struct {
	value      *models.ResolvedMedia
	insertedAt time.Time
}

// Memory is the in-process Store: a mutex-guarded map with lazy expiry
// plus a periodic sweep to bound growth between hits.
type Memory struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]entry

	stopOnce sync.Once
	stop     chan struct{}
}

const DefaultTTL = 5 * time.Minute

// NewMemory builds the store and starts its sweeper. The sweep interval
// sits well below the TTL, mirroring the once-a-minute cleanup the
// service has always run.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Memory{
		ttl:     ttl,
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}

	interval := ttl / 5
	if interval > time.Minute {
		interval = time.Minute
	}
	go m.sweep(interval)
	return m
}

func (m *Memory) Get(_ context.Context, key string) (*models.ResolvedMedia, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Since(e.insertedAt) >= m.ttl {
		return nil, false
	}
	return e.value.Clone(), true
}

// Put overwrites unconditionally; when two in-flight describes for the
// same key race, the last write wins.
func (m *Memory) Put(_ context.Context, key string, value *models.ResolvedMedia) {
	m.mu.Lock()
	m.entries[key] = entry{value: value.Clone(), insertedAt: time.Now()}
	m.mu.Unlock()
}

// Len reports live (unexpired) entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.entries {
		if time.Since(e.insertedAt) < m.ttl {
			n++
		}
	}
	return n
}

func (m *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for k, e := range m.entries {
				if now.Sub(e.insertedAt) >= m.ttl {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

// Close stops the sweeper. Entries stay readable until TTL expiry.
func (m *Memory) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Package cmap provides a concurrent-safe sharded map with string keys.
//
// Keys are spread over power-of-two shards by their murmur3 hash, each shard
// guarded by its own RWMutex, so unrelated keys rarely contend.
//
//	m := cmap.New[*rate.Limiter]()
//	lim := m.GetOrCompute(ip, newLimiter)
package cmap

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

// shardCount must be a power of two.
const shardCount = 16

// Map is a concurrent-safe sharded map.
type Map[V any] struct {
	shards [shardCount]shard[V]
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// New creates an empty sharded map.
func New[V any]() *Map[V] {
	m := &Map[V]{}
	for i := range m.shards {
		m.shards[i].items = make(map[string]V)
	}
	return m
}

func (m *Map[V]) getShard(key string) *shard[V] {
	return &m.shards[murmur3.Sum32([]byte(key))&(shardCount-1)]
}

// GetOrCompute returns the value for key, creating it with fn if absent.
// fn runs at most once per missing key, under the shard lock.
func (m *Map[V]) GetOrCompute(key string, fn func() V) V {
	s := m.getShard(key)

	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	if ok {
		return v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.items[key]; ok {
		return v
	}
	v = fn()
	s.items[key] = v
	return v
}

// DeleteFunc removes every entry for which del returns true and reports how
// many were removed. Shards are locked one at a time.
func (m *Map[V]) DeleteFunc(del func(key string, value V) bool) int {
	removed := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k, v := range s.items {
			if del(k, v) {
				delete(s.items, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// ABOUTME: In-process KV backend built on go-cache
// ABOUTME: Used for ephemeral runs and tests; nothing survives the process
package store

import (
	"github.com/patrickmn/go-cache"
)

// Memory is a non-expiring in-memory KV.
type Memory struct {
	c *cache.Cache
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{c: cache.New(cache.NoExpiration, 0)}
}

func (m *Memory) Get(key []byte) ([]byte, error) {
	v, ok := m.c.Get(string(key))
	if !ok {
		return nil, ErrNotFound
	}
	data := v.([]byte)
	return append([]byte(nil), data...), nil
}

func (m *Memory) Set(key, value []byte) error {
	m.c.Set(string(key), append([]byte(nil), value...), cache.NoExpiration)
	return nil
}

func (m *Memory) Delete(key []byte) error {
	m.c.Delete(string(key))
	return nil
}

// Keys returns all stored keys.
func (m *Memory) Keys() ([][]byte, error) {
	items := m.c.Items()
	keys := make([][]byte, 0, len(items))
	for k := range items {
		keys = append(keys, []byte(k))
	}
	return keys, nil
}

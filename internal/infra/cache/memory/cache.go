// Package memory, domain.Cache в памяти с TTL (когда Redis не настроен).
package memory

import (
	"bytes"
	"context"
	"sync"
	"time"
)

type item struct {
	val     []byte
	expires time.Time // zero: без срока
}

type Cache struct {
	mu    sync.Mutex
	items map[string]item
	now   func() time.Time
}

func New() *Cache { return &Cache{items: make(map[string]item), now: time.Now} }

func (c *Cache) alive(key string) (item, bool) {
	it, ok := c.items[key]
	if !ok {
		return item{}, false
	}
	if !it.expires.IsZero() && !c.now().Before(it.expires) {
		delete(c.items, key)
		return item{}, false
	}
	return it, true
}

func (c *Cache) expiry(ttlSeconds int) time.Time {
	if ttlSeconds <= 0 {
		return time.Time{}
	}
	return c.now().Add(time.Duration(ttlSeconds) * time.Second)
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.alive(key)
	if !ok {
		return nil, nil
	}
	return bytes.Clone(it.val), nil
}

func (c *Cache) Set(_ context.Context, key string, val []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item{val: bytes.Clone(val), expires: c.expiry(ttlSeconds)}
	return nil
}

func (c *Cache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *Cache) SetNX(_ context.Context, key string, val []byte, ttlSeconds int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.alive(key); ok {
		return false, nil
	}
	c.items[key] = item{val: bytes.Clone(val), expires: c.expiry(ttlSeconds)}
	return true, nil
}

func (c *Cache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.alive(key)
	return ok, nil
}

func (c *Cache) Ping(context.Context) error { return nil }

func (c *Cache) Close() {}

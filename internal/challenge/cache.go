package challenge

import (
	"fmt"
	"strconv"
	"sync"
)

// Cache is the durable client-side key-value store the tracker writes
// through for crash/refresh recovery. It stands in for browser local
// storage: small string values, per-user keys, best effort.
//
// A missing key is not an error; callers treat absence as "nothing pending".
type Cache interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
	Delete(key string) error
}

func historyKey(userID uint64) string {
	return fmt.Sprintf("history:%d", userID)
}

func pendingKey(userID uint64, day string) string {
	return fmt.Sprintf("pending:%d:%s", userID, day)
}

// readPendingDelta returns the unsynced delta recorded for a user+day.
// Absent or unparseable markers count as zero.
func readPendingDelta(c Cache, userID uint64, day string) int {
	v, ok, err := c.Get(pendingKey(userID, day))
	if err != nil || !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// MemoryCache is an in-process Cache. It satisfies the interface for tests
// and for ephemeral sessions where durability is not wanted.
type MemoryCache struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]string)}
}

func (c *MemoryCache) Get(key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *MemoryCache) Put(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

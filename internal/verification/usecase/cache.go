package usecase

import (
	"sync"

	"github.com/veriflowhq/veriflow/internal/pkg/clock"
	"github.com/veriflowhq/veriflow/internal/verification/entity"
)

// codeCache is the process-local shadow of in-flight codes. Entries are swept
// lazily on access and last write wins; the durable store stays authoritative.
type codeCache struct {
	mu      sync.Mutex
	entries map[string]entity.CacheEntry
	clock   clock.Clocker
}

func newCodeCache(clk clock.Clocker) *codeCache {
	return &codeCache{
		entries: make(map[string]entity.CacheEntry),
		clock:   clk,
	}
}

func cacheKey(userID string, channel entity.Channel) string {
	return userID + "|" + channel.String()
}

// Get returns the entry for (user, channel), sweeping it to expired first
// when its deadline has passed.
func (c *codeCache) Get(userID string, channel entity.Channel) (entity.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(userID, channel)
	entry, ok := c.entries[key]
	if !ok {
		return entity.CacheEntry{}, false
	}

	if c.sweepLocked(&entry) {
		c.entries[key] = entry
	}

	return entry, true
}

func (c *codeCache) Put(userID string, channel entity.Channel, entry entity.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(userID, channel)] = entry
}

func (c *codeCache) Delete(userID string, channel entity.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(userID, channel))
}

// MarkVerified flips the entry to verified if one exists.
func (c *codeCache) MarkVerified(userID string, channel entity.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(userID, channel)
	entry, ok := c.entries[key]
	if !ok {
		return
	}

	entry.Status = entity.CacheStatusVerified
	c.entries[key] = entry
}

// BumpAttempts increments the local attempt counter and flips the entry to
// expired once the limit is reached. It returns the new counter value, or 0
// when no entry exists.
func (c *codeCache) BumpAttempts(userID string, channel entity.Channel, limit int32) int32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(userID, channel)
	entry, ok := c.entries[key]
	if !ok {
		return 0
	}

	entry.Attempts++
	if entry.Attempts >= limit && entry.Status != entity.CacheStatusVerified {
		entry.Status = entity.CacheStatusExpired
	}
	c.entries[key] = entry

	return entry.Attempts
}

// sweepLocked marks the entry expired when its deadline has passed. It
// reports whether the entry changed. Callers must hold c.mu.
func (c *codeCache) sweepLocked(entry *entity.CacheEntry) bool {
	if entry.Status == entity.CacheStatusVerified || entry.Status == entity.CacheStatusExpired {
		return false
	}
	if c.clock.Now().Before(entry.ExpiresAt) {
		return false
	}

	entry.Status = entity.CacheStatusExpired
	return true
}

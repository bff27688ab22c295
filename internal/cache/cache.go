// Package cache holds the latest completed scan cycle in memory.
package cache

import (
	"sync"
	"time"

	"netdiag/internal/models"
)

// Cache keeps the most recent completed scan cycle.
// It is safe for concurrent use; Set replaces the whole snapshot at once so
// readers see either the previous cycle or the new one, never a mix.
type Cache struct {
	mu      sync.RWMutex
	current models.ScanCycle
	updated time.Time
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{}
}

// Set publishes cycle as the latest snapshot. The cache keeps its own copy.
func (c *Cache) Set(cycle models.ScanCycle) {
	snap := cycle.Clone()
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = snap
	c.updated = now
}

// Get returns a copy of the latest snapshot, or the zero ScanCycle before the
// first Set.
func (c *Cache) Get() models.ScanCycle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Clone()
}

// Updated returns when the snapshot was last replaced.
func (c *Cache) Updated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updated
}

package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Holder publishes the current configuration snapshot. Readers take one
// snapshot per unit of work and never see a half-applied update.
type Holder struct {
	current atomic.Pointer[Config]
	mu      sync.Mutex // serializes Update
}

// NewHolder stores a copy of cfg as the first snapshot.
func NewHolder(cfg Config) *Holder {
	h := &Holder{}
	h.Store(cfg)
	return h
}

// Load returns the current snapshot. Callers must not modify its slices.
func (h *Holder) Load() Config {
	return *h.current.Load()
}

func (h *Holder) Store(cfg Config) {
	c := cfg.Clone()
	h.current.Store(&c)
}

// Update applies p to the current snapshot and publishes the result if it
// validates.
func (h *Holder) Update(p Patch) (Config, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := h.Load().Apply(p)
	if err := next.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	h.Store(next)
	return next.Clone(), nil
}

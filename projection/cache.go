/*
cache.go - Memoized ledgers

PURPOSE:
  Returns a previously computed Ledger for an identical (config, overrides)
  pair instead of rerunning the day loop. Pure performance: a miss is
  always satisfiable by Project with identical results.

KEY:
  CacheKey serializes InitialCapital, TimeHorizonDays,
  BaselineDailyReturnPercent and the ContributionPlan, then both override
  maps sorted by day, and hashes the text with SHA-256. Decimals are
  written in their canonical form (trailing zeros trimmed), so "1.50" and
  "1.5" key identically, and map insertion order never matters.
  Currency is not part of the key: it labels amounts but never changes them.

EVICTION:
  FIFO over insertion order (not LRU). Re-putting an existing key replaces
  the ledger in place without refreshing its position.

CONCURRENCY:
  Safe for concurrent use. Session additionally serializes its own use.
*/
package projection

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
)

// CacheKey derives the canonical memoization key.
func CacheKey(cfg Configuration, overrides Overrides) string {
	var b strings.Builder
	b.WriteString("ic=")
	b.WriteString(cfg.InitialCapital.String())
	b.WriteString(";h=")
	b.WriteString(strconv.Itoa(cfg.TimeHorizonDays))
	b.WriteString(";r=")
	b.WriteString(cfg.BaselineDailyReturnPercent.String())
	b.WriteString(";plan=")
	if p := cfg.ContributionPlan; p != nil {
		b.WriteString(p.Amount.String())
		b.WriteByte('|')
		b.WriteString(string(p.Frequency))
		b.WriteByte('|')
		// The interval only matters for custom frequency.
		if p.Frequency == FrequencyCustom {
			b.WriteString(strconv.Itoa(p.CustomIntervalDays))
		}
		b.WriteByte('|')
		b.WriteString(p.StartDate.String())
	} else {
		b.WriteString("none")
	}
	writeOverrides(&b, ";cr=", overrides.Returns)
	writeOverrides(&b, ";cc=", overrides.Contributions)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func writeOverrides(b *strings.Builder, label string, o DayOverrides) {
	b.WriteString(label)
	for i, d := range o.Days() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(d))
		b.WriteByte(':')
		b.WriteString(o[d].String())
	}
}

// =============================================================================
// CACHE
// =============================================================================

// Cache is a bounded FIFO map from CacheKey to Ledger.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]Ledger
	order    []string // insertion order, oldest first
}

// NewCache creates a cache holding at most capacity ledgers.
// Non-positive capacity falls back to DefaultCacheCapacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]Ledger, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Get returns the ledger stored under key.
func (c *Cache) Get(key string) (Ledger, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.entries[key]
	return l, ok
}

// Put stores ledger under key, evicting the oldest insert past capacity.
func (c *Cache) Put(key string, ledger Ledger) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = ledger
		return
	}
	for len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = ledger
	c.order = append(c.order, key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Ledger, c.capacity)
	c.order = make([]string, 0, c.capacity)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Capacity() int { return c.capacity }

// GetOrProject returns the cached ledger for the inputs or projects and
// stores it. The bool reports a cache hit.
func (c *Cache) GetOrProject(cfg Configuration, overrides Overrides) (Ledger, bool, error) {
	if err := checkInputs(cfg, overrides); err != nil {
		return Ledger{}, false, err
	}
	key := CacheKey(cfg, overrides)
	if l, ok := c.Get(key); ok {
		return l, true, nil
	}
	l := run(cfg, overrides)
	c.Put(key, l)
	return l, false, nil
}

package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	CacheFileName = "filter_options_cache.json"
	CacheExpiry   = 24 * time.Hour
)

// FilterOptions are the filter values a price page offers for one model,
// keyed by upstream option id with the display label as value
type FilterOptions struct {
	Fuels         map[string]string `json:"fuels"`
	Transmissions map[string]string `json:"transmissions"`
	Editions      map[string]string `json:"editions"`
}

type filterEntry struct {
	Options   FilterOptions `json:"options"`
	Timestamp time.Time     `json:"timestamp"`
}

// FilterCache keeps filter options per model in memory and mirrors them to a JSON file
// so a restart does not have to re-query every model. Safe for concurrent use.
type FilterCache struct {
	path    string
	expiry  time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]filterEntry
}

// NewFilterCache loads path if it exists. An empty path keeps the cache in memory only.
func NewFilterCache(path string, expiry time.Duration) *FilterCache {
	if expiry <= 0 {
		expiry = CacheExpiry
	}
	c := &FilterCache{
		path:    path,
		expiry:  expiry,
		now:     time.Now,
		entries: make(map[string]filterEntry),
	}
	if path != "" {
		c.load()
	}
	return c
}

func (c *FilterCache) load() {
	file, err := os.Open(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("❌ Error opening filter cache: %v", err)
		}
		return
	}
	defer file.Close()

	var entries map[string]filterEntry
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		log.Printf("❌ Error reading filter cache file: %v", err)
		return
	}
	if entries == nil {
		return
	}
	c.entries = entries
	log.Printf("📁 Loaded filter options for %d models from %s", len(entries), c.path)
}

// Get returns the cached options for key if present and not expired
func (c *FilterCache) Get(key string) (FilterOptions, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.Timestamp) > c.expiry {
		return FilterOptions{}, false
	}
	return e.Options, true
}

// Put stores options for key and persists the whole cache
func (c *FilterCache) Put(key string, opts FilterOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = filterEntry{Options: opts, Timestamp: c.now()}
	if c.path == "" {
		return nil
	}
	return c.saveLocked()
}

// Age returns how old the entry for key is
func (c *FilterCache) Age(key string) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	return c.now().Sub(e.Timestamp), true
}

// Len returns the number of cached models, expired or not
func (c *FilterCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *FilterCache) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp := c.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if err := json.NewEncoder(file).Encode(c.entries); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	return os.Rename(tmp, c.path)
}

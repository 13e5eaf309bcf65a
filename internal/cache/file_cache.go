// Package cache stores upstream responses on disk so repeated stop searches
// from the configuration page do not spend API quota.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const entryExt = ".json"

// FileCache is a directory of JSON entries with a fixed TTL
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

type cacheEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewFileCache creates the directory if needed
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, ttl: ttl, now: time.Now}, nil
}

// DefaultCacheDir returns $XDG_CACHE_HOME/ojp-sign or ~/.cache/ojp-sign
func DefaultCacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "ojp-sign")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ojp-sign-cache")
	}
	return filepath.Join(home, ".cache", "ojp-sign")
}

// Key joins parts into a cache key. Parts are case-folded and trimmed so
// "Bern " and "bern" share an entry.
func Key(parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(norm, "|")
}

func (c *FileCache) path(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+entryExt)
}

// Get returns the value if present and not expired. Expired or corrupt
// entries are removed.
func (c *FileCache) Get(key string) ([]byte, bool) {
	filename := c.path(key)
	entry, ok := c.read(filename)
	if !ok {
		return nil, false
	}
	if entry.Key != "" && entry.Key != key {
		return nil, false
	}
	return entry.Data, true
}

func (c *FileCache) read(filename string) (cacheEntry, bool) {
	var entry cacheEntry

	// #nosec G304 -- filename is a hash inside the cache directory
	data, err := os.ReadFile(filename)
	if err != nil {
		return entry, false
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(filename)
		return entry, false
	}
	if c.now().After(entry.ExpiresAt) {
		_ = os.Remove(filename)
		return entry, false
	}
	return entry, true
}

// Set stores value under key. The write goes through a temp file so a crash
// never leaves a half-written entry behind.
func (c *FileCache) Set(key string, value []byte) error {
	now := c.now()
	data, err := json.Marshal(cacheEntry{
		Key:       key,
		Data:      value,
		StoredAt:  now,
		ExpiresAt: now.Add(c.ttl),
	})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// Delete removes one entry
func (c *FileCache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes all entries
func (c *FileCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == entryExt {
			_ = os.Remove(filepath.Join(c.dir, entry.Name()))
		}
	}
	return nil
}

// Cleanup removes expired entries and returns how many remain
func (c *FileCache) Cleanup() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}
	remaining := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != entryExt {
			continue
		}
		if _, ok := c.read(filepath.Join(c.dir, entry.Name())); ok {
			remaining++
		}
	}
	return remaining, nil
}

package queuecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"revq/internal/logging"
	"revq/internal/review"
)

// Snapshot is the persisted form of the last successful fetch.
type Snapshot struct {
	Items    []review.Item `json:"items"`
	CachedAt time.Time     `json:"cached_at"`
}

// Age returns how old the snapshot is at the given instant.
func (s Snapshot) Age(now time.Time) time.Duration {
	if s.CachedAt.IsZero() {
		return 0
	}
	return now.Sub(s.CachedAt)
}

// Cache provides thread-safe access to the snapshot file. If path is empty,
// the cache is non-functional and all operations become no-ops.
type Cache struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// New creates a cache instance. The snapshot file is created lazily on the
// first Save call.
func New(path string, logger *slog.Logger) *Cache {
	return &Cache{
		path:   path,
		logger: logging.NewComponentLogger(logger, "queuecache"),
	}
}

// Save replaces the snapshot wholesale with the given items.
func (c *Cache) Save(items []review.Item, at time.Time) error {
	if c.path == "" {
		return nil
	}

	snapshot := Snapshot{Items: items, CachedAt: at.UTC()}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	// Write atomically via temp file
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	c.logger.Debug("saved queue snapshot",
		logging.Int("item_count", len(items)),
		logging.String("path", c.path))
	return nil
}

// Load reads the snapshot from disk. The boolean reports whether a snapshot
// was present.
func (c *Cache) Load() (Snapshot, bool, error) {
	if c.path == "" {
		return Snapshot{}, false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	if len(data) == 0 {
		return Snapshot{}, false, nil
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return snapshot, true, nil
}

// Clear removes the snapshot file.
func (c *Cache) Clear() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

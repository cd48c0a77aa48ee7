package backend

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"edgeday-journal/internal/models"
)

// LocalCache is the last tier of the cascade: one JSON file per (user, day)
// under a cache directory. It only ever holds what the process itself wrote,
// so a hit is always the user's own last selection.
type LocalCache struct {
	dir string
}

// NewLocalCache creates the cache rooted at dir, creating it if needed.
func NewLocalCache(dir string) (*LocalCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &LocalCache{dir: dir}, nil
}

func (c *LocalCache) path(userID, dayKey string) string {
	return filepath.Join(c.dir, fmt.Sprintf("bias_%s_%s.json", userID, dayKey))
}

// Save writes the snapshot for its (user, day), replacing any previous entry.
func (c *LocalCache) Save(snap models.BiasStateSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cached snapshot: %w", err)
	}
	tmp := c.path(snap.UserID, snap.DayKey) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cached snapshot: %w", err)
	}
	return os.Rename(tmp, c.path(snap.UserID, snap.DayKey))
}

// Load returns the cached snapshot for (user, day), or ErrNoSnapshot.
func (c *LocalCache) Load(userID, dayKey string) (*models.BiasStateSnapshot, error) {
	data, err := os.ReadFile(c.path(userID, dayKey))
	if os.IsNotExist(err) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read cached snapshot: %w", err)
	}
	var snap models.BiasStateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return &snap, nil
}

// Clear removes the cached snapshot for (user, day). Missing entries are fine.
func (c *LocalCache) Clear(userID, dayKey string) error {
	err := os.Remove(c.path(userID, dayKey))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear cached snapshot: %w", err)
	}
	return nil
}

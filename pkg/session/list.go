package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gobwas/glob"
)

// ErrInvalidPattern is returned by List for a malformed glob.
var ErrInvalidPattern = errors.New("invalid session pattern")

// Info describes a persisted session directory.
type Info struct {
	ID              string    `json:"id"`
	HasStorageState bool      `json:"has_storage_state"`
	HasRefs         bool      `json:"has_refs"`
	ModifiedAt      time.Time `json:"modified_at"`
}

// List returns the sessions under the root whose id matches pattern,
// sorted by id. An empty pattern matches every session. A missing root
// yields an empty list.
func (s *Store) List(pattern string) ([]Info, error) {
	var matcher glob.Glob
	if pattern != "" {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
		}
		matcher = g
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || ValidateID(entry.Name()) != nil {
			continue
		}
		if matcher != nil && !matcher.Match(entry.Name()) {
			continue
		}

		info := Info{ID: entry.Name()}
		if fi, err := entry.Info(); err == nil {
			info.ModifiedAt = fi.ModTime()
		}

		dir := filepath.Join(s.root, entry.Name())
		if fi, err := os.Stat(filepath.Join(dir, StorageStateFile)); err == nil {
			info.HasStorageState = true
			if fi.ModTime().After(info.ModifiedAt) {
				info.ModifiedAt = fi.ModTime()
			}
		}
		if fi, err := os.Stat(filepath.Join(dir, RefsFile)); err == nil {
			info.HasRefs = true
			if fi.ModTime().After(info.ModifiedAt) {
				info.ModifiedAt = fi.ModTime()
			}
		}

		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

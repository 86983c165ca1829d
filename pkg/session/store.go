package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/entrhq/slack-bridge/pkg/logging"
)

// Artifact file names inside a session directory.
const (
	StorageStateFile = "storageState.json"
	RefsFile         = "refs.json"
)

// Store maps session ids to directories under a root and owns the
// artifacts inside them.
type Store struct {
	root string
	log  *logging.Logger
}

// NewStore creates a store rooted at root. The root is created lazily by
// the first write. log may be nil.
func NewStore(root string, log *logging.Logger) *Store {
	return &Store{
		root: filepath.Clean(root),
		log:  log,
	}
}

// Root returns the sessions root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory for id. It performs no I/O.
func (s *Store) Dir(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.root, id), nil
}

// StorageStatePath returns the storage-state artifact path for id.
func (s *Store) StorageStatePath(id string) (string, error) {
	dir, err := s.Dir(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, StorageStateFile), nil
}

// RefsPath returns the reference-table artifact path for id.
func (s *Store) RefsPath(id string) (string, error) {
	dir, err := s.Dir(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, RefsFile), nil
}

// Ensure creates the session directory, including parents, if absent.
func (s *Store) Ensure(id string) (string, error) {
	dir, err := s.Dir(id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}
	return dir, nil
}

// Exists reports whether the session directory is present.
func (s *Store) Exists(id string) (bool, error) {
	dir, err := s.Dir(id)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat session directory: %w", err)
	}
	return info.IsDir(), nil
}

// ReadStorageState returns the persisted storage state for id. The boolean
// is false, with a nil error, when nothing has been persisted yet.
func (s *Store) ReadStorageState(id string) ([]byte, bool, error) {
	path, err := s.StorageStatePath(id)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read storage state: %w", err)
	}
	return data, true, nil
}

// WriteStorageState replaces the persisted storage state for id.
func (s *Store) WriteStorageState(id string, blob []byte) error {
	if _, err := s.Ensure(id); err != nil {
		return err
	}
	path, err := s.StorageStatePath(id)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, blob); err != nil {
		return fmt.Errorf("failed to write storage state: %w", err)
	}
	s.log.Debugf("wrote storage state for session %s (%d bytes)", id, len(blob))
	return nil
}

// Destroy removes the session directory and everything in it. A missing
// directory is not an error.
func (s *Store) Destroy(id string) error {
	dir, err := s.Dir(id)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove session directory: %w", err)
	}
	s.log.Infof("destroyed session %s", id)
	return nil
}

// writeFileAtomic writes data to a temp file beside path and renames it
// into place, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

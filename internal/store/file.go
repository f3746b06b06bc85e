package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pokewonder/pokewonder/internal/logger"
	"github.com/pokewonder/pokewonder/internal/models"
)

// snapshotDoc is the on-disk JSON envelope. Unknown fields are ignored on
// read so the schema can grow without breaking older state files.
type snapshotDoc struct {
	Version  int                           `json:"version"`
	Entities map[string]models.StateRecord `json:"entities"`
}

const snapshotVersion = 1

// FileStore keeps the whole mapping in one JSON document, rewritten with
// write-to-temp-then-rename on every Commit.
type FileStore struct {
	*memoryMap
	path string
	log  *logger.Logger
}

// NewFileStore loads an existing snapshot from path, if any. An unreadable
// or corrupt file is a degraded start, not a failure: the store comes up
// empty (every entity looks new once) and the condition is logged.
func NewFileStore(path string, log *logger.Logger) (*FileStore, error) {
	s := &FileStore{memoryMap: newMemoryMap(), path: path, log: log}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// first run
	case err != nil:
		s.log.Warn().Err(err).Str("path", path).Msg("state file unreadable, starting empty")
	default:
		var doc snapshotDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("state file corrupt, starting empty")
			break
		}
		for k, v := range doc.Entities {
			s.records[k] = v
		}
	}
	return s, nil
}

// Commit writes the full snapshot to a sibling temp file and renames it over
// the target. A write failure is returned to the caller: the cycle must not
// pretend to have committed.
func (s *FileStore) Commit() error {
	doc := snapshotDoc{Version: snapshotVersion, Entities: s.Snapshot()}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	s.takeDirty()
	return nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error {
	return nil
}

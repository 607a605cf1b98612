package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tboy1337/SubtranSlate/pkg/log"
)

// Store reads and writes the checkpoint file for one output path.
type Store struct {
	path   string
	logger *log.Logger
}

// NewStore returns the store for the checkpoint sitting next to
// outputPath.
func NewStore(outputPath string) *Store {
	return &Store{
		path:   outputPath + ".checkpoint",
		logger: log.Default(),
	}
}

// Path returns the checkpoint file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the checkpoint if one exists. Missing or unreadable
// checkpoints return (nil, false) after a warning; the caller starts
// from scratch.
func (s *Store) Load() (*Checkpoint, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to load checkpoint %s: %v", s.path, err)
		}
		return nil, false
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		s.logger.Warn("failed to decode checkpoint %s: %v", s.path, err)
		return nil, false
	}
	return &cp, true
}

// Save writes the checkpoint atomically. Failures are logged, never
// returned.
func (s *Store) Save(cp *Checkpoint) {
	if err := writeJSONAtomic(s.path, cp); err != nil {
		s.logger.Warn("failed to save checkpoint %s: %v", s.path, err)
		return
	}
	s.logger.Debug("saved checkpoint to %s", s.path)
}

// Remove deletes the checkpoint file, tolerating its absence.
func (s *Store) Remove() {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove checkpoint %s: %v", s.path, err)
	}
}

// writeJSONAtomic marshals v and renames a temp file over path so
// readers never observe a partially written state file.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

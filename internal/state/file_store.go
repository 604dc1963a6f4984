package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore keeps the state record in a single JSON file.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the location of the state file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the state file, falling back to Default() on any error.
func (s *FileStore) Load(ctx context.Context) BotState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("state file does not exist yet, using defaults", zap.String("path", s.path))
		} else {
			s.logger.Warn("failed to read state file, using defaults", zap.String("path", s.path), zap.Error(err))
		}
		return Default()
	}
	if len(data) == 0 {
		return Default()
	}

	st, err := Decode(data)
	if err != nil {
		s.logger.Warn("state file is malformed, using defaults", zap.String("path", s.path), zap.Error(err))
		return Default()
	}
	return st
}

// Save writes the record to a temporary file in the same directory and renames
// it over the old one, so readers see either the old or the new record.
func (s *FileStore) Save(ctx context.Context, st BotState) error {
	data, err := Encode(st)
	if err != nil {
		return &PersistenceError{Backend: "file", Err: err}
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return &PersistenceError{Backend: "file", Err: err}
	}
	s.logger.Debug("saved bot state", zap.String("path", s.path), zap.Stringer("state", st))
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists the ScreenConfig as a JSON document on disk. Writes replace
// the file atomically so a crash mid-save never leaves a truncated record.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted record. A missing file yields the defaults. A
// record that cannot be parsed also yields the defaults, with a non-nil error
// the caller can surface as a "settings reset to defaults" notice; fields that
// are merely absent are filled from defaults silently.
func (s *Store) Load() (ScreenConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := Default()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read screen config: %w", err)
	}

	// Unmarshalling over the defaults means absent fields keep their
	// default values while present fields win.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse screen config: %w", err)
	}

	cfg.Normalize()
	return cfg, nil
}

// Save normalizes and persists the record.
func (s *Store) Save(cfg ScreenConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg.Normalize()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal screen config: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".screens-*.json")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write screen config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp config file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace screen config: %w", err)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package settings persists user choices that outlive a single job.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.yaml.in/yaml/v3"
)

// Store remembers the destination folder between runs.
type Store interface {
	LastDestination() string
	SetLastDestination(dir string) error
}

// Settings is the on-disk form of the store.
type Settings struct {
	LastDestination string `yaml:"last_destination,omitempty"`
}

// FileStore keeps Settings in a yaml file. The file is read once at Load and
// rewritten on every change.
type FileStore struct {
	path string

	mu       sync.Mutex
	settings Settings
}

// DefaultPath returns ~/.config/pdf2jpg/settings.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pdf2jpg", "settings.yaml"), nil
}

// Load reads the settings file at path. A missing file yields an empty store.
func Load(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s.settings); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) LastDestination() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.LastDestination
}

// SetLastDestination records dir and saves the file. Setting the current
// value again does not touch the file.
func (s *FileStore) SetLastDestination(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings.LastDestination == dir {
		return nil
	}
	next := s.settings
	next.LastDestination = dir
	if err := s.save(next); err != nil {
		return err
	}
	s.settings = next
	return nil
}

func (s *FileStore) save(v Settings) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings %s: %w", s.path, err)
	}
	return nil
}

// Memory is a Store that is never persisted.
type Memory struct {
	mu  sync.Mutex
	dir string
}

func (m *Memory) LastDestination() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir
}

func (m *Memory) SetLastDestination(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dir = dir
	return nil
}

// Package store persists small string blobs keyed by namespaced record
// names, one file per key under the user config directory.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Store struct {
	dir string
}

func ResolveDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "jargon"), nil
}

func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Get returns the blob stored under key. ok is false when the key is
// absent or the file cannot be read; absence is not an error.
func (s *Store) Get(key string) (value string, ok bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set writes the blob via a temp file and rename so a crash mid-write
// never leaves a truncated record behind.
func (s *Store) Set(key, value string) error {
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Delete removes the record. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Keys like "jargon:transcriptHistory:v1" map onto filesystem-safe
// names with the namespace separators flattened.
func (s *Store) path(key string) string {
	name := strings.ReplaceAll(key, ":", "_")
	return filepath.Join(s.dir, name+".json")
}

// Package filestore is a byte-oriented file store rooted at one directory.
package filestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Info describes one directory entry returned by ListContents.
// Paths are relative to the store root and use forward slashes.
type Info struct {
	Type      string // "file" or "dir"
	Path      string
	Dirname   string
	Basename  string
	Filename  string // Basename without extension
	Size      int64
	Timestamp time.Time
}

// Store reads and writes files below a root directory
type Store struct {
	root string
}

// New creates a store rooted at root. The directory is created lazily on first write.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the directory the store is rooted at
func (s *Store) Root() string {
	return s.root
}

// resolve maps a store path to a filesystem path, refusing anything outside the root
func (s *Store) resolve(p string) (string, error) {
	slashed := filepath.ToSlash(p)
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", fmt.Errorf("path %q escapes store root", p)
		}
	}
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+slashed))), nil
}

// Read returns the contents of the file at p, or nil, nil when no file exists there
func (s *Store) Read(p string) ([]byte, error) {
	full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		if info, statErr := os.Stat(full); statErr == nil && info.IsDir() {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, nil
}

// Has reports whether a file exists at p
func (s *Store) Has(p string) (bool, error) {
	full, err := s.resolve(p)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return true, nil
}

// Write stores data at p, creating parent directories as needed
func (s *Store) Write(p string, data []byte) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", p, err)
	}

	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

// Delete removes the file at p. Missing files are ignored.
func (s *Store) Delete(p string) error {
	full, err := s.resolve(p)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", p, err)
	}
	return nil
}

// ListContents lists the direct children of dir sorted by name.
// A missing directory has no contents.
func (s *Store) ListContents(dir string) ([]Info, error) {
	full, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if errors.Is(err, fs.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	dirname := strings.Trim(path.Clean("/"+filepath.ToSlash(dir)), "/")
	contents := make([]Info, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if errors.Is(err, fs.ErrNotExist) {
			// removed between ReadDir and Info
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s/%s: %w", dir, entry.Name(), err)
		}

		kind := "file"
		if entry.IsDir() {
			kind = "dir"
		}
		name := entry.Name()
		contents = append(contents, Info{
			Type:      kind,
			Path:      path.Join(dirname, name),
			Dirname:   dirname,
			Basename:  name,
			Filename:  strings.TrimSuffix(name, path.Ext(name)),
			Size:      info.Size(),
			Timestamp: info.ModTime(),
		})
	}
	return contents, nil
}

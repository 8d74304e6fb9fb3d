package receipt

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Storage defines the interface for scratch file operations
type Storage interface {
	// Save writes a file and returns its full path
	Save(filename string, data []byte) (string, error)

	// Delete removes a file previously returned by Save
	Delete(path string) error
}

// LocalStorage implements the Storage interface using a local scratch directory
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save writes data under the scratch directory
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return path, nil
}

// Delete removes a file from the scratch directory
func (l *LocalStorage) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Sweep removes scratch files last modified before cutoff and returns how many were removed
func (l *LocalStorage) Sweep(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return 0, fmt.Errorf("reading scratch directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(l.basePath, entry.Name())); err != nil {
			return removed, fmt.Errorf("deleting %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

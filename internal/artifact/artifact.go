// Package artifact stores the files a migration is made of.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

const (
	dirPerms  = 0o755
	filePerms = 0o644
)

// ErrNotFound is returned when deleting an artifact that does not exist.
var ErrNotFound = errors.New("artifact not found")

// Store finds, writes and deletes artifacts.
type Store interface {
	// Find returns the first file named fileName below root, visiting
	// directories in lexical order.
	Find(ctx context.Context, root, fileName string) (string, bool, error)
	Write(path, text string) error
	Delete(path string) error
	EnsureDir(path string) error
}

// FS is a Store on the local filesystem. Writes are atomic.
type FS struct{}

// NewFS creates a filesystem store
func NewFS() *FS {
	return &FS{}
}

func (*FS) Find(ctx context.Context, root, fileName string) (string, bool, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == fileName {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && found == "" {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to search %s for %s: %w", root, fileName, err)
	}
	return found, found != "", nil
}

func (*FS) Write(path, text string) error {
	if err := atomic.WriteFile(path, strings.NewReader(text)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// atomic.WriteFile keeps the temp file's mode for new files.
	if err := os.Chmod(path, filePerms); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	return nil
}

func (*FS) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

func (*FS) EnsureDir(path string) error {
	if err := os.MkdirAll(path, dirPerms); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

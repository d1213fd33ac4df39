// Package audiofs keeps synthesized narrations on the local filesystem.
package audiofs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"EthioNews/internal/ports"
)

// Store writes audio files atomically under a single directory.
type Store struct {
	dir string
}

var _ ports.AudioFiles = (*Store)(nil)

// New returns a store rooted at dir; the directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Save renders into a temporary file and renames it into place only when render succeeds.
func (s *Store) Save(ctx context.Context, name string, render func(io.Writer) error) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid audio file name %q", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if err := render(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", err
	}
	if err := ctx.Err(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close temp file: %w", err)
	}

	target := filepath.Join(s.dir, name)
	if err := os.Rename(tmpPath, target); err != nil {
		cleanup()
		return "", fmt.Errorf("move audio file: %w", err)
	}
	return target, nil
}

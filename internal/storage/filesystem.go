// Package storage spills generated artifacts onto the local filesystem so an
// operator can inspect what the service produced. Session memory stays the
// source of truth; the spill directory is wiped when its session goes away.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileStore writes artifacts under a base directory, one subdirectory per
// session. A nil *FileStore rejects every call, which lets callers treat the
// spill as disabled without extra plumbing.
type FileStore struct {
	basePath string
}

// NewFileStore roots a FileStore at basePath, creating the directory when
// needed. The path is resolved to an absolute one so log lines stay useful
// whatever the working directory was at startup.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: abs}, nil
}

// BasePath returns the resolved root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Write persists data at the given relative key and returns the canonical
// key. The bytes go through a temp file and a rename, so a crash mid-write
// never leaves a truncated artifact at the final path.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	canonical, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(canonical))
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".spill-*")
	if err != nil {
		return "", fmt.Errorf("storage: temp file: %w", err)
	}
	_, werr := tmp.Write(data)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(tmp.Name(), 0o644)
	}
	if werr == nil {
		werr = os.Rename(tmp.Name(), fullPath)
	}
	if werr != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("storage: write artifact: %w", werr)
	}
	return canonical, nil
}

// Remove deletes a single artifact. Removing a key that does not exist is
// not an error.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	if s == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	canonical, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.basePath, filepath.FromSlash(canonical)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove file: %w", err)
	}
	return nil
}

// RemoveAll deletes the subtree at the given relative directory, typically a
// whole session's artifacts.
func (s *FileStore) RemoveAll(ctx context.Context, dir string) error {
	if s == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	canonical, err := cleanKey(dir)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.basePath, filepath.FromSlash(canonical))); err != nil {
		return fmt.Errorf("storage: remove directory: %w", err)
	}
	return nil
}

// cleanKey normalizes a key to a slash path confined to the store root.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: key escapes the store root")
	}
	return cleaned, nil
}

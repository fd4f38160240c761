package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperterse/hyperbench/core/logger"
)

// LocalConfig configures the local filesystem backend
type LocalConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// LocalBackend writes artifacts below a base directory
type LocalBackend struct {
	basePath string
	log      logger.Logger
}

// NewLocalBackend creates the base directory if needed
func NewLocalBackend(basePath string) (*LocalBackend, error) {
	if basePath == "" {
		basePath = "."
	}
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &LocalBackend{
		basePath: absPath,
		log:      logger.New("storage:local"),
	}, nil
}

// Write writes to a temporary file in the target directory and renames it
// into place, so readers never observe a partial export
func (b *LocalBackend) Write(_ context.Context, path string, data []byte) error {
	fullPath, err := b.resolve(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".hyperbench-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	b.log.Debugf("Wrote %s (%d bytes)", fullPath, len(data))
	return nil
}

// Read reads the file at path
func (b *LocalBackend) Read(_ context.Context, path string) ([]byte, error) {
	fullPath, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return data, err
}

// Exists reports whether a file exists at path
func (b *LocalBackend) Exists(_ context.Context, path string) (bool, error) {
	fullPath, err := b.resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Location returns the absolute file path
func (b *LocalBackend) Location(path string) string {
	fullPath, err := b.resolve(path)
	if err != nil {
		return path
	}
	return fullPath
}

// BasePath returns the output directory
func (b *LocalBackend) BasePath() string {
	return b.basePath
}

func (b *LocalBackend) Type() string { return TypeLocal }

func (b *LocalBackend) Close() error { return nil }

// resolve joins path to the base directory and rejects paths escaping it
func (b *LocalBackend) resolve(path string) (string, error) {
	fullPath := filepath.Join(b.basePath, filepath.FromSlash(strings.TrimPrefix(path, "/")))
	rel, err := filepath.Rel(b.basePath, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path %q: escapes output directory", path)
	}
	return fullPath, nil
}

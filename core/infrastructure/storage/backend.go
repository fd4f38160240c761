// Package storage persists exported benchmark artifacts to a local
// directory, S3 (or an S3-compatible store) or Azure Blob Storage.
package storage

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// Backend types
const (
	TypeLocal = "local"
	TypeS3    = "s3"
	TypeAzure = "azure"
)

// Backend stores export artifacts by relative path
type Backend interface {
	// Write atomically replaces the object at path
	Write(ctx context.Context, path string, data []byte) error

	// Read returns the object at path
	Read(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether an object exists at path
	Exists(ctx context.Context, path string) (bool, error)

	// Location renders where path is stored, for log messages
	Location(path string) string

	// Type returns the storage type identifier
	Type() string

	Close() error
}

// Config selects and configures a backend
type Config struct {
	Backend string      `json:"backend" mapstructure:"backend"`
	Local   LocalConfig `json:"local" mapstructure:"local"`
	S3      S3Config    `json:"s3" mapstructure:"s3"`
	Azure   AzureConfig `json:"azure" mapstructure:"azure"`
}

// New builds the configured backend; an empty type means local
func New(ctx context.Context, cfg Config) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", TypeLocal:
		return NewLocalBackend(cfg.Local.Path)
	case TypeS3:
		return NewS3Backend(ctx, cfg.S3)
	case TypeAzure, "azblob":
		return NewAzureBackend(ctx, cfg.Azure)
	default:
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("unsupported storage backend '%s' (expected local, s3 or azure)", cfg.Backend), "storage.backend")
	}
}

// joinKey joins an object prefix and a relative path with forward slashes
func joinKey(prefix, path string) string {
	path = strings.TrimPrefix(path, "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return path
	}
	return prefix + "/" + path
}

func contentType(path string) string {
	switch {
	case strings.HasSuffix(path, ".csv"):
		return "text/csv"
	case strings.HasSuffix(path, ".json"):
		return "application/json"
	case strings.HasSuffix(path, ".svg"):
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

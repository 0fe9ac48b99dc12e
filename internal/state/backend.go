package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/observability"
)

// Drivers understood by Open.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

// Backend stores snapshot documents under a key. Load returns
// domain.ErrNotFound for unknown keys.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver string
	// SQLitePath defaults to <out>/cache/state.db.
	SQLitePath string
	// FilePath defaults to <out>/cache/state.json.
	FilePath string
	Redis    RedisConfig
}

// ValidDriver reports whether d names a known backend.
func ValidDriver(d string) bool {
	switch d {
	case DriverSQLite, DriverFile, DriverRedis, DriverNone:
		return true
	}
	return false
}

// Open returns the backend selected by cfg for a project writing to outDir.
// The none driver yields a nil backend. Redis calls are retried.
func Open(ctx context.Context, cfg Config, outDir string, logger *observability.Logger) (Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite, "":
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(outDir, "cache", "state.db")
		}
		b, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, domain.StateError("failed to open sqlite state", err)
		}
		return b, nil
	case DriverFile:
		path := cfg.FilePath
		if path == "" {
			path = filepath.Join(outDir, "cache", "state.json")
		}
		return NewFileBackend(path), nil
	case DriverRedis:
		b, err := NewRedisBackend(ctx, cfg.Redis)
		if err != nil {
			return nil, domain.StateError("failed to connect to redis state", err)
		}
		return WithRetry(b, DefaultRetryConfig(), logger), nil
	case DriverNone:
		return nil, nil
	}
	return nil, domain.ConfigError(fmt.Sprintf("unknown state driver %q", cfg.Driver), nil)
}

// FileBackend keeps the snapshot of a single project in one file. The key
// is ignored.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Load(_ context.Context, _ string) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return data, nil
}

func (b *FileBackend) Save(_ context.Context, _ string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }

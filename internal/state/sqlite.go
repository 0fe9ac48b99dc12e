package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/scantailor/scantailor-cli/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	project_key TEXT PRIMARY KEY,
	data        BLOB NOT NULL,
	saved_at    TIMESTAMP NOT NULL
)`

// SQLiteBackend keeps snapshots in a sqlite database, one row per project.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating when needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE project_key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return data, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, key string, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO snapshots (project_key, data, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(project_key) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`,
		key, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

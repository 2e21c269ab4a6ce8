package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps blobs in a single-table sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create db dir: %w", ErrPersistence, err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", ErrPersistence, err)
	}
	// One connection keeps writes ordered and avoids SQLITE_BUSY between
	// pooled connections of the same process.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS blobs (
  namespace TEXT PRIMARY KEY,
  data BLOB NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%w: create blobs table: %w", ErrPersistence, err)
	}
	return nil
}

// Load reads the blob for ns.
func (s *SQLiteStore) Load(ns Namespace) ([]byte, bool, error) {
	if err := validateNamespace(ns); err != nil {
		return nil, false, err
	}
	var data []byte
	err := s.db.QueryRowContext(context.Background(),
		`SELECT data FROM blobs WHERE namespace = ?;`, string(ns)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, persistenceError("select", ns, err)
	}
	return data, true, nil
}

// Save upserts the blob for ns.
func (s *SQLiteStore) Save(ns Namespace, data []byte) error {
	if err := validateNamespace(ns); err != nil {
		return err
	}
	const stmt = `
INSERT INTO blobs (namespace, data, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(namespace) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at;
`
	if data == nil {
		data = []byte{}
	}
	updatedAt := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(context.Background(), stmt, string(ns), data, updatedAt); err != nil {
		return persistenceError("upsert", ns, err)
	}
	return nil
}

// Clear deletes the row for ns.
func (s *SQLiteStore) Clear(ns Namespace) error {
	if err := validateNamespace(ns); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(context.Background(),
		`DELETE FROM blobs WHERE namespace = ?;`, string(ns)); err != nil {
		return persistenceError("delete", ns, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close sqlite: %w", ErrPersistence, err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps entries in a cache_entries table shared by all namespaces.
type SQLiteStore struct {
	db        *sql.DB
	namespace string
}

// NewSQLiteStore opens or creates the database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath, namespace string) (*SQLiteStore, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, namespace: namespace}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		data BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (namespace, key)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Namespace returns the store namespace.
func (s *SQLiteStore) Namespace() string { return s.namespace }

// Exists reports whether an entry row exists for key.
func (s *SQLiteStore) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM cache_entries WHERE namespace = ? AND key = ?`,
		s.namespace, key).Scan(&n)
	if err != nil {
		return false, ioError("stat", s.namespace, key, err)
	}
	return n > 0, nil
}

// Read returns the entry for key.
func (s *SQLiteStore) Read(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM cache_entries WHERE namespace = ? AND key = ?`,
		s.namespace, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(s.namespace, key)
	}
	if err != nil {
		return nil, ioError("read", s.namespace, key, err)
	}
	return data, nil
}

// Write inserts or replaces the entry for key in a single transaction.
func (s *SQLiteStore) Write(ctx context.Context, key string, data []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ioError("write", s.namespace, key, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (namespace, key, data, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		s.namespace, key, data)
	if err != nil {
		return ioError("write", s.namespace, key, err)
	}
	if err := tx.Commit(); err != nil {
		return ioError("commit", s.namespace, key, err)
	}
	return nil
}

// Count returns the number of entries in the namespace.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM cache_entries WHERE namespace = ?`, s.namespace).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

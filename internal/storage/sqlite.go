package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteMedium implements Medium using a single SQLite table.
type SQLiteMedium struct {
	db *sql.DB
}

// NewSQLiteMedium opens (or creates) the database at dbPath.
// The database file and table are auto-created if they don't exist.
func NewSQLiteMedium(dbPath string) (*SQLiteMedium, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite storage requires a path")
	}

	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage database: %w", err)
	}
	// One connection serializes writers; the store already holds its own lock.
	db.SetMaxOpenConns(1)

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS kv (
			item_key TEXT PRIMARY KEY NOT NULL,
			item_value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create storage table: %w", err)
	}

	return &SQLiteMedium{db: db}, nil
}

func (s *SQLiteMedium) GetItem(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT item_value FROM kv WHERE item_key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteMedium) SetItem(key, value string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO kv (item_key, item_value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteMedium) RemoveItem(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE item_key = ?", key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteMedium) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteProvider stores values in a single key/value table.
type SQLiteProvider struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteProvider, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	p := &SQLiteProvider{db: db}
	if err := p.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init sqlite: %w", err)
	}
	return p, nil
}

func (p *SQLiteProvider) initTables() error {
	_, err := p.db.Exec(`
        CREATE TABLE IF NOT EXISTS kv (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL
        )
    `)
	return err
}

// Get returns the value for key, or "" when the key is unset.
func (p *SQLiteProvider) Get(key string) (string, error) {
	var value string
	err := p.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores value under key.
func (p *SQLiteProvider) Set(key, value string) error {
	_, err := p.db.Exec(`
        INSERT INTO kv (key, value) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value
    `, key, value)
	return err
}

// Close closes the database.
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

var _ Provider = (*SQLiteProvider)(nil)

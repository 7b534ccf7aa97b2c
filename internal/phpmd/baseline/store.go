package baseline

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store handles persistence of a baseline using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the baseline database at path.
// It creates the parent directory if it doesn't exist and initializes the
// schema if needed.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create baseline dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates the necessary tables and indexes if they do not exist.
func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS violations (
			rule_class TEXT,
			file TEXT,
			method TEXT,
			PRIMARY KEY (rule_class, file, method)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_violations_file ON violations(file);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec schema query: %w", err)
		}
	}
	return nil
}

// Save replaces the stored baseline with set in a single transaction.
func (s *Store) Save(set *Set) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM violations"); err != nil {
		return err
	}
	for _, e := range set.Entries() {
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO violations (rule_class, file, method)
			VALUES (?, ?, ?)
		`, e.RuleClass, e.File, e.Method); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Load retrieves the stored baseline.
func (s *Store) Load() (*Set, error) {
	rows, err := s.db.Query("SELECT rule_class, file, method FROM violations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := NewSet()
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RuleClass, &e.File, &e.Method); err != nil {
			return nil, err
		}
		set.Add(e)
	}
	return set, rows.Err()
}

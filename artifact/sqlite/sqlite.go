// Package sqlite archives artifacts in a SQLite database using the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hupe1980/fittelligence/artifact"
	"github.com/hupe1980/fittelligence/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	app_name   TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	session_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	data       BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (app_name, user_id, session_id, name)
);`

// Store is a durable core.ArtifactStore.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
// ":memory:" is accepted for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open artifact archive: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	return New(db)
}

// New wraps an open database and ensures the schema.
func New(db *sql.DB) (*Store, error) {
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect artifact archive: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create artifacts table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Save inserts or replaces an artifact.
func (s *Store) Save(key core.SessionKey, name string, data []byte) error {
	if name == "" {
		return errors.New("artifact name must not be empty")
	}
	if data == nil {
		data = []byte{}
	}

	_, err := s.db.Exec(`
		INSERT INTO artifacts (app_name, user_id, session_id, name, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (app_name, user_id, session_id, name)
		DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key.AppName, key.UserID, key.SessionID, name, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", name, err)
	}

	return nil
}

// Get returns the artifact bytes or artifact.ErrNotFound.
func (s *Store) Get(key core.SessionKey, name string) ([]byte, error) {
	var data []byte

	err := s.db.QueryRow(`
		SELECT data FROM artifacts
		WHERE app_name = ? AND user_id = ? AND session_id = ? AND name = ?`,
		key.AppName, key.UserID, key.SessionID, name,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s in %s", artifact.ErrNotFound, name, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact %s: %w", name, err)
	}

	return data, nil
}

// List returns the sorted artifact names of the session.
func (s *Store) List(key core.SessionKey) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT name FROM artifacts
		WHERE app_name = ? AND user_id = ? AND session_id = ?
		ORDER BY name`,
		key.AppName, key.UserID, key.SessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan artifact name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// Delete removes an artifact or returns artifact.ErrNotFound.
func (s *Store) Delete(key core.SessionKey, name string) error {
	res, err := s.db.Exec(`
		DELETE FROM artifacts
		WHERE app_name = ? AND user_id = ? AND session_id = ? AND name = ?`,
		key.AppName, key.UserID, key.SessionID, name,
	)
	if err != nil {
		return fmt.Errorf("delete artifact %s: %w", name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete artifact %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s in %s", artifact.ErrNotFound, name, key)
	}

	return nil
}

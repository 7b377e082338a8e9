// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary builds
// without CGo. Use ":memory:" as the path for a throwaway database in tests.
//
// Tables are created from the definitions in internal/schema, so the columns
// here always match what the insert validators admit.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	// Importing the driver registers it with database/sql under the name "sqlite".
	// The package is named so we can inspect its *Error type for constraint codes.
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/roomview/internal/repository"
	"github.com/sakif/roomview/internal/schema"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/roomview.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database, lost on close
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every new connection to ":memory:" is a separate, empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates every table declared in internal/schema plus the indexes
// used by the list queries. All statements are idempotent.
func (db *DB) migrate() error {
	for _, t := range schema.Tables {
		if _, err := db.conn.Exec(t.CreateTableSQL(schema.SQLite)); err != nil {
			return fmt.Errorf("creating %s table: %w", t.Name, err)
		}
	}

	_, err := db.conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_models_uploaded_at ON models(uploaded_at);
		CREATE INDEX IF NOT EXISTS idx_annotations_room_id ON annotations(room_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

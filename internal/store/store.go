package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stamped into PRAGMA user_version when a database is
// created. It covers both the table layout and the plan ID scheme
// (ir.DomainExpr), since a cached plan is only valid under the hashing that
// produced its key.
const schemaVersion = 1

// Store is the plan cache and the run history behind it.
//
// A single connection serves both. The planner writes from one goroutine and
// the CLI only reads, so there is never a second writer to wait on.
type Store struct {
	db *sql.DB
}

// VersionError is returned by Open for a database stamped with a schema
// version this build does not read.
type VersionError struct {
	Path  string
	Found int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("%s: plan store schema version %d, this build reads version %d", e.Path, e.Found, schemaVersion)
}

// Open creates or opens the plan store at path.
//
// Connections run with WAL journaling, synchronous=NORMAL, a 5s busy
// timeout and foreign keys on. A new database gets the schema and is
// stamped with schemaVersion; an existing one must carry that stamp.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := initSchema(db, path); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// dsn sets the connection pragmas as go-sqlite3 URI parameters so they hold
// on every connection the pool opens, not only the first.
func dsn(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "1")
	return "file:" + path + "?" + params.Encode()
}

func initSchema(db *sql.DB, path string) error {
	raw, err := pragma(db, "user_version")
	if err != nil {
		return err
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("user_version %q: %w", raw, err)
	}
	switch version {
	case schemaVersion:
		return nil
	case 0:
	default:
		return &VersionError{Path: path, Found: version}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}

func pragma(db *sql.DB, name string) (string, error) {
	var value string
	if err := db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}

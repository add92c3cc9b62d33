// Package store owns the SQLite connection and schema for the booksly engine.
//
// Every uniqueness invariant of the domain (one rating per user/book, unique
// follow edge, unique username/email) is declared in the schema, and the
// UNIQUE-violation helpers here are the authoritative conflict signal for
// concurrent writers; service-level pre-checks are only an early exit.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"booksly/errs"
)

// Store wraps the shared database handle. It is passed explicitly into each
// component at construction; there is no process-wide connection state.
type Store struct {
	*sql.DB
}

// Open opens (or creates) the SQLite database at path, applies schema
// migrations, and returns the shared handle.
func Open(path string, busyTimeoutMS int) (*Store, error) {
	// Ensure the directory exists so first-run succeeds.
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	if busyTimeoutMS <= 0 {
		busyTimeoutMS = 5000
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=1", path, busyTimeoutMS)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errs.Unavailable("open store", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errs.Unavailable("open store", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{DB: db}, nil
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint
// violation from the driver.
func IsUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// Fail classifies a non-domain store error as unavailability, keeping the
// driver error as the cause. Domain errors pass through unchanged so callers
// can still match them.
func Fail(err error) error {
	var derr *errs.Error
	if errors.As(err, &derr) {
		return err
	}
	return errs.ErrUnavailable.WithCause(err)
}

// Package dbx owns the single sqlite handle shared by every store: opening
// it with the right pragmas, running migrations, and serializing writers
// through the process-wide db-lock.
package dbx

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/orcaarchive/orca/internal/logger"

	_ "modernc.org/sqlite"
)

var (
	ErrFailedToOpen         = errors.New("failed to open database")
	ErrFailedToApplyPragmas = errors.New("failed to apply pragmas")
)

// Open opens (creating parent directories as needed) a sqlite database at
// path and configures it for single-writer/many-reader use.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: creating directory %s: %v", ErrFailedToOpen, dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToOpen, err)
	}

	// The embedded driver enforces one writer at a time regardless of pool
	// size; keeping a handful of connections lets reads stay concurrent
	// while writes queue behind the WAL.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(0)

	useWAL := path != ":memory:"
	if err := ApplyPragmas(db, useWAL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToApplyPragmas, err)
	}

	return db, nil
}

// ApplyPragmas sets the pragmas Open relies on; split out so callers holding
// an already-open *sql.DB can reapply them.
func ApplyPragmas(db *sql.DB, useWAL bool) error {
	pragmas := []string{"PRAGMA foreign_keys = ON"}
	if useWAL {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	pragmas = append(pragmas, "PRAGMA busy_timeout = 5000")

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("applying %q: %w", p, err)
		}
	}
	return nil
}

// Close checkpoints the WAL and closes the handle. Safe to call on a nil db.
func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	db.Exec("PRAGMA optimize")
	db.Exec("PRAGMA wal_checkpoint(FULL)")
	return db.Close()
}

// IntegrityCheck runs SQLite's own consistency check; callers typically
// invoke this on startup to catch corruption before serving traffic.
func IntegrityCheck(db *sql.DB) error {
	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed to run: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corruption detected: %s", result)
	}
	logger.Debug("database integrity check passed")
	return nil
}

package dbx

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/orcaarchive/orca/internal/logger"

	"github.com/pressly/goose/v3"
)

const dialect = "sqlite3"

//go:embed migrations/*.sql
var embedMigrations embed.FS

var (
	ErrFailedToSetDialect    = errors.New("failed to set dialect")
	ErrFailedToRunMigrations = errors.New("failed to run migrations")
)

// Migrate applies every pending migration embedded in this binary.
func Migrate(db *sql.DB) error {
	logger.Debug("running migrations")
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSetDialect, err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToRunMigrations, err)
	}
	logger.Debug("migrations completed")
	return nil
}

// MigrationStatus reports the applied/pending migration state to the log.
func MigrationStatus(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.Status(db, "migrations")
}

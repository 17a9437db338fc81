// Package testsupport provides shared test fixtures: a temp sqlite database
// with migrations applied, and a temp data-root directory layout.
package testsupport

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/orcaarchive/orca/internal/dbx"
)

// NewDB opens a temporary sqlite database with every migration applied.
// It is closed and removed automatically at the end of the test.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "orca-test.db")

	database, err := dbx.Open(dbPath)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := dbx.Migrate(database); err != nil {
		database.Close()
		t.Fatalf("running migrations: %v", err)
	}

	t.Cleanup(func() {
		dbx.Close(database)
	})

	return database
}

// DataRoot creates a temp directory standing in for the configured
// data_path, with a single batch/album already present so ingest tests
// have somewhere to point at.
func DataRoot(t *testing.T, batchName, album string) string {
	t.Helper()

	root := t.TempDir()
	albumDir := filepath.Join(root, batchName, album)
	if err := os.MkdirAll(albumDir, 0755); err != nil {
		t.Fatalf("creating album directory: %v", err)
	}
	return root
}

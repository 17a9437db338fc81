package document

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/orcaarchive/orca/internal/dbx"
	"github.com/orcaarchive/orca/internal/retry"
)

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryExecer interface {
	queryer
	execer
}

type Store struct {
	db      *sql.DB
	retries int
}

func NewStore(db *sql.DB, retries int) *Store {
	return &Store{db: db, retries: retries}
}

func (s *Store) Create(ctx context.Context, d *Document, immediate bool) (*Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	d, err = s.create(ctx, tx, d)
	if err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	if !immediate {
		return d, nil
	}

	err = retry.Do(ctx, retry.Options{
		Retries:  s.retries,
		Classify: dbx.IsTransient,
		OnRetry:  func() { dbx.Do(func() error { return tx.Rollback() }) },
	}, func() error {
		return dbx.Do(func() error { return tx.Commit() })
	})
	if err != nil {
		return nil, fmt.Errorf("committing document: %w", err)
	}

	return d, nil
}

func (s *Store) CreateTx(ctx context.Context, tx *sql.Tx, d *Document) (*Document, error) {
	return s.create(ctx, tx, d)
}

func (s *Store) create(ctx context.Context, qe queryExecer, d *Document) (*Document, error) {
	query := `
		INSERT INTO document (guid, scan_guid, batch_name, json_path, json_url, text_path,
			text_url, tags, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := qe.ExecContext(ctx, query,
		d.GUID, d.ScanGUID, d.BatchName, d.JSONPath, d.JSONURL, d.TextPath, d.TextURL,
		d.Tags, d.Comment, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}
	return d, nil
}

func (s *Store) Get(ctx context.Context, guid string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, documentSelectCols+" WHERE guid = ?", guid)
	d, err := scanDocRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return d, nil
}

// GetByBatchScan looks up the Document already recorded for (batch_name,
// scan_guid), so re-running ingest against the same batch doesn't create a
// duplicate Document for an existing Scan.
func (s *Store) GetByBatchScan(ctx context.Context, batchName, scanGUID string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, documentSelectCols+" WHERE batch_name = ? AND scan_guid = ?", batchName, scanGUID)
	d, err := scanDocRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document by batch/scan: %w", err)
	}
	return d, nil
}

func (s *Store) GetAll(ctx context.Context) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, documentSelectCols+" ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()
	return scanDocRows(rows)
}

// GetByGUIDs resolves a set of Document GUIDs in a single round trip, used
// by the megadoc builder to hydrate a Search's match set.
func (s *Store) GetByGUIDs(ctx context.Context, guids []string) ([]*Document, error) {
	if len(guids) == 0 {
		return []*Document{}, nil
	}
	placeholders := make([]string, len(guids))
	args := make([]any, len(guids))
	for i, g := range guids {
		placeholders[i] = "?"
		args[i] = g
	}
	query := documentSelectCols + " WHERE guid IN (" + strings.Join(placeholders, ",") + ") ORDER BY created_at ASC"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents by guids: %w", err)
	}
	defer rows.Close()
	return scanDocRows(rows)
}

func (s *Store) GetLatest(ctx context.Context) (*Document, error) {
	row := s.db.QueryRowContext(ctx, documentSelectCols+" ORDER BY created_at DESC LIMIT 1")
	d, err := scanDocRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest document: %w", err)
	}
	return d, nil
}

func (s *Store) GetTotal(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM document").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// Delete removes a Document without affecting its Scan.
func (s *Store) Delete(ctx context.Context, guid string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM document WHERE guid = ?", guid)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const documentSelectCols = `
	SELECT guid, scan_guid, batch_name, json_path, json_url, text_path, text_url,
		tags, comment, created_at, updated_at
	FROM document
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocRow(row rowScanner) (*Document, error) {
	d := &Document{}
	err := row.Scan(
		&d.GUID, &d.ScanGUID, &d.BatchName, &d.JSONPath, &d.JSONURL, &d.TextPath, &d.TextURL,
		&d.Tags, &d.Comment, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func scanDocRows(rows *sql.Rows) ([]*Document, error) {
	out := make([]*Document, 0)
	for rows.Next() {
		d, err := scanDocRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}
	return out, nil
}

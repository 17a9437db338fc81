package search

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/orcaarchive/orca/internal/dbx"
	"github.com/orcaarchive/orca/internal/guid"
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

func (s *Store) Create(ctx context.Context, sr *Search, immediate bool) (*Search, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	sr, err = s.create(ctx, tx, sr)
	if err != nil {
		return nil, fmt.Errorf("creating search: %w", err)
	}

	if !immediate {
		return sr, nil
	}

	err = retry.Do(ctx, retry.Options{
		Retries:  s.retries,
		Classify: dbx.IsTransient,
		OnRetry:  func() { dbx.Do(func() error { return tx.Rollback() }) },
	}, func() error {
		return dbx.Do(func() error { return tx.Commit() })
	})
	if err != nil {
		return nil, fmt.Errorf("committing search: %w", err)
	}
	return sr, nil
}

func (s *Store) create(ctx context.Context, qe queryExecer, sr *Search) (*Search, error) {
	query := `
		INSERT INTO search (guid, search_str, corpus_guid, status, document_count,
			tags, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := qe.ExecContext(ctx, query,
		sr.GUID, sr.SearchStr, sr.CorpusGUID, sr.Status, sr.DocumentCount,
		sr.Tags, sr.Comment, sr.CreatedAt, sr.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting search: %w", err)
	}
	return sr, nil
}

func (s *Store) Get(ctx context.Context, g string) (*Search, error) {
	row := s.db.QueryRowContext(ctx, searchSelectCols+" WHERE guid = ?", g)
	sr, err := scanSearchRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting search: %w", err)
	}
	return sr, nil
}

func (s *Store) GetAll(ctx context.Context) ([]*Search, error) {
	rows, err := s.db.QueryContext(ctx, searchSelectCols+" ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("querying searches: %w", err)
	}
	defer rows.Close()

	out := make([]*Search, 0)
	for rows.Next() {
		sr, err := scanSearchRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (s *Store) GetLatest(ctx context.Context) (*Search, error) {
	row := s.db.QueryRowContext(ctx, searchSelectCols+" ORDER BY created_at DESC LIMIT 1")
	sr, err := scanSearchRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest search: %w", err)
	}
	return sr, nil
}

func (s *Store) GetTotal(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM search").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting searches: %w", err)
	}
	return n, nil
}

// SetStatus enforces Status.CanTransitionTo before persisting; a backward
// or repeated transition is rejected rather than silently applied.
func (s *Store) SetStatus(ctx context.Context, g string, next guid.Status) error {
	current, err := s.Get(ctx, g)
	if err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrBadStatus, current.Status, next)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE search SET status = ?, updated_at = ? WHERE guid = ?",
		next, time.Now().UTC(), g)
	if err != nil {
		return fmt.Errorf("updating search status: %w", err)
	}
	return nil
}

// AttachDocument records a hit, returning false (no error) if the document
// was already attached, matching the "skip with a warning" contract; the
// caller decides whether and how to log that.
func (s *Store) AttachDocument(ctx context.Context, searchGUID, documentGUID string) (attached bool, err error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO search_document (search_guid, document_guid) VALUES (?, ?)",
		searchGUID, documentGUID)
	if err != nil {
		return false, fmt.Errorf("attaching document to search: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE search SET document_count = (SELECT COUNT(*) FROM search_document WHERE search_guid = ?), updated_at = ? WHERE guid = ?",
		searchGUID, time.Now().UTC(), searchGUID)
	if err != nil {
		return true, fmt.Errorf("syncing search document_count: %w", err)
	}
	return true, nil
}

// Delete removes a Search and, via ON DELETE CASCADE, its search_document
// rows and any Megadocs built from it. Returns ErrNotFound if no such
// Search exists.
func (s *Store) Delete(ctx context.Context, g string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM search WHERE guid = ?", g)
	if err != nil {
		return fmt.Errorf("deleting search: %w", err)
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

func (s *Store) DocumentGUIDs(ctx context.Context, searchGUID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sd.document_guid FROM search_document sd
		JOIN document d ON d.guid = sd.document_guid
		WHERE sd.search_guid = ?
		ORDER BY d.created_at ASC
	`, searchGUID)
	if err != nil {
		return nil, fmt.Errorf("querying search documents: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scanning search document guid: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

const searchSelectCols = `
	SELECT guid, search_str, corpus_guid, status, document_count, tags, comment, created_at, updated_at
	FROM search
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSearchRow(row rowScanner) (*Search, error) {
	sr := &Search{}
	err := row.Scan(&sr.GUID, &sr.SearchStr, &sr.CorpusGUID, &sr.Status, &sr.DocumentCount,
		&sr.Tags, &sr.Comment, &sr.CreatedAt, &sr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return sr, nil
}

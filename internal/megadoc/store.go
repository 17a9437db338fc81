package megadoc

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

func (s *Store) Create(ctx context.Context, m *Megadoc, immediate bool) (*Megadoc, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	m, err = s.create(ctx, tx, m)
	if err != nil {
		return nil, fmt.Errorf("creating megadoc: %w", err)
	}

	if !immediate {
		return m, nil
	}

	err = retry.Do(ctx, retry.Options{
		Retries:  s.retries,
		Classify: dbx.IsTransient,
		OnRetry:  func() { dbx.Do(func() error { return tx.Rollback() }) },
	}, func() error {
		return dbx.Do(func() error { return tx.Commit() })
	})
	if err != nil {
		return nil, fmt.Errorf("committing megadoc: %w", err)
	}

	return m, nil
}

func (s *Store) create(ctx context.Context, qe queryExecer, m *Megadoc) (*Megadoc, error) {
	query := `
		INSERT INTO megadoc (guid, search_guid, filetype, filename, path, url, status, progress,
			tags, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := qe.ExecContext(ctx, query,
		m.GUID, m.SearchGUID, m.Filetype, m.Filename, m.Path, m.URL, m.Status, m.Progress,
		m.Tags, m.Comment, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting megadoc: %w", err)
	}
	return m, nil
}

func (s *Store) Get(ctx context.Context, g string) (*Megadoc, error) {
	row := s.db.QueryRowContext(ctx, megadocSelectCols+" WHERE guid = ?", g)
	m, err := scanMegadocRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting megadoc: %w", err)
	}
	return m, nil
}

// GetBySearchFiletype looks up an existing Megadoc for (search_guid,
// filetype), the dedup key the Builder checks before compiling a new one.
func (s *Store) GetBySearchFiletype(ctx context.Context, searchGUID, filetype string) (*Megadoc, error) {
	row := s.db.QueryRowContext(ctx, megadocSelectCols+" WHERE search_guid = ? AND filetype = ?", searchGUID, filetype)
	m, err := scanMegadocRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting megadoc by search/filetype: %w", err)
	}
	return m, nil
}

// GetBySearch lists every Megadoc built for searchGUID, across all
// filetypes, for the HTTP surface's GET /search/{guid} response.
func (s *Store) GetBySearch(ctx context.Context, searchGUID string) ([]*Megadoc, error) {
	rows, err := s.db.QueryContext(ctx, megadocSelectCols+" WHERE search_guid = ? ORDER BY filetype", searchGUID)
	if err != nil {
		return nil, fmt.Errorf("querying megadocs by search: %w", err)
	}
	defer rows.Close()

	out := make([]*Megadoc, 0)
	for rows.Next() {
		m, err := scanMegadocRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning megadoc row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetAll(ctx context.Context) ([]*Megadoc, error) {
	rows, err := s.db.QueryContext(ctx, megadocSelectCols+" ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("querying megadocs: %w", err)
	}
	defer rows.Close()

	out := make([]*Megadoc, 0)
	for rows.Next() {
		m, err := scanMegadocRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning megadoc row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetTotal(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM megadoc").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting megadocs: %w", err)
	}
	return n, nil
}

// SetStatus enforces Status.CanTransitionTo, same as search.Store.SetStatus.
func (s *Store) SetStatus(ctx context.Context, g string, next guid.Status) error {
	current, err := s.Get(ctx, g)
	if err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrBadStatus, current.Status, next)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE megadoc SET status = ?, updated_at = ? WHERE guid = ?",
		next, time.Now().UTC(), g)
	if err != nil {
		return fmt.Errorf("updating megadoc status: %w", err)
	}
	return nil
}

// SetProgress records compile progress as a percentage in [0,100]; callers
// call this once per Document written so a client polling the Megadoc can
// show a progress bar.
func (s *Store) SetProgress(ctx context.Context, g string, progress float64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE megadoc SET progress = ?, updated_at = ? WHERE guid = ?",
		progress, time.Now().UTC(), g)
	if err != nil {
		return fmt.Errorf("updating megadoc progress: %w", err)
	}
	return nil
}

const megadocSelectCols = `
	SELECT guid, search_guid, filetype, filename, path, url, status, progress,
		tags, comment, created_at, updated_at
	FROM megadoc
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMegadocRow(row rowScanner) (*Megadoc, error) {
	m := &Megadoc{}
	err := row.Scan(&m.GUID, &m.SearchGUID, &m.Filetype, &m.Filename, &m.Path, &m.URL,
		&m.Status, &m.Progress, &m.Tags, &m.Comment, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

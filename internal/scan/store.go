package scan

import (
	"context"
	"database/sql"
	"fmt"

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

// Store persists Scan rows. It is never mutated after creation beyond the
// shared tags/comment fields, matching the entity's immutability.
type Store struct {
	db      *sql.DB
	retries int
}

func NewStore(db *sql.DB, retries int) *Store {
	return &Store{db: db, retries: retries}
}

// Create inserts s. When immediate is true the store opens and commits its
// own transaction (through retry.Do + dbx.Lock); otherwise the caller must
// supply a transaction via CreateTx and commit it themselves.
func (s *Store) Create(ctx context.Context, sc *Scan, immediate bool) (*Scan, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	sc, err = s.create(ctx, tx, sc)
	if err != nil {
		return nil, fmt.Errorf("creating scan: %w", err)
	}

	if !immediate {
		return sc, nil
	}

	err = retry.Do(ctx, retry.Options{
		Retries:  s.retries,
		Classify: dbx.IsTransient,
		OnRetry:  func() { dbx.Do(func() error { return tx.Rollback() }) },
	}, func() error {
		return dbx.Do(func() error { return tx.Commit() })
	})
	if err != nil {
		return nil, fmt.Errorf("committing scan: %w", err)
	}

	return sc, nil
}

func (s *Store) CreateTx(ctx context.Context, tx *sql.Tx, sc *Scan) (*Scan, error) {
	return s.create(ctx, tx, sc)
}

func (s *Store) create(ctx context.Context, qe queryExecer, sc *Scan) (*Scan, error) {
	query := `
		INSERT INTO scan (guid, album, album_index, stem, title, path, url, thumb_url,
			scanned_at, media_archive, media_collection, media_box, media_folder,
			media_type, media_created_at, tags, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := qe.ExecContext(ctx, query,
		sc.GUID, sc.Album, sc.AlbumIndex, sc.Stem, sc.Title, sc.Path, sc.URL, sc.ThumbURL,
		sc.ScannedAt, sc.MediaArchive, sc.MediaCollection, sc.MediaBox, sc.MediaFolder,
		sc.MediaType, sc.MediaCreatedAt, sc.Tags, sc.Comment, sc.CreatedAt, sc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting scan: %w", err)
	}
	return sc, nil
}

// GetByAlbumStem looks up an existing Scan for (album, stem) so re-ingest of
// the same file doesn't create a duplicate row.
func (s *Store) GetByAlbumStem(ctx context.Context, album, stem string) (*Scan, error) {
	return s.getByAlbumStem(ctx, s.db, album, stem)
}

func (s *Store) GetByAlbumStemTx(ctx context.Context, tx *sql.Tx, album, stem string) (*Scan, error) {
	return s.getByAlbumStem(ctx, tx, album, stem)
}

func (s *Store) getByAlbumStem(ctx context.Context, q queryer, album, stem string) (*Scan, error) {
	row := q.QueryRowContext(ctx, scanSelectCols+" WHERE album = ? AND stem = ?", album, stem)
	sc, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting scan by album/stem: %w", err)
	}
	return sc, nil
}

func (s *Store) Get(ctx context.Context, guid string) (*Scan, error) {
	row := s.db.QueryRowContext(ctx, scanSelectCols+" WHERE guid = ?", guid)
	sc, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting scan: %w", err)
	}
	return sc, nil
}

func (s *Store) GetAll(ctx context.Context) ([]*Scan, error) {
	rows, err := s.db.QueryContext(ctx, scanSelectCols+" ORDER BY album, album_index")
	if err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *Store) GetLatest(ctx context.Context) (*Scan, error) {
	row := s.db.QueryRowContext(ctx, scanSelectCols+" ORDER BY created_at DESC LIMIT 1")
	sc, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest scan: %w", err)
	}
	return sc, nil
}

func (s *Store) GetTotal(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scan").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting scans: %w", err)
	}
	return n, nil
}

const scanSelectCols = `
	SELECT guid, album, album_index, stem, title, path, url, thumb_url, scanned_at,
		media_archive, media_collection, media_box, media_folder, media_type,
		media_created_at, tags, comment, created_at, updated_at
	FROM scan
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*Scan, error) {
	sc := &Scan{}
	err := row.Scan(
		&sc.GUID, &sc.Album, &sc.AlbumIndex, &sc.Stem, &sc.Title, &sc.Path, &sc.URL, &sc.ThumbURL,
		&sc.ScannedAt, &sc.MediaArchive, &sc.MediaCollection, &sc.MediaBox, &sc.MediaFolder,
		&sc.MediaType, &sc.MediaCreatedAt, &sc.Tags, &sc.Comment, &sc.CreatedAt, &sc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func scanRows(rows *sql.Rows) ([]*Scan, error) {
	out := make([]*Scan, 0)
	for rows.Next() {
		sc, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scan row: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scan rows: %w", err)
	}
	return out, nil
}


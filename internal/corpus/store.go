package corpus

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

type Store struct {
	db      *sql.DB
	retries int
}

func NewStore(db *sql.DB, retries int) *Store {
	return &Store{db: db, retries: retries}
}

// CreateWithDocuments inserts c and its corpus_document join rows for
// documentGUIDs, all within one transaction, then commits under retry.Do +
// dbx.Lock, so the snapshot is created-then-sealed atomically.
func (s *Store) CreateWithDocuments(ctx context.Context, c *Corpus, documentGUIDs []string) (*Corpus, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	c.DocumentCount = len(documentGUIDs)
	if _, err := s.create(ctx, tx, c); err != nil {
		return nil, fmt.Errorf("creating corpus: %w", err)
	}

	for _, docGUID := range documentGUIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO corpus_document (corpus_guid, document_guid) VALUES (?, ?)",
			c.GUID, docGUID)
		if err != nil {
			return nil, fmt.Errorf("linking document %s to corpus: %w", docGUID, err)
		}
	}

	err = retry.Do(ctx, retry.Options{
		Retries:  s.retries,
		Classify: dbx.IsTransient,
		OnRetry:  func() { dbx.Do(func() error { return tx.Rollback() }) },
	}, func() error {
		return dbx.Do(func() error { return tx.Commit() })
	})
	if err != nil {
		return nil, fmt.Errorf("committing corpus: %w", err)
	}

	return c, nil
}

func (s *Store) create(ctx context.Context, qe queryExecer, c *Corpus) (*Corpus, error) {
	query := `
		INSERT INTO corpus (guid, checksum, document_count, tags, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := qe.ExecContext(ctx, query, c.GUID, c.Checksum, c.DocumentCount, c.Tags, c.Comment, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting corpus: %w", err)
	}
	return c, nil
}

func (s *Store) Get(ctx context.Context, guid string) (*Corpus, error) {
	row := s.db.QueryRowContext(ctx, corpusSelectCols+" WHERE guid = ?", guid)
	c, err := scanCorpusRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting corpus: %w", err)
	}
	return c, nil
}

// GetLatest returns the most recently created Corpus, which the Searcher
// binds every new Search to.
func (s *Store) GetLatest(ctx context.Context) (*Corpus, error) {
	row := s.db.QueryRowContext(ctx, corpusSelectCols+" ORDER BY created_at DESC LIMIT 1")
	c, err := scanCorpusRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest corpus: %w", err)
	}
	return c, nil
}

func (s *Store) GetAll(ctx context.Context) ([]*Corpus, error) {
	rows, err := s.db.QueryContext(ctx, corpusSelectCols+" ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("querying corpora: %w", err)
	}
	defer rows.Close()

	out := make([]*Corpus, 0)
	for rows.Next() {
		c, err := scanCorpusRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning corpus row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetTotal(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM corpus").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting corpora: %w", err)
	}
	return n, nil
}

// DocumentGUIDs returns the member Document GUIDs of a Corpus, in the order
// they were snapshotted.
func (s *Store) DocumentGUIDs(ctx context.Context, corpusGUID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cd.document_guid FROM corpus_document cd
		JOIN document d ON d.guid = cd.document_guid
		WHERE cd.corpus_guid = ?
		ORDER BY d.created_at ASC
	`, corpusGUID)
	if err != nil {
		return nil, fmt.Errorf("querying corpus documents: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scanning corpus document guid: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

const corpusSelectCols = `
	SELECT guid, checksum, document_count, tags, comment, created_at, updated_at
	FROM corpus
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCorpusRow(row rowScanner) (*Corpus, error) {
	c := &Corpus{}
	err := row.Scan(&c.GUID, &c.Checksum, &c.DocumentCount, &c.Tags, &c.Comment, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

package search

import (
	"context"
	"fmt"
	"time"

	"github.com/orcaarchive/orca/internal/apperr"
	"github.com/orcaarchive/orca/internal/corpus"
	"github.com/orcaarchive/orca/internal/document"
	"github.com/orcaarchive/orca/internal/fulltext"
	"github.com/orcaarchive/orca/internal/guid"
	"github.com/orcaarchive/orca/internal/logger"
)

// Service resolves a search_str against the full-text index bound to the
// latest Corpus, recording the run as a Search and its hits as attached
// Documents.
type Service struct {
	searches  *Store
	corpora   *corpus.Store
	documents *document.Store
	indexPath string
}

func NewService(searches *Store, corpora *corpus.Store, documents *document.Store, indexPath string) *Service {
	return &Service{searches: searches, corpora: corpora, documents: documents, indexPath: indexPath}
}

// Run executes searchStr against the current index. The returned Search is
// always persisted, even on a zero-hit query; only a rejected query
// (too short, no corpus) returns with no Search at all.
func (svc *Service) Run(ctx context.Context, searchStr string) (*Search, error) {
	if len(searchStr) < MinQueryLen {
		return nil, fmt.Errorf("%w: search string must be at least %d characters", apperr.ErrBadInput, MinQueryLen)
	}

	c, err := svc.corpora.GetLatest(ctx)
	if err != nil {
		if err == corpus.ErrNotFound {
			return nil, fmt.Errorf("%w: no corpus has been indexed yet", ErrNoCorpus)
		}
		return nil, fmt.Errorf("loading latest corpus: %w", err)
	}

	sr, err := svc.searches.Create(ctx, New(time.Now().UTC(), searchStr, c.GUID), true)
	if err != nil {
		return nil, fmt.Errorf("creating search: %w", err)
	}

	query, err := Parse(searchStr)
	if err != nil {
		return sr, fmt.Errorf("%w: parsing search string: %s", apperr.ErrBadInput, err)
	}

	idx, err := fulltext.OpenReadOnly(svc.indexPath)
	if err != nil {
		return sr, fmt.Errorf("opening full-text index: %w", err)
	}
	defer idx.Close()

	hits, err := fulltext.Search(idx, query.ToBleve())
	if err != nil {
		return sr, fmt.Errorf("running full-text search: %w", err)
	}

	if len(hits) > 0 {
		if err := svc.searches.SetStatus(ctx, sr.GUID, guid.StatusStarted); err != nil {
			return sr, fmt.Errorf("marking search started: %w", err)
		}
	}

	for _, docGUID := range hits {
		if _, err := svc.documents.Get(ctx, docGUID); err != nil {
			if err == document.ErrNotFound {
				return sr, fmt.Errorf("%w: index references missing document %s", apperr.ErrInvariantViolation, docGUID)
			}
			return sr, fmt.Errorf("resolving hit document %s: %w", docGUID, err)
		}

		attached, err := svc.searches.AttachDocument(ctx, sr.GUID, docGUID)
		if err != nil {
			return sr, fmt.Errorf("attaching document %s: %w", docGUID, err)
		}
		if !attached {
			logger.WithFields(map[string]any{"search": sr.GUID, "document": docGUID}).
				Warn("skipping hit: document already attached to search")
		}
	}

	if err := svc.searches.SetStatus(ctx, sr.GUID, guid.StatusSuccess); err != nil {
		return sr, fmt.Errorf("marking search complete: %w", err)
	}

	return svc.searches.Get(ctx, sr.GUID)
}

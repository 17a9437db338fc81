package megadoc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/orcaarchive/orca/internal/apperr"
	"github.com/orcaarchive/orca/internal/document"
	"github.com/orcaarchive/orca/internal/guid"
	"github.com/orcaarchive/orca/internal/logger"
	"github.com/orcaarchive/orca/internal/scan"
	"github.com/orcaarchive/orca/internal/search"
)

// Builder compiles a Search's matched Documents into a single Megadoc file.
type Builder struct {
	megadocs  *Store
	searches  *search.Store
	documents *document.Store
	scans     *scan.Store
	dataPath  string
	megadocDir string
	clientURL string
}

func NewBuilder(megadocs *Store, searches *search.Store, documents *document.Store, scans *scan.Store, dataPath, megadocDir, clientURL string) *Builder {
	return &Builder{
		megadocs: megadocs, searches: searches, documents: documents, scans: scans,
		dataPath: dataPath, megadocDir: megadocDir, clientURL: clientURL,
	}
}

// Build compiles search's matched documents into filetype, or returns the
// existing Megadoc unchanged if one was already built for this
// (search, filetype) pair. A Search with zero matches returns (nil, nil):
// there is nothing to build, and that is not an error.
func (b *Builder) Build(ctx context.Context, s *search.Search, filetype string) (*Megadoc, error) {
	if !IsSupportedFiletype(filetype) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotImplemented, filetype)
	}

	if existing, err := b.megadocs.GetBySearchFiletype(ctx, s.GUID, filetype); err == nil {
		logger.WithFields(map[string]any{"search": s.GUID, "filetype": filetype}).
			Warn("skipping build: megadoc already exists for this search and filetype")
		return existing, nil
	} else if err != ErrNotFound {
		return nil, fmt.Errorf("checking for existing megadoc: %w", err)
	}

	if s.DocumentCount < 1 {
		logger.WithFields(map[string]any{"search": s.GUID, "search_str": s.SearchStr}).
			Warn("skipping build: search has no results")
		return nil, nil
	}

	docGUIDs, err := b.searches.DocumentGUIDs(ctx, s.GUID)
	if err != nil {
		return nil, fmt.Errorf("loading search documents: %w", err)
	}
	docs, err := b.documents.GetByGUIDs(ctx, docGUIDs)
	if err != nil {
		return nil, fmt.Errorf("resolving search documents: %w", err)
	}

	m := New(time.Now().UTC(), s.GUID, s.SearchStr, filetype, b.megadocDir, b.clientURL)
	m, err = b.megadocs.Create(ctx, m, true)
	if err != nil {
		return nil, fmt.Errorf("creating megadoc: %w", err)
	}

	fullPath := filepath.Join(b.dataPath, m.Path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("creating megadoc directory: %w", err)
	}

	var dw *DocxWriter
	if filetype == ".docx" {
		dw = NewDocxWriter()
	}

	total := len(docs)
	for i, doc := range docs {
		sc, err := b.scans.Get(ctx, doc.ScanGUID)
		if err != nil {
			return m, fmt.Errorf("resolving scan %s for document %s: %w", doc.ScanGUID, doc.GUID, err)
		}

		raw, err := os.ReadFile(filepath.Join(b.dataPath, doc.TextPath))
		if err != nil {
			return m, fmt.Errorf("reading document text %s: %w", doc.TextPath, err)
		}

		sec := section{doc: doc, sc: sc, text: string(raw), isLastPage: i == total-1}

		switch filetype {
		case ".docx":
			dw.AddSection(sec)
		case ".txt", ".md":
			if err := appendTextSection(fullPath, sec); err != nil {
				return m, err
			}
		}

		progress := float64(i+1) / float64(total) * 100
		if err := b.megadocs.SetProgress(ctx, m.GUID, progress); err != nil {
			return m, fmt.Errorf("recording megadoc progress: %w", err)
		}
		if m.Status == guid.StatusPending {
			if err := b.megadocs.SetStatus(ctx, m.GUID, guid.StatusStarted); err != nil {
				return m, fmt.Errorf("marking megadoc started: %w", err)
			}
			m.Status = guid.StatusStarted
		}
	}

	if dw != nil {
		if err := dw.Save(fullPath); err != nil {
			return m, fmt.Errorf("saving docx megadoc: %w", err)
		}
	}

	if err := b.megadocs.SetStatus(ctx, m.GUID, guid.StatusSending); err != nil {
		return m, fmt.Errorf("marking megadoc ready for upload: %w", err)
	}

	return b.megadocs.Get(ctx, m.GUID)
}

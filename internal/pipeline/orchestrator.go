// Package pipeline wires the Ingestor, Indexer, Searcher, Megadoc Builder
// and Uploader into the two top-level operations the CLI and HTTP surface
// drive: loading a batch of scans, and running a search through to
// downloadable megadocs.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orcaarchive/orca/internal/apperr"
	"github.com/orcaarchive/orca/internal/corpus"
	"github.com/orcaarchive/orca/internal/document"
	"github.com/orcaarchive/orca/internal/fulltext"
	"github.com/orcaarchive/orca/internal/ingest"
	"github.com/orcaarchive/orca/internal/logger"
	"github.com/orcaarchive/orca/internal/megadoc"
	"github.com/orcaarchive/orca/internal/search"
)

type ingestor interface {
	Ingest(ctx context.Context, dataPath, batchName, albumFilter string) (*ingest.Result, error)
}

type searcher interface {
	Run(ctx context.Context, searchStr string) (*search.Search, error)
}

type builder interface {
	Build(ctx context.Context, s *search.Search, filetype string) (*megadoc.Megadoc, error)
}

type uploader interface {
	Upload(ctx context.Context, m *megadoc.Megadoc, dataPath string) error
}

// LoadResult summarizes one StartLoad run across every album.
type LoadResult struct {
	Albums   []string
	Corpus   *corpus.Corpus
	PerAlbum map[string]*ingest.Result
}

// Orchestrator holds the process-wide loading latch and drives the two
// top-level pipeline operations. A single latch is sufficient for a
// single-host deployment; promoting it to a lease in a shared store is out
// of scope here.
type Orchestrator struct {
	ingestor  ingestor
	documents *document.Store
	corpora   *corpus.Store
	search    searcher
	builder   builder
	uploader  uploader

	dataPath     string
	indexPath    string
	maxOpenFiles int

	loading atomic.Bool
}

func NewOrchestrator(
	ing ingestor,
	documents *document.Store,
	corpora *corpus.Store,
	srch searcher,
	bld builder,
	upl uploader,
	dataPath, indexPath string,
	maxOpenFiles int,
) *Orchestrator {
	if maxOpenFiles < 1 {
		maxOpenFiles = 32
	}
	return &Orchestrator{
		ingestor: ing, documents: documents, corpora: corpora,
		search: srch, builder: bld, uploader: upl,
		dataPath: dataPath, indexPath: indexPath, maxOpenFiles: maxOpenFiles,
	}
}

// StartLoad ingests every album under dataPath/batchName/json, then
// rebuilds the corpus snapshot and full-text index once every album has
// been ingested. One album's Ingest failure is logged and does not abort
// its siblings; the Indexer step runs only if all albums succeeded.
func (o *Orchestrator) StartLoad(ctx context.Context, dataPath, batchName string) (*LoadResult, error) {
	if !o.loading.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: a load is already in progress", apperr.ErrBusy)
	}
	defer o.loading.Store(false)

	jsonRoot := filepath.Join(dataPath, batchName, "json")
	albums, err := listAlbums(jsonRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrBadInput, err)
	}
	if len(albums) == 0 {
		return nil, fmt.Errorf("%w: %s has no album subdirectories", apperr.ErrBadInput, jsonRoot)
	}

	var mu sync.Mutex
	perAlbum := make(map[string]*ingest.Result, len(albums))
	var failed atomic.Bool

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.maxOpenFiles)

	for _, album := range albums {
		album := album
		group.Go(func() error {
			result, err := o.ingestor.Ingest(groupCtx, dataPath, batchName, album)
			if err != nil {
				failed.Store(true)
				logger.WithFields(map[string]any{"batch": batchName, "album": album}).WithError(err).Warn("album ingest failed")
				return nil
			}
			mu.Lock()
			perAlbum[album] = result
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	result := &LoadResult{Albums: albums, PerAlbum: perAlbum}
	if failed.Load() {
		return result, fmt.Errorf("%w: one or more albums failed to ingest", apperr.ErrBadInput)
	}

	snapshot, texts, err := corpus.Snapshot(ctx, o.documents, o.corpora, dataPath, time.Now().UTC())
	if err != nil {
		return result, fmt.Errorf("snapshotting corpus: %w", err)
	}
	result.Corpus = snapshot

	docs := make([]fulltext.Doc, len(texts))
	for i, t := range texts {
		docs[i] = fulltext.Doc{GUID: t.GUID, Text: t.Text}
	}
	if err := fulltext.Rebuild(o.indexPath, docs); err != nil {
		return result, fmt.Errorf("rebuilding full-text index: %w", err)
	}

	return result, nil
}

// SearchResult pairs the finished Search with one outcome per requested
// megadoc filetype.
type SearchResult struct {
	Search   *search.Search
	Megadocs map[string]*megadoc.Megadoc
	Errors   map[string]error
}

// StartSearch runs the Searcher, then builds and uploads one megadoc per
// requested filetype. Filetypes run concurrently; within one filetype,
// build and upload run strictly sequentially. One filetype's failure never
// cancels the others; each goroutine writes into its own result slot
// instead of sharing an errgroup.WithContext's cancel-on-first-error.
//
// Unlike StartLoad, StartSearch never acquires the loading latch itself: it
// only checks whether a load is in progress and fails fast if so. Searches
// run concurrently with each other and with HTTP requests generally; only
// an in-progress load excludes them.
func (o *Orchestrator) StartSearch(ctx context.Context, searchStr string, filetypes []string) (*SearchResult, error) {
	if o.loading.Load() {
		return nil, fmt.Errorf("%w: a load is already in progress", apperr.ErrBusy)
	}

	sr, err := o.search.Run(ctx, searchStr)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		Search:   sr,
		Megadocs: make(map[string]*megadoc.Megadoc, len(filetypes)),
		Errors:   make(map[string]error, len(filetypes)),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, filetype := range filetypes {
		filetype := filetype
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := o.buildAndUpload(ctx, sr, filetype)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors[filetype] = err
				logger.WithFields(map[string]any{"search": sr.GUID, "filetype": filetype}).WithError(err).Warn("megadoc build/upload failed")
				return
			}
			result.Megadocs[filetype] = m
		}()
	}
	wg.Wait()

	return result, nil
}

func (o *Orchestrator) buildAndUpload(ctx context.Context, sr *search.Search, filetype string) (*megadoc.Megadoc, error) {
	m, err := o.builder.Build(ctx, sr, filetype)
	if err != nil {
		return nil, fmt.Errorf("building megadoc: %w", err)
	}
	if m == nil {
		return nil, nil
	}
	if err := o.uploader.Upload(ctx, m, o.dataPath); err != nil {
		return m, fmt.Errorf("uploading megadoc: %w", err)
	}
	return m, nil
}

func listAlbums(jsonRoot string) ([]string, error) {
	entries, err := os.ReadDir(jsonRoot)
	if err != nil {
		return nil, err
	}
	albums := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			albums = append(albums, e.Name())
		}
	}
	return albums, nil
}

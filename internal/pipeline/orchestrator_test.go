package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/orcaarchive/orca/internal/apperr"
	"github.com/orcaarchive/orca/internal/corpus"
	"github.com/orcaarchive/orca/internal/document"
	"github.com/orcaarchive/orca/internal/guid"
	"github.com/orcaarchive/orca/internal/ingest"
	"github.com/orcaarchive/orca/internal/megadoc"
	"github.com/orcaarchive/orca/internal/search"
	"github.com/orcaarchive/orca/internal/testsupport"
)

type fakeIngestor struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]bool
}

func (f *fakeIngestor) Ingest(ctx context.Context, dataPath, batchName, albumFilter string) (*ingest.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, albumFilter)
	f.mu.Unlock()
	if f.failFor[albumFilter] {
		return nil, errors.New("boom")
	}
	return &ingest.Result{}, nil
}

type fakeSearcher struct {
	sr  *search.Search
	err error
}

func (f *fakeSearcher) Run(ctx context.Context, searchStr string) (*search.Search, error) {
	return f.sr, f.err
}

type fakeBuilder struct {
	calls int32
	fail  map[string]bool
}

func (f *fakeBuilder) Build(ctx context.Context, s *search.Search, filetype string) (*megadoc.Megadoc, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fail[filetype] {
		return nil, errors.New("build failed")
	}
	m := megadoc.New(time.Now().UTC(), s.GUID, s.SearchStr, filetype, "megadocs", "https://cdn.example.test")
	m.Status = guid.StatusSending
	return m, nil
}

type fakeUploader struct {
	calls int32
	fail  map[string]bool
}

func (f *fakeUploader) Upload(ctx context.Context, m *megadoc.Megadoc, dataPath string) error {
	atomic.AddInt32(&f.calls, 1)
	if f.fail[m.Filetype] {
		return errors.New("upload failed")
	}
	return nil
}

func writeAlbumDirs(t *testing.T, dataPath, batchName string, albums []string) {
	t.Helper()
	for _, album := range albums {
		dir := filepath.Join(dataPath, batchName, "json", album)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("creating album directory %s: %v", dir, err)
		}
	}
}

func newTestStores(t *testing.T) (*document.Store, *corpus.Store) {
	t.Helper()
	sqlDB := testsupport.NewDB(t)
	return document.NewStore(sqlDB, 3), corpus.NewStore(sqlDB, 3)
}

func TestOrchestrator_StartLoad_Success(t *testing.T) {
	documents, corpora := newTestStores(t)
	dataPath := t.TempDir()
	writeAlbumDirs(t, dataPath, "batch-1", []string{"album-a", "album-b"})

	ing := &fakeIngestor{failFor: map[string]bool{}}
	o := NewOrchestrator(ing, documents, corpora, nil, nil, nil, dataPath, filepath.Join(t.TempDir(), "index"), 4)

	result, err := o.StartLoad(context.Background(), dataPath, "batch-1")
	if err != nil {
		t.Fatalf("StartLoad() error = %v", err)
	}
	if len(result.PerAlbum) != 2 {
		t.Fatalf("len(PerAlbum) = %d, want 2", len(result.PerAlbum))
	}
	if result.Corpus == nil {
		t.Fatal("Corpus = nil, want snapshot")
	}
}

func TestOrchestrator_StartLoad_OneAlbumFailureDoesNotAbortSiblings(t *testing.T) {
	documents, corpora := newTestStores(t)
	dataPath := t.TempDir()
	writeAlbumDirs(t, dataPath, "batch-1", []string{"album-a", "album-b"})

	ing := &fakeIngestor{failFor: map[string]bool{"album-a": true}}
	o := NewOrchestrator(ing, documents, corpora, nil, nil, nil, dataPath, filepath.Join(t.TempDir(), "index"), 4)

	_, err := o.StartLoad(context.Background(), dataPath, "batch-1")
	if err == nil {
		t.Fatal("StartLoad() error = nil, want error since album-a failed")
	}

	ing.mu.Lock()
	calls := append([]string(nil), ing.calls...)
	ing.mu.Unlock()
	if len(calls) != 2 {
		t.Fatalf("Ingest calls = %v, want both albums attempted", calls)
	}
}

func TestOrchestrator_StartLoad_RejectsEmptyBatch(t *testing.T) {
	documents, corpora := newTestStores(t)
	dataPath := t.TempDir()
	writeAlbumDirs(t, dataPath, "batch-1", nil)

	ing := &fakeIngestor{failFor: map[string]bool{}}
	o := NewOrchestrator(ing, documents, corpora, nil, nil, nil, dataPath, filepath.Join(t.TempDir(), "index"), 4)

	_, err := o.StartLoad(context.Background(), dataPath, "batch-1")
	if !errors.Is(err, apperr.ErrBadInput) {
		t.Fatalf("StartLoad() error = %v, want wrapping ErrBadInput", err)
	}
}

func TestOrchestrator_StartSearch_BuildsAndUploadsPerFiletype(t *testing.T) {
	documents, corpora := newTestStores(t)
	sr := search.New(time.Now().UTC(), "treaty paris", "corpus-guid")

	srch := &fakeSearcher{sr: sr}
	bld := &fakeBuilder{fail: map[string]bool{}}
	upl := &fakeUploader{fail: map[string]bool{}}

	o := NewOrchestrator(nil, documents, corpora, srch, bld, upl, t.TempDir(), t.TempDir(), 4)

	result, err := o.StartSearch(context.Background(), "treaty paris", []string{"txt", "docx"})
	if err != nil {
		t.Fatalf("StartSearch() error = %v", err)
	}
	if len(result.Megadocs) != 2 {
		t.Fatalf("len(Megadocs) = %d, want 2", len(result.Megadocs))
	}
	if len(result.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", result.Errors)
	}
	if atomic.LoadInt32(&bld.calls) != 2 || atomic.LoadInt32(&upl.calls) != 2 {
		t.Fatalf("calls = build:%d upload:%d, want 2/2", bld.calls, upl.calls)
	}
}

func TestOrchestrator_StartSearch_OneFiletypeFailureDoesNotCancelOthers(t *testing.T) {
	documents, corpora := newTestStores(t)
	sr := search.New(time.Now().UTC(), "treaty paris", "corpus-guid")

	srch := &fakeSearcher{sr: sr}
	bld := &fakeBuilder{fail: map[string]bool{"docx": true}}
	upl := &fakeUploader{fail: map[string]bool{}}

	o := NewOrchestrator(nil, documents, corpora, srch, bld, upl, t.TempDir(), t.TempDir(), 4)

	result, err := o.StartSearch(context.Background(), "treaty paris", []string{"txt", "docx"})
	if err != nil {
		t.Fatalf("StartSearch() error = %v", err)
	}
	if _, ok := result.Megadocs["txt"]; !ok {
		t.Fatal("txt megadoc missing, want it to succeed despite docx failing")
	}
	if _, ok := result.Errors["docx"]; !ok {
		t.Fatal("docx error missing, want it recorded")
	}
}

func TestOrchestrator_StartSearch_FailsFastWhileLoadInProgress(t *testing.T) {
	documents, corpora := newTestStores(t)
	sr := search.New(time.Now().UTC(), "treaty paris", "corpus-guid")

	srch := &fakeSearcher{sr: sr}
	bld := &fakeBuilder{}
	upl := &fakeUploader{}

	o := NewOrchestrator(nil, documents, corpora, srch, bld, upl, t.TempDir(), t.TempDir(), 4)
	o.loading.Store(true)

	_, err := o.StartSearch(context.Background(), "treaty paris", []string{"txt"})
	if !errors.Is(err, apperr.ErrBusy) {
		t.Fatalf("StartSearch() error = %v, want wrapping ErrBusy while a load holds the latch", err)
	}
	if atomic.LoadInt32(&bld.calls) != 0 {
		t.Fatalf("Build calls = %d, want 0 since the latch check short-circuits first", bld.calls)
	}
}

// slowBuilder blocks until release is closed, letting a test hold two
// concurrent StartSearch calls open at once.
type slowBuilder struct {
	release chan struct{}
	calls   int32
}

func (b *slowBuilder) Build(ctx context.Context, s *search.Search, filetype string) (*megadoc.Megadoc, error) {
	atomic.AddInt32(&b.calls, 1)
	<-b.release
	m := megadoc.New(time.Now().UTC(), s.GUID, s.SearchStr, filetype, "megadocs", "https://cdn.example.test")
	m.Status = guid.StatusSending
	return m, nil
}

func TestOrchestrator_StartSearch_DoesNotSerializeAgainstOtherSearches(t *testing.T) {
	documents, corpora := newTestStores(t)
	sr := search.New(time.Now().UTC(), "treaty paris", "corpus-guid")

	srch := &fakeSearcher{sr: sr}
	bld := &slowBuilder{release: make(chan struct{})}
	upl := &fakeUploader{}

	o := NewOrchestrator(nil, documents, corpora, srch, bld, upl, t.TempDir(), t.TempDir(), 4)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = o.StartSearch(context.Background(), "treaty paris", []string{"txt"})
		}()
	}

	// Give both goroutines a chance to enter buildAndUpload before either
	// completes; a reintroduced latch-acquire in StartSearch would make the
	// second call return ErrBusy here instead of blocking on the builder.
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&bld.calls) < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if calls := atomic.LoadInt32(&bld.calls); calls != 2 {
		t.Fatalf("concurrent Build calls = %d, want 2 (both searches running at once)", calls)
	}

	close(bld.release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("StartSearch() call %d error = %v, want both to succeed concurrently", i, err)
		}
	}
}

func TestOrchestrator_StartSearch_PropagatesSearcherFailure(t *testing.T) {
	documents, corpora := newTestStores(t)
	srch := &fakeSearcher{err: errors.New("bad query")}
	bld := &fakeBuilder{}
	upl := &fakeUploader{}

	o := NewOrchestrator(nil, documents, corpora, srch, bld, upl, t.TempDir(), t.TempDir(), 4)

	_, err := o.StartSearch(context.Background(), "x", []string{"txt"})
	if err == nil {
		t.Fatal("StartSearch() error = nil, want searcher failure propagated")
	}
	if atomic.LoadInt32(&bld.calls) != 0 {
		t.Fatalf("Build calls = %d, want 0 since searcher failed first", bld.calls)
	}
}

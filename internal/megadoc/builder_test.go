package megadoc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/orcaarchive/orca/internal/apperr"
	"github.com/orcaarchive/orca/internal/corpus"
	"github.com/orcaarchive/orca/internal/document"
	"github.com/orcaarchive/orca/internal/guid"
	"github.com/orcaarchive/orca/internal/scan"
	"github.com/orcaarchive/orca/internal/search"
	"github.com/orcaarchive/orca/internal/testsupport"
)

func setupBuilderFixture(t *testing.T) (*Builder, *search.Search, string) {
	t.Helper()
	ctx := context.Background()
	db := testsupport.NewDB(t)
	dataPath := t.TempDir()

	scanStore := scan.NewStore(db, 3)
	documentStore := document.NewStore(db, 3)
	corpusStore := corpus.NewStore(db, 3)
	searchStore := search.NewStore(db, 3)
	megadocStore := NewStore(db, 3)

	var docGUIDs []string
	for i, text := range []string{"first page text", "second page text"} {
		now := time.Now().UTC()
		sc := scan.New(now)
		sc.Album = "album-1"
		sc.AlbumIndex = i + 1
		sc.Stem = "stem"
		sc.Title = "Album One"
		sc.Path = filepath.Join("album-1", "stem.jpg")
		sc.URL = "https://example.test/stem.jpg"
		sc.ThumbURL = "https://example.test/stem-thumb.jpg"
		sc.ScannedAt = now
		sc, err := scanStore.Create(ctx, sc, true)
		if err != nil {
			t.Fatalf("scan Create() error = %v", err)
		}

		textPath := filepath.Join("album-1", sc.GUID+".txt")
		if err := os.MkdirAll(filepath.Join(dataPath, "album-1"), 0755); err != nil {
			t.Fatalf("creating album directory: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dataPath, textPath), []byte(text), 0644); err != nil {
			t.Fatalf("writing text file: %v", err)
		}

		d := document.New(now)
		d.ScanGUID = sc.GUID
		d.BatchName = "batch-1"
		d.JSONPath = filepath.Join("album-1", sc.GUID+".json")
		d.JSONURL = "https://example.test/doc.json"
		d.TextPath = textPath
		d.TextURL = "https://example.test/doc.txt"
		d, err = documentStore.Create(ctx, d, true)
		if err != nil {
			t.Fatalf("document Create() error = %v", err)
		}
		docGUIDs = append(docGUIDs, d.GUID)
	}

	c, err := corpusStore.CreateWithDocuments(ctx, corpus.New(time.Now().UTC()), docGUIDs)
	if err != nil {
		t.Fatalf("CreateWithDocuments() error = %v", err)
	}

	sr, err := searchStore.Create(ctx, search.New(time.Now().UTC(), "page text", c.GUID), true)
	if err != nil {
		t.Fatalf("search Create() error = %v", err)
	}
	for _, dg := range docGUIDs {
		if _, err := searchStore.AttachDocument(ctx, sr.GUID, dg); err != nil {
			t.Fatalf("AttachDocument() error = %v", err)
		}
	}
	sr, err = searchStore.Get(ctx, sr.GUID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	builder := NewBuilder(megadocStore, searchStore, documentStore, scanStore, dataPath, "megadocs", "https://cdn.example.test")
	return builder, sr, dataPath
}

func TestBuilder_Build_Txt(t *testing.T) {
	builder, sr, dataPath := setupBuilderFixture(t)

	m, err := builder.Build(context.Background(), sr, ".txt")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if m.Status != guid.StatusSending {
		t.Fatalf("Status = %v, want %v", m.Status, guid.StatusSending)
	}
	if m.Progress != 100 {
		t.Fatalf("Progress = %v, want 100", m.Progress)
	}

	content, err := os.ReadFile(filepath.Join(dataPath, m.Path))
	if err != nil {
		t.Fatalf("reading built megadoc: %v", err)
	}
	if !strings.Contains(string(content), "first page text") || !strings.Contains(string(content), "second page text") {
		t.Fatalf("megadoc content missing expected text: %s", content)
	}
}

func TestBuilder_Build_Docx(t *testing.T) {
	builder, sr, dataPath := setupBuilderFixture(t)

	m, err := builder.Build(context.Background(), sr, ".docx")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dataPath, m.Path))
	if err != nil {
		t.Fatalf("stat built docx: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("built docx file is empty")
	}
}

func TestBuilder_Build_IdempotentOnExistingFiletype(t *testing.T) {
	builder, sr, _ := setupBuilderFixture(t)
	ctx := context.Background()

	first, err := builder.Build(ctx, sr, ".txt")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	second, err := builder.Build(ctx, sr, ".txt")
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	if second.GUID != first.GUID {
		t.Fatalf("second Build() GUID = %s, want %s (unchanged)", second.GUID, first.GUID)
	}
}

func TestBuilder_Build_UnsupportedFiletype(t *testing.T) {
	builder, sr, _ := setupBuilderFixture(t)

	_, err := builder.Build(context.Background(), sr, ".pdf")
	if err == nil {
		t.Fatal("Build() expected error for unsupported filetype, got nil")
	}
	if !errors.Is(err, apperr.ErrNotImplemented) {
		t.Fatalf("Build() error = %v, want wrapping ErrNotImplemented", err)
	}
}

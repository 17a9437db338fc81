package megadoc

import (
	"context"
	"testing"
	"time"

	"github.com/orcaarchive/orca/internal/corpus"
	"github.com/orcaarchive/orca/internal/guid"
	"github.com/orcaarchive/orca/internal/search"
	"github.com/orcaarchive/orca/internal/testsupport"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testsupport.NewDB(t)
	ctx := context.Background()
	corpusStore := corpus.NewStore(db, 3)
	searchStore := search.NewStore(db, 3)
	store := NewStore(db, 3)

	c, err := corpusStore.CreateWithDocuments(ctx, corpus.New(time.Now().UTC()), nil)
	if err != nil {
		t.Fatalf("CreateWithDocuments() error = %v", err)
	}
	sr, err := searchStore.Create(ctx, search.New(time.Now().UTC(), "treaty paris", c.GUID), true)
	if err != nil {
		t.Fatalf("search Create() error = %v", err)
	}

	m := New(time.Now().UTC(), sr.GUID, sr.SearchStr, ".txt", "megadocs", "https://cdn.example.test")
	m, err = store.Create(ctx, m, true)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, m.GUID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Filetype != ".txt" {
		t.Fatalf("Filetype = %q, want %q", got.Filetype, ".txt")
	}
}

func TestStore_GetBySearchFiletype(t *testing.T) {
	db := testsupport.NewDB(t)
	ctx := context.Background()
	corpusStore := corpus.NewStore(db, 3)
	searchStore := search.NewStore(db, 3)
	store := NewStore(db, 3)

	c, err := corpusStore.CreateWithDocuments(ctx, corpus.New(time.Now().UTC()), nil)
	if err != nil {
		t.Fatalf("CreateWithDocuments() error = %v", err)
	}
	sr, err := searchStore.Create(ctx, search.New(time.Now().UTC(), "treaty paris", c.GUID), true)
	if err != nil {
		t.Fatalf("search Create() error = %v", err)
	}

	if _, err := store.GetBySearchFiletype(ctx, sr.GUID, ".txt"); err != ErrNotFound {
		t.Fatalf("GetBySearchFiletype() before create error = %v, want ErrNotFound", err)
	}

	m := New(time.Now().UTC(), sr.GUID, sr.SearchStr, ".txt", "megadocs", "https://cdn.example.test")
	if _, err := store.Create(ctx, m, true); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.GetBySearchFiletype(ctx, sr.GUID, ".txt")
	if err != nil {
		t.Fatalf("GetBySearchFiletype() error = %v", err)
	}
	if got.GUID != m.GUID {
		t.Fatalf("GetBySearchFiletype() GUID = %s, want %s", got.GUID, m.GUID)
	}
}

func TestStore_SetStatus_EnforcesMonotonicTransitions(t *testing.T) {
	db := testsupport.NewDB(t)
	ctx := context.Background()
	corpusStore := corpus.NewStore(db, 3)
	searchStore := search.NewStore(db, 3)
	store := NewStore(db, 3)

	c, err := corpusStore.CreateWithDocuments(ctx, corpus.New(time.Now().UTC()), nil)
	if err != nil {
		t.Fatalf("CreateWithDocuments() error = %v", err)
	}
	sr, err := searchStore.Create(ctx, search.New(time.Now().UTC(), "treaty paris", c.GUID), true)
	if err != nil {
		t.Fatalf("search Create() error = %v", err)
	}

	m := New(time.Now().UTC(), sr.GUID, sr.SearchStr, ".txt", "megadocs", "https://cdn.example.test")
	m, err = store.Create(ctx, m, true)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := store.SetStatus(ctx, m.GUID, guid.StatusSending); err == nil {
		t.Fatal("SetStatus(SENDING) from PENDING: expected error (skips STARTED), got nil")
	}
	if err := store.SetStatus(ctx, m.GUID, guid.StatusStarted); err != nil {
		t.Fatalf("SetStatus(STARTED) error = %v", err)
	}
	if err := store.SetStatus(ctx, m.GUID, guid.StatusSending); err != nil {
		t.Fatalf("SetStatus(SENDING) error = %v", err)
	}
}

func TestStore_SetProgress(t *testing.T) {
	db := testsupport.NewDB(t)
	ctx := context.Background()
	corpusStore := corpus.NewStore(db, 3)
	searchStore := search.NewStore(db, 3)
	store := NewStore(db, 3)

	c, err := corpusStore.CreateWithDocuments(ctx, corpus.New(time.Now().UTC()), nil)
	if err != nil {
		t.Fatalf("CreateWithDocuments() error = %v", err)
	}
	sr, err := searchStore.Create(ctx, search.New(time.Now().UTC(), "treaty paris", c.GUID), true)
	if err != nil {
		t.Fatalf("search Create() error = %v", err)
	}

	m := New(time.Now().UTC(), sr.GUID, sr.SearchStr, ".txt", "megadocs", "https://cdn.example.test")
	m, err = store.Create(ctx, m, true)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := store.SetProgress(ctx, m.GUID, 50); err != nil {
		t.Fatalf("SetProgress() error = %v", err)
	}
	got, err := store.Get(ctx, m.GUID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Progress != 50 {
		t.Fatalf("Progress = %v, want 50", got.Progress)
	}
}

package scan

import (
	"context"
	"testing"
	"time"

	"github.com/orcaarchive/orca/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScan(now time.Time, album string, index int, stem string) *Scan {
	sc := New(now)
	sc.Album = album
	sc.AlbumIndex = index
	sc.Stem = stem
	sc.Title = "a title"
	sc.Path = "batch/" + album + "/" + stem + ".json"
	sc.URL = "https://cdn.example.com/" + sc.Path
	sc.ThumbURL = sc.URL + ".thumb.jpg"
	sc.ScannedAt = now
	return sc
}

func TestStore_CreateAndGet(t *testing.T) {
	db := testsupport.NewDB(t)
	store := NewStore(db, 10)
	ctx := context.Background()

	now := time.Now().UTC()
	sc := newScan(now, "album-1", 1, "001_2026-01-01_00-00-00_title")

	created, err := store.Create(ctx, sc, true)
	require.NoError(t, err)
	assert.Equal(t, sc.GUID, created.GUID)

	got, err := store.Get(ctx, sc.GUID)
	require.NoError(t, err)
	assert.Equal(t, sc.Album, got.Album)
	assert.Equal(t, sc.AlbumIndex, got.AlbumIndex)
}

func TestStore_GetByAlbumStem_NotFound(t *testing.T) {
	db := testsupport.NewDB(t)
	store := NewStore(db, 10)
	ctx := context.Background()

	_, err := store.GetByAlbumStem(ctx, "missing", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetByAlbumStem_FindsExisting(t *testing.T) {
	db := testsupport.NewDB(t)
	store := NewStore(db, 10)
	ctx := context.Background()

	now := time.Now().UTC()
	sc := newScan(now, "album-2", 1, "001_2026-01-01_00-00-00_title")
	_, err := store.Create(ctx, sc, true)
	require.NoError(t, err)

	got, err := store.GetByAlbumStem(ctx, "album-2", "001_2026-01-01_00-00-00_title")
	require.NoError(t, err)
	assert.Equal(t, sc.GUID, got.GUID)
}

func TestStore_GetAll_OrdersByAlbumThenIndex(t *testing.T) {
	db := testsupport.NewDB(t)
	store := NewStore(db, 10)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 3; i >= 1; i-- {
		sc := newScan(now, "album-3", i, "00"+string(rune('0'+i))+"_2026-01-01_00-00-00_title")
		_, err := store.Create(ctx, sc, true)
		require.NoError(t, err)
	}

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 1, all[0].AlbumIndex)
	assert.Equal(t, 3, all[2].AlbumIndex)
}

func TestStore_GetLatest_And_GetTotal(t *testing.T) {
	db := testsupport.NewDB(t)
	store := NewStore(db, 10)
	ctx := context.Background()

	_, err := store.GetLatest(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	total, err := store.GetTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	now := time.Now().UTC()
	sc := newScan(now, "album-4", 1, "001_2026-01-01_00-00-00_title")
	_, err = store.Create(ctx, sc, true)
	require.NoError(t, err)

	latest, err := store.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, sc.GUID, latest.GUID)

	total, err = store.GetTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestStore_CreateTx_ParticipatesInCallerTransaction(t *testing.T) {
	db := testsupport.NewDB(t)
	store := NewStore(db, 10)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	now := time.Now().UTC()
	sc := newScan(now, "album-5", 1, "001_2026-01-01_00-00-00_title")
	_, err = store.CreateTx(ctx, tx, sc)
	require.NoError(t, err)

	require.NoError(t, tx.Commit())

	got, err := store.Get(ctx, sc.GUID)
	require.NoError(t, err)
	assert.Equal(t, sc.GUID, got.GUID)
}

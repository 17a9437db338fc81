package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/orcaarchive/orca/internal/document"
	"github.com/orcaarchive/orca/internal/scan"
	"github.com/orcaarchive/orca/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum_Deterministic(t *testing.T) {
	texts := []DocText{{GUID: "a", Text: "hello"}, {GUID: "b", Text: "world"}}
	c1 := Checksum(texts)
	c2 := Checksum(texts)
	assert.Equal(t, c1, c2)
	assert.Len(t, c1, 8)
}

func TestChecksum_OrderSensitive(t *testing.T) {
	a := []DocText{{GUID: "a", Text: "hello"}, {GUID: "b", Text: "world"}}
	b := []DocText{{GUID: "b", Text: "world"}, {GUID: "a", Text: "hello"}}
	assert.NotEqual(t, Checksum(a), Checksum(b))
}

func TestLoadTexts_SkipsUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("readable"), 0644))

	docs := []*document.Document{
		{TextPath: "ok.txt"},
		{TextPath: "missing.txt"},
	}
	docs[0].GUID = "g1"
	docs[1].GUID = "g2"

	texts := LoadTexts(dir, docs)
	require.Len(t, texts, 1)
	assert.Equal(t, "g1", texts[0].GUID)
	assert.Equal(t, "readable", texts[0].Text)
}

func TestSnapshot_PersistsCorpusLinkedToDocuments(t *testing.T) {
	db := testsupport.NewDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	dataPath := t.TempDir()

	scanStore := scan.NewStore(db, 10)
	docStore := document.NewStore(db, 10)
	corpusStore := NewStore(db, 10)

	for i := 1; i <= 3; i++ {
		sc := scan.New(now)
		sc.Album, sc.AlbumIndex, sc.Stem = "album", i, fmt.Sprintf("00%d_2026-01-01_00-00-00_t", i)
		sc.Title, sc.Path, sc.URL, sc.ThumbURL, sc.ScannedAt = "t", "p", "u", "tu", now
		_, err := scanStore.Create(ctx, sc, true)
		require.NoError(t, err)

		textPath := fmt.Sprintf("doc-%d.txt", i)
		require.NoError(t, os.WriteFile(filepath.Join(dataPath, textPath), []byte(fmt.Sprintf("text %d", i)), 0644))

		d := document.New(now.Add(time.Duration(i) * time.Second))
		d.ScanGUID = sc.GUID
		d.BatchName, d.JSONPath, d.JSONURL = "batch", "jp", "ju"
		d.TextPath, d.TextURL = textPath, "tu"
		_, err = docStore.Create(ctx, d, true)
		require.NoError(t, err)
	}

	c, texts, err := Snapshot(ctx, docStore, corpusStore, dataPath, now)
	require.NoError(t, err)
	assert.Len(t, texts, 3)
	assert.Equal(t, 3, c.DocumentCount)
	assert.Len(t, c.Checksum, 8)

	guids, err := corpusStore.DocumentGUIDs(ctx, c.GUID)
	require.NoError(t, err)
	assert.Len(t, guids, 3)
}

package corpus

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/orcaarchive/orca/internal/document"
	"github.com/orcaarchive/orca/internal/logger"
)

// DocText pairs a Document's GUID with its transliterated text, read once
// so both the checksum and the full-text index rebuild can share it.
type DocText struct {
	GUID string
	Text string
}

// LoadTexts reads dataPath/text_path for every Document in docs (already
// ordered ascending by created_at), transliterating each to ASCII. A
// file-read error on one Document is logged and the document skipped,
// matching the indexer's "do not abort the rebuild" contract.
func LoadTexts(dataPath string, docs []*document.Document) []DocText {
	out := make([]DocText, 0, len(docs))
	for _, d := range docs {
		full := filepath.Join(dataPath, d.TextPath)
		raw, err := os.ReadFile(full)
		if err != nil {
			logger.WithFields(map[string]any{
				"document_guid": d.GUID,
				"text_path":     d.TextPath,
			}).WithError(err).Warn("skipping document: failed to read text file")
			continue
		}
		out = append(out, DocText{GUID: d.GUID, Text: Transliterate(string(raw))})
	}
	return out
}

// Checksum computes the 8-hex CRC32 over the concatenated text of texts, in
// the order given; callers must supply them already sorted ascending by
// created_at for the result to be deterministic run-to-run.
func Checksum(texts []DocText) string {
	var concatenated []byte
	for _, t := range texts {
		concatenated = append(concatenated, t.Text...)
	}
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(concatenated))
}

// Snapshot loads every Document, reads its text, computes the checksum, and
// persists a new Corpus row linking the documents that were readable. It is
// the first step of an index run (spec step 1 of the Indexer).
func Snapshot(ctx context.Context, docStore *document.Store, corpusStore *Store, dataPath string, now time.Time) (*Corpus, []DocText, error) {
	docs, err := docStore.GetAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading documents for snapshot: %w", err)
	}

	texts := LoadTexts(dataPath, docs)

	guids := make([]string, len(texts))
	for i, t := range texts {
		guids[i] = t.GUID
	}

	c := New(now)
	c.Checksum = Checksum(texts)

	c, err = corpusStore.CreateWithDocuments(ctx, c, guids)
	if err != nil {
		return nil, nil, fmt.Errorf("persisting corpus snapshot: %w", err)
	}

	return c, texts, nil
}

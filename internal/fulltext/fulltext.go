// Package fulltext wraps a bleve on-disk inverted index with the schema the
// pipeline needs: each document is just {guid, content}.
package fulltext

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/orcaarchive/orca/internal/logger"
)

const batchSize = 500

// Doc is one unit indexed: a Document's guid and its (already
// transliterated) text.
type Doc struct {
	GUID string
	Text string
}

// NewMapping builds the index schema: guid stored as a keyword (exact
// match, not analyzed), content stored and indexed as full text.
func NewMapping() mapping.IndexMapping {
	guidField := bleve.NewTextFieldMapping()
	guidField.Analyzer = "keyword"
	guidField.Store = true

	contentField := bleve.NewTextFieldMapping()
	contentField.Store = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("guid", guidField)
	docMapping.AddFieldMappingsAt("content", contentField)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = docMapping
	return im
}

// Rebuild removes indexPath if it exists and builds a fresh index
// containing docs, in the order given. The on-disk segments are committed
// when Rebuild closes the index before returning; callers must not hold
// dbx.Lock across the call, since that close can be slow for large corpora.
func Rebuild(indexPath string, docs []Doc) error {
	// bleve.New refuses to create an index at a path that already exists,
	// even an empty directory, so any prior index (or a freshly made temp
	// dir) must be cleared first.
	if _, err := os.Stat(indexPath); err == nil {
		if err := os.RemoveAll(indexPath); err != nil {
			return fmt.Errorf("removing existing index at %s: %w", indexPath, err)
		}
	}

	idx, err := bleve.New(indexPath, NewMapping())
	if err != nil {
		return fmt.Errorf("creating index at %s: %w", indexPath, err)
	}
	defer idx.Close()

	batch := idx.NewBatch()
	for _, d := range docs {
		if d.GUID == "" {
			continue
		}
		if err := batch.Index(d.GUID, map[string]any{"guid": d.GUID, "content": d.Text}); err != nil {
			logger.WithField("guid", d.GUID).WithError(err).Warn("skipping document: failed to stage index batch")
			continue
		}

		if batch.Size() >= batchSize {
			if err := idx.Batch(batch); err != nil {
				return fmt.Errorf("committing index batch: %w", err)
			}
			batch = idx.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return fmt.Errorf("committing index batch: %w", err)
		}
	}

	return nil
}

// OpenReadOnly opens an existing index for search, never for writes.
func OpenReadOnly(indexPath string) (bleve.Index, error) {
	idx, err := bleve.OpenUsing(indexPath, map[string]interface{}{"read_only": true})
	if err != nil {
		return nil, fmt.Errorf("opening index at %s: %w", indexPath, err)
	}
	return idx, nil
}

// Search runs queryString (already lowered to bleve's own syntax) against
// idx and returns the matching document GUIDs in relevance order.
func Search(idx bleve.Index, queryString string) ([]string, error) {
	if queryString == "" {
		return nil, nil
	}

	q := bleve.NewQueryStringQuery(queryString)
	req := bleve.NewSearchRequest(q)
	req.Size = 10000
	req.Fields = []string{"guid"}

	result, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("running search: %w", err)
	}

	guids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		guids = append(guids, hit.ID)
	}
	return guids, nil
}

// Package search holds the Search entity, its query grammar, and the
// Service that resolves a query against the full-text index.
package search

import (
	"time"

	"github.com/orcaarchive/orca/internal/guid"
)

// Search is a user query bound to exactly one Corpus: the one that was
// latest at the time the Search was created. Later corpora never
// retroactively alter it.
type Search struct {
	guid.Base
	SearchStr     string      `json:"search_str" db:"search_str"`
	CorpusGUID    string      `json:"corpus_guid" db:"corpus_guid"`
	Status        guid.Status `json:"status" db:"status"`
	DocumentCount int         `json:"document_count" db:"document_count"`
}

func (s *Search) GetStatus() guid.Status { return s.Status }

func New(now time.Time, searchStr, corpusGUID string) *Search {
	s := &Search{Base: guid.NewBase(now)}
	s.SearchStr = searchStr
	s.CorpusGUID = corpusGUID
	s.Status = guid.StatusPending
	return s
}

// MinQueryLen is the shortest search_str the Searcher accepts.
const MinQueryLen = 3

// Package corpus holds the Corpus entity: an immutable snapshot of the
// Document set taken when an ingest/index run completes.
package corpus

import (
	"time"

	"github.com/orcaarchive/orca/internal/guid"
)

// Corpus is an immutable snapshot: once created, its membership and
// checksum never change.
type Corpus struct {
	guid.Base
	Checksum      string `json:"checksum" db:"checksum"`
	DocumentCount int    `json:"document_count" db:"document_count"`
}

func New(now time.Time) *Corpus {
	return &Corpus{Base: guid.NewBase(now)}
}

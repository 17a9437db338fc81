// Package scan holds the Scan entity: an immutable record of one imaged
// page, parsed from its filename and album directory.
package scan

import (
	"time"

	"github.com/orcaarchive/orca/internal/guid"
)

// Scan is the immutable record of one page as it was scanned. It never
// changes after ingestion beyond its own tags/comment annotations.
type Scan struct {
	guid.Base
	Album       string    `json:"album" db:"album"`
	AlbumIndex  int       `json:"album_index" db:"album_index"`
	Stem        string    `json:"stem" db:"stem"`
	Title       string    `json:"title" db:"title"`
	Path        string    `json:"path" db:"path"`
	URL         string    `json:"url" db:"url"`
	ThumbURL    string    `json:"thumb_url" db:"thumb_url"`
	ScannedAt   time.Time `json:"scanned_at" db:"scanned_at"`

	MediaArchive    *string    `json:"media_archive,omitempty" db:"media_archive"`
	MediaCollection *string    `json:"media_collection,omitempty" db:"media_collection"`
	MediaBox        *string    `json:"media_box,omitempty" db:"media_box"`
	MediaFolder     *string    `json:"media_folder,omitempty" db:"media_folder"`
	MediaType       *string    `json:"media_type,omitempty" db:"media_type"`
	MediaCreatedAt  *time.Time `json:"media_created_at,omitempty" db:"media_created_at"`
}

// New builds a Scan ready to insert; the caller fills in album/index/stem
// etc. after construction.
func New(now time.Time) *Scan {
	return &Scan{Base: guid.NewBase(now)}
}

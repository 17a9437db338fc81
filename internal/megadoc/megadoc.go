// Package megadoc holds the Megadoc entity and the Builder that compiles a
// Search's matched Documents into a single downloadable file.
package megadoc

import (
	"fmt"
	"strings"
	"time"

	"github.com/orcaarchive/orca/internal/guid"
)

// Megadoc is the compiled output of one Search, in one filetype. A Search
// can have at most one Megadoc per filetype (enforced by a unique index),
// matching the "skip if one already exists" contract.
type Megadoc struct {
	guid.Base
	SearchGUID string  `json:"search_guid" db:"search_guid"`
	Filetype   string  `json:"filetype" db:"filetype"`
	Filename   string  `json:"filename" db:"filename"`
	Path       string  `json:"path" db:"path"`
	URL        string  `json:"url" db:"url"`
	Status     guid.Status `json:"status" db:"status"`
	Progress   float64 `json:"progress" db:"progress"`
}

func (m *Megadoc) GetStatus() guid.Status { return m.Status }

// SupportedFiletypes are the only filetypes the Builder knows how to
// produce. A request for anything else is rejected with ErrNotImplemented.
var SupportedFiletypes = []string{".txt", ".md", ".docx"}

func IsSupportedFiletype(filetype string) bool {
	for _, ft := range SupportedFiletypes {
		if ft == filetype {
			return true
		}
	}
	return false
}

// New builds a Megadoc ready to insert. filename/path/url are derived from
// searchStr and filetype; clientURL is the configured CDN base the path is
// served from.
func New(now time.Time, searchGUID, searchStr, filetype, megadocDir, clientURL string) *Megadoc {
	m := &Megadoc{Base: guid.NewBase(now)}
	m.SearchGUID = searchGUID
	m.Filetype = strings.ToLower(filetype)
	m.Filename = buildFilename(searchStr, now, m.Filetype)
	m.Path = joinPath(megadocDir, m.Filename)
	m.URL = fmt.Sprintf("%s/%s", strings.TrimRight(clientURL, "/"), m.Path)
	m.Status = guid.StatusPending
	m.Progress = 0
	return m
}

func buildFilename(searchStr string, now time.Time, filetype string) string {
	return fmt.Sprintf("%s_%sZ%s", Slug(searchStr), now.Format("20060102T150405"), filetype)
}

func joinPath(dir, filename string) string {
	if dir == "" {
		return filename
	}
	return strings.TrimRight(dir, "/") + "/" + filename
}

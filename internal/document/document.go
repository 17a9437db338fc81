// Package document holds the Document entity: one OCR revision for a Scan.
package document

import (
	"time"

	"github.com/orcaarchive/orca/internal/guid"
)

// Document is a revision of OCR output for a Scan. Deleting a Document does
// not affect its Scan; deleting the Scan cascades to every Document.
type Document struct {
	guid.Base
	ScanGUID  string `json:"scan_guid" db:"scan_guid"`
	BatchName string `json:"batch_name" db:"batch_name"`
	JSONPath  string `json:"json_path" db:"json_path"`
	JSONURL   string `json:"json_url" db:"json_url"`
	TextPath  string `json:"text_path" db:"text_path"`
	TextURL   string `json:"text_url" db:"text_url"`
}

func New(now time.Time) *Document {
	return &Document{Base: guid.NewBase(now)}
}

package megadoc

import (
	"fmt"
	"os"

	"github.com/orcaarchive/orca/internal/document"
	"github.com/orcaarchive/orca/internal/scan"
)

// section is one Document's worth of content going into a megadoc, plus the
// Scan metadata its front matter is drawn from.
type section struct {
	doc        *document.Document
	sc         *scan.Scan
	text       string
	isLastPage bool
}

// appendTextSection appends one front-matter + text section to a .txt/.md
// file at path, creating it on the first call.
func appendTextSection(path string, sec section) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening megadoc text file: %w", err)
	}
	defer f.Close()

	content := fmt.Sprintf(
		"---\ndate: %s\nalbum: %s - %d of %s\nimage: %s\n---\n\n%s\n",
		sec.sc.ScannedAt.Format("January 2, 2006 at 3:04 PM"),
		sec.sc.Title, sec.sc.AlbumIndex, sec.sc.Album, sec.sc.URL,
		sec.text,
	)
	if !sec.isLastPage {
		content += "\n\n\n"
	}

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("writing megadoc text section: %w", err)
	}
	return nil
}

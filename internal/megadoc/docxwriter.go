package megadoc

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// DocxWriter accumulates megadoc sections in memory and emits a single
// minimal .docx (OOXML word-processing document) in one pass. No available
// docx library authors documents (only reads them), so this writes the
// handful of XML parts a .docx needs directly via archive/zip +
// encoding/xml.
type DocxWriter struct {
	body strings.Builder
	rels []docxRel
}

type docxRel struct {
	ID     string
	Target string
}

func NewDocxWriter() *DocxWriter {
	return &DocxWriter{}
}

// AddSection appends one heading + hyperlinked-image-URL + text section,
// mirroring the original exporter's paragraph sequence: a level-1 heading
// with the scan date, a bold title run, a styled hyperlink run to the scan
// URL, a separator paragraph, the document text, and (unless this is the
// last page) an explicit page break.
func (w *DocxWriter) AddSection(sec section) {
	relID := fmt.Sprintf("rId%d", len(w.rels)+1)
	w.rels = append(w.rels, docxRel{ID: relID, Target: sec.sc.URL})

	fmt.Fprintf(&w.body, `<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>%s</w:t></w:r></w:p>`,
		xmlEscape(sec.sc.ScannedAt.Format("January 2, 2006 at 3:04 PM")))

	fmt.Fprintf(&w.body, `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>%s - %d of %s</w:t></w:r></w:p>`,
		xmlEscape(sec.sc.Title), sec.sc.AlbumIndex, xmlEscape(sec.sc.Album))

	fmt.Fprintf(&w.body, `<w:p><w:hyperlink r:id="%s"><w:r><w:rPr><w:color w:val="0000FF"/><w:u w:val="single"/><w:b/></w:rPr><w:t>%s</w:t></w:r></w:hyperlink></w:p>`,
		relID, xmlEscape(sec.sc.URL))

	w.body.WriteString(`<w:p><w:r><w:t>-----</w:t></w:r></w:p>`)

	for _, line := range strings.Split(sec.text, "\n") {
		fmt.Fprintf(&w.body, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, xmlEscape(line))
	}

	if !sec.isLastPage {
		w.body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
	}
}

func xmlEscape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

// Save writes the accumulated sections as a complete .docx zip archive at
// path. The parent directory must already exist.
func (w *DocxWriter) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating docx file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	parts := map[string]string{
		"[Content_Types].xml": contentTypesXML,
		"_rels/.rels":         rootRelsXML,
		"word/document.xml":   w.documentXML(),
		"word/_rels/document.xml.rels": w.documentRelsXML(),
	}

	for name, content := range parts {
		ww, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("creating zip entry %s: %w", name, err)
		}
		if _, err := ww.Write([]byte(content)); err != nil {
			return fmt.Errorf("writing zip entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing docx archive: %w", err)
	}
	return nil
}

func (w *DocxWriter) documentXML() string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
		`<w:body>` + w.body.String() + `<w:sectPr/></w:body></w:document>`
}

func (w *DocxWriter) documentRelsXML() string {
	var rels strings.Builder
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	rels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range w.rels {
		fmt.Fprintf(&rels, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="%s" TargetMode="External"/>`,
			r.ID, xmlEscape(r.Target))
	}
	rels.WriteString(`</Relationships>`)
	return rels.String()
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

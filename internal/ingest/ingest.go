// Package ingest walks a batch directory of OCR JSON/text output into Scan
// and Document rows.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/orcaarchive/orca/internal/apperr"
	"github.com/orcaarchive/orca/internal/document"
	"github.com/orcaarchive/orca/internal/logger"
	"github.com/orcaarchive/orca/internal/natsort"
	"github.com/orcaarchive/orca/internal/scan"
)

// Result summarizes one Ingest run.
type Result struct {
	ScansCreated     int
	DocumentsCreated int
	FilesSkipped     int
}

// Ingestor walks dataPath/batchName/json/<album>/*.json and creates the
// corresponding Scan/Document rows.
type Ingestor struct {
	scans     *scan.Store
	documents *document.Store
	batchSize int
	clientURL string
}

func NewIngestor(scans *scan.Store, documents *document.Store, batchSize int, clientURL string) *Ingestor {
	return &Ingestor{scans: scans, documents: documents, batchSize: batchSize, clientURL: clientURL}
}

// ParseStem parses a Scan filename stem of the form
// INDEX_YYYY-MM-DD_HH-MM-SS_TITLE, where INDEX is a zero-padded decimal
// and TITLE may itself contain underscores.
func ParseStem(stem string) (index int, scannedAt time.Time, title string, err error) {
	parts := strings.SplitN(stem, "_", 4)
	if len(parts) < 4 {
		return 0, time.Time{}, "", fmt.Errorf("%w: stem %q has fewer than 4 underscore-delimited parts", apperr.ErrBadInput, stem)
	}

	index, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, time.Time{}, "", fmt.Errorf("%w: stem %q has a non-numeric index: %v", apperr.ErrBadInput, stem, err)
	}

	timeStr := parts[1] + "T" + strings.ReplaceAll(parts[2], "-", ":")
	scannedAt, err = time.ParseInLocation("2006-01-02T15:04:05", timeStr, time.UTC)
	if err != nil {
		return 0, time.Time{}, "", fmt.Errorf("%w: stem %q has an unparsable timestamp: %v", apperr.ErrBadInput, stem, err)
	}

	return index, scannedAt, parts[3], nil
}

// Ingest walks dataPath/batchName/json for album subdirectories (optionally
// restricted to albumFilter), natural-sorts each album's files, and creates
// a Scan+Document per file not already recorded for (album, stem) /
// (batch_name, scan_guid). A parse or store failure is logged and the file
// skipped (counted in FilesSkipped), never aborting the batch; a stem whose
// Document already exists for batchName creates nothing and is not logged.
// Each new Scan and Document is committed on its own as it is created;
// files are not grouped into batch commits. batchSize only sets how often
// a progress line is logged (every batchSize files and on an album's last
// file).
func (ig *Ingestor) Ingest(ctx context.Context, dataPath, batchName, albumFilter string) (*Result, error) {
	jsonRoot := filepath.Join(dataPath, batchName, "json")

	albums, err := albumDirs(jsonRoot, albumFilter)
	if err != nil {
		return nil, fmt.Errorf("%w: listing albums under %s: %v", apperr.ErrNotFound, jsonRoot, err)
	}

	result := &Result{}
	for _, album := range albums {
		if err := ig.ingestAlbum(ctx, dataPath, batchName, album, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (ig *Ingestor) ingestAlbum(ctx context.Context, dataPath, batchName, album string, result *Result) error {
	albumDir := filepath.Join(dataPath, batchName, "json", album)
	entries, err := os.ReadDir(albumDir)
	if err != nil {
		return fmt.Errorf("reading album directory %s: %w", albumDir, err)
	}

	stems := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		stems = append(stems, strings.TrimSuffix(e.Name(), ".json"))
	}
	natsort.Strings(stems)

	for i, stem := range stems {
		if err := ig.ingestFile(ctx, dataPath, batchName, album, stem, result); err != nil {
			logger.WithFields(map[string]any{
				"batch": batchName, "album": album, "stem": stem,
			}).WithError(err).Warn("skipping file: ingest failed")
			result.FilesSkipped++
			continue
		}

		if (i+1)%ig.batchSize == 0 || i == len(stems)-1 {
			logger.WithFields(map[string]any{
				"batch": batchName, "album": album, "progress": i + 1, "total": len(stems),
			}).Info("ingest progress")
		}
	}
	return nil
}

func (ig *Ingestor) ingestFile(ctx context.Context, dataPath, batchName, album, stem string, result *Result) error {
	index, scannedAt, title, err := ParseStem(stem)
	if err != nil {
		return err
	}

	sc, err := ig.scans.GetByAlbumStem(ctx, album, stem)
	if err == scan.ErrNotFound {
		sc = scan.New(time.Now().UTC())
		sc.Album = album
		sc.AlbumIndex = index
		sc.Stem = stem
		sc.Title = title
		sc.ScannedAt = scannedAt
		sc.Path = filepath.Join("img", album, stem+".webp")
		sc.URL = ig.publicURL(sc.Path)
		sc.ThumbURL = ig.publicURL(filepath.Join("thumbs", album, stem+".webp"))

		sc, err = ig.scans.Create(ctx, sc, true)
		if err != nil {
			return fmt.Errorf("creating scan: %w", err)
		}
		result.ScansCreated++
	} else if err != nil {
		return fmt.Errorf("looking up existing scan: %w", err)
	}

	if _, err := ig.documents.GetByBatchScan(ctx, batchName, sc.GUID); err == nil {
		return nil
	} else if err != document.ErrNotFound {
		return fmt.Errorf("looking up existing document: %w", err)
	}

	d := document.New(time.Now().UTC())
	d.ScanGUID = sc.GUID
	d.BatchName = batchName
	d.JSONPath = filepath.Join(batchName, "json", album, stem+".json")
	d.JSONURL = ig.publicURL(d.JSONPath)
	d.TextPath = filepath.Join(batchName, "text", album, stem+".txt")
	d.TextURL = ig.publicURL(d.TextPath)

	if _, err := ig.documents.Create(ctx, d, true); err != nil {
		return fmt.Errorf("creating document: %w", err)
	}
	result.DocumentsCreated++
	return nil
}

func (ig *Ingestor) publicURL(relPath string) string {
	return strings.TrimRight(ig.clientURL, "/") + "/" + filepath.ToSlash(relPath)
}

func albumDirs(jsonRoot, albumFilter string) ([]string, error) {
	if albumFilter != "" {
		return []string{albumFilter}, nil
	}

	entries, err := os.ReadDir(jsonRoot)
	if err != nil {
		return nil, err
	}

	albums := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			albums = append(albums, e.Name())
		}
	}
	return albums, nil
}

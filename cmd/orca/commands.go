package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/orcaarchive/orca/internal/config"
	"github.com/orcaarchive/orca/internal/corpus"
	"github.com/orcaarchive/orca/internal/dbx"
	"github.com/orcaarchive/orca/internal/document"
	"github.com/orcaarchive/orca/internal/httpapi"
	"github.com/orcaarchive/orca/internal/ingest"
	"github.com/orcaarchive/orca/internal/logger"
	"github.com/orcaarchive/orca/internal/megadoc"
	"github.com/orcaarchive/orca/internal/objectstore"
	"github.com/orcaarchive/orca/internal/pipeline"
	"github.com/orcaarchive/orca/internal/scan"
	"github.com/orcaarchive/orca/internal/search"
	"github.com/orcaarchive/orca/internal/version"
)

// bundle holds every store built on top of one open *sql.DB, so commands
// that share the same set of dependencies don't each re-wire them by hand.
type bundle struct {
	db        *sql.DB
	scans     *scan.Store
	documents *document.Store
	corpora   *corpus.Store
	searches  *search.Store
	megadocs  *megadoc.Store
}

func (b *bundle) Close() error { return dbx.Close(b.db) }

// newBootstrapBundle loads the config singleton, configures the package
// logger, opens the sqlite handle, brings it to the latest migration, and
// wires every per-entity store on top of it, the shared setup every
// subcommand needs before it can do anything domain-specific.
func newBootstrapBundle(c *cli.Context) (*config.Config, *bundle, error) {
	if err := config.Init(c.String("config")); err != nil {
		return nil, nil, err
	}
	cfg := config.Get()

	if err := logger.Init(&logger.Config{
		Level:   cfg.Logging.Level,
		LogFile: cfg.Logging.LogFile,
		LogDir:  cfg.Logging.LogDir,
	}); err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}

	db, err := dbx.Open(cfg.DB.SQLPath)
	if err != nil {
		return nil, nil, err
	}
	if err := dbx.Migrate(db); err != nil {
		dbx.Close(db)
		return nil, nil, err
	}

	b := &bundle{
		db:        db,
		scans:     scan.NewStore(db, cfg.DB.Retries),
		documents: document.NewStore(db, cfg.DB.Retries),
		corpora:   corpus.NewStore(db, cfg.DB.Retries),
		searches:  search.NewStore(db, cfg.DB.Retries),
		megadocs:  megadoc.NewStore(db, cfg.DB.Retries),
	}
	return cfg, b, nil
}

// buildOrchestrator wires the Ingestor, Searcher, Builder and Uploader on
// top of an already-open bundle into one pipeline.Orchestrator. The S3
// client is constructed unconditionally: aws-sdk-go-v2 only resolves
// credentials lazily on the first request, so building it costs nothing for
// commands (like import-albums) that never actually upload anything.
func buildOrchestrator(ctx context.Context, cfg *config.Config, b *bundle, dataPath, indexPath string) (*pipeline.Orchestrator, error) {
	s3Client, err := objectstore.NewClient(ctx, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("configuring object store client: %w", err)
	}

	ing := ingest.NewIngestor(b.scans, b.documents, cfg.DB.BatchSize, cfg.App.ClientURL)
	svc := search.NewService(b.searches, b.corpora, b.documents, indexPath)
	builder := megadoc.NewBuilder(b.megadocs, b.searches, b.documents, b.scans, dataPath, cfg.App.MegadocDir, cfg.App.ClientURL)
	uploader := objectstore.NewUploader(s3Client, b.megadocs, cfg.DB.Retries)

	return pipeline.NewOrchestrator(
		ing, b.documents, b.corpora, svc, builder, uploader,
		dataPath, indexPath, cfg.Concurrency.MaxOpenFiles,
	), nil
}

var initDBCommand = &cli.Command{
	Name:  "init-db",
	Usage: "Create the sqlite database and apply migrations",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "uri", Usage: "sqlite database path (overrides config db.sql_path)"},
		&cli.StringFlag{Name: "path", Usage: "data root directory (overrides config app.data_path)"},
	},
	Action: func(c *cli.Context) error {
		if err := config.Init(c.String("config")); err != nil {
			return cli.Exit(err, 1)
		}
		cfg := config.Get()
		if uri := c.String("uri"); uri != "" {
			cfg.DB.SQLPath = uri
		}
		if path := c.String("path"); path != "" {
			cfg.App.DataPath = path
		}

		if err := logger.Init(&logger.Config{Level: cfg.Logging.Level}); err != nil {
			return cli.Exit(err, 1)
		}

		db, err := dbx.Open(cfg.DB.SQLPath)
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer dbx.Close(db)

		if err := dbx.Migrate(db); err != nil {
			return cli.Exit(err, 1)
		}

		fmt.Fprintf(c.App.Writer, "database ready at %s\n", cfg.DB.SQLPath)
		return nil
	},
}

var importAlbumsCommand = &cli.Command{
	Name:  "import-albums",
	Usage: "Ingest every album under a batch's json/ directory, then rebuild the corpus and full-text index",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "data-path", Usage: "data root directory (overrides config app.data_path)"},
		&cli.StringFlag{Name: "batch-name", Usage: "batch subdirectory to import", Required: true},
		&cli.StringFlag{Name: "index-path", Usage: "full-text index directory (overrides config app.index_path)"},
	},
	Action: func(c *cli.Context) error {
		cfg, b, err := newBootstrapBundle(c)
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer b.Close()

		dataPath := overrideOr(c.String("data-path"), cfg.App.DataPath)
		indexPath := overrideOr(c.String("index-path"), cfg.App.IndexPath)

		orch, err := buildOrchestrator(c.Context, cfg, b, dataPath, indexPath)
		if err != nil {
			return cli.Exit(err, 1)
		}

		result, err := orch.StartLoad(c.Context, dataPath, c.String("batch-name"))
		if err != nil {
			return cli.Exit(err, 1)
		}

		for _, album := range result.Albums {
			r := result.PerAlbum[album]
			if r == nil {
				fmt.Fprintf(c.App.Writer, "album %s: failed\n", album)
				continue
			}
			fmt.Fprintf(c.App.Writer, "album %s: %d scans, %d documents, %d skipped\n",
				album, r.ScansCreated, r.DocumentsCreated, r.FilesSkipped)
		}
		if result.Corpus != nil {
			fmt.Fprintf(c.App.Writer, "corpus %s: checksum %s\n", result.Corpus.GUID, result.Corpus.Checksum)
		}
		return nil
	},
}

var searchCmd = &cli.Command{
	Name:      "search",
	Usage:     "Run one search against the current full-text index and build its megadocs",
	ArgsUsage: "<query>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "data-path", Usage: "data root directory (overrides config app.data_path)"},
		&cli.StringFlag{Name: "index-path", Usage: "full-text index directory (overrides config app.index_path)"},
		&cli.StringSliceFlag{Name: "megadoc-types", Usage: "filetypes to build (overrides config app.megadoc_types)"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.Exit("search requires a query argument", 1)
		}
		query := strings.Join(c.Args().Slice(), " ")

		cfg, b, err := newBootstrapBundle(c)
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer b.Close()

		dataPath := overrideOr(c.String("data-path"), cfg.App.DataPath)
		indexPath := overrideOr(c.String("index-path"), cfg.App.IndexPath)
		filetypes := cfg.App.MegadocTypes
		if slice := c.StringSlice("megadoc-types"); len(slice) > 0 {
			filetypes = slice
		}

		orch, err := buildOrchestrator(c.Context, cfg, b, dataPath, indexPath)
		if err != nil {
			return cli.Exit(err, 1)
		}

		result, err := orch.StartSearch(c.Context, query, filetypes)
		if err != nil {
			return cli.Exit(err, 1)
		}

		fmt.Fprintf(c.App.Writer, "search %s: status %s\n", result.Search.GUID, result.Search.Status)
		for filetype, m := range result.Megadocs {
			if m == nil {
				fmt.Fprintf(c.App.Writer, "%s: no matches, nothing built\n", filetype)
				continue
			}
			fmt.Fprintf(c.App.Writer, "%s: %s\n", filetype, m.URL)
		}
		for filetype, buildErr := range result.Errors {
			fmt.Fprintf(c.App.Writer, "%s: failed: %v\n", filetype, buildErr)
		}
		return nil
	},
}

var debugCommand = &cli.Command{
	Name:  "debug",
	Usage: "Serve the HTTP API",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "host", Value: "127.0.0.1", Usage: "listen host"},
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "listen port"},
		&cli.StringFlag{Name: "data-path", Usage: "data root directory (overrides config app.data_path)"},
		&cli.StringFlag{Name: "index-path", Usage: "full-text index directory (overrides config app.index_path)"},
	},
	Action: func(c *cli.Context) error {
		cfg, b, err := newBootstrapBundle(c)
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer b.Close()

		dataPath := overrideOr(c.String("data-path"), cfg.App.DataPath)
		indexPath := overrideOr(c.String("index-path"), cfg.App.IndexPath)

		orch, err := buildOrchestrator(c.Context, cfg, b, dataPath, indexPath)
		if err != nil {
			return cli.Exit(err, 1)
		}

		srv := httpapi.NewServer(orch, b.searches, b.megadocs, b.corpora, version.Version, cfg.App.MegadocTypes)

		addr := fmt.Sprintf("%s:%d", c.String("host"), c.Int("port"))
		fmt.Fprintf(c.App.Writer, "listening on %s\n", addr)

		httpServer := &http.Server{
			Addr:              addr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return cli.Exit(err, 1)
		}
		return nil
	},
}

func overrideOr(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

// Command orca runs the OCR archive pipeline: importing scanned albums,
// rebuilding the corpus and full-text index, running searches, and
// compiling/uploading the resulting megadocs. It also serves the latest
// corpus and searches over HTTP for long-running deployments.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/orcaarchive/orca/internal/version"
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "orca",
		Usage:   "OCR archive, corpus, search and megadoc pipeline",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML config file path",
			},
		},
		Commands: []*cli.Command{
			initDBCommand,
			importAlbumsCommand,
			searchCmd,
			debugCommand,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

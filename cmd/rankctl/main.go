// Command rankctl replays merchandising rules against a captured candidate list
// without touching the embedding provider or the vector index.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/shelfsearch/internal/version"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "rankctl:", err)
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "rankctl",
		Usage:     "Debug merchandising rules offline",
		Version:   version.String(),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			{
				Name:      "replay",
				Usage:     "Rank a fixture of candidates and rules and print the outcome",
				ArgsUsage: " ",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Fixture JSON file; stdin when empty or \"-\"",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Include a per-rule trace and log each step to stderr",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Override the fixture limit",
					},
				},
				Action: replayCommand,
			},
		},
	}
}

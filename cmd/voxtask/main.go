package main

import (
	"fmt"
	"os"

	app "github.com/akowalczyk/voxtask/internal"
	"github.com/akowalczyk/voxtask/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	basePath := app.ResolveBasePath()

	voxtask, err := app.NewApp(basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing voxtask: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = voxtask.Close() }()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

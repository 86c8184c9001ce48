// Package main provides the entry point for the taskflow CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/taskflow/internal/cli"
)

// Set by goreleaser via ldflags.
//
//nolint:gochecknoglobals // Build-time version info
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx := context.Background()
	err := cli.Execute(ctx, cli.BuildInfo{Version: version, Commit: commit, Date: date})
	os.Exit(cli.ExitCodeForError(err))
}

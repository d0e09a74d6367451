// Package main provides the firebolt command-line client.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/firebolt-db/firebolt-cli/internal/cli"

	// Query backends register themselves with the adapter registry.
	_ "github.com/firebolt-db/firebolt-cli/pkg/adapters/duckdb"
	_ "github.com/firebolt-db/firebolt-cli/pkg/adapters/firebolt"
	_ "github.com/firebolt-db/firebolt-cli/pkg/adapters/postgres"
	_ "github.com/firebolt-db/firebolt-cli/pkg/adapters/sqlite"
)

// Set with -ldflags at build time.
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	if version != "" {
		cli.Version = version
	}
	if commit != "" {
		cli.GitCommit = commit
	}
	if date != "" {
		cli.BuildDate = date
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}

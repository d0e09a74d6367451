package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/firebolt-db/firebolt-cli/internal/shell"
	"github.com/firebolt-db/firebolt-cli/pkg/adapter"
	"github.com/firebolt-db/firebolt-cli/pkg/render"
	"github.com/spf13/cobra"
)

// maxLineSize bounds a single line of piped SQL.
const maxLineSize = 16 * 1024 * 1024

// QueryOptions holds options for the query command.
type QueryOptions struct {
	File         string
	CSV          bool
	Format       string
	EngineName   string
	EngineURL    string
	DatabaseName string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Execute SQL queries",
		Long: `Execute SQL statements against the configured database.

SQL is read from --file or from piped standard input. Statements are separated
by semicolons; a final statement without one still runs. Without any SQL
input an interactive shell is started.`,
		Example: `  # Interactive shell
  firebolt query

  # Run a script
  firebolt query --file load.sql

  # Pipe statements and get CSV back
  echo "SELECT 1; SELECT 2" | firebolt query --csv

  # Use another engine for this session
  firebolt query --engine-name analytics_rw --database-name analytics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "Path to a file with the SQL to execute")
	cmd.Flags().BoolVar(&opts.CSV, "csv", false, "Print results as CSV")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Result format: grid, csv, json, md")
	cmd.Flags().StringVar(&opts.EngineName, "engine-name", "", "Engine name to use")
	cmd.Flags().StringVar(&opts.EngineURL, "engine-url", "", "Engine URL to use")
	cmd.Flags().StringVar(&opts.DatabaseName, "database-name", "", "Database to run the SQL against")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return render.Formats(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions) error {
	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)

	if opts.EngineName != "" && opts.EngineURL != "" {
		return usageErrorf("engine-name and engine-url are mutually exclusive options. Provide only one")
	}

	// Overrides apply to this invocation only.
	cfg := *cmdCtx.Cfg
	switch {
	case opts.EngineName != "":
		cfg.EngineName, cfg.EngineURL = opts.EngineName, ""
	case opts.EngineURL != "":
		cfg.EngineName, cfg.EngineURL = "", opts.EngineURL
	}
	if opts.DatabaseName != "" {
		cfg.DatabaseName = opts.DatabaseName
	}
	cmdCtx.Cfg = &cfg

	stdin := cmd.InOrStdin()
	piped := inputIsPiped(stdin)
	if piped && opts.File != "" {
		return usageErrorf("SQL request should be either read from stdin or file, both are specified")
	}

	var script io.Reader
	switch {
	case opts.File != "":
		f, err := os.Open(opts.File)
		if err != nil {
			return withExitCode(ExitUsage, fmt.Errorf("failed to open SQL file: %w", err))
		}
		defer func() { _ = f.Close() }()
		script = f
	case piped:
		script = stdin
	}

	formatter, err := render.NewFormatter(resultFormat(opts, cfg.Format))
	if err != nil {
		return withExitCode(ExitUsage, err)
	}

	cmdCtx.resolvePassword()
	db, err := connect(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	acc := shell.New(shell.Config{
		Executor:    db,
		Formatter:   formatter,
		Output:      cmd.OutOrStdout(),
		TablesQuery: db.TablesQuery(),
		Logger:      cmdCtx.Logger,
	})

	if script != nil {
		return withExitCode(ExitUnavailable, runScript(ctx, acc, script))
	}
	return runQueryREPL(cmd, cmdCtx, db, acc)
}

// resultFormat picks the result format: --csv, then --format, then config.
func resultFormat(opts *QueryOptions, configured string) string {
	switch {
	case opts.CSV:
		return render.FormatCSV
	case opts.Format != "":
		return opts.Format
	case configured != "":
		return configured
	}
	return render.FormatGrid
}

// connect creates the configured adapter and opens its connection.
func connect(ctx context.Context, cmdCtx *CommandContext) (adapter.Adapter, error) {
	adapterCfg := cmdCtx.Cfg.AdapterConfig()
	db, err := adapter.NewAdapter(adapterCfg, cmdCtx.Logger)
	if err != nil {
		return nil, withExitCode(ExitUsage, err)
	}
	if err := db.Connect(ctx, adapterCfg); err != nil {
		return nil, withExitCode(ExitUnavailable, fmt.Errorf("failed to connect: %w", err))
	}
	cmdCtx.Logger.Debug("connected", "adapter", adapterCfg.Type, "database", adapterCfg.Database)
	return db, nil
}

// runScript feeds r line by line through the accumulator and runs whatever
// is left at the end as a final statement. It stops at the first failing
// statement.
func runScript(ctx context.Context, acc *shell.Accumulator, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		res := acc.Feed(ctx, strings.TrimSuffix(scanner.Text(), "\r"))
		if res.Err != nil {
			return res.Err
		}
		if res.Terminate {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read SQL: %w", err)
	}
	return acc.Flush(ctx).Err
}

// inputIsPiped reports whether r carries SQL rather than a terminal. Files
// and pipes count; terminals and character devices such as /dev/null do not.
// Readers that are not files, as used in tests, count as piped.
func inputIsPiped(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}

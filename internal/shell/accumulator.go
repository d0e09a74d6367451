// Package shell implements the statement accumulator behind the interactive
// SQL shell.
//
// Input arrives one line at a time. The Accumulator buffers text until one or
// more semicolon-terminated statements are complete, hands each statement to
// an Executor and renders the result through a Formatter. Semicolons inside
// single- or double-quoted literals do not terminate a statement. A line that
// consists of a dot-command (.help, .tables, .exit, .quit) is handled by the
// shell itself, but only when no statement is pending.
package shell

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/firebolt-db/firebolt-cli/pkg/render"
)

// Executor runs one SQL statement and returns its result set.
type Executor interface {
	Execute(ctx context.Context, statement string) (*render.Table, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, statement string) (*render.Table, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, statement string) (*render.Table, error) {
	return f(ctx, statement)
}

// Config configures an Accumulator.
type Config struct {
	Executor  Executor
	Formatter render.Formatter
	// Output receives rendered results and help text. Defaults to io.Discard.
	Output io.Writer
	// Help defaults to StaticHelp.
	Help HelpProvider
	// TablesQuery is executed for .tables.
	TablesQuery string
	Logger      *slog.Logger
}

// DefaultTablesQuery lists tables through information_schema.
const DefaultTablesQuery = "SELECT table_name FROM information_schema.tables ORDER BY table_name"

// Accumulator collects input lines into statements and dispatches them.
// It is not safe for concurrent use; one input loop owns it.
type Accumulator struct {
	exec        Executor
	formatter   render.Formatter
	out         io.Writer
	help        HelpProvider
	tablesQuery string
	logger      *slog.Logger

	// pending holds text not yet dispatched. Everything before scanned has
	// already been examined; quote is the active quote character at that
	// point, or zero.
	pending []byte
	scanned int
	quote   byte
}

// New creates an Accumulator. Executor and Formatter are required.
func New(cfg Config) *Accumulator {
	out := cfg.Output
	if out == nil {
		out = io.Discard
	}
	help := cfg.Help
	if help == nil {
		help = StaticHelp{}
	}
	tablesQuery := cfg.TablesQuery
	if tablesQuery == "" {
		tablesQuery = DefaultTablesQuery
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Accumulator{
		exec:        cfg.Executor,
		formatter:   cfg.Formatter,
		out:         out,
		help:        help,
		tablesQuery: tablesQuery,
		logger:      logger,
	}
}

// Feed consumes one line of input without its trailing newline.
func (a *Accumulator) Feed(ctx context.Context, line string) DispatchResult {
	if a.Empty() {
		if cmd, ok := ParseDotCommand(line); ok {
			return a.runDotCommand(ctx, cmd)
		}
	}

	a.pending = append(a.pending, line...)
	a.pending = append(a.pending, '\n')

	statements := a.cut()
	return a.dispatch(ctx, statements)
}

// Flush dispatches whatever is pending as a final statement, even without a
// terminator or with an unclosed quote. It is meant for the end of piped
// input, where no further line can complete the statement.
func (a *Accumulator) Flush(ctx context.Context) DispatchResult {
	rest := strings.TrimSpace(string(a.pending))
	a.Reset()
	if rest == "" {
		return Continue(PromptFresh)
	}
	return a.dispatch(ctx, []string{rest})
}

// Reset discards the pending buffer without dispatching anything.
func (a *Accumulator) Reset() {
	a.pending = a.pending[:0]
	a.scanned = 0
	a.quote = 0
}

// Empty reports whether no statement text is pending.
func (a *Accumulator) Empty() bool {
	return len(a.pending) == 0
}

// Pending returns the text accumulated so far.
func (a *Accumulator) Pending() string {
	return string(a.pending)
}

// InQuote reports whether the pending text ends inside a string literal.
func (a *Accumulator) InQuote() bool {
	return a.quote != 0
}

// cut extracts every terminated statement from the pending buffer, leaving
// the unterminated tail in place. Empty statements are dropped.
func (a *Accumulator) cut() []string {
	var statements []string
	start := 0

	for i := a.scanned; i < len(a.pending); i++ {
		c := a.pending[i]
		switch {
		case a.quote != 0:
			// A doubled quote closes and immediately reopens the span.
			if c == a.quote {
				a.quote = 0
			}
		case c == '\'' || c == '"':
			a.quote = c
		case c == ';':
			if stmt := strings.TrimSpace(string(a.pending[start:i])); stmt != "" {
				statements = append(statements, stmt)
			}
			start = i + 1
		}
	}

	rest := a.pending[start:]
	if a.quote == 0 && len(strings.TrimSpace(string(rest))) == 0 {
		a.Reset()
		return statements
	}

	n := copy(a.pending, rest)
	a.pending = a.pending[:n]
	a.scanned = n
	return statements
}

func (a *Accumulator) prompt() PromptKind {
	if a.Empty() {
		return PromptFresh
	}
	return PromptContinuation
}

func (a *Accumulator) dispatch(ctx context.Context, statements []string) DispatchResult {
	res := Continue(a.prompt())
	for _, stmt := range statements {
		res.Dispatched++
		if err := a.execute(ctx, stmt); err != nil {
			res.Err = err
			return res
		}
	}
	return res
}

func (a *Accumulator) execute(ctx context.Context, stmt string) error {
	a.logger.Debug("dispatching statement", slog.Int("length", len(stmt)))

	t, err := a.exec.Execute(ctx, stmt)
	if err != nil {
		return err
	}
	if err := a.formatter.Render(a.out, t); err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	return nil
}

func (a *Accumulator) runDotCommand(ctx context.Context, cmd DotCommand) DispatchResult {
	if cmd.Terminates() {
		return Terminate()
	}
	switch cmd {
	case DotHelp:
		_, _ = io.WriteString(a.out, a.help.HelpText())
		return Continue(PromptFresh)
	case DotTables:
		res := Continue(PromptFresh)
		res.Dispatched = 1
		res.Err = a.execute(ctx, a.tablesQuery)
		return res
	case DotNone, DotExit, DotQuit:
	}
	return Continue(PromptFresh)
}

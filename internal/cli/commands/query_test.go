package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/firebolt-db/firebolt-cli/internal/cli/config"
	"github.com/firebolt-db/firebolt-cli/internal/cli/output"
	clitestutil "github.com/firebolt-db/firebolt-cli/internal/cli/testutil"
	"github.com/firebolt-db/firebolt-cli/internal/shell"
	"github.com/firebolt-db/firebolt-cli/internal/testutil"
	"github.com/firebolt-db/firebolt-cli/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/firebolt-db/firebolt-cli/pkg/adapters/sqlite"
)

const seedSQL = `CREATE TABLE users (id INTEGER, name TEXT);
INSERT INTO users VALUES (1, 'alice'), (2, 'semi;colon');
`

func useSQLite(t *testing.T) {
	t.Helper()
	useConfig(t, &config.Config{Adapter: "sqlite", Format: render.FormatCSV})
}

func TestQuery_PipedInput(t *testing.T) {
	useSQLite(t)
	input := seedSQL + "SELECT id, name\nFROM users\nORDER BY id;\n"

	stdout, _, err := runCommand(t, NewQueryCommand(), strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,alice\n2,semi;colon\n", stdout)
}

func TestQuery_TrailingStatementWithoutSemicolon(t *testing.T) {
	useSQLite(t)

	stdout, _, err := runCommand(t, NewQueryCommand(), strings.NewReader("SELECT 1 AS a;\nSELECT 2 AS b"))

	require.NoError(t, err)
	assert.Equal(t, "a\n1\nb\n2\n", stdout)
}

func TestQuery_CRLFInput(t *testing.T) {
	useSQLite(t)

	stdout, _, err := runCommand(t, NewQueryCommand(), strings.NewReader("SELECT 'x' AS v;\r\n"))

	require.NoError(t, err)
	assert.Equal(t, "v\nx\n", stdout)
}

func TestQuery_StopsAtFirstError(t *testing.T) {
	useSQLite(t)

	stdout, _, err := runCommand(t, NewQueryCommand(),
		strings.NewReader("SELECT 1 AS first;\nSELEC oops;\nSELECT 2 AS never;\n"))

	require.Error(t, err)
	assert.Equal(t, ExitUnavailable, ExitCode(err))
	assert.Contains(t, stdout, "first")
	assert.NotContains(t, stdout, "never")
}

func TestQuery_DotCommandsInScript(t *testing.T) {
	useSQLite(t)
	input := seedSQL + ".tables\n.exit\nSELECT 'unreachable' AS v;\n"

	stdout, _, err := runCommand(t, NewQueryCommand(), strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, "name\nusers\n", stdout)
}

func TestQuery_File(t *testing.T) {
	useSQLite(t)
	path := clitestutil.WriteFile(t, t.TempDir(), "script.sql", seedSQL+"SELECT count(*) AS n FROM users;\n")

	stdout, _, err := runCommand(t, NewQueryCommand(), nil, "--file", path)

	require.NoError(t, err)
	assert.Equal(t, "n\n2\n", stdout)
}

func TestQuery_FormatFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"csv flag wins over format", []string{"--csv", "--format", "json"}, "v\nx\n"},
		{"format flag", []string{"--format", "json"}, `"v": "x"`},
		{"short format flag", []string{"-f", "md"}, "| v |"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useConfig(t, &config.Config{Adapter: "sqlite", Format: render.FormatGrid})

			stdout, _, err := runCommand(t, NewQueryCommand(), strings.NewReader("SELECT 'x' AS v;"), tt.args...)

			require.NoError(t, err)
			assert.Contains(t, stdout, tt.want)
		})
	}
}

func TestQuery_UsageErrors(t *testing.T) {
	path := clitestutil.WriteFile(t, t.TempDir(), "script.sql", "SELECT 1;")

	tests := []struct {
		name    string
		stdin   io.Reader
		args    []string
		wantErr string
	}{
		{
			name:    "file and piped stdin",
			stdin:   strings.NewReader("SELECT 1;"),
			args:    []string{"--file", path},
			wantErr: "SQL request should be either read from stdin or file, both are specified",
		},
		{
			name:    "missing file",
			args:    []string{"--file", filepath.Join(t.TempDir(), "missing.sql")},
			wantErr: "failed to open SQL file",
		},
		{
			name:    "engine name and url",
			stdin:   strings.NewReader("SELECT 1;"),
			args:    []string{"--engine-name", "eng", "--engine-url", "eng.example.com"},
			wantErr: "engine-name and engine-url are mutually exclusive options",
		},
		{
			name:    "unknown format",
			stdin:   strings.NewReader("SELECT 1;"),
			args:    []string{"--format", "xml"},
			wantErr: "xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useSQLite(t)

			_, _, err := runCommand(t, NewQueryCommand(), tt.stdin, tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, ExitUsage, ExitCode(err))
		})
	}
}

func TestQuery_UnknownAdapter(t *testing.T) {
	useConfig(t, &config.Config{Adapter: "oracle"})

	_, _, err := runCommand(t, NewQueryCommand(), strings.NewReader("SELECT 1;"))

	require.Error(t, err)
	assert.Equal(t, ExitUsage, ExitCode(err))
}

func TestQuery_ConnectFailure(t *testing.T) {
	useConfig(t, &config.Config{
		Adapter:    "sqlite",
		Connection: config.ConnectionConfig{Path: filepath.Join(t.TempDir(), "missing", "dir", "db.sqlite")},
	})

	_, _, err := runCommand(t, NewQueryCommand(), strings.NewReader("SELECT 1;"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
	assert.Equal(t, ExitUnavailable, ExitCode(err))
}

func TestInputIsPiped(t *testing.T) {
	assert.True(t, inputIsPiped(strings.NewReader("")))
	assert.False(t, inputIsPiped(nil))
	assert.False(t, inputIsPiped(clitestutil.DevNull(t)))
}

// scriptedReader replays lines and errors as a terminal session would.
type scriptedReader struct {
	inputs  []any
	prompts []string
}

func (s *scriptedReader) Readline() (string, error) {
	if len(s.inputs) == 0 {
		return "", io.EOF
	}
	next := s.inputs[0]
	s.inputs = s.inputs[1:]
	if err, ok := next.(error); ok {
		return "", err
	}
	return next.(string), nil
}

func (s *scriptedReader) SetPrompt(prompt string) {
	s.prompts = append(s.prompts, prompt)
}

type replHarness struct {
	reader     *scriptedReader
	renderer   *clitestutil.TestRenderer
	statements []string
	results    bytes.Buffer
}

func runREPL(t *testing.T, inputs ...any) (*replHarness, error) {
	t.Helper()
	h := &replHarness{
		reader:   &scriptedReader{inputs: inputs},
		renderer: clitestutil.NewTestRenderer(output.ModeText),
	}
	exec := shell.ExecutorFunc(func(_ context.Context, stmt string) (*render.Table, error) {
		h.statements = append(h.statements, stmt)
		if strings.HasPrefix(stmt, "FAIL") {
			return nil, errors.New("syntax error at " + stmt)
		}
		return &render.Table{Columns: []render.Column{{Name: "stmt"}}, Rows: [][]any{{stmt}}}, nil
	})
	formatter, err := render.NewFormatter(render.FormatCSV)
	require.NoError(t, err)
	acc := shell.New(shell.Config{Executor: exec, Formatter: formatter, Output: &h.results})

	err = replLoop(context.Background(), h.reader, acc, h.renderer.Renderer,
		func(ctx context.Context) (context.Context, context.CancelFunc) { return context.WithCancel(ctx) })
	return h, err
}

func TestReplLoop_StatementAcrossLines(t *testing.T) {
	h, err := runREPL(t, "SELECT 1", "AS one;")

	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1\nAS one"}, h.statements)
	assert.Equal(t, []string{shell.ContinuationPrompt, shell.FreshPrompt}, h.reader.prompts)
	assert.Equal(t, "Bye!\n", h.renderer.Output())
}

func TestReplLoop_ErrorResetsAndContinues(t *testing.T) {
	h, err := runREPL(t, "FAIL 1; SELECT skipped;", "SELECT 2;")

	require.NoError(t, err)
	assert.Equal(t, []string{"FAIL 1", "SELECT 2"}, h.statements)
	assert.Contains(t, h.renderer.ErrorOutput(), "syntax error at FAIL 1")
	assert.Equal(t, "stmt\nSELECT 2\n", h.results.String())
	assert.Equal(t, []string{shell.FreshPrompt, shell.FreshPrompt}, h.reader.prompts)
}

func TestReplLoop_InterruptDiscardsPending(t *testing.T) {
	h, err := runREPL(t, "SELECT 'abandoned'", readline.ErrInterrupt, "SELECT 2;")

	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 2"}, h.statements)
	assert.Equal(t, []string{shell.ContinuationPrompt, shell.FreshPrompt, shell.FreshPrompt}, h.reader.prompts)
}

func TestReplLoop_ExitCommand(t *testing.T) {
	h, err := runREPL(t, "SELECT 1;", ".exit", "SELECT 2;")

	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1"}, h.statements)
	assert.Equal(t, "Bye!\n", h.renderer.Output())
	assert.Len(t, h.reader.inputs, 1, "input after .exit should not be read")
}

func TestReplLoop_DotCommandOnlyWhenIdle(t *testing.T) {
	h, err := runREPL(t, "SELECT 1", ".exit", ";")

	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1\n.exit"}, h.statements)
}

func TestReplLoop_ReaderError(t *testing.T) {
	boom := errors.New("terminal lost")

	_, err := runREPL(t, "SELECT 1;", boom)

	require.ErrorIs(t, err, boom)
}

func TestReplSessionContext_OutlivesInterruptedParent(t *testing.T) {
	parent, interrupt := context.WithCancel(testutil.LoggerContext(t))
	ctx, stop := replSessionContext(parent)

	interrupt()
	require.NoError(t, ctx.Err(), "Ctrl-C on the root context must not end the session")
	assert.Same(t, config.GetLogger(parent), config.GetLogger(ctx))

	stmtCtx, stopStmt := interruptibleContext(ctx)
	require.NoError(t, stmtCtx.Err())
	stopStmt()

	stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

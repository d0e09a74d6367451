package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/chzyer/readline"
	"github.com/firebolt-db/firebolt-cli/internal/cli/output"
	"github.com/firebolt-db/firebolt-cli/internal/shell"
	"github.com/firebolt-db/firebolt-cli/pkg/adapter"
	"github.com/spf13/cobra"
)

// lineReader is the part of readline the shell loop needs.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

func runQueryREPL(cmd *cobra.Command, cmdCtx *CommandContext, db adapter.Adapter, acc *shell.Accumulator) error {
	ctx, cancel := replSessionContext(cmd.Context())
	defer cancel()

	// Schema names arrive in the background; keywords complete right away.
	completer := shell.NewCompleter(cmdCtx.Logger)
	go completer.Load(ctx, db, db.ColumnsQuery())

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shell.FreshPrompt,
		HistoryFile:     cmdCtx.Cfg.HistoryFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	cmdCtx.Renderer.Success("Connection succeeded")
	cmdCtx.Renderer.Muted("Type .help for commands, .exit to quit")

	return replLoop(ctx, rl, acc, cmdCtx.Renderer, interruptibleContext)
}

// replSessionContext detaches the shell session from parent, which the
// first Ctrl-C cancels. Values such as the logger are kept; the session ends
// when the returned cancel runs.
func replSessionContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(context.WithoutCancel(parent))
}

// interruptibleContext derives a statement context that Ctrl-C cancels
// without ending the shell.
func interruptibleContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}

// replLoop reads lines until EOF or a terminating dot-command. Statement
// errors are printed and discard the pending input.
func replLoop(
	ctx context.Context,
	rd lineReader,
	acc *shell.Accumulator,
	r *output.Renderer,
	statementContext func(context.Context) (context.Context, context.CancelFunc),
) error {
	for {
		line, err := rd.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			acc.Reset()
			rd.SetPrompt(shell.FreshPrompt)
			continue
		case errors.Is(err, io.EOF):
			r.Println("Bye!")
			return nil
		case err != nil:
			return err
		}

		stmtCtx, stop := statementContext(ctx)
		res := acc.Feed(stmtCtx, line)
		stop()

		if res.Terminate {
			r.Println("Bye!")
			return nil
		}
		if res.Err != nil {
			r.Error(res.Err.Error())
			acc.Reset()
			rd.SetPrompt(shell.FreshPrompt)
			continue
		}
		rd.SetPrompt(res.Prompt.String())
	}
}

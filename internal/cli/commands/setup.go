package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/firebolt-db/firebolt-cli/internal/api"
	"github.com/firebolt-db/firebolt-cli/internal/cli/config"
	"github.com/firebolt-db/firebolt-cli/internal/cli/output"
	"github.com/spf13/cobra"
)

// Exit codes reported by the CLI, from sysexits.h.
const (
	ExitUsage       = 64
	ExitDataErr     = 65
	ExitUnavailable = 69
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// withExitCode wraps err so the process exits with code. nil stays nil.
func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &ExitError{Code: code, Err: err}
}

// usageErrorf builds an EX_USAGE error.
func usageErrorf(format string, a ...any) error {
	return &ExitError{Code: ExitUsage, Err: fmt.Errorf(format, a...)}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// openKeyring opens the credential store. Replaced in tests.
var openKeyring = config.OpenKeyring

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, or defaults when none was
// loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// resolvePassword fills the password from the credential store if needed.
// A store that cannot be opened only matters when no password is available.
func (c *CommandContext) resolvePassword() {
	if err := c.Cfg.ResolvePassword(openKeyring); err != nil {
		c.Logger.Debug("credential store unavailable", slog.String("error", err.Error()))
	}
}

// APIClient builds a management API client from the configuration.
func (c *CommandContext) APIClient() (*api.Client, error) {
	c.resolvePassword()
	if c.Cfg.Username == "" {
		return nil, usageErrorf("username is not set, run 'firebolt configure' or pass --username")
	}
	if c.Cfg.Password == "" {
		return nil, usageErrorf("password is not set, run 'firebolt configure' or pass --password")
	}
	return api.New(api.Options{
		Endpoint:    c.Cfg.APIEndpoint,
		Username:    c.Cfg.Username,
		Password:    c.Cfg.Password,
		AccountName: c.Cfg.AccountName,
		Logger:      c.Logger,
	}), nil
}

// configPath returns the file configure writes to: the --config flag when
// given, otherwise config.yaml in the config directory.
func configPath(cmd *cobra.Command, cfg *config.Config) string {
	if f := cmd.Flag("config"); f != nil && f.Value.String() != "" {
		return f.Value.String()
	}
	dir := cfg.ConfigDir
	if dir == "" {
		dir = config.DefaultConfigDir()
	}
	return filepath.Join(dir, config.ConfigFileName)
}

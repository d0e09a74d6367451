// Package cli provides the command-line interface for the firebolt CLI.
package cli

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/firebolt-db/firebolt-cli/internal/cli/commands"
	"github.com/firebolt-db/firebolt-cli/internal/cli/config"
	"github.com/firebolt-db/firebolt-cli/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	profileFlag string
	cfg         *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "firebolt",
		Short: "firebolt - command-line client for Firebolt",
		Long: `firebolt is a command-line client for the Firebolt cloud data warehouse.

Run SQL interactively or from scripts, and manage the engines and databases
of your account. Settings are read from the config file, FIREBOLT_
environment variables and flags; run 'firebolt configure' to create one.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			// configure may be pointed at a file it is about to create
			file := cfgFile
			if cmd.Name() == "configure" && file != "" {
				if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
					file = ""
				}
			}

			var err error
			cfg, err = config.LoadConfigWithProfile(file, profileFlag, cmd.Root().PersistentFlags())
			if err != nil {
				return &commands.ExitError{Code: commands.ExitUsage, Err: err}
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			ctx := context.WithValue(cmd.Context(), config.LoggerKey(), logger)

			// Create and store renderer based on output mode
			mode := output.Mode(cfg.OutputFormat)
			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
			ctx = context.WithValue(ctx, rendererKey{}, renderer)
			cmd.SetContext(ctx)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", slog.String("path", configFile))
			}
			if profile := cmp.Or(profileFlag, cfg.Profile); profile != "" {
				logger.Debug("using profile", slog.String("profile", profile))
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &commands.ExitError{Code: commands.ExitUsage, Err: err}
	})

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "Profile from the config file to use")
	commands.ConnectionFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")
	_ = rootCmd.PersistentFlags().MarkHidden("api-endpoint")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputModes, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(commands.BuildInfo{
		Version: Version,
		Commit:  GitCommit,
		Date:    BuildDate,
	}))
	rootCmd.AddCommand(commands.NewConfigureCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewEngineCommand())
	rootCmd.AddCommand(commands.NewDatabaseCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger logs at debug level to w when verbose, and nowhere otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return commands.ExitCode(err)
	}
	return 0
}

// GetConfig retrieves the loaded configuration, or defaults if none was
// loaded.
func GetConfig() *config.Config {
	if cfg != nil {
		return cfg
	}
	return config.Default()
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	// Return default renderer if none in context
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for firebolt.

To load completions:

Bash:
  $ source <(firebolt completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ firebolt completion bash > /etc/bash_completion.d/firebolt
  # macOS:
  $ firebolt completion bash > $(brew --prefix)/etc/bash_completion.d/firebolt

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ firebolt completion zsh > "${fpath[1]}/_firebolt"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ firebolt completion fish | source

  # To load completions for each session, execute once:
  $ firebolt completion fish > ~/.config/fish/completions/firebolt.fish

PowerShell:
  PS> firebolt completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> firebolt completion powershell > firebolt.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}

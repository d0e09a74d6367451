package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/firebolt-db/firebolt-cli/internal/cli/config"
	"github.com/firebolt-db/firebolt-cli/pkg/adapters/firebolt"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// maskedPassword is shown instead of a stored password.
const maskedPassword = "************"

// ConnectionFlags registers the credential flags shared by every command.
func ConnectionFlags(fs *pflag.FlagSet) {
	fs.StringP("username", "u", "", "Firebolt username")
	fs.String("password", "", "Firebolt password")
	fs.String("account-name", "", "Account name (defaults to the user's default account)")
	fs.String("api-endpoint", "", "Management API endpoint")
}

// configureFlags are the flags that switch configure to non-interactive mode.
var configureFlags = []string{
	"username", "password", "password-file", "account-name",
	"api-endpoint", "database-name", "engine-name", "engine-url",
}

// ConfigureOptions holds options for the configure command.
type ConfigureOptions struct {
	DatabaseName string
	EngineName   string
	EngineURL    string
	PasswordFile string
}

// NewConfigureCommand creates the configure command.
func NewConfigureCommand() *cobra.Command {
	opts := &ConfigureOptions{}

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Store default connection settings",
		Long: `Store the username, account, database and engine used by other commands.

Without flags the settings are asked for interactively, showing the current
value in brackets; press Enter to keep it. The password is kept in the
operating system's credential store, never in the config file.`,
		Example: `  # Interactive
  firebolt configure

  # Non-interactive
  firebolt configure --username me@example.com --password-file ~/.fb_pass \
    --database-name analytics --engine-name analytics_ro`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigure(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DatabaseName, "database-name", "", "Default database name")
	cmd.Flags().StringVar(&opts.EngineName, "engine-name", "", "Default engine name")
	cmd.Flags().StringVar(&opts.EngineURL, "engine-url", "", "Default engine URL")
	cmd.Flags().StringVar(&opts.PasswordFile, "password-file", "", "Read the password from a file")

	return cmd
}

func runConfigure(cmd *cobra.Command, opts *ConfigureOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	if opts.EngineName != "" && opts.EngineURL != "" {
		return usageErrorf("engine-name and engine-url are mutually exclusive options. Provide only one")
	}

	var (
		values   map[string]string
		password string
		err      error
	)
	if anyFlagChanged(cmd, configureFlags) {
		values = map[string]string{
			"username":      changedString(cmd, "username"),
			"account_name":  changedString(cmd, "account-name"),
			"api_endpoint":  changedString(cmd, "api-endpoint"),
			"database_name": opts.DatabaseName,
			"engine_name":   opts.EngineName,
			"engine_url":    opts.EngineURL,
		}
		password = changedString(cmd, "password")
		if opts.PasswordFile != "" {
			if password, err = readPasswordFile(opts.PasswordFile); err != nil {
				return withExitCode(ExitUsage, err)
			}
		}
	} else {
		cmdCtx.resolvePassword()
		p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		if values, password, err = promptSettings(p, cfg); err != nil {
			return err
		}
	}

	path := configPath(cmd, cfg)
	result, err := config.Save(path, values)
	if err != nil {
		return err
	}
	cmdCtx.Logger.Debug("config saved", "path", path, "result", result.String())

	if password != "" {
		username := values["username"]
		if username == "" {
			username = cfg.Username
		}
		if err := savePassword(filepath.Dir(path), username, password); err != nil {
			cmdCtx.Renderer.Warning(fmt.Sprintf("Password was not saved: %v", err))
		}
	}

	cmdCtx.Renderer.Success(result.String())
	return nil
}

func savePassword(dir, username, password string) error {
	ring, err := openKeyring(dir)
	if err != nil {
		return err
	}
	return config.StorePassword(ring, username, password)
}

func readPasswordFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided password file
	if err != nil {
		return "", fmt.Errorf("failed to read password file: %w", err)
	}
	password := strings.TrimRight(string(data), "\r\n")
	if password == "" {
		return "", fmt.Errorf("password file %s is empty", path)
	}
	return password, nil
}

// promptSettings asks for every setting, offering the current value as the
// default. The returned password is empty when the user kept the stored one.
func promptSettings(p *prompter, cfg *config.Config) (map[string]string, string, error) {
	values := map[string]string{}
	var err error

	if values["username"], err = p.ask("Username", cfg.Username); err != nil {
		return nil, "", err
	}
	password, err := p.askSecret("Password", cfg.Password != "")
	if err != nil {
		return nil, "", err
	}
	if values["account_name"], err = p.ask("Account name", cfg.AccountName); err != nil {
		return nil, "", err
	}
	if values["database_name"], err = p.ask("Database name", cfg.DatabaseName); err != nil {
		return nil, "", err
	}

	engine, err := p.ask("Engine name or url", cfg.Engine())
	if err != nil {
		return nil, "", err
	}
	if firebolt.IsEngineURL(engine) {
		values["engine_url"] = engine
	} else {
		values["engine_name"] = engine
	}
	return values, password, nil
}

// prompter reads answers line by line from the command's input.
type prompter struct {
	raw io.Reader
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{raw: in, in: bufio.NewReader(in), out: out}
}

func (p *prompter) ask(label, current string) (string, error) {
	if current != "" {
		_, _ = fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	} else {
		_, _ = fmt.Fprintf(p.out, "%s: ", label)
	}
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return current, nil
	}
	return answer, nil
}

// askSecret reads a value without echo when the input is a terminal.
func (p *prompter) askSecret(label string, hasCurrent bool) (string, error) {
	if hasCurrent {
		_, _ = fmt.Fprintf(p.out, "%s [%s]: ", label, maskedPassword)
	} else {
		_, _ = fmt.Fprintf(p.out, "%s: ", label)
	}

	if f, ok := p.raw.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return p.readLine()
}

func (p *prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("input ended before all settings were given")
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func anyFlagChanged(cmd *cobra.Command, names []string) bool {
	for _, name := range names {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			return true
		}
	}
	return false
}

func changedString(cmd *cobra.Command, name string) string {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return ""
	}
	return f.Value.String()
}

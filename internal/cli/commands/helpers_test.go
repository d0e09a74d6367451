package commands

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/firebolt-db/firebolt-cli/internal/cli/config"
	clitestutil "github.com/firebolt-db/firebolt-cli/internal/cli/testutil"
	"github.com/firebolt-db/firebolt-cli/internal/testutil"
	"github.com/spf13/cobra"
)

// useConfig installs cfg as the loaded configuration for the test.
func useConfig(t *testing.T, cfg *config.Config) *config.Config {
	t.Helper()
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = t.TempDir()
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Millisecond
	}
	if cfg.WaitTimeout == 0 {
		cfg.WaitTimeout = 5 * time.Second
	}
	config.SetCurrentConfig(cfg)
	t.Cleanup(config.ResetConfig)
	return cfg
}

// useFakeAPI starts a fake management API and points the configuration at
// it with valid credentials.
func useFakeAPI(t *testing.T) *clitestutil.FakeAPI {
	t.Helper()
	fake := clitestutil.NewFakeAPI(t)
	useConfig(t, &config.Config{
		APIEndpoint:  fake.URL,
		Username:     clitestutil.FakeUsername,
		Password:     clitestutil.FakePassword,
		OutputFormat: "text",
	})
	return fake
}

// useMemoryKeyring swaps the credential store for an in-memory one.
func useMemoryKeyring(t *testing.T) keyring.Keyring {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	prev := openKeyring
	openKeyring = func(string) (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { openKeyring = prev })
	return ring
}

func failingKeyring(string) (keyring.Keyring, error) {
	return nil, errors.New("no backend")
}

// newTestRoot mounts cmd under a root carrying the global flags.
func newTestRoot(cmd *cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "firebolt", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("config", "", "config file")
	ConnectionFlags(root.PersistentFlags())
	root.AddCommand(cmd)
	return root
}

// runCommand executes cmd with args and returns what it wrote.
func runCommand(t *testing.T, cmd *cobra.Command, stdin io.Reader, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := newTestRoot(cmd)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	if stdin == nil {
		stdin = clitestutil.DevNull(t)
	}
	root.SetIn(stdin)
	root.SetArgs(append([]string{cmd.Name()}, args...))
	err = root.ExecuteContext(testutil.LoggerContext(t))
	return out.String(), errOut.String(), err
}

package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/firebolt-db/firebolt-cli/internal/cli/config"
	clitestutil "github.com/firebolt-db/firebolt-cli/internal/cli/testutil"
	"github.com/firebolt-db/firebolt-cli/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain error", base, 1},
		{"usage", usageErrorf("bad flag"), ExitUsage},
		{"wrapped exit error", fmt.Errorf("context: %w", withExitCode(ExitDataErr, base)), ExitDataErr},
		{"first code wins", withExitCode(ExitUnavailable, withExitCode(ExitUsage, base)), ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestWithExitCode(t *testing.T) {
	assert.NoError(t, withExitCode(ExitUsage, nil))

	base := errors.New("boom")
	err := withExitCode(ExitDataErr, base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "boom", err.Error())
}

func TestAPIClient(t *testing.T) {
	t.Run("password from credential store", func(t *testing.T) {
		ring := useMemoryKeyring(t)
		require.NoError(t, config.StorePassword(ring, clitestutil.FakeUsername, clitestutil.FakePassword))
		fake := clitestutil.NewFakeAPI(t)
		cfg := useConfig(t, &config.Config{APIEndpoint: fake.URL, Username: clitestutil.FakeUsername})

		cmdCtx := &CommandContext{Cfg: cfg, Logger: testutil.NewTestLogger(t)}
		client, err := cmdCtx.APIClient()

		require.NoError(t, err)
		assert.Equal(t, clitestutil.FakePassword, cfg.Password)
		_, err = client.AccountID(t.Context())
		require.NoError(t, err)
	})

	t.Run("no password anywhere", func(t *testing.T) {
		useMemoryKeyring(t)
		cfg := useConfig(t, &config.Config{Username: "me@example.com"})

		cmdCtx := &CommandContext{Cfg: cfg, Logger: testutil.NewTestLogger(t)}
		_, err := cmdCtx.APIClient()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "password is not set")
		assert.Equal(t, ExitUsage, ExitCode(err))
	})

	t.Run("credential store unavailable", func(t *testing.T) {
		prev := openKeyring
		openKeyring = failingKeyring
		t.Cleanup(func() { openKeyring = prev })
		cfg := useConfig(t, &config.Config{Username: "me@example.com"})

		cmdCtx := &CommandContext{Cfg: cfg, Logger: testutil.NewTestLogger(t)}
		_, err := cmdCtx.APIClient()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "password is not set")
	})
}

func TestConfigPath(t *testing.T) {
	cmd := &cobra.Command{Use: "configure"}
	cmd.Flags().String("config", "", "")

	cfg := &config.Config{ConfigDir: "/home/me/.config/firebolt"}
	assert.Equal(t, filepath.Join("/home/me/.config/firebolt", config.ConfigFileName), configPath(cmd, cfg))

	require.NoError(t, cmd.Flags().Set("config", "/tmp/custom.yaml"))
	assert.Equal(t, "/tmp/custom.yaml", configPath(cmd, cfg))
}

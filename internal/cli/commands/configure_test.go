package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/99designs/keyring"
	"github.com/firebolt-db/firebolt-cli/internal/cli/config"
	clitestutil "github.com/firebolt-db/firebolt-cli/internal/cli/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func readYAML(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := map[string]any{}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	return doc
}

func storedPassword(t *testing.T, ring keyring.Keyring, username string) string {
	t.Helper()
	pw, err := config.LoadPassword(ring, username)
	require.NoError(t, err)
	return pw
}

func TestConfigure_NonInteractive(t *testing.T) {
	ring := useMemoryKeyring(t)
	useConfig(t, &config.Config{})
	path := filepath.Join(t.TempDir(), "config.yaml")

	stdout, _, err := runCommand(t, NewConfigureCommand(), nil,
		"--config", path, "--username", "me@example.com", "--password", "pw",
		"--account-name", "acme", "--database-name", "analytics", "--engine-name", "analytics_ro")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Created new config file")
	assert.Equal(t, map[string]any{
		"username":      "me@example.com",
		"account_name":  "acme",
		"database_name": "analytics",
		"engine_name":   "analytics_ro",
	}, readYAML(t, path))
	assert.Equal(t, "pw", storedPassword(t, ring, "me@example.com"))
}

func TestConfigure_UpdatesExistingFile(t *testing.T) {
	useMemoryKeyring(t)
	useConfig(t, &config.Config{})
	dir := t.TempDir()
	path := clitestutil.WriteFile(t, dir, "config.yaml", "username: me@example.com\nengine_name: old\nformat: csv\n")

	stdout, _, err := runCommand(t, NewConfigureCommand(), nil,
		"--config", path, "--engine-url", "eng.example.com")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Updated existing config file")
	assert.Equal(t, map[string]any{
		"username":   "me@example.com",
		"engine_url": "eng.example.com",
		"format":     "csv",
	}, readYAML(t, path))
}

func TestConfigure_EngineNameAndURL(t *testing.T) {
	useMemoryKeyring(t)
	useConfig(t, &config.Config{})
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, _, err := runCommand(t, NewConfigureCommand(), nil,
		"--config", path, "--engine-name", "eng", "--engine-url", "eng.example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine-name and engine-url are mutually exclusive options")
	assert.Equal(t, ExitUsage, ExitCode(err))
	assert.NoFileExists(t, path)
}

func TestConfigure_PasswordFile(t *testing.T) {
	ring := useMemoryKeyring(t)
	useConfig(t, &config.Config{})
	dir := t.TempDir()
	pwFile := clitestutil.WriteFile(t, dir, "pass", "s3cret\r\n")
	path := filepath.Join(dir, "config.yaml")

	_, _, err := runCommand(t, NewConfigureCommand(), nil,
		"--config", path, "--username", "me@example.com", "--password-file", pwFile)

	require.NoError(t, err)
	assert.Equal(t, "s3cret", storedPassword(t, ring, "me@example.com"))
	assert.NotContains(t, readYAML(t, path), "password")
}

func TestConfigure_EmptyPasswordFile(t *testing.T) {
	useMemoryKeyring(t)
	useConfig(t, &config.Config{})
	dir := t.TempDir()
	pwFile := clitestutil.WriteFile(t, dir, "pass", "\n")

	_, _, err := runCommand(t, NewConfigureCommand(), nil,
		"--config", filepath.Join(dir, "config.yaml"), "--username", "me@example.com", "--password-file", pwFile)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
	assert.Equal(t, ExitUsage, ExitCode(err))
}

func TestConfigure_KeyringUnavailable(t *testing.T) {
	prev := openKeyring
	openKeyring = failingKeyring
	t.Cleanup(func() { openKeyring = prev })
	useConfig(t, &config.Config{})
	path := filepath.Join(t.TempDir(), "config.yaml")

	stdout, stderr, err := runCommand(t, NewConfigureCommand(), nil,
		"--config", path, "--username", "me@example.com", "--password", "pw")

	require.NoError(t, err)
	assert.Contains(t, stderr, "Password was not saved: no backend")
	assert.Contains(t, stdout, "Created new config file")
	assert.FileExists(t, path)
}

func TestConfigure_Interactive(t *testing.T) {
	ring := useMemoryKeyring(t)
	useConfig(t, &config.Config{})
	path := filepath.Join(t.TempDir(), "config.yaml")
	input := strings.NewReader("me@example.com\npw\nacme\nanalytics\nanalytics-ro.example.com\n")

	stdout, _, err := runCommand(t, NewConfigureCommand(), input, "--config", path)

	require.NoError(t, err)
	for _, prompt := range []string{"Username: ", "Password: ", "Account name: ", "Database name: ", "Engine name or url: "} {
		assert.Contains(t, stdout, prompt)
	}
	assert.Equal(t, map[string]any{
		"username":      "me@example.com",
		"account_name":  "acme",
		"database_name": "analytics",
		"engine_url":    "analytics-ro.example.com",
	}, readYAML(t, path))
	assert.Equal(t, "pw", storedPassword(t, ring, "me@example.com"))
}

func TestConfigure_InteractiveKeepsCurrentValues(t *testing.T) {
	ring := useMemoryKeyring(t)
	require.NoError(t, config.StorePassword(ring, "me@example.com", "old"))
	dir := t.TempDir()
	path := clitestutil.WriteFile(t, dir, "config.yaml", "username: me@example.com\ndatabase_name: analytics\nengine_name: eng\n")
	useConfig(t, &config.Config{
		Username:     "me@example.com",
		DatabaseName: "analytics",
		EngineName:   "eng",
		ConfigDir:    dir,
	})

	stdout, _, err := runCommand(t, NewConfigureCommand(), strings.NewReader("\n\n\n\n\n"), "--config", path)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Username [me@example.com]: ")
	assert.Contains(t, stdout, "Password [************]: ")
	assert.Contains(t, stdout, "Engine name or url [eng]: ")
	assert.Contains(t, stdout, "Updated existing config file")
	assert.Equal(t, map[string]any{
		"username":      "me@example.com",
		"database_name": "analytics",
		"engine_name":   "eng",
	}, readYAML(t, path))
	assert.Equal(t, "old", storedPassword(t, ring, "me@example.com"))
}

func TestConfigure_InteractiveInputEnds(t *testing.T) {
	useMemoryKeyring(t)
	useConfig(t, &config.Config{})
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, _, err := runCommand(t, NewConfigureCommand(), strings.NewReader("me@example.com\n"), "--config", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "input ended before all settings were given")
	assert.NoFileExists(t, path)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Setenv("FIREBOLT_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIEndpoint, cfg.APIEndpoint)
	assert.Equal(t, DefaultAdapter, cfg.Adapter)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultWaitTimeout, cfg.WaitTimeout)
	assert.Empty(t, GetConfigFileUsed())
	assert.Equal(t, filepath.Join(cfg.ConfigDir, HistoryFileName), cfg.HistoryFile)
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, `username: user@example.com
account_name: my_account
database_name: db_1
engine_name: engine_1
poll_interval: 250ms
connection:
  host: localhost
  port: 5433
  options:
    sslmode: require
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, "user@example.com", cfg.Username)
	assert.Equal(t, "my_account", cfg.AccountName)
	assert.Equal(t, "db_1", cfg.DatabaseName)
	assert.Equal(t, "engine_1", cfg.Engine())
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 5433, cfg.Connection.Port)
	assert.Equal(t, "require", cfg.Connection.Options["sslmode"])
}

func TestLoadConfig_RelativeHistoryFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "history_file: sql_history\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "sql_history"), cfg.HistoryFile)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "database_name: from_file\n")
	t.Setenv("FIREBOLT_DATABASE_NAME", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database-name", "", "database")
	require.NoError(t, flags.Set("database-name", "from_flag"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "from_flag", cfg.DatabaseName, "flag value should override config file and env var")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "database_name: from_file\n")
	t.Setenv("FIREBOLT_DATABASE_NAME", "from_env")
	t.Setenv("FIREBOLT_CONNECTION__HOST", "db.internal")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.DatabaseName, "env var should override config file")
	assert.Equal(t, "db.internal", cfg.Connection.Host)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "database_name: from_file\n")
	t.Setenv("FIREBOLT_DATABASE_NAME", "from_env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database-name", "", "database")

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.DatabaseName, "env var should be used when flag is not set")
}

func TestLoadConfigWithProfile(t *testing.T) {
	content := `database_name: prod_db
engine_name: prod_engine
profile: staging
profiles:
  staging:
    database_name: staging_db
  local:
    adapter: duckdb
`

	t.Run("profile from file", func(t *testing.T) {
		ResetConfig()
		cfg, err := LoadConfig(writeConfig(t, content), nil)
		require.NoError(t, err)
		assert.Equal(t, "staging", cfg.Profile)
		assert.Equal(t, "staging_db", cfg.DatabaseName)
		assert.Equal(t, "prod_engine", cfg.EngineName, "values missing from the profile are inherited")
	})

	t.Run("explicit profile wins", func(t *testing.T) {
		ResetConfig()
		cfg, err := LoadConfigWithProfile(writeConfig(t, content), "local", nil)
		require.NoError(t, err)
		assert.Equal(t, "duckdb", cfg.Adapter)
		assert.Equal(t, "prod_db", cfg.DatabaseName)
	})

	t.Run("env beats profile", func(t *testing.T) {
		ResetConfig()
		t.Setenv("FIREBOLT_DATABASE_NAME", "env_db")
		cfg, err := LoadConfig(writeConfig(t, content), nil)
		require.NoError(t, err)
		assert.Equal(t, "env_db", cfg.DatabaseName)
	})

	t.Run("unknown profile", func(t *testing.T) {
		ResetConfig()
		_, err := LoadConfigWithProfile(writeConfig(t, content), "qa", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `profile "qa" not found`)
	})
}

func TestLoadConfig_ExpandsEnvVars(t *testing.T) {
	ResetConfig()
	t.Setenv("TEST_FB_USER", "expanded@example.com")
	path := writeConfig(t, "username: ${TEST_FB_USER}\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "expanded@example.com", cfg.Username)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single variable", "${TEST_VAR_ONE}", "value_one"},
		{"multiple variables", "${TEST_VAR_ONE}/${TEST_VAR_TWO}", "value_one/value_two"},
		{"unset variable stays as-is", "${UNSET_VARIABLE}", "${UNSET_VARIABLE}"},
		{"no variables", "plain string", "plain string"},
		{"empty string", "", ""},
		{"mixed set and unset", "${TEST_VAR_ONE}:${UNSET_VAR}", "value_one:${UNSET_VAR}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func validConfig() Config {
	return Config{
		APIEndpoint:  DefaultAPIEndpoint,
		OutputFormat: DefaultOutput,
		Format:       DefaultFormat,
		PollInterval: DefaultPollInterval,
		WaitTimeout:  DefaultWaitTimeout,
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := validConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("engine name and url", func(t *testing.T) {
		cfg := validConfig()
		cfg.EngineName = "engine_1"
		cfg.EngineURL = "engine-1.example.com"
		err := cfg.Validate()
		require.ErrorIs(t, err, ErrEngineNameAndURL)
	})

	t.Run("reports every problem", func(t *testing.T) {
		cfg := validConfig()
		cfg.APIEndpoint = ""
		cfg.PollInterval = 0
		cfg.OutputFormat = "yaml"
		cfg.Format = "xml"
		err := cfg.Validate()
		require.Error(t, err)

		msg := err.Error()
		assert.Contains(t, msg, "4 errors occurred")
		assert.Contains(t, msg, "api_endpoint is required")
		assert.Contains(t, msg, "poll_interval must be positive")
		assert.Contains(t, msg, `unknown output mode "yaml"`)
		assert.Contains(t, msg, "unknown output format")
	})

	t.Run("file with both engine settings fails to load", func(t *testing.T) {
		ResetConfig()
		_, err := LoadConfig(writeConfig(t, "engine_name: a\nengine_url: a.example.com\n"), nil)
		require.ErrorIs(t, err, ErrEngineNameAndURL)
	})
}

func TestConfig_AdapterConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Username = "u"
	cfg.Password = "p"
	cfg.DatabaseName = "db_1"
	cfg.EngineURL = "engine-1.example.com"

	ac := cfg.AdapterConfig()
	assert.Equal(t, "firebolt", ac.Type)
	assert.Equal(t, "engine-1.example.com", ac.Engine)
	assert.Equal(t, "db_1", ac.Database)

	cfg.Adapter = "postgres"
	cfg.Connection = ConnectionConfig{Host: "localhost", User: "pg", Port: 5432}
	ac = cfg.AdapterConfig()
	assert.Equal(t, "postgres", ac.Type)
	assert.Equal(t, "pg", ac.Username)
	assert.Equal(t, "db_1", ac.Database, "connection database falls back to database_name")
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	res, err := Save(path, map[string]string{
		"username":    "user@example.com",
		"engine_name": "engine_1",
		"password":    "never-written",
	})
	require.NoError(t, err)
	assert.Equal(t, Created, res)
	assert.Equal(t, "Created new config file", res.String())

	res, err = Save(path, map[string]string{
		"engine_url":    "engine-1.example.com",
		"database_name": "",
	})
	require.NoError(t, err)
	assert.Equal(t, Updated, res)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))

	assert.Equal(t, "user@example.com", doc["username"])
	assert.Equal(t, "engine-1.example.com", doc["engine_url"])
	assert.NotContains(t, doc, "engine_name", "engine_url replaces engine_name")
	assert.NotContains(t, doc, "database_name", "empty values are skipped")
	assert.NotContains(t, doc, "password")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestPasswordStore(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)

	pw, err := LoadPassword(ring, "user@example.com")
	require.NoError(t, err)
	assert.Empty(t, pw)

	require.NoError(t, StorePassword(ring, "user@example.com", "secret"))
	pw, err = LoadPassword(ring, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)

	require.Error(t, StorePassword(ring, "", "secret"))
}

func TestResolvePassword(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{{Key: "user@example.com", Data: []byte("stored")}})
	open := func(string) (keyring.Keyring, error) { return ring, nil }

	cfg := validConfig()
	cfg.Username = "user@example.com"
	require.NoError(t, cfg.ResolvePassword(open))
	assert.Equal(t, "stored", cfg.Password)

	cfg.Password = "from-flag"
	require.NoError(t, cfg.ResolvePassword(open))
	assert.Equal(t, "from-flag", cfg.Password, "an explicit password is kept")
}

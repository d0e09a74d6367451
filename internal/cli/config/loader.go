package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// envPrefix is the prefix of environment variables read as configuration.
// A double underscore separates nested keys: FIREBOLT_CONNECTION__HOST.
const envPrefix = "FIREBOLT_"

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// DefaultConfigDir returns the per-user configuration directory,
// $XDG_CONFIG_HOME/firebolt on Linux.
func DefaultConfigDir() string {
	if dir := os.Getenv("FIREBOLT_CONFIG_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ".firebolt"
	}
	return filepath.Join(base, "firebolt")
}

// DefaultConfigPath returns the config file used when --config is not given.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), ConfigFileName)
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > profile > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithProfile(cfgFile, "", flags)
}

// LoadConfigWithProfile loads configuration with an optional profile override.
// Without an override the profile named by FIREBOLT_PROFILE or the file's
// profile key is used, if any.
func LoadConfigWithProfile(cfgFile, profile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"api_endpoint":  DefaultAPIEndpoint,
		"adapter":       DefaultAdapter,
		"verbose":       false,
		"output":        DefaultOutput,
		"format":        DefaultFormat,
		"poll_interval": DefaultPollInterval.String(),
		"wait_timeout":  DefaultWaitTimeout.String(),
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load the config file. An explicit path must exist; the default
	// location is optional.
	explicit := cfgFile != ""
	if !explicit {
		cfgFile = DefaultConfigPath()
	}
	configFileUsed = ""
	if _, err := os.Stat(cfgFile); err == nil {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		configFileUsed = cfgFile
	} else if explicit {
		return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
	}

	// 3. Apply the selected profile on top of the file's top-level values
	if profile == "" {
		profile = os.Getenv(envPrefix + "PROFILE")
	}
	if profile == "" {
		profile = k.String("profile")
	}
	if profile != "" {
		key := "profiles." + profile
		if !k.Exists(key) {
			return nil, fmt.Errorf("profile %q not found in %s", profile, cfgFile)
		}
		if err := k.Load(confmap.Provider(k.Cut(key).All(), "."), nil); err != nil {
			return nil, fmt.Errorf("failed to apply profile %s: %w", profile, err)
		}
	}

	// 4. Load environment variables (FIREBOLT_ prefix)
	// Transform: FIREBOLT_ACCOUNT_NAME -> account_name
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ConfigDir = filepath.Dir(cfgFile)
	switch {
	case cfg.HistoryFile == "":
		cfg.HistoryFile = filepath.Join(cfg.ConfigDir, HistoryFileName)
	case !filepath.IsAbs(cfg.HistoryFile):
		cfg.HistoryFile = filepath.Join(cfg.ConfigDir, cfg.HistoryFile)
	}
	expandConfigEnvVars(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig or LoadConfigWithProfile is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// SetCurrentConfig replaces the loaded configuration. Used for testing.
func SetCurrentConfig(cfg *Config) {
	currentConfig = cfg
}

// Default returns a configuration holding only default values.
func Default() *Config {
	dir := DefaultConfigDir()
	return &Config{
		APIEndpoint:  DefaultAPIEndpoint,
		Adapter:      DefaultAdapter,
		OutputFormat: DefaultOutput,
		Format:       DefaultFormat,
		PollInterval: DefaultPollInterval,
		WaitTimeout:  DefaultWaitTimeout,
		ConfigDir:    dir,
		HistoryFile:  filepath.Join(dir, HistoryFileName),
	}
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR}
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandConfigEnvVars expands environment variables in credential fields.
func expandConfigEnvVars(c *Config) {
	c.Username = expandEnvVars(c.Username)
	c.Password = expandEnvVars(c.Password)
	c.AccountName = expandEnvVars(c.AccountName)
	c.Connection.Host = expandEnvVars(c.Connection.Host)
	c.Connection.User = expandEnvVars(c.Connection.User)
	c.Connection.Password = expandEnvVars(c.Connection.Password)
	c.Connection.Database = expandEnvVars(c.Connection.Database)
}

// Package config provides configuration management for the firebolt CLI.
//
// Settings are layered, from lowest to highest precedence: built-in
// defaults, the YAML config file, the selected profile, FIREBOLT_
// environment variables and explicitly set command-line flags.
package config

import (
	"time"

	"github.com/firebolt-db/firebolt-cli/pkg/adapter"
)

// Config holds all CLI configuration options.
type Config struct {
	Username     string `koanf:"username" yaml:"username,omitempty"`
	Password     string `koanf:"password" yaml:"-"`
	AccountName  string `koanf:"account_name" yaml:"account_name,omitempty"`
	APIEndpoint  string `koanf:"api_endpoint" yaml:"api_endpoint,omitempty"`
	DatabaseName string `koanf:"database_name" yaml:"database_name,omitempty"`
	EngineName   string `koanf:"engine_name" yaml:"engine_name,omitempty"`
	EngineURL    string `koanf:"engine_url" yaml:"engine_url,omitempty"`

	// Adapter selects the query backend. Everything except firebolt reads
	// its settings from Connection.
	Adapter    string           `koanf:"adapter"`
	Connection ConnectionConfig `koanf:"connection"`

	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	Format       string        `koanf:"format"`
	PollInterval time.Duration `koanf:"poll_interval"`
	WaitTimeout  time.Duration `koanf:"wait_timeout"`
	HistoryFile  string        `koanf:"history_file"`

	Profile  string                   `koanf:"profile"`
	Profiles map[string]ProfileConfig `koanf:"profiles"`

	// ConfigDir is the directory holding the config file, history and
	// file-based keyring. Not read from configuration.
	ConfigDir string `koanf:"-"`
}

// ConnectionConfig holds settings for the local and postgres adapters.
type ConnectionConfig struct {
	Path     string            `koanf:"path"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Options  map[string]string `koanf:"options"`
}

// ProfileConfig is a named set of overrides under profiles.<name>.
type ProfileConfig struct {
	Username     string `koanf:"username"`
	AccountName  string `koanf:"account_name"`
	APIEndpoint  string `koanf:"api_endpoint"`
	DatabaseName string `koanf:"database_name"`
	EngineName   string `koanf:"engine_name"`
	EngineURL    string `koanf:"engine_url"`
	Adapter      string `koanf:"adapter"`
}

// Default configuration values.
const (
	DefaultAPIEndpoint  = "api.app.firebolt.io"
	DefaultAdapter      = "firebolt"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=json for structured output
	DefaultFormat       = "grid"
	DefaultPollInterval = 5 * time.Second
	DefaultWaitTimeout  = 15 * time.Minute
	DefaultRegion       = "us-east-1"
	ConfigFileName      = "config.yaml"
	HistoryFileName     = "history"
)

// Engine returns the configured engine reference: the URL when set,
// otherwise the name.
func (c *Config) Engine() string {
	if c.EngineURL != "" {
		return c.EngineURL
	}
	return c.EngineName
}

// AdapterConfig builds the connection settings for the selected adapter.
func (c *Config) AdapterConfig() adapter.Config {
	if c.Adapter == "" || c.Adapter == DefaultAdapter {
		return adapter.Config{
			Type:        DefaultAdapter,
			Database:    c.DatabaseName,
			Username:    c.Username,
			Password:    c.Password,
			Engine:      c.Engine(),
			Account:     c.AccountName,
			APIEndpoint: c.APIEndpoint,
		}
	}

	database := c.Connection.Database
	if database == "" {
		database = c.DatabaseName
	}
	return adapter.Config{
		Type:     c.Adapter,
		Path:     c.Connection.Path,
		Host:     c.Connection.Host,
		Port:     c.Connection.Port,
		Database: database,
		Username: c.Connection.User,
		Password: c.Connection.Password,
		Options:  c.Connection.Options,
	}
}

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/firebolt-db/firebolt-cli/internal/cli/config"
	"github.com/firebolt-db/firebolt-cli/pkg/render"
)

// generateConfigDocs generates the configuration file reference.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := generateConfigurationDoc(outDir); err != nil {
		return fmt.Errorf("failed to generate configuration.md: %w", err)
	}
	log.Printf("  Generated configuration.md")

	return nil
}

// ConfigField represents a configuration key.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
	Category    string // "account", "adapter", "cli"
}

// getConfigSchema mirrors the koanf keys of config.Config.
func getConfigSchema() []ConfigField {
	return []ConfigField{
		{Name: "username", Type: "string", Description: "Account username", Category: "account"},
		{Name: "account_name", Type: "string", Description: "Account name", Category: "account"},
		{Name: "api_endpoint", Type: "string", Default: config.DefaultAPIEndpoint, Description: "Management API host", Category: "account"},
		{Name: "database_name", Type: "string", Description: "Database queries run against", Category: "account"},
		{Name: "engine_name", Type: "string", Description: "Engine queries run on (exclusive with engine_url)", Category: "account"},
		{Name: "engine_url", Type: "string", Description: "Engine endpoint (exclusive with engine_name)", Category: "account"},

		{Name: "adapter", Type: "string", Default: config.DefaultAdapter, Description: "Query backend: firebolt, duckdb, postgres, sqlite", Category: "adapter"},
		{Name: "connection.path", Type: "string", Description: "Database file for duckdb and sqlite (empty means in-memory)", Category: "adapter"},
		{Name: "connection.host", Type: "string", Description: "postgres host", Category: "adapter"},
		{Name: "connection.port", Type: "int", Default: "5432", Description: "postgres port", Category: "adapter"},
		{Name: "connection.database", Type: "string", Description: "postgres database (falls back to database_name)", Category: "adapter"},
		{Name: "connection.user", Type: "string", Description: "postgres user", Category: "adapter"},
		{Name: "connection.password", Type: "string", Description: "postgres password", Category: "adapter"},
		{Name: "connection.options", Type: "map[string]string", Description: "Extra driver options", Category: "adapter"},

		{Name: "output", Type: "string", Default: config.DefaultOutput, Description: "Message style: auto, text, json, markdown", Category: "cli"},
		{Name: "format", Type: "string", Default: config.DefaultFormat, Description: "Result format: " + strings.Join(render.Formats(), ", "), Category: "cli"},
		{Name: "poll_interval", Type: "duration", Default: config.DefaultPollInterval.String(), Description: "Delay between engine status checks", Category: "cli"},
		{Name: "wait_timeout", Type: "duration", Default: config.DefaultWaitTimeout.String(), Description: "Limit for engine start and stop waits", Category: "cli"},
		{Name: "history_file", Type: "string", Default: config.HistoryFileName, Description: "Interactive shell history, relative to the config directory", Category: "cli"},
		{Name: "verbose", Type: "bool", Default: "false", Description: "Debug logging to stderr", Category: "cli"},
		{Name: "profile", Type: "string", Description: "Profile applied on top of the file", Category: "cli"},
		{Name: "profiles", Type: "map[string]profile", Description: "Named overrides of the account and adapter keys", Category: "cli"},
	}
}

func fieldRows(category string) [][]string {
	var rows [][]string
	for _, f := range getConfigSchema() {
		if f.Category != category {
			continue
		}
		defVal := "-"
		if f.Default != "" {
			defVal = InlineCode(f.Default)
		}
		rows = append(rows, []string{InlineCode(f.Name), f.Type, defVal, f.Description})
	}
	return rows
}

// generateConfigurationDoc generates the configuration reference page.
func generateConfigurationDoc(outDir string) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Configuration", "firebolt CLI configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph(fmt.Sprintf("Settings are read from %s in the config directory, "+
		"or from the file given with %s. Environment variables with the %s prefix "+
		"override the file and explicit flags override both.",
		InlineCode(config.ConfigFileName), InlineCode("--config"), InlineCode("FIREBOLT_")))
	w.Paragraph("Passwords are never written to the file. " + InlineCode("firebolt configure") +
		" stores them in the system credential store.")

	headers := []string{"Key", "Type", "Default", "Description"}

	w.Header(2, "Account")
	w.Table(headers, fieldRows("account"))

	w.Header(2, "Adapters")
	w.Paragraph("The firebolt adapter uses the account keys. The other adapters read " + InlineCode("connection") + ".")
	w.Table(headers, fieldRows("adapter"))

	w.Header(2, "CLI")
	w.Table(headers, fieldRows("cli"))

	w.Header(2, "Full Configuration Example")
	w.CodeBlock("yaml", `username: me@example.com
account_name: acme
database_name: analytics
engine_name: analytics_ro
format: grid

profiles:
  local:
    adapter: duckdb
  staging:
    adapter: postgres

connection:
  host: localhost
  port: 5432
  user: analytics`)

	w.Paragraph("Select a profile with " + InlineCode("--profile local") + " or " + InlineCode("FIREBOLT_PROFILE") + ".")

	filename := filepath.Join(outDir, "configuration.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}

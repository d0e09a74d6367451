package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/firebolt-db/firebolt-cli/pkg/render"
	"github.com/hashicorp/go-multierror"
)

// OutputModes lists the accepted values of the output setting.
var OutputModes = []string{"auto", "text", "json", "markdown"}

// ErrEngineNameAndURL is reported when both engine_name and engine_url are set.
var ErrEngineNameAndURL = fmt.Errorf("engine_name and engine_url are mutually exclusive, set only one of them")

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.EngineName != "" && c.EngineURL != "" {
		result = multierror.Append(result, ErrEngineNameAndURL)
	}
	if err := validateEndpoint(c.APIEndpoint); err != nil {
		result = multierror.Append(result, err)
	}
	if c.PollInterval <= 0 {
		result = multierror.Append(result, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if c.WaitTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("wait_timeout must be positive, got %s", c.WaitTimeout))
	}
	if !contains(OutputModes, c.OutputFormat) {
		result = multierror.Append(result, fmt.Errorf("unknown output mode %q (expected one of %s)",
			c.OutputFormat, strings.Join(OutputModes, ", ")))
	}
	if _, err := render.NewFormatter(c.Format); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Connection.Port < 0 || c.Connection.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("connection.port out of range: %d", c.Connection.Port))
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("api_endpoint is required")
	}
	raw := endpoint
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("api_endpoint %q is not a valid URL", endpoint)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

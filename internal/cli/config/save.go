package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveResult reports what Save did to the config file.
type SaveResult int

const (
	// Created means a new config file was written.
	Created SaveResult = iota
	// Updated means an existing config file was rewritten.
	Updated
)

func (r SaveResult) String() string {
	if r == Created {
		return "Created new config file"
	}
	return "Updated existing config file"
}

// exclusiveKeys pairs settings that cannot both be present in the file.
var exclusiveKeys = map[string]string{
	"engine_name": "engine_url",
	"engine_url":  "engine_name",
}

// Save merges values into the YAML config file at path. Empty values leave
// the existing setting untouched. Writing engine_name removes engine_url and
// vice versa. Passwords are never written here; see StorePassword.
func Save(path string, values map[string]string) (SaveResult, error) {
	doc := map[string]any{}
	result := Created

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config file
	switch {
	case err == nil:
		result = Updated
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return result, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case !os.IsNotExist(err):
		return result, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for key, value := range values {
		if value == "" || key == "password" {
			continue
		}
		doc[key] = value
		if other, ok := exclusiveKeys[key]; ok {
			delete(doc, other)
		}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return result, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return result, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return result, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return result, nil
}

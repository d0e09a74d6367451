package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryCommand(t *testing.T) {
	cmd := NewQueryCommand()

	assert.Equal(t, "query", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"file", "csv", "format", "engine-name", "engine-url", "database-name"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "f", cmd.Flags().Lookup("format").Shorthand)
}

func TestNewConfigureCommand(t *testing.T) {
	cmd := NewConfigureCommand()

	assert.Equal(t, "configure", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	// Credentials are global flags on root; only the rest is local.
	for _, flag := range []string{"database-name", "engine-name", "engine-url", "password-file"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Nil(t, cmd.Flags().Lookup("username"))
}

func TestNewEngineCommand(t *testing.T) {
	cmd := NewEngineCommand()

	assert.Equal(t, "engine", cmd.Use)
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"start", "stop", "restart", "status", "create", "drop", "list"}, names)

	for _, action := range []string{"start", "stop", "restart"} {
		sub, _, err := cmd.Find([]string{action})
		require.NoError(t, err)
		assert.NotNil(t, sub.Flags().Lookup("name"), "%s should have --name", action)
		assert.NotNil(t, sub.Flags().Lookup("nowait"), "%s should have --nowait", action)
	}

	create, _, err := cmd.Find([]string{"create"})
	require.NoError(t, err)
	for _, flag := range []string{"name", "database-name", "spec", "region", "description", "type", "scale", "auto-stop", "warmup", "json"} {
		assert.NotNil(t, create.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "ro", create.Flags().Lookup("type").DefValue)
	assert.Equal(t, "20", create.Flags().Lookup("auto-stop").DefValue)
	assert.Equal(t, "ind", create.Flags().Lookup("warmup").DefValue)
}

func TestNewDatabaseCommand(t *testing.T) {
	cmd := NewDatabaseCommand()

	assert.Equal(t, "database", cmd.Use)
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"create", "drop", "list", "describe"}, names)

	drop, _, err := cmd.Find([]string{"drop"})
	require.NoError(t, err)
	assert.Equal(t, "y", drop.Flags().Lookup("yes").Shorthand)
}

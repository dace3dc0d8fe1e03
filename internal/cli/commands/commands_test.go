package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitestutil "github.com/leapstack-labs/catalogsql/internal/cli/testutil"
	"github.com/leapstack-labs/catalogsql/internal/cli/config"
)

// runCommand executes cmd with args under cfg and returns what it wrote to
// stdout and stderr.
func runCommand(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true // mirrors the root command in internal/cli/root.go
	err := cmd.ExecuteContext(clitestutil.TestContext(t, cfg))
	return out.String(), errOut.String(), err
}

// addFile writes content to the slash separated path below root.
func addFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewParseCommand(t *testing.T) {
	cmd := NewParseCommand()

	assert.Equal(t, "parse [files or directories...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range []string{"jobs", "shared-session", "watch"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "4", cmd.Flags().Lookup("jobs").DefValue)
}

func TestNewLocationsCommand(t *testing.T) {
	cmd := NewLocationsCommand()

	assert.Equal(t, "locations [files or directories...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range []string{"lookup", "latest"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewIndexCommand(t *testing.T) {
	cmd := NewIndexCommand()

	assert.Equal(t, "index [files or directories...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Long, "Long should not be empty")

	show, _, err := cmd.Find([]string{"show"})
	require.NoError(t, err)
	assert.Equal(t, "show [run-id]", show.Use)
}

func TestNewShellCommand(t *testing.T) {
	cmd := NewShellCommand()

	assert.Equal(t, "shell", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Long, "Long should not be empty")
}

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCommands(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "foreman version")

	out, err = execute(t, "graph")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")

	out, err = execute(t, "--offline", "run", "--quiet", "--no-summary", "--run-id", "cli-run", "Write a haiku")
	require.NoError(t, err)
	assert.Contains(t, out, "# Write a haiku")

	out, err = execute(t, "--offline", "runs", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "cli-run")

	out, err = execute(t, "--offline", "graph", "cli-run")
	require.NoError(t, err)
	assert.Contains(t, out, "classDef visited")

	out, err = execute(t, "--offline", "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "System is ready!")

	_, err = execute(t, "--offline", "runs", "inspect", "missing")
	assert.Error(t, err)
}

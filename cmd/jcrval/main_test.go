package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_RegistersSubcommands(t *testing.T) {
	root := NewRootCmd()
	names := make([]string, 0, 2)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "validate")
	assert.Contains(t, names, "check")
}

func TestRunCheck_ValidRuleset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.jcr")
	require.NoError(t, os.WriteFile(path, []byte(`integer`), 0o644))

	configMaxDepth = DefaultMaxDepthForTest
	err := runCheck(path)
	assert.NoError(t, err)
}

func TestRunCheck_InvalidRuleset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.jcr")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))

	configMaxDepth = DefaultMaxDepthForTest
	err := runCheck(path)
	assert.Error(t, err)
}

func TestRunCheck_MissingFile(t *testing.T) {
	configMaxDepth = DefaultMaxDepthForTest
	err := runCheck(filepath.Join(t.TempDir(), "does-not-exist.jcr"))
	assert.Error(t, err)
}

// DefaultMaxDepthForTest mirrors the --max-depth default wired in root.go;
// tests set it directly since they construct runCheck without cobra's flag
// parsing.
const DefaultMaxDepthForTest = 1000

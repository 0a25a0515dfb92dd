package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/modelmigrate"
	"github.com/tordrt/modelmigrate/internal/config"
)

const widgetYAML = `entities:
  - name: Widget
    properties:
      - name: Id
        type: int
    primaryKey:
      properties: [Id]
`

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()

	var out, errOut bytes.Buffer
	code := run(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func newProjectDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.yaml"), []byte(widgetYAML), 0o600))
	return dir
}

func TestVersion(t *testing.T) {
	stdout, _, code := runCLI(t, "version")
	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(stdout, "modelmigrate "+modelmigrate.Version.String()))
}

func TestAddDiffListRemove(t *testing.T) {
	dir := newProjectDir(t)
	common := []string{"--project-dir", dir, "--root-namespace", "Shop"}

	stdout, stderr, code := runCLI(t, append([]string{"diff"}, common...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "UP\n  AddEntity Widget\n")

	stdout, stderr, code = runCLI(t, append([]string{"add", "Create"}, common...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "with 3 operations")
	assert.Contains(t, stdout, filepath.Join(dir, "Migrations", "AppModelSnapshot.yaml"))
	assert.Contains(t, stderr, "added migration")

	stdout, stderr, code = runCLI(t, append([]string{"diff"}, common...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "No changes.\n", stdout)

	stdout, stderr, code = runCLI(t, append([]string{"list", "--format", "markdown"}, common...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "_Create | Create | unknown |")

	stdout, stderr, code = runCLI(t, append([]string{"snapshot"}, common...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "ENTITY Widget (PK: Id)\n")

	stdout, stderr, code = runCLI(t, append([]string{"remove"}, common...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Removed "+filepath.Join(dir, "Migrations"))
	assert.Contains(t, stdout, "Removed "+filepath.Join(dir, "Migrations", "AppModelSnapshot.yaml"))

	stdout, _, code = runCLI(t, append([]string{"list"}, common...)...)
	require.Equal(t, exitOK, code)
	assert.Equal(t, "No migrations.\n", stdout)
}

func TestGoLanguage(t *testing.T) {
	dir := newProjectDir(t)
	common := []string{"--project-dir", dir, "--root-namespace", "Shop", "--language", "go"}

	stdout, stderr, code := runCLI(t, append([]string{"add", "Create"}, common...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, filepath.Join(dir, "Migrations", "AppModelSnapshot.go"))

	_, stderr, code = runCLI(t, append([]string{"add", "create"}, common...)...)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "already exists")

	stdout, stderr, code = runCLI(t, append([]string{"list"}, common...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(stdout), "_Create"), stdout)

	stdout, stderr, code = runCLI(t, append([]string{"remove"}, common...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Removed "+filepath.Join(dir, "Migrations", "AppModelSnapshot.go"))

	stdout, _, code = runCLI(t, append([]string{"list"}, common...)...)
	require.Equal(t, exitOK, code)
	assert.Equal(t, "No migrations.\n", stdout)
}

func TestSnapshotOutputDir(t *testing.T) {
	dir := newProjectDir(t)
	out := filepath.Join(t.TempDir(), "docs")
	common := []string{"--project-dir", dir, "--root-namespace", "Shop"}

	_, stderr, code := runCLI(t, append([]string{"add", "Create"}, common...)...)
	require.Equal(t, exitOK, code, stderr)

	stdout, stderr, code := runCLI(t, append([]string{"snapshot", "--output-dir", out, "-f", "markdown"}, common...)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Wrote "+filepath.Join(out, "Widget.md"))
	assert.FileExists(t, filepath.Join(out, "_overview.md"))
}

func TestConfigFile(t *testing.T) {
	dir := newProjectDir(t)
	cfgPath := filepath.Join(t.TempDir(), "modelmigrate.json")
	cfg := fmt.Sprintf(`{
		// project settings
		"project_dir": %q,
		"root_namespace": "Shop",
		"owner": "ShopContext",
	}`, dir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	stdout, stderr, code := runCLI(t, "add", "Create", "--config", cfgPath)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "ShopContextModelSnapshot.yaml")
}

func TestExitCodes(t *testing.T) {
	dir := newProjectDir(t)
	common := []string{"--project-dir", dir, "--root-namespace", "Shop"}

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{"missing name", append([]string{"add"}, common...), exitUsage, "accepts 1 arg(s)"},
		{"invalid name", append([]string{"add", "Add-Orders"}, common...), exitUsage, "valid identifier"},
		{"unknown flag", []string{"list", "--nope"}, exitUsage, "unknown flag"},
		{"no root namespace", []string{"list", "--project-dir", dir}, exitUsage, "root namespace cannot be empty"},
		{"unknown language", append([]string{"list", "--language", "csharp"}, common...), exitUsage, "unknown language"},
		{"unknown format", append([]string{"diff", "--format", "html"}, common...), exitUsage, "invalid format"},
		{"missing config", []string{"list", "--config", filepath.Join(dir, "nope.json")}, exitUsage, "config file not found"},
		{"nothing to remove", append([]string{"remove"}, common...), exitUsage, "no model snapshot found"},
		{"missing model", append([]string{"diff", "--model", "nope.yaml"}, common...), exitFailure, "failed to read model"},
		{"bad history url", append([]string{"list", "--history-url", "oracle://x"}, common...), exitFailure, "invalid database URL scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCLI(t, tt.args...)
			assert.Equal(t, tt.wantCode, code, stderr)
			assert.Contains(t, stderr, tt.wantStderr)
		})
	}
}

func TestExitCode(t *testing.T) {
	_, openErr := modelmigrate.Open(&modelmigrate.Options{ProjectDir: "db"})
	require.Error(t, openErr)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"usage", usageError{errors.New("bad flag")}, exitUsage},
		{"scaffold usage", fmt.Errorf("wrapped: %w", openErr), exitUsage},
		{"config", fmt.Errorf("%w: x.json", config.ErrConfigFileNotFound), exitUsage},
		{"failure", errors.New("connection refused"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

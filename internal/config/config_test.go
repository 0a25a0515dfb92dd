package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(LoadInput{WorkDir: dir, Overrides: Config{RootNamespace: "Shop"}})
	require.NoError(t, err)

	assert.Equal(t, "Shop", cfg.RootNamespace)
	assert.Equal(t, "App", cfg.Owner)
	assert.Equal(t, "yaml", cfg.Language)
	assert.Equal(t, dir, cfg.ProjectDirAbs)
	assert.Equal(t, filepath.Join(dir, "model.yaml"), cfg.ModelPath)
	assert.Empty(t, cfg.Source)
	assert.Empty(t, cfg.HistoryURLs)
}

func TestLoadProjectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	writeFile(t, path, `{
		// Shop schema
		"project_dir": "db",
		"root_namespace": "Shop",
		"owner": "ShopContext",
		"model": "schema/model.yaml",
		"language": "go",
		"history_urls": ["sqlite://shop.db"],
		"history_table": "__History",
	}`)

	cfg, err := Load(LoadInput{WorkDir: dir})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "Shop", cfg.RootNamespace)
	assert.Equal(t, "ShopContext", cfg.Owner)
	assert.Equal(t, "go", cfg.Language)
	assert.Equal(t, []string{"sqlite://shop.db"}, cfg.HistoryURLs)
	assert.Equal(t, "__History", cfg.HistoryTable)
	assert.Equal(t, filepath.Join(dir, "db"), cfg.ProjectDirAbs)
	assert.Equal(t, filepath.Join(dir, "db", "schema", "model.yaml"), cfg.ModelPath)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `{"root_namespace": "FromFile", "owner": "FileContext", "language": "go"}`)
	writeFile(t, filepath.Join(dir, "custom.json"), `{"root_namespace": "FromCustom"}`)

	tests := []struct {
		name       string
		input      LoadInput
		wantRoot   string
		wantOwner  string
		wantLang   string
		wantSource string
	}{
		{
			name:       "project file",
			input:      LoadInput{},
			wantRoot:   "FromFile",
			wantOwner:  "FileContext",
			wantLang:   "go",
			wantSource: filepath.Join(dir, FileName),
		},
		{
			name:       "explicit file replaces project file",
			input:      LoadInput{ConfigPath: "custom.json"},
			wantRoot:   "FromCustom",
			wantOwner:  "App",
			wantLang:   "yaml",
			wantSource: filepath.Join(dir, "custom.json"),
		},
		{
			name:       "flags win",
			input:      LoadInput{Overrides: Config{RootNamespace: "FromFlag", Language: "yaml"}},
			wantRoot:   "FromFlag",
			wantOwner:  "FileContext",
			wantLang:   "yaml",
			wantSource: filepath.Join(dir, FileName),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.WorkDir = dir
			cfg, err := Load(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRoot, cfg.RootNamespace)
			assert.Equal(t, tt.wantOwner, cfg.Owner)
			assert.Equal(t, tt.wantLang, cfg.Language)
			assert.Equal(t, tt.wantSource, cfg.Source)
		})
	}
}

func TestLoadAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(t.TempDir(), "project")
	modelPath := filepath.Join(t.TempDir(), "model.yaml")

	cfg, err := Load(LoadInput{WorkDir: dir, Overrides: Config{
		RootNamespace: "Shop",
		ProjectDir:    project,
		Model:         modelPath,
	}})
	require.NoError(t, err)
	assert.Equal(t, project, cfg.ProjectDirAbs)
	assert.Equal(t, modelPath, cfg.ModelPath)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		input   LoadInput
		wantErr error
	}{
		{
			name:    "explicit file missing",
			input:   LoadInput{ConfigPath: "nonexistent.json"},
			wantErr: ErrConfigFileNotFound,
		},
		{
			name:    "invalid json",
			file:    `{invalid json}`,
			wantErr: ErrConfigInvalid,
		},
		{
			name:    "wrong field type",
			file:    `{"history_urls": "sqlite://shop.db"}`,
			wantErr: ErrConfigInvalid,
		},
		{
			name:    "no root namespace",
			file:    `{"owner": "ShopContext"}`,
			wantErr: ErrRootNamespaceEmpty,
		},
		{
			name:    "unknown language",
			file:    `{"root_namespace": "Shop", "language": "csharp"}`,
			wantErr: ErrUnknownLanguage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != "" {
				writeFile(t, filepath.Join(dir, FileName), tt.file)
			}
			tt.input.WorkDir = dir

			_, err := Load(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "cfg.json"), 0o755))

	_, err := Load(LoadInput{WorkDir: dir, ConfigPath: "cfg.json"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigFileRead)
	var pathErr *fs.PathError
	assert.ErrorAs(t, err, &pathErr)
}

func TestParseAllowsComments(t *testing.T) {
	cfg, err := Parse([]byte(`{
		/* block */ "root_namespace": "Shop", // trailing
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Shop", cfg.RootNamespace)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, Validate(cfg), ErrRootNamespaceEmpty)

	cfg.RootNamespace = "Shop"
	assert.NoError(t, Validate(cfg))

	cfg.Owner = ""
	assert.ErrorIs(t, Validate(cfg), ErrOwnerEmpty)

	cfg.Owner = "App"
	cfg.Language = "ts"
	err := Validate(cfg)
	assert.ErrorIs(t, err, ErrUnknownLanguage)
	assert.Contains(t, err.Error(), "supported: [go yaml]")
}

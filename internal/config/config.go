// Package config loads the project configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/tailscale/hujson"

	"github.com/tordrt/modelmigrate/internal/codegen"
)

// FileName is the default config file name, looked up in the working
// directory.
const FileName = ".modelmigrate.json"

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrRootNamespaceEmpty = errors.New("root namespace cannot be empty")
	ErrOwnerEmpty         = errors.New("owner cannot be empty")
	ErrUnknownLanguage    = errors.New("unknown language")
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	ProjectDir    string   `json:"project_dir,omitempty"`
	RootNamespace string   `json:"root_namespace,omitempty"`
	Owner         string   `json:"owner,omitempty"`
	Model         string   `json:"model,omitempty"`
	Language      string   `json:"language,omitempty"`
	HistoryURLs   []string `json:"history_urls,omitempty"`
	HistoryTable  string   `json:"history_table,omitempty"`

	// Resolved paths (computed, not serialized)
	ProjectDirAbs string `json:"-"`
	ModelPath     string `json:"-"` // Absolute path to the model file

	// Source is the config file that was loaded, empty if none.
	Source string `json:"-"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		ProjectDir: ".",
		Owner:      "App",
		Model:      "model.yaml",
		Language:   "yaml",
	}
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDir    string // if empty, os.Getwd() is used
	ConfigPath string // --config flag value
	Overrides  Config // flag values; zero fields do not override
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Project config file (.modelmigrate.json in the working directory, if it
// exists) or the explicit config file
// 3. CLI overrides.
//
// The model path is resolved against the project directory, which is
// resolved against the working directory.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDir
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default()

	fileCfg, path, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}
	cfg = merge(cfg, fileCfg)
	cfg.Source = path

	cfg = merge(cfg, input.Overrides)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	cfg.ProjectDirAbs = cfg.ProjectDir
	if !filepath.IsAbs(cfg.ProjectDirAbs) {
		cfg.ProjectDirAbs = filepath.Join(workDir, cfg.ProjectDir)
	}
	cfg.ModelPath = cfg.Model
	if !filepath.IsAbs(cfg.ModelPath) {
		cfg.ModelPath = filepath.Join(cfg.ProjectDirAbs, cfg.Model)
	}
	return cfg, nil
}

// loadProjectConfig loads the default project config file or an explicit
// one. An explicit file must exist.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	cfgFile := filepath.Join(workDir, FileName)
	mustExist := false
	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}
		mustExist = true
	}

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
			}
			return Config{}, "", nil
		}
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigFileRead, cfgFile, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, cfgFile, err)
	}
	return cfg, cfgFile, nil
}

// Parse decodes a config file. Comments and trailing commas are allowed.
func Parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.ProjectDir != "" {
		base.ProjectDir = overlay.ProjectDir
	}
	if overlay.RootNamespace != "" {
		base.RootNamespace = overlay.RootNamespace
	}
	if overlay.Owner != "" {
		base.Owner = overlay.Owner
	}
	if overlay.Model != "" {
		base.Model = overlay.Model
	}
	if overlay.Language != "" {
		base.Language = overlay.Language
	}
	if len(overlay.HistoryURLs) > 0 {
		base.HistoryURLs = overlay.HistoryURLs
	}
	if overlay.HistoryTable != "" {
		base.HistoryTable = overlay.HistoryTable
	}
	return base
}

// Validate checks a merged configuration.
func Validate(cfg Config) error {
	if cfg.RootNamespace == "" {
		return ErrRootNamespaceEmpty
	}
	if cfg.Owner == "" {
		return ErrOwnerEmpty
	}
	if !slices.Contains(codegen.Languages(), cfg.Language) {
		return fmt.Errorf("%w: %s (supported: %v)", ErrUnknownLanguage, cfg.Language, codegen.Languages())
	}
	return nil
}

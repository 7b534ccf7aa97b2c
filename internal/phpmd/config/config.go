package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
)

// FileName is the configuration file looked up in the analyzed root.
const FileName = "phpmd.json"

// DataDirEnv overrides the directory holding the rule-set documents.
const DataDirEnv = "PHPMD_DATA_DIR"

// Config represents the configuration for an analysis run.
// It controls rule-set selection, file selection, priority filtering and
// persistence settings. Command line flags take precedence over it.
type Config struct {
	RuleSets        []string `json:"rulesets"`         // Rule-set names or paths.
	Format          string   `json:"format"`           // Report format.
	Suffixes        []string `json:"suffixes"`         // File extensions to analyze.
	Exclude         []string `json:"exclude"`          // Glob patterns of paths to skip.
	MinimumPriority int      `json:"minimum_priority"` // Loosest priority still loaded.
	MaximumPriority int      `json:"maximum_priority"` // Strictest priority still loaded.
	Strict          bool     `json:"strict"`           // Ignore suppression annotations.
	IncludePaths    []string `json:"include_paths"`    // Extra rule-set search directories.
	DataDir         string   `json:"data_dir"`         // Replaces the built-in rule-sets.
	PersistenceDir  string   `json:"persistence_dir"`  // Directory path to store the baseline database.
	BaselineFile    string   `json:"baseline_file"`    // Baseline database, relative to PersistenceDir.
}

// DefaultConfig provides a standard configuration used when no config file is found.
var DefaultConfig = Config{
	RuleSets:        []string{"cleancode", "codesize", "controversial", "design", "naming", "unusedcode"},
	Format:          "text",
	Suffixes:        []string{"php"},
	MinimumPriority: 5,
	MaximumPriority: 1,
	PersistenceDir:  ".phpmd",
	BaselineFile:    "baseline.db",
}

// Default returns a copy of DefaultConfig that is safe to modify.
func Default() *Config {
	cfg := DefaultConfig
	cfg.RuleSets = slices.Clone(DefaultConfig.RuleSets)
	cfg.Suffixes = slices.Clone(DefaultConfig.Suffixes)
	return &cfg
}

// LoadConfig reads and parses the `phpmd.json` configuration file from the specified root directory.
// If the file does not exist or cannot be parsed, it returns an error.
// If the configuration file is found but some fields are missing, it applies default values.
func LoadConfig(rootDir string) (*Config, error) {
	path := filepath.Join(rootDir, FileName)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults if empty
	if len(cfg.RuleSets) == 0 {
		cfg.RuleSets = slices.Clone(DefaultConfig.RuleSets)
	}
	if cfg.Format == "" {
		cfg.Format = DefaultConfig.Format
	}
	if len(cfg.Suffixes) == 0 {
		cfg.Suffixes = slices.Clone(DefaultConfig.Suffixes)
	}
	if cfg.MinimumPriority == 0 {
		cfg.MinimumPriority = DefaultConfig.MinimumPriority
	}
	if cfg.MaximumPriority == 0 {
		cfg.MaximumPriority = DefaultConfig.MaximumPriority
	}
	if cfg.PersistenceDir == "" {
		cfg.PersistenceDir = DefaultConfig.PersistenceDir
	}
	if cfg.BaselineFile == "" {
		cfg.BaselineFile = DefaultConfig.BaselineFile
	}

	return &cfg, nil
}

// Load is LoadConfig with a fallback to the defaults when the file is
// missing, followed by the environment overrides. A file that exists but
// does not parse is still an error.
func Load(rootDir string) (*Config, error) {
	cfg, err := LoadConfig(rootDir)
	if os.IsNotExist(err) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if dir := os.Getenv(DataDirEnv); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

// BaselinePath resolves the baseline database location against rootDir.
func (c *Config) BaselinePath(rootDir string) string {
	if filepath.IsAbs(c.BaselineFile) {
		return c.BaselineFile
	}
	dir := c.PersistenceDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(rootDir, dir)
	}
	return filepath.Join(dir, c.BaselineFile)
}

// Package config provides runtime configuration for the tablekit primitive
// library: where output files land, the CSV dialect, the agent step budget,
// and pass-through model credentials for the calling agent.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultOutputDir    = "resultant"
	DefaultMaxSteps     = 3
	DefaultCSVDelimiter = ","
	DefaultPreviewRows  = 5
)

// ModelConfig holds the language-model settings for the agent driving the
// primitives. The library passes these through untouched.
type ModelConfig struct {
	ID      string `json:"id" yaml:"id"`
	APIKey  string `json:"api_key" yaml:"api_key"`
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// Config represents the full runtime configuration.
type Config struct {
	// OutputDir is the directory transformed files are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	// MaxSteps caps the number of primitive calls an agent run may issue.
	MaxSteps int `json:"max_steps" yaml:"max_steps"`
	// CSVDelimiter is the field delimiter for CSV files, exactly one rune.
	CSVDelimiter string `json:"csv_delimiter" yaml:"csv_delimiter"`
	// PreviewRows is the default row count for preview output.
	PreviewRows int `json:"preview_rows" yaml:"preview_rows"`

	Model ModelConfig `json:"model" yaml:"model"`
}

// NewConfig creates a configuration with default values.
func NewConfig() Config {
	return Config{
		OutputDir:    DefaultOutputDir,
		MaxSteps:     DefaultMaxSteps,
		CSVDelimiter: DefaultCSVDelimiter,
		PreviewRows:  DefaultPreviewRows,
	}
}

// Validate returns an error if the configuration is unusable.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("OutputDir must not be empty")
	}

	if c.MaxSteps <= 0 {
		return fmt.Errorf("MaxSteps must be positive, got %d", c.MaxSteps)
	}

	if utf8.RuneCountInString(c.CSVDelimiter) != 1 {
		return fmt.Errorf("CSVDelimiter must be a single character, got %q", c.CSVDelimiter)
	}

	if c.PreviewRows <= 0 {
		return fmt.Errorf("PreviewRows must be positive, got %d", c.PreviewRows)
	}

	return nil
}

// Delimiter returns the CSV delimiter as a rune, falling back to comma when
// the field is unset.
func (c *Config) Delimiter() rune {
	if c.CSVDelimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(c.CSVDelimiter)
	return r
}

// WithDefaults returns a copy with default values filled in for zero values.
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.OutputDir == "" {
		c.OutputDir = defaults.OutputDir
	}
	if c.MaxSteps == 0 {
		c.MaxSteps = defaults.MaxSteps
	}
	if c.CSVDelimiter == "" {
		c.CSVDelimiter = defaults.CSVDelimiter
	}
	if c.PreviewRows == 0 {
		c.PreviewRows = defaults.PreviewRows
	}

	return c
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv starts from defaults and applies TABLEKIT_* environment
// overrides.
func LoadFromEnv() Config {
	return NewConfig().ApplyEnv()
}

// ApplyEnv overlays TABLEKIT_* environment variables onto the configuration
// and returns the result. Unset variables leave fields unchanged.
func (c Config) ApplyEnv() Config {
	if val := os.Getenv("TABLEKIT_OUTPUT_DIR"); val != "" {
		c.OutputDir = val
	}

	if val := os.Getenv("TABLEKIT_MAX_STEPS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			c.MaxSteps = parsed
		}
	}

	if val := os.Getenv("TABLEKIT_CSV_DELIMITER"); val != "" {
		c.CSVDelimiter = val
	}

	if val := os.Getenv("TABLEKIT_PREVIEW_ROWS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			c.PreviewRows = parsed
		}
	}

	if val := os.Getenv("TABLEKIT_MODEL_ID"); val != "" {
		c.Model.ID = val
	}

	if val := os.Getenv("TABLEKIT_MODEL_API_KEY"); val != "" {
		c.Model.APIKey = val
	}

	if val := os.Getenv("TABLEKIT_MODEL_BASE_URL"); val != "" {
		c.Model.BaseURL = val
	}

	return c
}

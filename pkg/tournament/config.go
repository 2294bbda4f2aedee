// Package tournament provides the session driver, configuration, and
// persistence for interactive name tournaments. A session owns the item
// list, the rating records, and the append-only match history, and drives
// the sorter with verdicts obtained from a Voter.
package tournament

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/guitarbeat/namerank/pkg/rating"
)

// Error types for configuration validation
var (
	ErrInvalidRunConfig    = errors.New("invalid tournament configuration")
	ErrInvalidExportConfig = errors.New("invalid export configuration")
	ErrConfigNotFound      = errors.New("configuration file not found")
	ErrConfigParseError    = errors.New("failed to parse configuration file")
)

// Config is the top-level configuration for a tournament
type Config struct {
	Rating rating.Config `yaml:"rating" json:"rating"`
	Run    RunConfig     `yaml:"run" json:"run"`
	Export ExportConfig  `yaml:"export" json:"export"`
	UI     UIConfig      `yaml:"ui" json:"ui"`
}

// RunConfig holds settings that govern a single tournament run
type RunConfig struct {
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`         // Wall-clock limit for a run (default 5m)
	AutoSave   bool          `yaml:"auto_save" json:"auto_save"`     // Save the session after every match
	SessionDir string        `yaml:"session_dir" json:"session_dir"` // Directory for session files
}

// ExportConfig holds output format settings
type ExportConfig struct {
	Format        string `yaml:"format" json:"format"`                 // Output format (csv/json)
	RoundDecimals int    `yaml:"round_decimals" json:"round_decimals"` // Decimal places for exported ratings
}

// UIConfig holds terminal interface preferences
type UIConfig struct {
	Plain        bool `yaml:"plain" json:"plain"`                 // Use the stdin prompt instead of the TUI
	ShowProgress bool `yaml:"show_progress" json:"show_progress"` // Display progress indicators
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Rating: rating.DefaultConfig(),
		Run:    DefaultRunConfig(),
		Export: DefaultExportConfig(),
		UI:     DefaultUIConfig(),
	}
}

// DefaultRunConfig returns tournament run defaults
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Timeout:    5 * time.Minute,
		AutoSave:   true,
		SessionDir: "sessions",
	}
}

// DefaultExportConfig returns export format defaults
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		Format:        "csv",
		RoundDecimals: 0,
	}
}

// DefaultUIConfig returns terminal interface defaults
func DefaultUIConfig() UIConfig {
	return UIConfig{
		Plain:        false,
		ShowProgress: true,
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := c.Rating.Validate(); err != nil {
		return fmt.Errorf("rating config validation failed: %w", err)
	}
	if err := c.Run.Validate(); err != nil {
		return fmt.Errorf("run config validation failed: %w", err)
	}
	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export config validation failed: %w", err)
	}
	return nil
}

// Validate checks that run configuration is valid
func (r *RunConfig) Validate() error {
	if r.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidRunConfig, r.Timeout)
	}
	if r.Timeout > 24*time.Hour {
		return fmt.Errorf("%w: timeout %v is unusually long", ErrInvalidRunConfig, r.Timeout)
	}
	if r.SessionDir == "" {
		return fmt.Errorf("%w: session_dir cannot be empty", ErrInvalidRunConfig)
	}
	return nil
}

// Validate checks that export configuration is valid
func (e *ExportConfig) Validate() error {
	validFormats := map[string]bool{
		"csv":  true,
		"json": true,
	}
	if !validFormats[e.Format] {
		return fmt.Errorf("%w: format '%s' must be one of: csv, json", ErrInvalidExportConfig, e.Format)
	}
	if e.RoundDecimals < 0 || e.RoundDecimals > 10 {
		return fmt.Errorf("%w: round_decimals %d must be between 0 and 10", ErrInvalidExportConfig, e.RoundDecimals)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, filename, err)
	}

	config := DefaultConfig()
	file.overlay(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filename, err)
	}

	return &config, nil
}

// LoadWithEnvironment loads configuration from file and applies environment
// variable overrides. A missing file falls back to defaults.
func LoadWithEnvironment(filename string) (*Config, error) {
	config := DefaultConfig()

	if filename != "" {
		fileConfig, err := LoadFromFile(filename)
		if err != nil && !errors.Is(err, ErrConfigNotFound) {
			return nil, err
		}
		if err == nil {
			config = *fileConfig
		}
	}

	applyEnvironmentOverrides(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid final configuration: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}

	return nil
}

// fileConfig mirrors Config with optional fields so that a value present in
// the file, even when zero, is distinguishable from one that is absent
type fileConfig struct {
	Rating struct {
		InitialRating  *float64 `yaml:"initial_rating"`
		KFactor        *float64 `yaml:"k_factor"`
		MinRating      *float64 `yaml:"min_rating"`
		MaxRating      *float64 `yaml:"max_rating"`
		NewPlayerGames *int     `yaml:"new_player_games"`
		NewPlayerBoost *float64 `yaml:"new_player_boost"`
		ExtremeBoost   *float64 `yaml:"extreme_boost"`
		NormalBandMin  *float64 `yaml:"normal_band_min"`
		NormalBandMax  *float64 `yaml:"normal_band_max"`
	} `yaml:"rating"`
	Run struct {
		Timeout    *time.Duration `yaml:"timeout"`
		AutoSave   *bool          `yaml:"auto_save"`
		SessionDir *string        `yaml:"session_dir"`
	} `yaml:"run"`
	Export struct {
		Format        *string `yaml:"format"`
		RoundDecimals *int    `yaml:"round_decimals"`
	} `yaml:"export"`
	UI struct {
		Plain        *bool `yaml:"plain"`
		ShowProgress *bool `yaml:"show_progress"`
	} `yaml:"ui"`
}

// overlay applies every field the file provided onto config
func (f *fileConfig) overlay(config *Config) {
	setFloat(&config.Rating.InitialRating, f.Rating.InitialRating)
	setFloat(&config.Rating.KFactor, f.Rating.KFactor)
	setFloat(&config.Rating.MinRating, f.Rating.MinRating)
	setFloat(&config.Rating.MaxRating, f.Rating.MaxRating)
	setInt(&config.Rating.NewPlayerGames, f.Rating.NewPlayerGames)
	setFloat(&config.Rating.NewPlayerBoost, f.Rating.NewPlayerBoost)
	setFloat(&config.Rating.ExtremeBoost, f.Rating.ExtremeBoost)
	setFloat(&config.Rating.NormalBandMin, f.Rating.NormalBandMin)
	setFloat(&config.Rating.NormalBandMax, f.Rating.NormalBandMax)

	if f.Run.Timeout != nil {
		config.Run.Timeout = *f.Run.Timeout
	}
	setBool(&config.Run.AutoSave, f.Run.AutoSave)
	setString(&config.Run.SessionDir, f.Run.SessionDir)

	setString(&config.Export.Format, f.Export.Format)
	setInt(&config.Export.RoundDecimals, f.Export.RoundDecimals)

	setBool(&config.UI.Plain, f.UI.Plain)
	setBool(&config.UI.ShowProgress, f.UI.ShowProgress)
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// mergeWithDefaults fills in missing values with defaults. Used when
// restoring session snapshots, whose configs are written out in full; the
// zero checks only paper over fields missing from old snapshot files.
func mergeWithDefaults(config Config) Config {
	defaults := DefaultConfig()

	if config.Rating.InitialRating == 0 {
		config.Rating.InitialRating = defaults.Rating.InitialRating
	}
	if config.Rating.KFactor == 0 {
		config.Rating.KFactor = defaults.Rating.KFactor
	}
	if config.Rating.MaxRating == 0 {
		config.Rating.MaxRating = defaults.Rating.MaxRating
	}
	if config.Rating.MinRating == 0 {
		config.Rating.MinRating = defaults.Rating.MinRating
	}
	if config.Rating.NewPlayerGames == 0 {
		config.Rating.NewPlayerGames = defaults.Rating.NewPlayerGames
	}
	if config.Rating.NewPlayerBoost == 0 {
		config.Rating.NewPlayerBoost = defaults.Rating.NewPlayerBoost
	}
	if config.Rating.ExtremeBoost == 0 {
		config.Rating.ExtremeBoost = defaults.Rating.ExtremeBoost
	}
	if config.Rating.NormalBandMin == 0 {
		config.Rating.NormalBandMin = defaults.Rating.NormalBandMin
	}
	if config.Rating.NormalBandMax == 0 {
		config.Rating.NormalBandMax = defaults.Rating.NormalBandMax
	}

	if config.Run.Timeout == 0 {
		config.Run.Timeout = defaults.Run.Timeout
	}
	if config.Run.SessionDir == "" {
		config.Run.SessionDir = defaults.Run.SessionDir
	}

	if config.Export.Format == "" {
		config.Export.Format = defaults.Export.Format
	}

	return config
}

// applyEnvironmentOverrides applies NAMERANK_* environment variable overrides
func applyEnvironmentOverrides(config *Config) {
	// Rating configuration overrides
	if val := os.Getenv("NAMERANK_RATING_INITIAL_RATING"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.Rating.InitialRating = parsed
		}
	}
	if val := os.Getenv("NAMERANK_RATING_K_FACTOR"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.Rating.KFactor = parsed
		}
	}
	if val := os.Getenv("NAMERANK_RATING_MIN_RATING"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.Rating.MinRating = parsed
		}
	}
	if val := os.Getenv("NAMERANK_RATING_MAX_RATING"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.Rating.MaxRating = parsed
		}
	}

	// Run configuration overrides
	if val := os.Getenv("NAMERANK_RUN_TIMEOUT"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			config.Run.Timeout = parsed
		}
	}
	if val := os.Getenv("NAMERANK_RUN_AUTO_SAVE"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.Run.AutoSave = parsed
		}
	}
	if val := os.Getenv("NAMERANK_RUN_SESSION_DIR"); val != "" {
		config.Run.SessionDir = val
	}

	// Export configuration overrides
	if val := os.Getenv("NAMERANK_EXPORT_FORMAT"); val != "" {
		config.Export.Format = val
	}
	if val := os.Getenv("NAMERANK_EXPORT_ROUND_DECIMALS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Export.RoundDecimals = parsed
		}
	}

	// UI configuration overrides
	if val := os.Getenv("NAMERANK_UI_PLAIN"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.UI.Plain = parsed
		}
	}
	if val := os.Getenv("NAMERANK_UI_SHOW_PROGRESS"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.UI.ShowProgress = parsed
		}
	}
}

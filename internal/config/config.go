package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/cocoprune/internal/logging"
)

// Config represents the complete cocoprune configuration
type Config struct {
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// OutputConfig controls how the cleaned document and the run summary are written
type OutputConfig struct {
	// Indent is the number of spaces used when writing to a separate output file (default: 2)
	Indent int `mapstructure:"indent"`
	// PrettyInPlace indents the document even when overwriting the source file.
	// When false (default), in-place writes are compact.
	PrettyInPlace bool `mapstructure:"pretty_in_place"`
	// Atomic writes to a temporary file and renames it over the destination (default: true)
	Atomic bool `mapstructure:"atomic"`
	// Format is the summary format: "text", "json" or "yaml" (default: "text")
	Format string `mapstructure:"format"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory receiving cocoprune.log. Empty disables logging.
	Dir string `mapstructure:"dir"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Indent:        2,
			PrettyInPlace: false,
			Atomic:        true,
			Format:        "text",
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("output.indent", defaults.Output.Indent)
	viper.SetDefault("output.pretty_in_place", defaults.Output.PrettyInPlace)
	viper.SetDefault("output.atomic", defaults.Output.Atomic)
	viper.SetDefault("output.format", defaults.Output.Format)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Load reads the configuration from viper into a Config struct, validates it
// and normalizes the log level to its canonical upper-case form.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	cfg.Logging.Level = logging.ParseLevel(cfg.Logging.Level)

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cocoprune")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cocoprune"
	}
	return filepath.Join(home, ".config", "cocoprune")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidFormats returns the list of valid summary formats
func ValidFormats() []string {
	return []string{"text", "json", "yaml"}
}

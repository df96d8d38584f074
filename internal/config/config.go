// Package config resolves graha's runtime settings from .graha.yaml,
// GRAHA_* environment variables, and command-line flags bound through
// viper, then validates the result.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	Output string `mapstructure:"output" validate:"required"`
}

// Config holds all runtime configuration for a graha invocation.
type Config struct {
	// Catalog is a catalogue file; empty selects the embedded default.
	Catalog          string    `mapstructure:"catalog"`
	Output           string    `mapstructure:"output" validate:"oneof=json table"`
	TelemetryPath    string    `mapstructure:"telemetry_path"`
	MetricsPath      string    `mapstructure:"metrics_path"`
	DisabledPatterns []string  `mapstructure:"disabled_patterns" validate:"dive,required"`
	ReturnTolerance  float64   `mapstructure:"return_tolerance" validate:"gte=0,lte=180"`
	Concurrency      int       `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	Log              LogConfig `mapstructure:"log"`
}

// SetDefaults registers the built-in default for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("catalog", "")
	v.SetDefault("output", "json")
	v.SetDefault("telemetry_path", "")
	v.SetDefault("metrics_path", "")
	v.SetDefault("disabled_patterns", []string{})
	v.SetDefault("return_tolerance", 0.0)
	v.SetDefault("concurrency", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
}

// Load reads configuration from the global viper instance, applying
// built-in defaults for any values not set by config file, environment, or
// flags.
func Load() (Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load against an explicit viper instance.
func LoadFrom(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints. The error lists every offending field.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

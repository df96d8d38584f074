package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/viper"
)

// newViper returns an isolated viper configured the way the CLI configures
// the global instance.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("GRAHA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(viper.New())
	if err != nil {
		t.Fatalf("LoadFrom() returned unexpected error: %v", err)
	}

	want := Config{
		Output:           "json",
		DisabledPatterns: []string{},
		Concurrency:      4,
		Log:              LogConfig{Level: "info", Format: "text", Output: "stderr"},
	}
	if diff := cmp.Diff(want, cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_GlobalViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("output", "table")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Output != "table" {
		t.Errorf("Output = %q, want table", cfg.Output)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "catalog",
			envKey: "GRAHA_CATALOG",
			envVal: "/etc/graha/rules.toml",
			field:  func(c Config) any { return c.Catalog },
			want:   "/etc/graha/rules.toml",
		},
		{
			name:   "output",
			envKey: "GRAHA_OUTPUT",
			envVal: "table",
			field:  func(c Config) any { return c.Output },
			want:   "table",
		},
		{
			name:   "log level",
			envKey: "GRAHA_LOG_LEVEL",
			envVal: "debug",
			field:  func(c Config) any { return c.Log.Level },
			want:   "debug",
		},
		{
			name:   "return tolerance",
			envKey: "GRAHA_RETURN_TOLERANCE",
			envVal: "2.5",
			field:  func(c Config) any { return c.ReturnTolerance },
			want:   2.5,
		},
		{
			name:   "concurrency",
			envKey: "GRAHA_CONCURRENCY",
			envVal: "8",
			field:  func(c Config) any { return c.Concurrency },
			want:   8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envKey, tt.envVal)
			cfg, err := LoadFrom(newViper())
			if err != nil {
				t.Fatalf("LoadFrom: %v", err)
			}
			if got := tt.field(cfg); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoad_DisabledPatternsFromEnv(t *testing.T) {
	t.Setenv("GRAHA_DISABLED_PATTERNS", "yuti,nakta")

	cfg, err := LoadFrom(newViper())
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if diff := cmp.Diff([]string{"yuti", "nakta"}, cfg.DisabledPatterns); diff != "" {
		t.Errorf("DisabledPatterns mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".graha.yaml")
	data := "output: table\nlog:\n  level: warn\n  format: json\ndisabled_patterns: [durdhara]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}
	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Output != "table" || cfg.Log.Level != "warn" || cfg.Log.Format != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
	if diff := cmp.Diff([]string{"durdhara"}, cfg.DisabledPatterns); diff != "" {
		t.Errorf("DisabledPatterns mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key   string
		value any
	}{
		{"output", "xml"},
		{"log.level", "loud"},
		{"log.format", "logfmt"},
		{"log.output", ""},
		{"return_tolerance", -1.0},
		{"concurrency", 0},
		{"disabled_patterns", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			v := viper.New()
			v.Set(tt.key, tt.value)
			if _, err := LoadFrom(v); err == nil {
				t.Errorf("%s=%v: expected a validation error", tt.key, tt.value)
			}
		})
	}
}

// Package cmd implements the graha command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "graha",
	Short: "Rule-driven astrological chart analysis",
	Long: `graha analyses charts of body longitudes against a catalogue of rules:
aspects between bodies, house placement, multi-body patterns, derived
points, and returns to natal positions.`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// configFlags maps each config key to the persistent flag that sets it.
var configFlags = map[string]string{
	"catalog":           "catalog",
	"output":            "output",
	"log.level":         "log-level",
	"log.format":        "log-format",
	"log.output":        "log-output",
	"telemetry_path":    "telemetry",
	"metrics_path":      "metrics",
	"disabled_patterns": "disable",
	"return_tolerance":  "return-tolerance",
	"concurrency":       "concurrency",
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .graha.yaml)")
	pf.String("catalog", "", "catalogue file, TOML or YAML (default: embedded catalogue)")
	pf.StringP("output", "o", "json", "report format: json or table")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("log-output", "stderr", "log destination: stderr, stdout, or a file path")
	pf.String("telemetry", "", "append JSONL telemetry events to this file")
	pf.String("metrics", "", "write Prometheus metrics to this textfile")
	pf.StringSlice("disable", nil, "pattern names to disable")
	pf.Float64("return-tolerance", 0, "override the catalogue's return tolerance in degrees")
	pf.IntP("concurrency", "j", 4, "charts analysed in parallel")

	for key, flag := range configFlags {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".graha")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("GRAHA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/ayusman/gesturebench/internal/config"
)

var (
	configPath string
	envFile    string
	logLevel   string
	dataDir    string
)

var rootCmd = &cobra.Command{
	Use:          "gesturebench",
	Short:        "Benchmark hand gesture vocabularies against scripted workflows",
	Version:      GetVersion(),
	SilenceUsage: true,
	Long: `gesturebench measures how reliably a presenter can drive slides with hand
gestures. Each workflow is a scripted sequence of gestures; the benchmark
times how long a user takes to perform it and logs every misclassification.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (YAML, TOML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for the database and CSV reports")
}

func setupVersion() {
	rootCmd.SetVersionTemplate(GetVersionInfo() + "\n")
}

func Execute() {
	setupVersion()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// loadConfig reads the env file and the config file, then applies the
// global flag overrides.
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := config.LoadEnvFiles(envFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

// newLogger logs to out at the given level. Unknown levels fall back to info.
func newLogger(level string, out io.Writer) hclog.Logger {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "gesturebench",
		Level:  lvl,
		Output: out,
	})
}

// findWebDir searches for the status page assets in common locations.
// It checks "web", "../web", "../../web" and the web directory under the
// data directory, returning the first that exists or "" if none do.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	dataWeb := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWeb); err == nil && info.IsDir() {
		return dataWeb
	}
	return ""
}

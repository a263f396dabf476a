// Package config loads gesturebench settings from YAML, TOML or JSON files,
// fills unset values from built-in defaults and applies GESTUREBENCH_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/gesturebench/internal/capture"
	"github.com/ayusman/gesturebench/internal/detector"
	"github.com/ayusman/gesturebench/internal/gesture"
	"github.com/ayusman/gesturebench/internal/plugin"
	"github.com/ayusman/gesturebench/internal/workflow"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GESTUREBENCH_"

// ErrUnsupportedFormat is returned for config files that are not YAML, TOML or JSON.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Duration is a time.Duration written as "2s" or "1500ms" in config files.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds every setting of a benchmark session.
type Config struct {
	LogLevel  string `yaml:"log_level" toml:"log_level" json:"log_level"`
	DataDir   string `yaml:"data_dir" toml:"data_dir" json:"data_dir"`
	PluginDir string `yaml:"plugin_dir" toml:"plugin_dir" json:"plugin_dir"`
	HTTPAddr  string `yaml:"http_addr" toml:"http_addr" json:"http_addr"`

	Cooldown       Duration `yaml:"cooldown" toml:"cooldown" json:"cooldown"`
	TickTimeout    Duration `yaml:"tick_timeout" toml:"tick_timeout" json:"tick_timeout"`
	ActionTimeout  Duration `yaml:"action_timeout" toml:"action_timeout" json:"action_timeout"`
	FalseNegatives string   `yaml:"false_negatives" toml:"false_negatives" json:"false_negatives"`

	// Order is one of in-order, shuffled or families.
	Order string `yaml:"order" toml:"order" json:"order"`
	Seed  uint64 `yaml:"seed" toml:"seed" json:"seed"`

	MotionThreshold float64         `yaml:"motion_threshold" toml:"motion_threshold" json:"motion_threshold"`
	Camera          capture.Config  `yaml:"camera" toml:"camera" json:"camera"`
	Detector        detector.Config `yaml:"detector" toml:"detector" json:"detector"`

	// Bindings overlay the default keyboard bindings, keyed by gesture name.
	Bindings  map[string]plugin.Binding `yaml:"bindings" toml:"bindings" json:"bindings"`
	Workflows []workflow.Workflow       `yaml:"workflows" toml:"workflows" json:"workflows"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := ".gesturebench"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".gesturebench")
	}

	return &Config{
		LogLevel:        "info",
		DataDir:         dataDir,
		PluginDir:       filepath.Join(dataDir, "plugins"),
		HTTPAddr:        "127.0.0.1:8765",
		Cooldown:        Duration(workflow.DefaultCooldown),
		TickTimeout:     Duration(5 * time.Second),
		ActionTimeout:   Duration(plugin.DefaultTimeout),
		FalseNegatives:  string(workflow.IgnoreFalseNegatives),
		Order:           "families",
		MotionThreshold: capture.DefaultStillThreshold,
		Camera:          capture.DefaultConfig(),
		Detector:        detector.DefaultConfig(),
		Workflows:       DefaultWorkflows(),
	}
}

// Load reads the config file at path, fills unset values from Default and
// applies environment overrides. An empty path loads the defaults only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := mergo.Merge(cfg, Default()); err != nil {
		return nil, fmt.Errorf("merge defaults: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillWorkflowDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFiles loads KEY=value pairs from the given .env files into the
// process environment without overriding variables that are already set.
// Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides scalar settings from GESTUREBENCH_* variables.
func (c *Config) applyEnv() error {
	str := map[string]*string{
		"LOG_LEVEL":       &c.LogLevel,
		"DATA_DIR":        &c.DataDir,
		"PLUGIN_DIR":      &c.PluginDir,
		"HTTP_ADDR":       &c.HTTPAddr,
		"FALSE_NEGATIVES": &c.FalseNegatives,
		"ORDER":           &c.Order,
		"DETECTOR_SCRIPT": &c.Detector.Script,
		"PYTHON":          &c.Detector.Python,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	durations := map[string]*Duration{
		"COOLDOWN":       &c.Cooldown,
		"TICK_TIMEOUT":   &c.TickTimeout,
		"ACTION_TIMEOUT": &c.ActionTimeout,
	}
	for key, dst := range durations {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", EnvPrefix, err)
		}
		c.Seed = seed
	}
	if v, ok := os.LookupEnv(EnvPrefix + "CAMERA_ID"); ok {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCAMERA_ID: %w", EnvPrefix, err)
		}
		c.Camera.DeviceID = id
	}
	return nil
}

// fillWorkflowDefaults gives workflows without a start gesture the start
// gesture of their profile.
func (c *Config) fillWorkflowDefaults() {
	for i := range c.Workflows {
		wf := &c.Workflows[i]
		if wf.Start == "" && wf.Profile.Kind != "" {
			wf.Start = wf.Profile.StartLabel()
		}
	}
}

// Validate checks the loaded settings.
func (c *Config) Validate() error {
	if c.Cooldown <= 0 {
		return fmt.Errorf("cooldown must be positive, got %s", c.Cooldown.Std())
	}
	if c.TickTimeout <= 0 {
		return fmt.Errorf("tick_timeout must be positive, got %s", c.TickTimeout.Std())
	}
	if _, err := workflow.ParseFalseNegativePolicy(c.FalseNegatives); err != nil {
		return err
	}
	if _, err := c.ActionBindings(); err != nil {
		return err
	}

	names := make(map[string]bool, len(c.Workflows))
	for i := range c.Workflows {
		wf := &c.Workflows[i]
		if wf.Name == "" {
			return fmt.Errorf("%w: workflow %d has no name", workflow.ErrInvalidWorkflow, i+1)
		}
		if names[wf.Name] {
			return fmt.Errorf("%w: duplicate workflow name %q", workflow.ErrInvalidWorkflow, wf.Name)
		}
		names[wf.Name] = true
		if err := wf.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Policy returns the false negative policy.
func (c *Config) Policy() workflow.FalseNegativePolicy {
	p, err := workflow.ParseFalseNegativePolicy(c.FalseNegatives)
	if err != nil {
		return workflow.IgnoreFalseNegatives
	}
	return p
}

// ActionBindings returns the default bindings overlaid with the configured
// ones. Gesture names accept the same aliases as workflow scripts.
func (c *Config) ActionBindings() (plugin.Bindings, error) {
	bindings := plugin.DefaultBindings()
	for name, b := range c.Bindings {
		label, err := gesture.ParseLabel(name)
		if err != nil {
			return nil, fmt.Errorf("bindings: %w", err)
		}
		if !label.Known() {
			return nil, fmt.Errorf("bindings: %s cannot be bound", label)
		}
		if b.Plugin == "" || b.Action == "" {
			return nil, fmt.Errorf("bindings: %s needs a plugin and an action", label)
		}
		bindings[label] = b
	}
	return bindings, nil
}

// WorkflowList returns pointers to the configured workflows, optionally
// filtered by name or family.
func (c *Config) WorkflowList(filter ...string) []*workflow.Workflow {
	want := make(map[string]bool, len(filter))
	for _, f := range filter {
		want[strings.ToLower(f)] = true
	}

	var out []*workflow.Workflow
	for i := range c.Workflows {
		wf := &c.Workflows[i]
		if len(want) > 0 && !want[strings.ToLower(wf.Name)] && !want[strings.ToLower(wf.FamilyName())] {
			continue
		}
		out = append(out, wf)
	}
	return out
}

// DatabasePath is the SQLite file under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "gesturebench.db")
}

// ErrorLogPath is the CSV error log under the data directory.
func (c *Config) ErrorLogPath() string {
	return filepath.Join(c.DataDir, "error_log.csv")
}

// SummaryPath is the CSV summary sheet under the data directory.
func (c *Config) SummaryPath() string {
	return filepath.Join(c.DataDir, "user_performance.csv")
}

// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for driftline.
type Config struct {
	Session  string       `mapstructure:"session" yaml:"session"`
	Author   string       `mapstructure:"author" yaml:"author"`
	DataDir  string       `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel string       `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string       `mapstructure:"log_file" yaml:"log_file"`
	Scroll   ScrollConfig `mapstructure:"scroll" yaml:"scroll"`
}

// ScrollConfig holds the tuning knobs of the intelligent scroll coordinator.
// All durations are milliseconds; thresholds are in terminal lines.
type ScrollConfig struct {
	Intelligent           bool    `mapstructure:"intelligent" yaml:"intelligent"`
	IdleTimeoutMs         int     `mapstructure:"idle_timeout_ms" yaml:"idle_timeout_ms"`
	ActivityDebounceMs    int     `mapstructure:"activity_debounce_ms" yaml:"activity_debounce_ms"`
	AutoScrollDelayMs     int     `mapstructure:"auto_scroll_delay_ms" yaml:"auto_scroll_delay_ms"`
	GracefulReturnDelayMs int     `mapstructure:"graceful_return_delay_ms" yaml:"graceful_return_delay_ms"`
	NearBottomLines       int     `mapstructure:"near_bottom_lines" yaml:"near_bottom_lines"`
	VelocityThreshold     float64 `mapstructure:"velocity_threshold" yaml:"velocity_threshold"`
	GracefulReturn        string  `mapstructure:"graceful_return" yaml:"graceful_return"` // auto or indicator
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("driftline")

	v.SetDefault("session", "")
	v.SetDefault("author", defaultAuthor())
	v.SetDefault("data_dir", ".driftline")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("scroll.intelligent", true)
	v.SetDefault("scroll.idle_timeout_ms", 4000)
	v.SetDefault("scroll.activity_debounce_ms", 100)
	v.SetDefault("scroll.auto_scroll_delay_ms", 200)
	v.SetDefault("scroll.graceful_return_delay_ms", 1500)
	v.SetDefault("scroll.near_bottom_lines", 2)
	v.SetDefault("scroll.velocity_threshold", 6.0)
	v.SetDefault("scroll.graceful_return", "auto")

	// Setup ENV binding with DRIFTLINE_ prefix
	v.SetEnvPrefix("DRIFTLINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings for better bool/int parsing
	bindings := map[string]string{
		"session":                         "DRIFTLINE_SESSION",
		"author":                          "DRIFTLINE_AUTHOR",
		"data_dir":                        "DRIFTLINE_DATA_DIR",
		"log_level":                       "DRIFTLINE_LOG_LEVEL",
		"log_file":                        "DRIFTLINE_LOG_FILE",
		"scroll.intelligent":              "DRIFTLINE_SCROLL_INTELLIGENT",
		"scroll.idle_timeout_ms":          "DRIFTLINE_SCROLL_IDLE_TIMEOUT_MS",
		"scroll.activity_debounce_ms":     "DRIFTLINE_SCROLL_ACTIVITY_DEBOUNCE_MS",
		"scroll.auto_scroll_delay_ms":     "DRIFTLINE_SCROLL_AUTO_SCROLL_DELAY_MS",
		"scroll.graceful_return_delay_ms": "DRIFTLINE_SCROLL_GRACEFUL_RETURN_DELAY_MS",
		"scroll.near_bottom_lines":        "DRIFTLINE_SCROLL_NEAR_BOTTOM_LINES",
		"scroll.velocity_threshold":       "DRIFTLINE_SCROLL_VELOCITY_THRESHOLD",
		"scroll.graceful_return":          "DRIFTLINE_SCROLL_GRACEFUL_RETURN",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/driftline/driftline.yml or $XDG_CONFIG_HOME/driftline/driftline.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "driftline", "driftline.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "driftline", "driftline.yml")
}

// ProjectPath returns the project-local config path.
// Returns ./driftline.yml in the current working directory.
func ProjectPath() string {
	return "driftline.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	path := ProjectPath()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// defaultAuthor derives a display name for this client from the environment.
func defaultAuthor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	host, err := os.Hostname()
	if err != nil {
		return "driftline"
	}
	return host
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

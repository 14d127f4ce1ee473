package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
)

// DefaultConfigFile is the configuration file looked up when none is given.
const DefaultConfigFile = "staticrender.yaml"

// Config is the on-disk configuration: the primary build, the static render
// plugin options, and the ambient logging and watch settings.
type Config struct {
	Build        BuildConfig   `yaml:"build"`
	StaticRender Options       `yaml:"static_render"`
	Logging      LoggingConfig `yaml:"logging,omitempty"`
	Watch        WatchConfig   `yaml:"watch,omitempty"`
}

// WatchConfig controls the primary build's file watcher.
type WatchConfig struct {
	// Paths are watched recursively; defaults to the build context.
	Paths []string `yaml:"paths,omitempty"`
	// Debounce is a Go duration string ("250ms").
	Debounce string `yaml:"debounce,omitempty"`
	// Ignore holds directory names skipped while walking Paths.
	Ignore []string `yaml:"ignore,omitempty"`
}

// DebounceDuration parses Debounce, falling back to DefaultDebounce.
func (w WatchConfig) DebounceDuration() time.Duration {
	if d, err := time.ParseDuration(w.Debounce); err == nil && d > 0 {
		return d
	}
	return DefaultDebounce
}

// Load reads, normalizes, defaults and validates the configuration at
// configPath. Environment variables from .env files next to the config file
// are loaded first and ${VAR} references in the file are expanded.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, foundationerrors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
			WithContext("path", configPath).
			Build()
	}

	if envFile, err := loadEnvFiles(filepath.Dir(configPath)); err != nil {
		slog.Warn("Failed to load env file", slog.String("error", err.Error()))
	} else if envFile != "" {
		slog.Debug("Loaded environment variables", slog.String("path", envFile))
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	if err := applyDefaults(cfg, filepath.Dir(configPath)); err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes and normalizes YAML configuration without defaults or
// validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to unmarshal config").
			Fatal().
			UserAction().
			Build()
	}
	if err := NormalizeConfig(&cfg); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "normalize").
			Fatal().
			UserAction().
			Build()
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return foundationerrors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			Build()
	}

	data, err := yaml.Marshal(ExampleConfig())
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// ExampleConfig returns the configuration written by Init.
func ExampleConfig() *Config {
	return &Config{
		Build: BuildConfig{
			Entry:  NamedEntries().Add("main", "./src/index.jsx"),
			Target: TargetWeb,
			Mode:   "production",
			Output: OutputConfig{
				Path:     "./dist",
				Filename: "[name].js",
			},
			JSX: "automatic",
		},
		StaticRender: Options{
			Pages: map[string]PageDescriptor{
				"index": {Path: "/"},
				"about": {Path: "/about", Locals: map[string]any{"title": "About"}},
			},
			Entry: SinglePath("./src/static.jsx"),
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Watch: WatchConfig{
			Paths:    []string{"./src"},
			Debounce: DefaultDebounce.String(),
		},
	}
}

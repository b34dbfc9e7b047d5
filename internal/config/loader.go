package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.prhistory.yaml",               // Project-specific config (highest priority)
	"~/.config/prhistory/config.yaml", // User config
	"/etc/prhistory/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.prhistory.yaml
// 4. ~/.config/prhistory/config.yaml
// 5. /etc/prhistory/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// lowest priority first so later files win
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			expandedPath := expandPath(l.configPaths[i])
			if fileExists(expandedPath) {
				if err := l.loadFromFile(config, expandedPath); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", expandedPath, err)
				}
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file and merges it with existing config
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() before reaching here
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// booleans default to true need to know whether the key was present
	var present struct {
		Source struct {
			Watch *bool `yaml:"watch"`
		} `yaml:"source"`
		Output struct {
			Verbose *bool `yaml:"verbose"`
		} `yaml:"output"`
	}
	if err := yaml.Unmarshal(data, &present); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	mergeConfigs(config, &fileConfig)
	if present.Source.Watch != nil {
		config.Source.Watch = *present.Source.Watch
	}
	if present.Output.Verbose != nil {
		config.Output.Verbose = *present.Output.Verbose
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// Server Config
		"PRHISTORY_SERVER_BASE_URL":       func(v string) error { config.Server.BaseURL = v; return nil },
		"PRHISTORY_SERVER_HISTORY_PATH":   func(v string) error { config.Server.HistoryPath = v; return nil },
		"PRHISTORY_SERVER_TIMEOUT":        func(v string) error { return parseDuration(v, &config.Server.Timeout) },
		"PRHISTORY_SERVER_MAX_RETRIES":    func(v string) error { return parseInt(v, &config.Server.MaxRetries) },
		"PRHISTORY_SERVER_RETRY_DELAY":    func(v string) error { return parseDuration(v, &config.Server.RetryDelay) },
		"PRHISTORY_SERVER_SESSION_COOKIE": func(v string) error { config.Server.SessionCookie = v; return nil },

		// Source Config
		"PRHISTORY_SOURCE_FILE":     func(v string) error { config.Source.File = v; return nil },
		"PRHISTORY_SOURCE_WATCH":    func(v string) error { return parseBool(v, &config.Source.Watch) },
		"PRHISTORY_SOURCE_DEBOUNCE": func(v string) error { return parseDuration(v, &config.Source.Debounce) },

		// Output Config
		"PRHISTORY_OUTPUT_DEFAULT_FORMAT": func(v string) error { config.Output.DefaultFormat = v; return nil },
		"PRHISTORY_OUTPUT_COLOR_MODE":     func(v string) error { config.Output.ColorMode = v; return nil },
		"PRHISTORY_OUTPUT_VERBOSE":        func(v string) error { return parseBool(v, &config.Output.Verbose) },

		// UI Config
		"PRHISTORY_UI_THEME": func(v string) error { config.UI.Theme = v; return nil },
	}

	for envVar, setter := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	// comma-separated Name=Value pairs
	if headers := os.Getenv("PRHISTORY_SERVER_HEADERS"); headers != "" {
		if config.Server.Headers == nil {
			config.Server.Headers = make(map[string]string)
		}
		for _, pair := range strings.Split(headers, ",") {
			name, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid value for PRHISTORY_SERVER_HEADERS: %q is not Name=Value", pair)
			}
			config.Server.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if strings.HasPrefix(absPath, "/proc/") || strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// mergeConfigs merges source config into destination config.
// Only non-zero values from source overwrite destination.
func mergeConfigs(dst, src *Config) {
	if src.Version != "" {
		dst.Version = src.Version
	}

	mergeServerConfig(&dst.Server, &src.Server)
	mergeSourceConfig(&dst.Source, &src.Source)
	mergeOutputConfig(&dst.Output, &src.Output)
	if src.UI.Theme != "" {
		dst.UI.Theme = src.UI.Theme
	}
}

func mergeServerConfig(dst, src *ServerConfig) {
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.HistoryPath != "" {
		dst.HistoryPath = src.HistoryPath
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
	if src.MaxRetries != 0 {
		dst.MaxRetries = src.MaxRetries
	}
	if src.RetryDelay != 0 {
		dst.RetryDelay = src.RetryDelay
	}
	if src.SessionCookie != "" {
		dst.SessionCookie = src.SessionCookie
	}
	if len(src.Headers) > 0 {
		if dst.Headers == nil {
			dst.Headers = make(map[string]string)
		}
		for k, v := range src.Headers {
			dst.Headers[k] = v
		}
	}
}

func mergeSourceConfig(dst, src *SourceConfig) {
	if src.File != "" {
		dst.File = src.File
	}
	if src.Debounce != 0 {
		dst.Debounce = src.Debounce
	}
}

func mergeOutputConfig(dst, src *OutputConfig) {
	if src.DefaultFormat != "" {
		dst.DefaultFormat = src.DefaultFormat
	}
	if src.ColorMode != "" {
		dst.ColorMode = src.ColorMode
	}
}

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
